package ops

import (
	"context"
	"strings"

	"github.com/jdelaire/gastobot/core/intent"
)

// HelpOp lists the usage of all registered operations. It also answers
// messages no rule recognized.
type HelpOp struct {
	Registry *Registry
}

func (h *HelpOp) Kind() intent.Kind   { return intent.HelpOrUnknown }
func (h *HelpOp) Usage() string       { return "" }
func (h *HelpOp) FailureText() string { return "Não foi possível listar os comandos." }

func (h *HelpOp) Execute(_ context.Context, _ Request) (string, error) {
	var b strings.Builder
	b.WriteString("Comandos disponíveis:")
	for _, op := range h.Registry.List() {
		if u := op.Usage(); u != "" {
			b.WriteString("\n- ")
			b.WriteString(u)
		}
	}
	return b.String(), nil
}
