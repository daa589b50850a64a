package intent

import (
	"regexp"
	"strings"
)

// transactionRe matches "<category words> <payment method> <amount>".
var transactionRe = regexp.MustCompile(`(?i)^\S+(?:\s+\S+)*\s+(?:pix|d[eé]bito|cr[eé]dito|vr)\s+\d+(?:[.,]\d+)*$`)

// Rule is one classification predicate. Match receives the trimmed text and
// its lowercase form.
type Rule struct {
	Name  string
	Kind  Kind
	Match func(trimmed, lower string) bool
}

// Rules are evaluated in order; the first match wins.
var Rules = []Rule{
	{
		Name:  "reset",
		Kind:  Reset,
		Match: func(_, lower string) bool { return lower == "reset" },
	},
	{
		Name:  "transaction",
		Kind:  RegisterTransaction,
		Match: func(trimmed, _ string) bool { return transactionRe.MatchString(trimmed) },
	},
	{
		Name: "monthly_report",
		Kind: MonthlyReport,
		Match: func(_, lower string) bool {
			return strings.Contains(lower, "relatório mês") || strings.Contains(lower, "relatorio mes")
		},
	},
	{
		Name:  "category_report",
		Kind:  CategoryReport,
		Match: func(_, lower string) bool { return strings.Contains(lower, "gastos por categoria") },
	},
	{
		Name:  "balance",
		Kind:  Balance,
		Match: func(_, lower string) bool { return lower == "saldo" },
	},
}

// Classify returns the intent of text. Anything no rule matches is a help request.
func Classify(text string) Intent {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, r := range Rules {
		if !r.Match(trimmed, lower) {
			continue
		}
		in := Intent{Kind: r.Kind}
		if r.Kind == RegisterTransaction {
			in.RawText = text
		}
		return in
	}
	return Intent{Kind: HelpOrUnknown}
}
