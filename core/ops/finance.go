package ops

import (
	"context"

	"github.com/jdelaire/gastobot/core/format"
	"github.com/jdelaire/gastobot/core/intent"
)

// RegisterOp records an expense or income.
type RegisterOp struct {
	Backend Backend
}

func (o *RegisterOp) Kind() intent.Kind { return intent.RegisterTransaction }
func (o *RegisterOp) Usage() string {
	return "Registrar gasto/ganho: <categoria> <pix|débito|crédito|vr> <valor> (ex: comida vr 45,90)"
}
func (o *RegisterOp) FailureText() string { return "Erro ao registrar gasto/ganho." }

func (o *RegisterOp) Execute(ctx context.Context, req Request) (string, error) {
	return o.Backend.Register(ctx, req.SenderID, req.Intent.RawText)
}

// MonthlyReportOp shows the current month's totals.
type MonthlyReportOp struct {
	Backend Backend
}

func (o *MonthlyReportOp) Kind() intent.Kind   { return intent.MonthlyReport }
func (o *MonthlyReportOp) Usage() string       { return "Relatório mês" }
func (o *MonthlyReportOp) FailureText() string { return "Erro ao gerar relatório mensal." }

func (o *MonthlyReportOp) Execute(ctx context.Context, req Request) (string, error) {
	m, err := o.Backend.MonthlyReport(ctx, req.SenderID)
	if err != nil {
		return "", err
	}
	return format.MonthlyReport(m), nil
}

// CategoryReportOp shows expenses grouped by category.
type CategoryReportOp struct {
	Backend Backend
}

func (o *CategoryReportOp) Kind() intent.Kind   { return intent.CategoryReport }
func (o *CategoryReportOp) Usage() string       { return "Gastos por categoria" }
func (o *CategoryReportOp) FailureText() string { return "Erro ao gerar relatório por categoria." }

func (o *CategoryReportOp) Execute(ctx context.Context, req Request) (string, error) {
	c, err := o.Backend.CategoryReport(ctx, req.SenderID)
	if err != nil {
		return "", err
	}
	return format.CategoryReport(c), nil
}

// BalanceOp shows the per payment method balances.
type BalanceOp struct {
	Backend Backend
}

func (o *BalanceOp) Kind() intent.Kind   { return intent.Balance }
func (o *BalanceOp) Usage() string       { return "Saldo" }
func (o *BalanceOp) FailureText() string { return "Erro ao consultar saldo." }

func (o *BalanceOp) Execute(ctx context.Context, req Request) (string, error) {
	w, err := o.Backend.Balance(ctx, req.SenderID)
	if err != nil {
		return "", err
	}
	return format.WalletReport(w), nil
}

// ResetOp deletes all of the sender's data.
type ResetOp struct {
	Backend Backend
}

func (o *ResetOp) Kind() intent.Kind   { return intent.Reset }
func (o *ResetOp) Usage() string       { return "Reset (apaga todos os seus dados)" }
func (o *ResetOp) FailureText() string { return "Erro ao resetar seus dados." }

func (o *ResetOp) Execute(ctx context.Context, req Request) (string, error) {
	return o.Backend.Reset(ctx, req.SenderID)
}

// RegisterDefaults registers every finance op plus help on reg.
func RegisterDefaults(reg *Registry, backend Backend) error {
	all := []Op{
		&RegisterOp{Backend: backend},
		&MonthlyReportOp{Backend: backend},
		&CategoryReportOp{Backend: backend},
		&BalanceOp{Backend: backend},
		&ResetOp{Backend: backend},
		&HelpOp{Registry: reg},
	}
	for _, op := range all {
		if err := reg.Register(op); err != nil {
			return err
		}
	}
	return nil
}
