// Package format renders finance payloads as chat text.
//
// Amounts always carry exactly two decimal places, rounded half away from
// zero. Negative amounts put the minus sign before the currency marker,
// e.g. "-R$ 12.50".
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jdelaire/gastobot/core/finance"
)

const currency = "R$"

// Money renders an amount with the currency marker and two decimals.
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return "-" + currency + " " + d.Neg().StringFixed(2)
	}
	return currency + " " + d.StringFixed(2)
}

// MonthlyReport renders the monthly totals.
func MonthlyReport(m finance.MonthlyTotals) string {
	return fmt.Sprintf("📊 Relatório do Mês:\n- Ganhos: %s\n- Gastos: %s\n- Saldo: %s",
		Money(m.Earnings), Money(m.Expenses), Money(m.Balance))
}

// CategoryReport renders one line per category in the given order.
func CategoryReport(c finance.CategoryTotals) string {
	var b strings.Builder
	b.WriteString("📊 Gastos por Categoria:\n")
	if len(c) == 0 {
		b.WriteString("- Nenhum gasto registrado.")
		return b.String()
	}
	for i, ca := range c {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", ca.Category, Money(ca.Amount))
	}
	return b.String()
}

// WalletReport renders the per payment method balances.
func WalletReport(w finance.WalletBalances) string {
	return fmt.Sprintf("💳 Saldos:\n- Débito/Pix: %s\n- Crédito: %s\n- VR: %s",
		Money(w.Debit), Money(w.Credit), Money(w.Voucher))
}
