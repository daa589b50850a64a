package backend

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/jdelaire/gastobot/core/finance"
)

func parseRoot(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected object", ErrMalformed)
	}
	return root, nil
}

func amount(r gjson.Result, field string) (decimal.Decimal, error) {
	if r.Type != gjson.Number {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not a number", ErrMalformed, field)
	}
	d, err := decimal.NewFromString(r.Raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return d, nil
}

func parseMessage(body []byte) (string, error) {
	root, err := parseRoot(body)
	if err != nil {
		return "", err
	}
	r := root.Get("resposta")
	if r.Type != gjson.String || r.String() == "" {
		return "", fmt.Errorf("%w: missing resposta", ErrMalformed)
	}
	return r.String(), nil
}

func parseMonthly(body []byte) (finance.MonthlyTotals, error) {
	root, err := parseRoot(body)
	if err != nil {
		return finance.MonthlyTotals{}, err
	}

	var m finance.MonthlyTotals
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"ganhos", &m.Earnings},
		{"gastos", &m.Expenses},
		{"saldo", &m.Balance},
	}
	for _, f := range fields {
		d, err := amount(root.Get(f.name), f.name)
		if err != nil {
			return finance.MonthlyTotals{}, err
		}
		*f.dst = d
	}
	return m, nil
}

// parseCategories keeps the key order of the response object.
func parseCategories(body []byte) (finance.CategoryTotals, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}

	totals := finance.CategoryTotals{}
	root.ForEach(func(key, value gjson.Result) bool {
		var d decimal.Decimal
		d, err = amount(value, key.String())
		if err != nil {
			return false
		}
		totals = append(totals, finance.CategoryAmount{Category: key.String(), Amount: d})
		return true
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func parseWallets(body []byte) (finance.WalletBalances, error) {
	root, err := parseRoot(body)
	if err != nil {
		return finance.WalletBalances{}, err
	}
	saldos := root.Get("saldos")
	if !saldos.IsObject() {
		return finance.WalletBalances{}, fmt.Errorf("%w: missing saldos", ErrMalformed)
	}

	var w finance.WalletBalances
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"debito", &w.Debit},
		{"credito", &w.Credit},
		{"vr", &w.Voucher},
	}
	for _, f := range fields {
		d, err := amount(saldos.Get(f.name), f.name)
		if err != nil {
			return finance.WalletBalances{}, err
		}
		*f.dst = d
	}
	return w, nil
}
