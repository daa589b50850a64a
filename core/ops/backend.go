package ops

import (
	"context"

	"github.com/jdelaire/gastobot/core/finance"
)

// Backend is the finance service the ops call. Any error means the call failed.
type Backend interface {
	Register(ctx context.Context, userID, text string) (string, error)
	MonthlyReport(ctx context.Context, userID string) (finance.MonthlyTotals, error)
	CategoryReport(ctx context.Context, userID string) (finance.CategoryTotals, error)
	Balance(ctx context.Context, userID string) (finance.WalletBalances, error)
	Reset(ctx context.Context, userID string) (string, error)
}
