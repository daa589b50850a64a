package backend

import (
	"context"
	"net/http"

	"github.com/jdelaire/gastobot/core/finance"
)

type registerRequest struct {
	Texto     string `json:"texto"`
	UsuarioID string `json:"usuario_id"`
}

// Register sends a raw transaction message for the backend to parse and store.
// It returns the backend's confirmation text.
func (c *Client) Register(ctx context.Context, userID, text string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/processar", nil, registerRequest{
		Texto:     text,
		UsuarioID: userID,
	})
	if err != nil {
		return "", err
	}
	return parseMessage(body)
}

// MonthlyReport fetches the current month's totals.
func (c *Client) MonthlyReport(ctx context.Context, userID string) (finance.MonthlyTotals, error) {
	body, err := c.do(ctx, http.MethodGet, "/relatorio/mensal", userQuery(userID), nil)
	if err != nil {
		return finance.MonthlyTotals{}, err
	}
	return parseMonthly(body)
}

// CategoryReport fetches expense totals per category.
func (c *Client) CategoryReport(ctx context.Context, userID string) (finance.CategoryTotals, error) {
	body, err := c.do(ctx, http.MethodGet, "/relatorio/categorias", userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	return parseCategories(body)
}

// Balance fetches the per payment method balances.
func (c *Client) Balance(ctx context.Context, userID string) (finance.WalletBalances, error) {
	body, err := c.do(ctx, http.MethodGet, "/saldo", userQuery(userID), nil)
	if err != nil {
		return finance.WalletBalances{}, err
	}
	return parseWallets(body)
}

// Reset deletes all of the user's data on the backend.
func (c *Client) Reset(ctx context.Context, userID string) (string, error) {
	body, err := c.do(ctx, http.MethodDelete, "/reset_usuario", userQuery(userID), nil)
	if err != nil {
		return "", err
	}
	return parseMessage(body)
}
