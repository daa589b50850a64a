package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jdelaire/gastobot/core/finance"
	"github.com/jdelaire/gastobot/core/ops"
	"github.com/jdelaire/gastobot/core/policy"
)

// --- test helpers ---

type spyNotifier struct {
	mu   sync.Mutex
	sent []Reply
	err  error
}

func (s *spyNotifier) Name() string { return "spy" }
func (s *spyNotifier) Send(_ context.Context, r Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, r)
	return s.err
}
func (s *spyNotifier) last() Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return Reply{}
	}
	return s.sent[len(s.sent)-1]
}
func (s *spyNotifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubBackend struct {
	mu    sync.Mutex
	calls []string
	err   error
	text  string
	panic bool
}

func (b *stubBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *stubBackend) Register(_ context.Context, userID, text string) (string, error) {
	b.record("register " + userID + " " + text)
	if b.panic {
		panic("boom")
	}
	return b.text, b.err
}

func (b *stubBackend) MonthlyReport(_ context.Context, userID string) (finance.MonthlyTotals, error) {
	b.record("monthly " + userID)
	return finance.MonthlyTotals{
		Earnings: decimal.RequireFromString("1500.5"),
		Expenses: decimal.RequireFromString("320.25"),
		Balance:  decimal.RequireFromString("1180.25"),
	}, b.err
}

func (b *stubBackend) CategoryReport(_ context.Context, userID string) (finance.CategoryTotals, error) {
	b.record("categories " + userID)
	return finance.CategoryTotals{{Category: "comida", Amount: decimal.NewFromInt(10)}}, b.err
}

func (b *stubBackend) Balance(_ context.Context, userID string) (finance.WalletBalances, error) {
	b.record("balance " + userID)
	return finance.WalletBalances{}, b.err
}

func (b *stubBackend) Reset(_ context.Context, userID string) (string, error) {
	b.record("reset " + userID)
	return b.text, b.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const authorizedSender = "5511999990000@c.us"

func newTestRouter(spy *spyNotifier, backend ops.Backend) *Router {
	pol := policy.New([]string{authorizedSender})
	reg := ops.NewRegistry()
	ops.RegisterDefaults(reg, backend)
	return NewRouter(pol, reg, spy, testLogger())
}

func validMsg(text string) InboundMessage {
	return InboundMessage{
		ID:        "msg-1",
		SenderID:  authorizedSender,
		ChatID:    authorizedSender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// --- tests ---

func TestRouteRegisterTransaction(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{text: "Gasto registrado"}
	r := newTestRouter(spy, backend)

	r.Handle(context.Background(), validMsg("comida vr 45,90"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if got := spy.last().Text; got != "Gasto registrado" {
		t.Errorf("text = %q, want %q", got, "Gasto registrado")
	}
	if got := spy.last().Recipient; got != authorizedSender {
		t.Errorf("recipient = %q, want %q", got, authorizedSender)
	}
	want := "register " + authorizedSender + " comida vr 45,90"
	if len(backend.calls) != 1 || backend.calls[0] != want {
		t.Errorf("backend calls = %v, want [%q]", backend.calls, want)
	}
}

func TestRouteMonthlyReport(t *testing.T) {
	spy := &spyNotifier{}
	r := newTestRouter(spy, &stubBackend{})

	r.Handle(context.Background(), validMsg("relatório mês"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	for _, want := range []string{"1500.50", "320.25", "1180.25"} {
		if !strings.Contains(spy.last().Text, want) {
			t.Errorf("text = %q, missing %q", spy.last().Text, want)
		}
	}
}

func TestRouteUnauthorizedSender(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{text: "ok"}
	r := newTestRouter(spy, backend)

	msg := validMsg("saldo")
	msg.SenderID = "5511000000000@c.us"
	msg.ChatID = msg.SenderID

	r.Handle(context.Background(), msg)

	if spy.count() != 1 {
		t.Fatalf("sent %d for unauthorized sender, want 1", spy.count())
	}
	if spy.last().Text != unauthorizedText {
		t.Errorf("text = %q, want unauthorized text", spy.last().Text)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for unauthorized sender", backend.callCount())
	}
}

func TestRouteGroupMessageIgnored(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{text: "ok"}
	r := newTestRouter(spy, backend)

	for _, sender := range []string{authorizedSender, "stranger@c.us"} {
		msg := validMsg("saldo")
		msg.SenderID = sender
		msg.ChatID = "12036302@g.us"
		msg.IsGroup = true
		r.Handle(context.Background(), msg)
	}

	if spy.count() != 0 {
		t.Errorf("sent %d for group messages, want 0", spy.count())
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times for group messages", backend.callCount())
	}
}

func TestRouteBalanceFailure(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{err: context.DeadlineExceeded}
	r := newTestRouter(spy, backend)

	r.Handle(context.Background(), validMsg("saldo"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if got := spy.last().Text; got != "Erro ao consultar saldo." {
		t.Errorf("text = %q, want balance error text", got)
	}
	if backend.callCount() != 1 {
		t.Errorf("backend calls = %d, want 1 (no retry)", backend.callCount())
	}
}

func TestRouteFailureTextPerIntent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"comida vr 45,90", "Erro ao registrar gasto/ganho."},
		{"relatorio mes", "Erro ao gerar relatório mensal."},
		{"gastos por categoria", "Erro ao gerar relatório por categoria."},
		{"saldo", "Erro ao consultar saldo."},
		{"reset", "Erro ao resetar seus dados."},
	}

	for _, tt := range tests {
		spy := &spyNotifier{}
		r := newTestRouter(spy, &stubBackend{err: errors.New("backend down")})

		r.Handle(context.Background(), validMsg(tt.text))

		if spy.count() != 1 {
			t.Fatalf("%q: sent %d, want 1", tt.text, spy.count())
		}
		if got := spy.last().Text; got != tt.want {
			t.Errorf("%q: text = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRouteResetSingleReply(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{text: "Seus dados foram apagados."}
	r := newTestRouter(spy, backend)

	r.Handle(context.Background(), validMsg("  Reset "))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if backend.callCount() != 1 || backend.calls[0] != "reset "+authorizedSender {
		t.Errorf("backend calls = %v", backend.calls)
	}
}

func TestRouteUnknownTextGetsHelp(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{}
	r := newTestRouter(spy, backend)

	r.Handle(context.Background(), validMsg("xyz not a command"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if !strings.HasPrefix(spy.last().Text, "Comandos disponíveis:") {
		t.Errorf("text = %q, want help", spy.last().Text)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called for help")
	}
}

func TestRouteDashWithoutPaymentMethodGetsHelp(t *testing.T) {
	spy := &spyNotifier{}
	backend := &stubBackend{}
	r := newTestRouter(spy, backend)

	r.Handle(context.Background(), validMsg("comida - 45,90"))

	if backend.callCount() != 0 {
		t.Errorf("backend calls = %v, want none", backend.calls)
	}
	if !strings.HasPrefix(spy.last().Text, "Comandos disponíveis:") {
		t.Errorf("text = %q, want help", spy.last().Text)
	}
}

func TestRouteOpPanicBecomesFailure(t *testing.T) {
	spy := &spyNotifier{}
	r := newTestRouter(spy, &stubBackend{panic: true})

	r.Handle(context.Background(), validMsg("comida vr 45,90"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if got := spy.last().Text; got != "Erro ao registrar gasto/ganho." {
		t.Errorf("text = %q, want register error text", got)
	}
}

func TestRouteSendErrorDoesNotPanic(t *testing.T) {
	spy := &spyNotifier{err: errors.New("transport down")}
	r := newTestRouter(spy, &stubBackend{text: "ok"})

	r.Handle(context.Background(), validMsg("saldo"))

	if spy.count() != 1 {
		t.Errorf("send attempts = %d, want 1", spy.count())
	}
}

func TestRouteCancelledContextStillReplies(t *testing.T) {
	spy := &spyNotifier{}
	r := newTestRouter(spy, &stubBackend{text: "ok"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Handle(ctx, validMsg("comida pix 10"))

	if spy.count() != 1 || spy.last().Text != "ok" {
		t.Errorf("sent %v, want one ok reply", spy.sent)
	}
}

func TestRouteEmptyRegistryFallsBack(t *testing.T) {
	spy := &spyNotifier{}
	r := NewRouter(policy.New([]string{authorizedSender}), ops.NewRegistry(), spy, testLogger())

	r.Handle(context.Background(), validMsg("saldo"))

	if spy.count() != 1 || spy.last().Text != fallbackHelpText {
		t.Errorf("sent %v, want fallback text", spy.sent)
	}
}

func TestRouteExactlyOneReplyPerMessage(t *testing.T) {
	texts := []string{
		"reset", "comida vr 45,90", "relatório mês", "gastos por categoria",
		"saldo", "oi", "", "- - -",
	}
	for _, failing := range []bool{false, true} {
		for _, text := range texts {
			spy := &spyNotifier{}
			backend := &stubBackend{text: "ok"}
			if failing {
				backend.err = errors.New("fail")
			}
			r := newTestRouter(spy, backend)

			r.Handle(context.Background(), validMsg(text))

			if spy.count() != 1 {
				t.Errorf("text %q (failing=%v): sent %d, want 1", text, failing, spy.count())
			}
		}
	}
}

func TestRouteUsesReplyTimeout(t *testing.T) {
	var deadline time.Time
	n := notifierFunc(func(ctx context.Context, _ Reply) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	r := NewRouter(policy.New([]string{authorizedSender}), ops.NewRegistry(), n, testLogger()).
		WithReplyTimeout(time.Minute)

	r.Handle(context.Background(), validMsg("oi"))

	if until := time.Until(deadline); until < 50*time.Second {
		t.Errorf("reply deadline in %v, want about 1m", until)
	}
}

type notifierFunc func(ctx context.Context, r Reply) error

func (f notifierFunc) Name() string                          { return "func" }
func (f notifierFunc) Send(ctx context.Context, r Reply) error { return f(ctx, r) }
