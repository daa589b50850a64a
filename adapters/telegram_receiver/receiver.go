package telegram_receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jdelaire/gastobot/core"
)

const (
	defaultBaseURL  = "https://api.telegram.org"
	longPollTimeout = 30
	httpTimeout     = 35 * time.Second
	errorBackoff    = 5 * time.Second
)

type apiResponse struct {
	OK          bool     `json:"ok"`
	ErrorCode   int      `json:"error_code"`
	Description string   `json:"description"`
	Parameters  *params  `json:"parameters"`
	Result      []update `json:"result"`
}

type params struct {
	RetryAfter int `json:"retry_after"`
}

// update carries only plain messages; edits and channel posts arrive under
// other keys and decode as a nil Message.
type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	MessageID  int64  `json:"message_id"`
	From       *user  `json:"from"`
	SenderChat *chat  `json:"sender_chat"`
	Chat       chat   `json:"chat"`
	Date       int64  `json:"date"`
	Text       string `json:"text"`
}

type user struct {
	ID    int64 `json:"id"`
	IsBot bool  `json:"is_bot"`
}

type chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// apiError is a getUpdates failure reported by the Bot API.
type apiError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Receiver long-polls Telegram for chat messages and hands the ones a
// person typed to the handler. Group and supergroup chats are flagged so
// the router can ignore them.
type Receiver struct {
	botToken string
	botID    int64
	handler  core.MessageHandler
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	backoff  time.Duration
	offset   int64
}

// New creates a Telegram receiver. The bot's own user ID is taken from the
// numeric prefix of the token.
func New(botToken string, handler core.MessageHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		botToken: botToken,
		botID:    botIDFromToken(botToken),
		handler:  handler,
		logger:   logger,
		client:   &http.Client{Timeout: httpTimeout},
		baseURL:  defaultBaseURL,
		backoff:  errorBackoff,
	}
}

// WithBaseURL overrides the Telegram API base URL (for testing).
func (r *Receiver) WithBaseURL(url string) *Receiver {
	r.baseURL = url
	return r
}

// WithBackoff overrides the delay after a failed poll (for testing).
func (r *Receiver) WithBackoff(d time.Duration) *Receiver {
	r.backoff = d
	return r
}

// Start polls until ctx is cancelled. Poll failures are logged and retried.
func (r *Receiver) Start(ctx context.Context) error {
	r.logger.Info("telegram receiver started")
	defer r.logger.Info("telegram receiver stopped")

	for ctx.Err() == nil {
		updates, err := r.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error("poll error", "error", err)
			r.wait(ctx, r.retryDelay(err))
			continue
		}

		for _, u := range updates {
			r.offset = u.UpdateID + 1
			msg, ok := toInbound(u, r.botID)
			if !ok {
				r.logger.Debug("skipping update", "update", u.UpdateID)
				continue
			}
			r.handler(msg)
		}
	}
	return nil
}

// toInbound maps an update to an inbound message. Edits, channel posts,
// messages sent on behalf of a chat, bot messages (including our own) and
// messages without text are dropped.
func toInbound(u update, botID int64) (core.InboundMessage, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.SenderChat != nil {
		return core.InboundMessage{}, false
	}
	if m.From.IsBot || (botID != 0 && m.From.ID == botID) {
		return core.InboundMessage{}, false
	}
	if m.Chat.Type == "channel" || strings.TrimSpace(m.Text) == "" {
		return core.InboundMessage{}, false
	}

	chatID := strconv.FormatInt(m.Chat.ID, 10)
	return core.InboundMessage{
		ID:        chatID + ":" + strconv.FormatInt(m.MessageID, 10),
		SenderID:  strconv.FormatInt(m.From.ID, 10),
		ChatID:    chatID,
		Text:      m.Text,
		IsGroup:   m.Chat.Type == "group" || m.Chat.Type == "supergroup",
		Timestamp: time.Unix(m.Date, 0),
	}, true
}

func (r *Receiver) poll(ctx context.Context) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(r.offset, 10))
	q.Set("timeout", strconv.Itoa(longPollTimeout))
	q.Set("allowed_updates", `["message"]`)
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", r.baseURL, r.botToken, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("api status: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !apiResp.OK {
		e := &apiError{Code: apiResp.ErrorCode, Description: apiResp.Description}
		if e.Code == 0 {
			e.Code = resp.StatusCode
		}
		if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
			e.RetryAfter = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
		}
		return nil, e
	}

	return apiResp.Result, nil
}

// retryDelay honours the flood-control delay Telegram asks for.
func (r *Receiver) retryDelay(err error) time.Duration {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > r.backoff {
		return apiErr.RetryAfter
	}
	return r.backoff
}

func (r *Receiver) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func botIDFromToken(token string) int64 {
	prefix, _, ok := strings.Cut(token, ":")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
