package whatsapp_bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/jdelaire/gastobot/core"
)

const (
	DefaultURL = "ws://localhost:3000/ws"

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	reconnectBackoff = 5 * time.Second

	statusBroadcast = "status@broadcast"
)

var errNotConnected = errors.New("whatsapp bridge not connected")

// event is an inbound frame from the bridge. A chat different from the
// sender is a group conversation.
type event struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	Chat     string `json:"chat"`
	Content  string `json:"content"`
}

// command is an outbound frame to the bridge.
type command struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// Bridge connects to a WhatsApp web bridge over a websocket. It receives
// chat messages and sends replies on the same connection.
type Bridge struct {
	url     string
	handler core.MessageHandler
	logger  *slog.Logger
	dialer  *websocket.Dialer
	backoff time.Duration

	mu   sync.Mutex // guards conn and serializes writes
	conn *websocket.Conn
}

// New creates a bridge client that delivers inbound messages to handler.
func New(url string, handler core.MessageHandler, logger *slog.Logger) *Bridge {
	if url == "" {
		url = DefaultURL
	}
	return &Bridge{
		url:     url,
		handler: handler,
		logger:  logger,
		dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		backoff: reconnectBackoff,
	}
}

// WithBackoff overrides the reconnect delay (for testing).
func (b *Bridge) WithBackoff(d time.Duration) *Bridge {
	b.backoff = d
	return b
}

func (b *Bridge) Name() string { return "whatsapp" }

// Connect dials the bridge. Start calls it when needed; calling it first
// surfaces a bad URL or unreachable bridge at startup.
func (b *Bridge) Connect(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial whatsapp bridge %s: %w", b.url, err)
	}

	b.mu.Lock()
	old := b.conn
	b.conn = conn
	b.mu.Unlock()

	if old != nil {
		old.Close()
	}
	b.logger.Info("whatsapp bridge connected", "url", b.url)
	return nil
}

// Start reads messages until ctx is cancelled, reconnecting after errors.
// Cancelling ctx stops reading but keeps the connection open for Send
// until Close.
func (b *Bridge) Start(ctx context.Context) error {
	b.logger.Info("whatsapp receiver started")

	stop := context.AfterFunc(ctx, b.interruptRead)
	defer stop()

	for {
		if ctx.Err() != nil {
			b.logger.Info("whatsapp receiver stopped")
			return nil
		}

		conn := b.current()
		if conn == nil {
			if err := b.Connect(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				b.logger.Error("connect error", "error", err)
				b.wait(ctx)
			}
			continue
		}

		if err := b.readLoop(conn); err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.logger.Error("read error", "error", err)
			b.drop(conn)
			b.wait(ctx)
		}
	}
}

func (b *Bridge) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			b.logger.Warn("invalid bridge frame", "error", err)
			continue
		}

		msg, ok := toInbound(ev)
		if !ok {
			continue
		}
		b.logger.Debug("whatsapp message", "id", msg.ID, "from", msg.SenderID, "name", ev.FromName, "group", msg.IsGroup)
		b.handler(msg)
	}
}

func toInbound(ev event) (core.InboundMessage, bool) {
	if ev.Type != "message" || ev.From == "" || strings.TrimSpace(ev.Content) == "" {
		return core.InboundMessage{}, false
	}
	if ev.From == statusBroadcast || ev.Chat == statusBroadcast {
		return core.InboundMessage{}, false
	}

	chat := ev.Chat
	if chat == "" {
		chat = ev.From
	}

	return core.InboundMessage{
		ID:        ev.ID,
		SenderID:  ev.From,
		ChatID:    chat,
		Text:      ev.Content,
		IsGroup:   chat != ev.From,
		Timestamp: time.Now(),
	}, true
}

// Send writes a reply to the bridge.
func (b *Bridge) Send(ctx context.Context, r core.Reply) error {
	data, err := json.Marshal(command{
		Type:    "message",
		To:      r.Recipient,
		Content: r.Text,
	})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return errNotConnected
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}
	b.conn.SetWriteDeadline(deadline)

	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}

func (b *Bridge) current() *websocket.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

// drop closes conn if it is still the active connection.
func (b *Bridge) drop(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
	conn.Close()
}

// interruptRead unblocks a pending ReadMessage without closing the socket.
func (b *Bridge) interruptRead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.SetReadDeadline(time.Now())
	}
}

// Close closes the connection. Send fails afterwards.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (b *Bridge) wait(ctx context.Context) {
	select {
	case <-time.After(b.backoff):
	case <-ctx.Done():
	}
}
