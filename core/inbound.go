package core

import "time"

// InboundMessage represents a chat message received from the transport.
type InboundMessage struct {
	ID        string
	SenderID  string
	ChatID    string
	Text      string
	IsGroup   bool
	Timestamp time.Time
}

// ReplyTo returns the chat that should receive the reply.
func (m InboundMessage) ReplyTo() string {
	if m.ChatID != "" {
		return m.ChatID
	}
	return m.SenderID
}

// MessageHandler processes an inbound message.
type MessageHandler func(msg InboundMessage)
