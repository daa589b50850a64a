package core

import "time"

// Reply is an outbound text addressed to a single chat.
type Reply struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
