package core

import "context"

// Notifier delivers replies to the chat transport.
type Notifier interface {
	Name() string
	Send(ctx context.Context, r Reply) error
}
