package core

import "context"

// Receiver reads inbound messages from the chat transport until ctx is done.
type Receiver interface {
	Start(ctx context.Context) error
}
