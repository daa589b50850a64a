package core

import (
	"context"
	"sync"
)

const DefaultQueueSize = 100

// Queue buffers inbound messages between transports and the single
// consumer that handles them one at a time.
type Queue struct {
	mu     sync.RWMutex
	ch     chan InboundMessage
	closed bool
}

// NewQueue creates a queue holding up to size pending messages.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan InboundMessage, size)}
}

// Publish enqueues msg, blocking while the queue is full. It returns false
// if the queue is closed or ctx is done first.
func (q *Queue) Publish(ctx context.Context, msg InboundMessage) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Handler adapts the queue to transports that deliver through a callback.
func (q *Queue) Handler(ctx context.Context) MessageHandler {
	return func(msg InboundMessage) {
		q.Publish(ctx, msg)
	}
}

// Run hands every message to handle, finishing each before taking the next.
// It returns after Close once the remaining messages are drained.
func (q *Queue) Run(ctx context.Context, handle func(context.Context, InboundMessage)) {
	for msg := range q.ch {
		handle(ctx, msg)
	}
}

// Close stops accepting messages. Pending messages are still delivered to Run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
