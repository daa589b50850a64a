package ops

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jdelaire/gastobot/core/intent"
)

// Request is the input of one op execution.
type Request struct {
	SenderID string
	Intent   intent.Intent
}

// Op handles one intent kind.
type Op interface {
	Kind() intent.Kind
	// Usage is the help line for the op, or "" to leave it out of help.
	Usage() string
	// FailureText is the fixed reply sent when Execute fails.
	FailureText() string
	Execute(ctx context.Context, req Request) (string, error)
}

// Registry holds registered operations keyed by intent kind.
type Registry struct {
	mu  sync.RWMutex
	ops map[intent.Kind]Op
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[intent.Kind]Op)}
}

// Register adds an operation. Returns an error if the kind is already registered.
func (r *Registry) Register(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := op.Kind()
	if _, exists := r.ops[kind]; exists {
		return fmt.Errorf("op already registered: %s", kind)
	}
	r.ops[kind] = op
	return nil
}

// Get returns the operation for the given kind, or nil if not found.
func (r *Registry) Get(kind intent.Kind) Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ops[kind]
}

// List returns all registered operations ordered by kind.
func (r *Registry) List() []Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]intent.Kind, 0, len(r.ops))
	for k := range r.ops {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	result := make([]Op, len(kinds))
	for i, k := range kinds {
		result[i] = r.ops[k]
	}
	return result
}
