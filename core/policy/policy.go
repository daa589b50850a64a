package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnauthorized is returned for senders outside the allowlist.
var ErrUnauthorized = errors.New("unauthorized sender")

// Policy authorizes inbound messages against a sender allowlist.
// It is immutable after construction and safe for concurrent use.
type Policy struct {
	allowed map[string]struct{}
}

// New creates a Policy that authorizes only the given sender IDs.
// Blank entries are ignored.
func New(senderIDs []string) *Policy {
	allowed := make(map[string]struct{}, len(senderIDs))
	for _, id := range senderIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		allowed[id] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// Load reads the allowlist file. The file holds a sequence of sender IDs,
// either as a YAML list or a JSON array.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allowlist: %w", err)
	}

	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse allowlist %s: %w", path, err)
	}
	return New(ids), nil
}

// Authorize checks whether a sender may use the service.
func (p *Policy) Authorize(senderID string) error {
	if _, ok := p.allowed[senderID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnauthorized, senderID)
	}
	return nil
}

// Len returns the number of authorized senders.
func (p *Policy) Len() int {
	return len(p.allowed)
}
