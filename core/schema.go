package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const (
	MaxPayloadBytes = 8192
	MaxTextLen      = 4096
	MaxRecipientLen = 128
	CurrentVersion  = 1
	ActionNotify    = "notify"
)

// Request is the JSON envelope sent over the push socket.
type Request struct {
	Version int             `json:"version"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// NotifyPayload asks the bot to push a text to one chat user.
type NotifyPayload struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Response is the JSON envelope sent back to the client.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ValidateRequest checks the envelope and the payload of known actions.
func ValidateRequest(data []byte) (*Request, error) {
	if len(data) > MaxPayloadBytes {
		return nil, fmt.Errorf("payload exceeds %d byte limit", MaxPayloadBytes)
	}

	var req Request
	if err := decodeStrict(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if req.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported version %d, expected %d", req.Version, CurrentVersion)
	}

	switch req.Action {
	case ActionNotify:
		if _, err := ParseNotifyPayload(req.Payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}

	return &req, nil
}

// ParseNotifyPayload decodes and validates a notify payload.
func ParseNotifyPayload(raw json.RawMessage) (NotifyPayload, error) {
	if len(raw) == 0 {
		return NotifyPayload{}, fmt.Errorf("missing payload")
	}

	var p NotifyPayload
	if err := decodeStrict(raw, &p); err != nil {
		return NotifyPayload{}, fmt.Errorf("invalid notify payload: %w", err)
	}
	p.Recipient = strings.TrimSpace(p.Recipient)

	switch {
	case p.Recipient == "":
		return NotifyPayload{}, fmt.Errorf("recipient is required")
	case len(p.Recipient) > MaxRecipientLen:
		return NotifyPayload{}, fmt.Errorf("recipient exceeds %d character limit", MaxRecipientLen)
	case strings.TrimSpace(p.Text) == "":
		return NotifyPayload{}, fmt.Errorf("text is required")
	case len(p.Text) > MaxTextLen:
		return NotifyPayload{}, fmt.Errorf("text exceeds %d character limit", MaxTextLen)
	}
	return p, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
