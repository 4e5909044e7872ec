package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
)

// Entry is one journaled dispatch.
type Entry struct {
	DispatchID  string             `json:"dispatch_id" yaml:"dispatch_id"`
	Seq         int64              `json:"seq" yaml:"seq"`
	Type        string             `json:"type" yaml:"type"`
	Source      string             `json:"source,omitempty" yaml:"source,omitempty"`
	PayloadJSON string             `json:"payload" yaml:"payload"`
	Handled     []dispatcher.Token `json:"handled" yaml:"handled"`
	Stores      []string           `json:"stores" yaml:"stores"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    time.Duration      `json:"duration_ns" yaml:"duration"`
	StartedAt   time.Time          `json:"started_at" yaml:"started_at"`
}

// Payload decodes PayloadJSON into frozen values.
func (e Entry) Payload() (any, error) {
	return immutable.Parse([]byte(e.PayloadJSON))
}

// MarshalPayload renders a frozen payload as JSON TEXT for storage.
// HTML escaping is disabled so stored text matches the payload exactly.
func MarshalPayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
