package authguard

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is one terminal login outcome, shaped after the dashboard's
// audit_log rows. Exactly one event is emitted per terminal state of a
// login attempt.
type AuditEvent struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     Outcome           `json:"action"`
	UserID     string            `json:"user_id,omitempty"`
	TenantID   string            `json:"tenant_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Suspicious bool              `json:"suspicious"`
	Details    map[string]string `json:"details,omitempty"`
}

// AuditRecorder receives emitted audit events. Persistence is the host
// application's concern; the shipped recorders below are transport
// adapters, not stores.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent)
}

// NoOpRecorder drops audit events.
type NoOpRecorder struct{}

func (NoOpRecorder) Record(context.Context, AuditEvent) {}

// ChannelRecorder writes audit events into a buffered channel.
type ChannelRecorder struct {
	events chan AuditEvent
}

func NewChannelRecorder(buffer int) *ChannelRecorder {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelRecorder{
		events: make(chan AuditEvent, buffer),
	}
}

func (r *ChannelRecorder) Record(ctx context.Context, event AuditEvent) {
	select {
	case r.events <- event:
	case <-ctx.Done():
	}
}

func (r *ChannelRecorder) Events() <-chan AuditEvent {
	return r.events
}

// JSONWriterRecorder writes one JSON object per line.
type JSONWriterRecorder struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterRecorder(w io.Writer) *JSONWriterRecorder {
	return &JSONWriterRecorder{
		writer: w,
	}
}

func (r *JSONWriterRecorder) Record(ctx context.Context, event AuditEvent) {
	if r == nil || r.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.writer.Write(data)
	_, _ = r.writer.Write([]byte("\n"))
}
