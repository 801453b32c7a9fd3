package audit

import (
	"context"
	"time"

	"github.com/penshort/usermcp/internal/auth"
	"github.com/penshort/usermcp/internal/middleware"
)

// Event is one tool execution as published to audit sinks.
// Params are already masked. For a successful call that answered with an
// error envelope, ErrorType and Error carry the envelope category and details.
type Event struct {
	Tool       string         `json:"tool"`
	Status     string         `json:"status"`
	ErrorType  string         `json:"error_type,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Params     map[string]any `json:"params,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Caller     string         `json:"caller,omitempty"`
	At         int64          `json:"t"` // Unix milliseconds
}

// Sink receives audit events. Record must not block the tool call.
type Sink interface {
	Record(Event)
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithSink adds a sink that receives every audit event.
func WithSink(s Sink) Option {
	return func(w *Wrapper) {
		if s != nil {
			w.sinks = append(w.sinks, s)
		}
	}
}

func (w *Wrapper) emit(ctx context.Context, ev Event) {
	if len(w.sinks) == 0 {
		return
	}
	ev.RequestID = middleware.GetRequestID(ctx)
	ev.Caller = auth.FingerprintFromContext(ctx)
	ev.At = time.Now().UnixMilli()
	for _, s := range w.sinks {
		s.Record(ev)
	}
}
