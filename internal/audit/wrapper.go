package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/penshort/usermcp/internal/metrics"
	"github.com/penshort/usermcp/internal/middleware"
)

// ErrOperationPanic is returned when a wrapped operation panics.
var ErrOperationPanic = errors.New("operation panicked")

// Operation is the uniform signature shared by every exposed tool:
// named parameters in, result or error out.
type Operation[R any] func(ctx context.Context, params map[string]any) (R, error)

// FailureReporter is implemented by results that carry an error envelope
// instead of a payload. An envelope is a normal outcome: the call is counted
// as a success and the category is logged as envelope_error.
type FailureReporter interface {
	Failure() (category, details string, failed bool)
}

// Causer is implemented by envelope results that keep the internal error
// behind the envelope. The cause is logged, never returned to callers.
type Causer interface {
	Cause() error
}

// Categorized errors name their own category in audit entries.
type Categorized interface {
	ErrorCategory() string
}

// Wrapper holds the logger and recorder shared by all wrapped operations.
type Wrapper struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	sinks   []Sink
}

// NewWrapper creates a Wrapper. A nil recorder discards metrics.
func NewWrapper(logger *slog.Logger, rec metrics.Recorder, opts ...Option) *Wrapper {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	w := &Wrapper{logger: logger, metrics: rec}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wrap returns op decorated with timing, metrics and audit logging under name.
// Errors are observed and returned unchanged; panics become ErrOperationPanic.
func Wrap[R any](w *Wrapper, name string, op Operation[R]) Operation[R] {
	return func(ctx context.Context, params map[string]any) (R, error) {
		start := time.Now()
		result, err := invoke(ctx, w, name, op, params)
		duration := time.Since(start)

		if err != nil {
			w.metrics.IncToolCall(name, metrics.StatusError)
			w.logFailure(ctx, name, duration, params, ErrorCategory(err), err.Error())
			return result, err
		}

		masked := Mask(params)
		attrs := []slog.Attr{
			slog.String("tool", name),
			slog.Float64("duration_ms", durationMS(duration)),
			slog.Any("params", masked),
			slog.String("request_id", middleware.GetRequestID(ctx)),
		}
		ev := Event{
			Tool:       name,
			Status:     metrics.StatusSuccess,
			DurationMS: durationMS(duration),
			Params:     masked,
		}
		if fr, ok := any(result).(FailureReporter); ok {
			if category, details, failed := fr.Failure(); failed {
				attrs = append(attrs, slog.String("envelope_error", category))
				if details != "" {
					attrs = append(attrs, slog.String("envelope_detail", details))
				}
				ev.ErrorType, ev.Error = category, details
				if c, ok := any(result).(Causer); ok && c.Cause() != nil {
					attrs = append(attrs, slog.String("envelope_cause", c.Cause().Error()))
				}
			}
		}

		w.metrics.ObserveToolLatency(name, duration)
		w.metrics.IncToolCall(name, metrics.StatusSuccess)
		w.logger.LogAttrs(ctx, slog.LevelInfo, "tool_execution_success", attrs...)
		w.emit(ctx, ev)
		return result, nil
	}
}

func invoke[R any](ctx context.Context, w *Wrapper, name string, op Operation[R], params map[string]any) (result R, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			w.logger.Debug("tool panic stack",
				slog.String("tool", name),
				slog.String("stack", string(debug.Stack())),
			)
			var zero R
			result, err = zero, fmt.Errorf("%w: %v", ErrOperationPanic, rvr)
		}
	}()
	return op(ctx, params)
}

func (w *Wrapper) logFailure(ctx context.Context, name string, duration time.Duration, params map[string]any, category, message string) {
	masked := Mask(params)
	w.logger.LogAttrs(ctx, slog.LevelError, "tool_execution_failed",
		slog.String("tool", name),
		slog.String("error", message),
		slog.String("error_type", category),
		slog.Float64("duration_ms", durationMS(duration)),
		slog.Any("params", masked),
		slog.String("request_id", middleware.GetRequestID(ctx)),
	)
	w.emit(ctx, Event{
		Tool:       name,
		Status:     metrics.StatusError,
		ErrorType:  category,
		Error:      message,
		DurationMS: durationMS(duration),
		Params:     masked,
	})
}

// ErrorCategory returns a short category for err suitable for the error_type field.
func ErrorCategory(err error) string {
	var c Categorized
	switch {
	case errors.As(err, &c):
		return c.ErrorCategory()
	case errors.Is(err, ErrOperationPanic):
		return "Panic"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	default:
		return "Error"
	}
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
