// Package analytics publishes tool audit events to a Redis stream for
// offline consumers.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/penshort/usermcp/internal/audit"
	"github.com/penshort/usermcp/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// StreamKey is the Redis stream for audit events.
	StreamKey = "usermcp:stream:audit"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond

	// maxErrorLength bounds the error text stored per event.
	maxErrorLength = 500
)

// StreamAdder is the subset of the Redis client used by Publisher.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher enqueues audit events to a Redis stream.
// It implements audit.Sink.
type Publisher struct {
	redis   StreamAdder
	stream  string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new audit event publisher writing to StreamKey.
func NewPublisher(client StreamAdder, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		stream:  StreamKey,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) (string, error) {
	data, err := Encode(event)
	if err != nil {
		return "", err
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"tool":    event.Tool,
			"status":  event.Status,
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// Record publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) Record(event audit.Event) {
	go p.publishWithTimeout(event)
}

func (p *Publisher) publishWithTimeout(event audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	streamID, err := p.Publish(ctx, event)
	if err != nil {
		p.logger.Warn("failed to publish audit event",
			"tool", event.Tool,
			"error", err,
		)
		p.metrics.IncAuditEventPublished(metrics.StatusDropped)
		return
	}

	p.logger.Debug("audit event published",
		"tool", event.Tool,
		"stream_id", streamID,
	)
	p.metrics.IncAuditEventPublished(metrics.StatusSuccess)
}

// Encode serializes an event for the stream payload field.
// Long error text is truncated.
func Encode(event audit.Event) ([]byte, error) {
	event.Error = truncate(event.Error, maxErrorLength)
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
