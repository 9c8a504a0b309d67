package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen bounds every stream the publisher writes to. Trimming is
// approximate, so a stream may briefly hold a few more entries.
const DefaultMaxLen = 10000

// Publisher appends events to Redis Streams. Each entry carries a single
// "event" field holding the JSON-encoded Event.
type Publisher struct {
	client *redis.Client
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{
		client: client,
		maxLen: DefaultMaxLen,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithMaxLen returns a copy of p that trims streams to maxLen entries. Zero
// disables trimming.
func (p *Publisher) WithMaxLen(maxLen int64) *Publisher {
	cp := *p
	cp.maxLen = maxLen
	return &cp
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := json.Marshal(Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: p.now(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{"event": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

// Decode converts the loosely typed Data of a received event into out.
func Decode(event Event, out any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", event.Type, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	return nil
}
