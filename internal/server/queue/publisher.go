package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/retryx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// StreamPublisher appends alarm messages to a Redis stream.
type StreamPublisher struct {
	client redis.UniversalClient
	stream string
	policy retryx.Policy
	now    func() time.Time
}

func NewStreamPublisher(client redis.UniversalClient, stream string, policy retryx.Policy) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: stream,
		policy: policy,
		now:    time.Now,
	}
}

// PublishBatch writes all messages in order inside one MULTI/EXEC, so the
// batch is appended entirely or not at all. A retried batch may be appended
// twice; consumers get at-least-once delivery.
func (p *StreamPublisher) PublishBatch(ctx context.Context, msgs []models.AlarmMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	ts := p.now().UTC()
	payloads := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(Event{Type: AlarmDue, Timestamp: ts, Data: m})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		payloads = append(payloads, b)
	}

	return retryx.Do(ctx, p.policy, "redis.xadd", func(ctx context.Context) error {
		_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, b := range payloads {
				pipe.XAdd(ctx, &redis.XAddArgs{
					Stream: p.stream,
					Values: map[string]any{"event": b},
				})
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		return nil
	})
}
