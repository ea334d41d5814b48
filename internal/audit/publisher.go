package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"maitred/internal/events"
)

// PublisherConfig holds configuration for the monitoring channel publisher.
type PublisherConfig struct {
	// Channel is the Redis pub/sub channel consumed by the monitoring
	// collaborator.
	Channel string
	// Rate is the maximum publishes per second.
	Rate float64
	// Burst is the maximum burst of publishes.
	Burst int
}

// DefaultPublisherConfig returns the default publisher configuration.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Channel: "maitred:assignments",
		Rate:    20.0,
		Burst:   30,
	}
}

// Publisher forwards assignment decisions to a Redis channel. Publishes are
// rate limited so a large cycle cannot flood the monitoring consumer.
type Publisher struct {
	client  *redis.Client
	channel string
	limiter *rate.Limiter
}

// NewPublisher creates a rate-limited Redis publisher.
func NewPublisher(client *redis.Client, config PublisherConfig) *Publisher {
	if config.Channel == "" {
		config.Channel = "maitred:assignments"
	}
	if config.Rate <= 0 {
		config.Rate = 20.0
	}
	if config.Burst <= 0 {
		config.Burst = 30
	}

	return &Publisher{
		client:  client,
		channel: config.Channel,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Publish sends one decision to the monitoring channel, blocking on the rate
// limiter if needed.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(struct {
		Kind           string `json:"kind"`
		RunID          string `json:"run_id"`
		BookingID      int64  `json:"booking_id"`
		RestaurantID   int64  `json:"restaurant_id"`
		TableID        int64  `json:"table_id,omitempty"`
		AssignmentType string `json:"assignment_type,omitempty"`
		At             string `json:"at"`
	}{
		Kind:           ev.Kind,
		RunID:          ev.RunID,
		BookingID:      ev.BookingID,
		RestaurantID:   ev.RestaurantID,
		TableID:        ev.TableID,
		AssignmentType: ev.AssignmentType,
		At:             ev.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
