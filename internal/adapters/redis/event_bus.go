package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/ports"
)

const defaultEventsChannel = "session-events"

var _ ports.SessionEventBus = (*EventBus)(nil)

// EventBusOptions configures an EventBus.
type EventBusOptions struct {
	Channel string
	Logger  *slog.Logger
}

// EventBus relays session events between processes over Redis Pub/Sub.
// Delivery is at-most-once and ordered per publisher.
type EventBus struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewEventBus creates an EventBus on the configured channel.
func NewEventBus(client redis.UniversalClient, opts EventBusOptions) *EventBus {
	channel := opts.Channel
	if channel == "" {
		channel = defaultEventsChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		client:  client,
		channel: channel,
		logger:  logger.With("component", "session_event_bus", "channel", channel),
	}
}

// Publish sends ev to every listener on the channel.
func (b *EventBus) Publish(ctx context.Context, ev domainauth.SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Listen delivers events to fn until ctx is done. Malformed payloads are
// logged and skipped.
func (b *EventBus) Listen(ctx context.Context, fn func(domainauth.SessionEvent)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		if err := sub.Close(); err != nil {
			b.logger.DebugContext(ctx, "close subscription", "error", err)
		}
	}()

	// Wait for the subscription to be confirmed so no event published after
	// Listen starts is missed.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev domainauth.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.WarnContext(ctx, "dropping malformed session event", "error", err)
				continue
			}
			fn(ev)
		}
	}
}
