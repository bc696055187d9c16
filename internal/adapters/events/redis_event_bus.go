package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	redisclient "github.com/nabhacare/backend/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 100

// topic is one Redis subscription shared by every local watcher of a
// consultation channel.
type topic struct {
	pubsub   *redis.PubSub
	watchers map[chan *entities.ConsultationChange]struct{}
	closed   bool
}

// RedisEventBus fans consultation changes published on Redis out to local
// watchers. Watchers of the same consultation share one subscription, which
// is released when the last of them leaves.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.RWMutex
	topics map[string]*topic

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		topics: make(map[string]*topic),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ConsultationChange) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode consultation change: %w", err)
	}

	receivers, err := b.client.Client().Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Int64("receivers", receivers).
		Msg("published consultation change")
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so a change
// published afterwards is never missed. The returned channel is closed when
// ctx ends or the bus shuts down.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ConsultationChange, error) {
	watcher := make(chan *entities.ConsultationChange, subscriberBuffer)

	for {
		if err := b.ctx.Err(); err != nil {
			return nil, fmt.Errorf("event bus closed: %w", err)
		}

		b.mu.Lock()
		if t, ok := b.topics[channel]; ok {
			t.watchers[watcher] = struct{}{}
			count := len(t.watchers)
			b.mu.Unlock()
			b.attach(ctx, channel, t, watcher, count)
			return watcher, nil
		}
		b.mu.Unlock()

		// The handshake runs unlocked so fan-out on other channels keeps going.
		opened, err := b.open(ctx, channel)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		if _, ok := b.topics[channel]; ok || b.ctx.Err() != nil {
			// Another watcher opened the channel first, or the bus closed.
			b.mu.Unlock()
			_ = opened.pubsub.Close()
			continue
		}
		b.topics[channel] = opened
		opened.watchers[watcher] = struct{}{}
		b.mu.Unlock()

		go b.relay(channel, opened)
		b.attach(ctx, channel, opened, watcher, 1)
		return watcher, nil
	}
}

func (b *RedisEventBus) open(ctx context.Context, channel string) (*topic, error) {
	pubsub := b.client.Client().Subscribe(b.ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	return &topic{pubsub: pubsub, watchers: make(map[chan *entities.ConsultationChange]struct{})}, nil
}

// attach detaches watcher from t once ctx ends or the bus shuts down
func (b *RedisEventBus) attach(ctx context.Context, channel string, t *topic, watcher chan *entities.ConsultationChange, count int) {
	log.Debug().Str("channel", channel).Int("watchers", count).Msg("watching consultation")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.detach(channel, t, watcher)
	}()
}

func (b *RedisEventBus) relay(channel string, t *topic) {
	defer func() {
		if err := b.closeTopic(channel, t); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to release subscription")
		}
	}()

	messages := t.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var change entities.ConsultationChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("skipping malformed consultation change")
				continue
			}
			b.fanOut(channel, t, &change)
		}
	}
}

// fanOut never blocks: a watcher that is not draining loses the change
// rather than stalling everyone else on the channel.
func (b *RedisEventBus) fanOut(channel string, t *topic, change *entities.ConsultationChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for watcher := range t.watchers {
		select {
		case watcher <- change:
		default:
			log.Warn().Str("channel", channel).Str("event_id", change.ID).Msg("watcher lagging, change dropped")
		}
	}
}

func (b *RedisEventBus) detach(channel string, t *topic, watcher chan *entities.ConsultationChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := t.watchers[watcher]; !ok {
		return
	}
	delete(t.watchers, watcher)
	close(watcher)

	if len(t.watchers) > 0 {
		return
	}
	if b.topics[channel] == t {
		delete(b.topics, channel)
	}
	if !t.closed {
		t.closed = true
		_ = t.pubsub.Close()
		log.Debug().Str("channel", channel).Msg("last watcher left, subscription closed")
	}
}

// closeTopic closes every watcher of t and its Redis subscription. Safe to
// call more than once.
func (b *RedisEventBus) closeTopic(channel string, t *topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for watcher := range t.watchers {
		close(watcher)
		delete(t.watchers, watcher)
	}
	if b.topics[channel] == t {
		delete(b.topics, channel)
	}
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.pubsub.Close(); err != nil {
		return fmt.Errorf("close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe drops every watcher of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.RLock()
	t, ok := b.topics[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return b.closeTopic(channel, t)
}

func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	open := make(map[string]*topic, len(b.topics))
	for channel, t := range b.topics {
		open[channel] = t
	}
	b.mu.RUnlock()

	var errs []error
	for channel, t := range open {
		if err := b.closeTopic(channel, t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close event bus: %w", err)
	}

	log.Info().Int("channels", len(open)).Msg("event bus closed")
	return nil
}
