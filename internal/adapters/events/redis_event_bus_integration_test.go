//go:build integration

package events_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/adapters/events"
	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/infrastructure/clients/redis"
	"github.com/nabhacare/backend/pkg/config"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	port, _ := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}
	client, err := redis.NewClient(&config.RedisConfig{
		Host: os.Getenv("TEST_REDIS_HOST"),
		Port: port,
	})
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func waitForChange(t *testing.T, ch <-chan *entities.ConsultationChange) *entities.ConsultationChange {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for consultation change")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.GetConsultationChannel("c-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)

	event := entities.NewConsultationChange("c-redis-1", map[string]interface{}{"status": "in-progress"})
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	assert.Equal(t, event.ID, waitForChange(t, sub1).ID)
	assert.Equal(t, event.ID, waitForChange(t, sub2).ID)
}

func TestRedisEventBusUnsubscribeOnCancelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := eventBus.Subscribe(ctx, providers.GetConsultationChannel("c-redis-2"))
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed after cancel")
	}
}

func TestRedisEventBusConcurrentSubscribeIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetConsultationChannel("c-redis-3")
	subs := make([]<-chan *entities.ConsultationChange, 8)
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := eventBus.Subscribe(ctx, channel)
			assert.NoError(t, err)
			subs[i] = sub
		}(i)
	}
	wg.Wait()

	other, err := eventBus.Subscribe(ctx, providers.GetConsultationChannel("c-redis-4"))
	require.NoError(t, err)

	event := entities.NewConsultationChange("c-redis-3", map[string]interface{}{"status": "completed"})
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	for _, sub := range subs {
		require.NotNil(t, sub)
		assert.Equal(t, event.ID, waitForChange(t, sub).ID)
	}

	select {
	case change := <-other:
		t.Fatalf("unexpected change on other channel: %v", change)
	case <-time.After(100 * time.Millisecond):
	}
}
