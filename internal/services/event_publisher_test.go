package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whiteboard/internal/models"
)

func TestPublishSessionEnded(t *testing.T) {
	srv := miniredis.RunT(t)

	publisher := NewEventPublisher(srv.Addr(), zap.NewNop())
	defer publisher.Close()
	require.NotEmpty(t, publisher.InstanceID())

	sub := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer sub.Close()

	pubsub := sub.Subscribe(context.Background(), SessionEndedChannel)
	defer pubsub.Close()
	_, err := pubsub.Receive(context.Background())
	require.NoError(t, err)

	startedAt := time.Now().Add(-90 * time.Second)
	require.NoError(t, publisher.PublishSessionEnded("room1", startedAt))

	select {
	case msg := <-pubsub.Channel():
		var event models.SessionEndedEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, "room1", event.RoomID)
		require.Equal(t, publisher.InstanceID(), event.InstanceID)
		require.GreaterOrEqual(t, event.DurationSec, 90)
	case <-time.After(2 * time.Second):
		t.Fatal("expected session ended event on channel")
	}
}

func TestPublishSessionEndedUnreachableRedis(t *testing.T) {
	publisher := NewEventPublisher("localhost:0", zap.NewNop())
	defer publisher.Close()

	// Best-effort: an unreachable broker returns an error but never panics.
	require.Error(t, publisher.PublishSessionEnded("room1", time.Now()))
}
