package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"whiteboard/internal/models"
)

// SessionEndedChannel is the Redis channel the booking side subscribes to
// for lesson activity bookkeeping.
const SessionEndedChannel = "whiteboard_session_ended"

// EventPublisher announces whiteboard session lifecycle events over Redis.
// Publishing is best-effort; the coordinator never depends on Redis being
// reachable.
type EventPublisher struct {
	rdb        *redis.Client
	log        *zap.Logger
	instanceID string
}

func NewEventPublisher(redisAddr string, log *zap.Logger) *EventPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	return &EventPublisher{
		rdb:        rdb,
		log:        log,
		instanceID: uuid.New().String(),
	}
}

func (p *EventPublisher) InstanceID() string { return p.instanceID }

// PublishSessionEnded emits a session-ended event for a room that just
// lost its last participant.
func (p *EventPublisher) PublishSessionEnded(roomID string, startedAt time.Time) error {
	now := time.Now()
	event := models.SessionEndedEvent{
		RoomID:      roomID,
		InstanceID:  p.instanceID,
		StartedAt:   startedAt.Format(time.RFC3339),
		EndedAt:     now.Format(time.RFC3339),
		DurationSec: int(now.Sub(startedAt).Seconds()),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session ended event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.rdb.Publish(ctx, SessionEndedChannel, data).Err(); err != nil {
		p.log.Warn("failed to publish session ended event",
			zap.String("roomId", roomID), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *EventPublisher) Close() error { return p.rdb.Close() }
