package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grievance-portal-go/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	eventTTL = 30 * 24 * time.Hour // 30 days
)

// RedisStore holds the per-user activity feed and its pub/sub channel.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(opts *redis.Options) *RedisStore {
	rdb := redis.NewClient(opts)
	return &RedisStore{client: rdb}
}

func eventChannel(userID int) string {
	return fmt.Sprintf("user:%d:events", userID)
}

func timelineKey(userID int) string {
	return fmt.Sprintf("user:%d:timeline", userID)
}

func (s *RedisStore) AddEvent(ctx context.Context, userID int, kind, message string) (models.Event, error) {
	// Generate ID
	id, err := s.client.Incr(ctx, "event:next_id").Result()
	if err != nil {
		return models.Event{}, err
	}

	e := models.Event{
		ID:        int(id),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(e)
	if err != nil {
		return models.Event{}, err
	}

	key := fmt.Sprintf("event:%d", e.ID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, eventTTL)

	// Add to the user's timeline sorted set (score = timestamp)
	pipe.ZAdd(ctx, timelineKey(userID), redis.Z{
		Score:  float64(e.CreatedAt.Unix()),
		Member: key,
	})
	pipe.Expire(ctx, timelineKey(userID), eventTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return models.Event{}, err
	}

	// Publish for SSE listeners
	if err := s.client.Publish(ctx, eventChannel(userID), data).Err(); err != nil {
		fmt.Println("Failed to publish event:", err)
	}

	return e, nil
}

func (s *RedisStore) GetEvents(ctx context.Context, userID int) ([]models.Event, error) {
	// Get event keys from the timeline (newest first)
	keys, err := s.client.ZRevRange(ctx, timelineKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var events []models.Event
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			// Event expired, remove from sorted set
			s.client.ZRem(ctx, timelineKey(userID), key)
			continue
		} else if err != nil {
			continue
		}

		var e models.Event
		if err := json.Unmarshal([]byte(val), &e); err == nil {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *RedisStore) ClearEvents(ctx context.Context, userID int) error {
	keys, err := s.client.ZRange(ctx, timelineKey(userID), 0, -1).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		s.client.Del(ctx, keys...)
	}

	return s.client.Del(ctx, timelineKey(userID)).Err()
}

func (s *RedisStore) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return s.client.Subscribe(ctx, eventChannel(userID))
}
