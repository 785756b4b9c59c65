package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/bot/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	updatesStream = "storefront:stream:updates"
	readBlock     = 5 * time.Second
)

type RedisQueue struct {
	redisClient redis.Cmdable
	stream      string
	groupName   string
}

// NewRedisQueue keeps updates in a redis stream read through a consumer
// group, so updates a crashed worker never acknowledged are handled again.
func NewRedisQueue(ctx context.Context, redisClient redis.Cmdable, groupName string) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		stream:      updatesStream,
		groupName:   groupName,
	}

	if err := q.ensureGroup(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) ensureGroup(ctx context.Context) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, q.stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Infof("Group %s already exists for stream %s", q.groupName, q.stream)
		return nil
	}
	if err != nil {
		return err
	}

	log.Infof("✅ Stream %s and consumer group %s ready", q.stream, q.groupName)
	return nil
}

func (q *RedisQueue) Push(ctx context.Context, update domain.Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to serialize update %d: %w", update.ID, err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"update_id":   update.ID,
			"update_data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to add update %d to stream %s: %w", update.ID, q.stream, err)
	}

	log.Debugf("Added update %d to stream %s with message ID: %s", update.ID, q.stream, messageID)
	return nil
}

func (q *RedisQueue) Pull(ctx context.Context, consumer string) (*Delivery, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from stream %s: %w", q.stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	delivery, err := decodeMessage(result[0].Messages[0])
	if err != nil {
		// A message nobody can decode would be reclaimed forever.
		q.drop(ctx, result[0].Messages[0].ID, err)
		return nil, nil
	}
	return delivery, nil
}

func (q *RedisQueue) Ack(ctx context.Context, delivery *Delivery) error {
	if err := q.redisClient.XAck(ctx, q.stream, q.groupName, delivery.ID).Err(); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", delivery.ID, err)
	}
	return nil
}

func (q *RedisQueue) Reclaim(ctx context.Context, consumer string, minIdle time.Duration) ([]Delivery, error) {
	messages, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from stream %s: %w", q.stream, err)
	}

	deliveries := make([]Delivery, 0, len(messages))
	for _, msg := range messages {
		delivery, err := decodeMessage(msg)
		if err != nil {
			q.drop(ctx, msg.ID, err)
			continue
		}
		deliveries = append(deliveries, *delivery)
	}
	return deliveries, nil
}

func (q *RedisQueue) drop(ctx context.Context, msgID string, cause error) {
	log.Errorf("❌ Dropping message %s: %v", msgID, cause)
	if err := q.redisClient.XAck(ctx, q.stream, q.groupName, msgID).Err(); err != nil {
		log.Warnf("⚠️ Failed to ack dropped message %s: %v", msgID, err)
	}
}

func decodeMessage(msg redis.XMessage) (*Delivery, error) {
	data, ok := msg.Values["update_data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid update data in message %s", msg.ID)
	}

	var update domain.Update
	if err := json.Unmarshal([]byte(data), &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update in message %s: %w", msg.ID, err)
	}

	return &Delivery{ID: msg.ID, Update: update}, nil
}
