package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// dueIndexZSet holds scheduled reminder IDs scored by their unix timestamp
const dueIndexZSet = "scheduled_reminders"

type dueIndex struct {
	redis *redis.Client
}

// NewDueIndex creates a Redis backed index of upcoming scheduled reminders
func NewDueIndex(redis *redis.Client) *dueIndex {
	return &dueIndex{redis: redis}
}

// Add inserts or re-scores a scheduled reminder
func (d *dueIndex) Add(ctx context.Context, id int, at time.Time) error {
	err := d.redis.ZAdd(ctx, dueIndexZSet, &redis.Z{
		Score:  float64(at.Unix()),
		Member: strconv.Itoa(id),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add scheduled reminder %d to due index: %w", id, err)
	}
	return nil
}

// Remove drops scheduled reminders from the index
func (d *dueIndex) Remove(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = strconv.Itoa(id)
	}
	if err := d.redis.ZRem(ctx, dueIndexZSet, members...).Err(); err != nil {
		return fmt.Errorf("failed to remove scheduled reminders from due index: %w", err)
	}
	return nil
}

// Count returns the number of indexed scheduled reminders
func (d *dueIndex) Count(ctx context.Context) (int64, error) {
	card, err := d.redis.ZCard(ctx, dueIndexZSet).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check due index cardinality: %w", err)
	}
	return card, nil
}

// Due returns the IDs of scheduled reminders whose timestamp is not after now
func (d *dueIndex) Due(ctx context.Context, now time.Time) ([]int, error) {
	members, err := d.redis.ZRangeByScore(ctx, dueIndexZSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get due scheduled reminders: %w", err)
	}

	ids := make([]int, 0, len(members))
	for _, member := range members {
		id, err := strconv.Atoi(member)
		if err != nil {
			// foreign member, drop it so it does not block the index
			d.redis.ZRem(ctx, dueIndexZSet, member)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
