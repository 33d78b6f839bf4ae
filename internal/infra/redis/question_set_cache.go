package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizgame-service/internal/domain"
)

// QuestionSetLoader fetches question sets from a backing store.
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuestionSetCache is a read-through Redis cache over a loader. The whole
// set is cached as one JSON value so games get prompts and options back, not
// just answer keys.
type QuestionSetCache struct {
	client *redis.Client
	loader QuestionSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionSetCache(client *redis.Client, loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	key := c.key(id)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var set domain.QuestionSet
		if err := json.Unmarshal(raw, &set); err == nil {
			return set, nil
		}
		// corrupt entry, fall through and refill
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var set domain.QuestionSet
			if err := json.Unmarshal(raw, &set); err == nil {
				return set, nil
			}
		}

		set, err := c.loader.LoadQuestionSet(ctx, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		data, err := json.Marshal(set)
		if err != nil {
			return domain.QuestionSet{}, fmt.Errorf("marshal question set: %w", err)
		}
		_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (c *QuestionSetCache) key(id string) string {
	return "questionset:" + id
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
