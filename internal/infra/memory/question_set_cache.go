package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizgame-service/internal/domain"
)

// QuestionSetLoader fetches question sets from a backing store.
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuestionSetCache caches question sets with a TTL to avoid repeated store
// hits when the same set is rehosted.
type QuestionSetCache struct {
	loader QuestionSetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionSetCache(loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.set, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.set, nil
		}
		c.mu.RUnlock()

		set, err := c.loader.LoadQuestionSet(ctx, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedSet{set: set, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
