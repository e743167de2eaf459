package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"streekhook/internal/app"
	"streekhook/internal/domain"
)

// CachedGenerator memoizes generated quizzes per topic with a TTL so
// repeated topics do not hit the backing generator (and its API bill)
// again while the entry is fresh.
type CachedGenerator struct {
	gen   app.QuizGenerator
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedGenerator(gen app.QuizGenerator, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{
		gen:   gen,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedSet),
	}
}

func (g *CachedGenerator) Generate(ctx context.Context, topic string) ([]domain.Question, error) {
	now := g.clock()

	g.mu.RLock()
	if entry, ok := g.cache[topic]; ok && entry.expiresAt.After(now) {
		g.mu.RUnlock()
		return entry.questions, nil
	}
	g.mu.RUnlock()

	result, err, _ := g.sf.Do(topic, func() (interface{}, error) {
		now := g.clock()
		g.mu.RLock()
		if entry, ok := g.cache[topic]; ok && entry.expiresAt.After(now) {
			g.mu.RUnlock()
			return entry.questions, nil
		}
		g.mu.RUnlock()

		questions, err := g.gen.Generate(ctx, topic)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		g.cache[topic] = cachedSet{
			questions: questions,
			expiresAt: now.Add(g.ttlWithJitter()),
		}
		g.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (g *CachedGenerator) ttlWithJitter() time.Duration {
	if g.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(g.ttl) / 10
	return g.ttl + time.Duration(g.rnd.Int63n(jitterMax+1))
}
