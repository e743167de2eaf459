package memory

import (
	"context"
	"testing"
	"time"

	"streekhook/internal/domain"
)

func TestCachedGeneratorMemoizesTopics(t *testing.T) {
	ctx := context.Background()
	backing := &countingGenerator{
		StaticGenerator: NewStaticGenerator(map[string][]domain.Question{
			"Animals": sampleState("123456").Questions,
		}),
	}
	cached := NewCachedGenerator(backing, time.Minute)

	if _, err := cached.Generate(ctx, "Animals"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing generator called once, got %d", backing.calls)
	}

	// Second call should hit the cache.
	if _, err := cached.Generate(ctx, "Animals"); err != nil {
		t.Fatalf("generate 2: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls=%d", backing.calls)
	}
}

func TestCachedGeneratorDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	backing := &countingGenerator{
		StaticGenerator: NewStaticGenerator(nil),
	}
	cached := NewCachedGenerator(backing, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(ctx, "Unknown"); err == nil {
			t.Fatalf("expected error for unknown topic")
		}
	}
	if backing.calls != 2 {
		t.Fatalf("expected failures to pass through, backing calls=%d", backing.calls)
	}
}

type countingGenerator struct {
	*StaticGenerator
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, topic string) ([]domain.Question, error) {
	g.calls++
	return g.StaticGenerator.Generate(ctx, topic)
}
