package memory

import (
	"context"

	"streekhook/internal/domain"
)

// StaticGenerator serves canned question sets from an in-memory map, useful
// for demos and tests. Unknown topics are a generation failure, same as a
// misbehaving AI backend.
type StaticGenerator struct {
	sets map[string][]domain.Question
}

func NewStaticGenerator(sets map[string][]domain.Question) *StaticGenerator {
	return &StaticGenerator{sets: sets}
}

func (g *StaticGenerator) Generate(_ context.Context, topic string) ([]domain.Question, error) {
	questions, ok := g.sets[topic]
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q
		out[i].Options = append([]string(nil), q.Options...)
	}
	return out, nil
}
