package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"streekhook/internal/domain"
)

// QuestionBank loads topic-keyed question sets from Postgres JSONB rows. It
// satisfies app.QuizGenerator so it can stand in for the AI generator in
// offline deployments.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Generate(ctx context.Context, topic string) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE topic=$1`, topic).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrTopicNotFound
	}
	return questions, nil
}
