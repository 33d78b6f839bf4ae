package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizgame-service/internal/domain"
)

// QuestionSetStore persists uploaded question sets as JSONB.
type QuestionSetStore struct {
	pool *pgxpool.Pool
}

func NewQuestionSetStore(pool *pgxpool.Pool) *QuestionSetStore {
	return &QuestionSetStore{pool: pool}
}

func (s *QuestionSetStore) SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_sets (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		set.ID, data)
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

func (s *QuestionSetStore) LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	return set, nil
}
