package memory

import (
	"context"
	"sync"

	"quizgame-service/internal/domain"
)

// QuestionSetStore keeps uploaded question sets in memory. It is the
// fallback when no Postgres store is configured.
type QuestionSetStore struct {
	mu   sync.RWMutex
	sets map[string]domain.QuestionSet
}

func NewQuestionSetStore() *QuestionSetStore {
	return &QuestionSetStore{sets: make(map[string]domain.QuestionSet)}
}

func (s *QuestionSetStore) SaveQuestionSet(_ context.Context, set domain.QuestionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.ID] = set
	return nil
}

func (s *QuestionSetStore) LoadQuestionSet(_ context.Context, id string) (domain.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.sets[id]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}
