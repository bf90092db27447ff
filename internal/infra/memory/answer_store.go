package memory

import (
	"context"
	"sync"

	"virtuallab-quiz-service/internal/domain"
)

// AnswerStore is an append-only in-memory answer log. IDs follow insertion order.
type AnswerStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.AnswerRecord
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{nextID: 1}
}

// SaveAnswers appends the whole batch or nothing.
func (s *AnswerStore) SaveAnswers(_ context.Context, records []domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		rec.ID = s.nextID
		s.nextID++
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *AnswerStore) ListAnswers(_ context.Context, userID string) ([]domain.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AnswerRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
