package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"virtuallab-quiz-service/internal/domain"
)

// QuestionLoader fetches question rows from a backing store, ordered by id.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error)
}

const bankKey = "bank"

// QuestionRepository caches the question bank with a TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	rows      []domain.QuestionRow
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error) {
	if rows, ok := r.cached(r.clock()); ok {
		return rows, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		now := r.clock()
		if rows, ok := r.cached(now); ok {
			return rows, nil
		}

		rows, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.rows = rows
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRow), nil
}

func (r *QuestionRepository) cached(now time.Time) ([]domain.QuestionRow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.rows != nil && r.expiresAt.After(now) {
		return r.rows, true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionLoader struct {
	rows []domain.QuestionRow
}

func NewStaticQuestionLoader(rows []domain.QuestionRow) *StaticQuestionLoader {
	return &StaticQuestionLoader{rows: rows}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.QuestionRow, error) {
	out := make([]domain.QuestionRow, len(l.rows))
	copy(out, l.rows)
	return out, nil
}
