package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"virtuallab-quiz-service/internal/domain"
)

// QuestionLoader fetches question rows from a backing store (Postgres, SQLite).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error)
}

// BankKey holds the JSON-encoded question rows.
const BankKey = "quiz:bank"

// QuestionRepository caches the question bank in Redis and falls back to a
// loader on cache miss. Cache errors degrade to a loader call.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration, logger *slog.Logger) *QuestionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error) {
	if rows, ok := r.cached(ctx); ok {
		return rows, nil
	}

	result, err, _ := r.sf.Do(BankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if rows, ok := r.cached(ctx); ok {
			return rows, nil
		}

		rows, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(rows)
		if err == nil {
			err = r.client.Set(ctx, BankKey, data, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.logger.WarnContext(ctx, "cache question bank failed", "error", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRow), nil
}

// Invalidate drops the cached bank, e.g. after seeding.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, BankKey).Err()
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.QuestionRow, bool) {
	data, err := r.client.Get(ctx, BankKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "read cached question bank failed", "error", err)
		}
		return nil, false
	}
	var rows []domain.QuestionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		r.logger.WarnContext(ctx, "decode cached question bank failed", "error", err)
		return nil, false
	}
	return rows, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
