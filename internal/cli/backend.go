package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/config"
	"virtuallab-quiz-service/internal/domain"
	"virtuallab-quiz-service/internal/infra/memory"
	pgstore "virtuallab-quiz-service/internal/infra/postgres"
	rediscache "virtuallab-quiz-service/internal/infra/redis"
	"virtuallab-quiz-service/internal/infra/sqlite"
	"virtuallab-quiz-service/internal/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backend is the storage wiring selected by store.driver.
type backend struct {
	loader  memory.QuestionLoader
	answers app.AnswerStore
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}
	switch cfg.Store.Driver {
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.loader = pgstore.NewQuestionLoader(pool)
		b.answers = pgstore.NewAnswerStore(pool)
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { store.Close() })
		b.loader = store
		b.answers = store
	default:
		rows, err := bankRows(cfg)
		if err != nil {
			return nil, err
		}
		b.loader = memory.NewStaticQuestionLoader(rows)
		b.answers = memory.NewAnswerStore()
	}
	logger.Info("storage ready", "driver", cfg.Store.Driver)
	return b, nil
}

// bankRows reads quiz.bank_file when set, otherwise the built-in sample bank.
func bankRows(cfg config.Config) ([]domain.QuestionRow, error) {
	if cfg.Quiz.BankFile == "" {
		return sampleQuestions(), nil
	}
	return config.LoadBankFile(cfg.Quiz.BankFile)
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newQuestionRepository(cfg config.Config, redisClient *redis.Client, loader memory.QuestionLoader, logger *slog.Logger) app.QuestionRepository {
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		return rediscache.NewQuestionRepository(redisClient, loader, quizTTL, logger)
	}
	return memory.NewQuestionRepository(loader, quizTTL)
}
