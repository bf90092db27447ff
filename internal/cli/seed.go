package cli

import (
	"context"
	"fmt"
	"log/slog"

	"virtuallab-quiz-service/internal/config"
	"virtuallab-quiz-service/internal/domain"
	pgstore "virtuallab-quiz-service/internal/infra/postgres"
	rediscache "virtuallab-quiz-service/internal/infra/redis"
	"virtuallab-quiz-service/internal/infra/sqlite"

	"github.com/spf13/cobra"
)

// NewSeedCmd loads questions into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert quiz questions from a YAML bank file (or the built-in sample bank)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question bank; defaults to quiz.bank_file or the sample bank")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if file != "" {
		cfg.Quiz.BankFile = file
	}
	rows, err := bankRows(cfg)
	if err != nil {
		return err
	}

	switch cfg.Store.Driver {
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		db, err := openBunDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		err = pgstore.NewQuestionWriter(db).UpsertQuestions(ctx, rows)
		if err != nil {
			return err
		}
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.UpsertQuestions(ctx, rows); err != nil {
			return err
		}
	default:
		return fmt.Errorf("seed needs a persistent store, got driver %q", cfg.Store.Driver)
	}
	logger.Info("questions seeded", "count", len(rows), "topics", countTopics(rows), "driver", cfg.Store.Driver)
	invalidateBankCache(ctx, cfg, logger)
	return nil
}

// invalidateBankCache drops the shared Redis copy of the bank so running
// servers pick up the seeded rows on their next load. Failure only warns.
func invalidateBankCache(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	client := newRedisClient(cfg)
	if client == nil {
		return
	}
	defer client.Close()
	repo := rediscache.NewQuestionRepository(client, nil, 0, logger)
	if err := repo.Invalidate(ctx); err != nil {
		logger.Warn("question cache not invalidated", "addr", cfg.Redis.Addr, "error", err)
		return
	}
	logger.Info("question cache invalidated", "key", rediscache.BankKey)
}

func countTopics(rows []domain.QuestionRow) int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[r.Topic] = struct{}{}
	}
	return len(seen)
}
