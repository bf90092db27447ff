package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/config"
	"virtuallab-quiz-service/internal/domain"
	"virtuallab-quiz-service/internal/infra/memory"

	"github.com/spf13/cobra"
)

// NewProfileCmd prints a user's quiz history summary.
func NewProfileCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print a user's attempt count and most recent quiz as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			return runProfile(cmd.Context(), *configPath, userID, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	return cmd
}

func runProfile(ctx context.Context, configPath, userID string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	service := app.NewQuizService(memory.NewSessionStore(),
		memory.NewQuestionRepository(store.loader, 0),
		store.answers,
		app.WithLogger(logger))
	profile, err := service.Profile(ctx, domain.Identity{UserID: userID})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
