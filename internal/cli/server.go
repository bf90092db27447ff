package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/catalog"
	"virtuallab-quiz-service/internal/config"
	"virtuallab-quiz-service/internal/events"
	"virtuallab-quiz-service/internal/infra/memory"
	redissession "virtuallab-quiz-service/internal/infra/redis"
	transport "virtuallab-quiz-service/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	questions := newQuestionRepository(cfg, redisClient, store.loader, logger)

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redissession.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	publisher, subscriber, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	if subscriber != nil {
		err := events.Consume(runCtx, subscriber, cfg.Events.Topic, logger, func(ev events.QuizCompletedEvent) {
			logger.Info("quiz completed",
				"user_id", ev.UserID,
				"topic", ev.TopicName,
				"score", ev.ScorePercent,
				"saved", ev.Saved)
		})
		if err != nil {
			return err
		}
	}

	service := app.NewQuizService(sessions, questions, store.answers,
		app.WithEvents(publisher),
		app.WithLogger(logger))

	mux := http.NewServeMux()
	transport.NewRESTHandler(service, catalog.Default(), logger).
		Register(mux, transport.NewWSHandler(service, logger))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort, "store", cfg.Store.Driver, "events", cfg.Events.Publisher)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
