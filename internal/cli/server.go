package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"streekhook/internal/app"
	"streekhook/internal/config"
	"streekhook/internal/domain"
	"streekhook/internal/infra/gemini"
	"streekhook/internal/infra/memory"
	pgbank "streekhook/internal/infra/postgres"
	redisstore "streekhook/internal/infra/redis"
	transport "streekhook/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	roomTTL := config.TTLDuration(cfg.Redis.RoomTTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var store app.RoomStore
	if redisClient != nil {
		store = redisstore.NewRoomStore(redisClient, roomTTL)
	} else {
		store = memory.NewRoomStore()
	}

	var generator app.QuizGenerator
	switch {
	case cfg.Gemini.APIKey != "":
		generator = gemini.NewGenerator(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case pool != nil:
		generator = pgbank.NewQuestionBank(pool)
	default:
		generator = memory.NewStaticGenerator(sampleQuestionSets())
	}
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	generator = memory.NewCachedGenerator(generator, cacheTTL)

	profiles := memory.NewProfileStore()
	wsHandler := transport.NewWSHandler(store, profiles, generator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/participant", wsHandler.ServeParticipant)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting streekhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets is a minimal offline question bank for running without
// a Gemini key or Postgres.
func sampleQuestionSets() map[string][]domain.Question {
	return map[string][]domain.Question{
		"Animals": {
			{
				ID:           "animals-1",
				Text:         "Which animal is known as the King of the Jungle?",
				Options:      []string{"Elephant", "Lion", "Tiger", "Gorilla"},
				CorrectIndex: 1,
			},
			{
				ID:           "animals-2",
				Text:         "How many legs does a spider have?",
				Options:      []string{"Six", "Eight", "Ten", "Twelve"},
				CorrectIndex: 1,
			},
			{
				ID:           "animals-3",
				Text:         "Which bird cannot fly?",
				Options:      []string{"Penguin", "Sparrow", "Swallow", "Pigeon"},
				CorrectIndex: 0,
			},
			{
				ID:           "animals-4",
				Text:         "What is the fastest land animal?",
				Options:      []string{"Lion", "Horse", "Cheetah", "Greyhound"},
				CorrectIndex: 2,
			},
			{
				ID:           "animals-5",
				Text:         "Which mammal lays eggs?",
				Options:      []string{"Bat", "Platypus", "Dolphin", "Armadillo"},
				CorrectIndex: 1,
			},
		},
	}
}
