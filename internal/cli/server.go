package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizgame-service/internal/app"
	"quizgame-service/internal/config"
	"quizgame-service/internal/infra/memory"
	pgstore "quizgame-service/internal/infra/postgres"
	redisinfra "quizgame-service/internal/infra/redis"
	transport "quizgame-service/internal/transport/http"
)

const defaultHostPassword = "kahoot123"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
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
		finalPort = "3000"
	}

	hostPassword := cfg.Host.Password
	if hostPassword == "" {
		hostPassword = defaultHostPassword
	}

	settings := app.DefaultSettings()
	settings.QuestionTime = config.Duration(cfg.Game.QuestionTime, settings.QuestionTime)
	settings.ResultsDelay = config.Duration(cfg.Game.ResultsDelay, settings.ResultsDelay)
	if cfg.Game.MaxPlayers > 0 {
		settings.MaxPlayers = cfg.Game.MaxPlayers
	}
	retention := config.Duration(cfg.Game.Retention, 24*time.Hour)
	sweepInterval := config.Duration(cfg.Game.SweepInterval, time.Hour)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	clock := clockwork.NewRealClock()
	registry := memory.NewGameRegistry(clock, settings, retention)

	memStore := memory.NewQuestionSetStore()
	var loader memory.QuestionSetLoader = memStore
	var saver app.QuestionSetSaver = memStore
	if pool != nil {
		pg := pgstore.NewQuestionSetStore(pool)
		loader = pg
		saver = pg
	}

	setTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
	var sets app.QuestionSetRepository
	if redisClient != nil {
		sets = redisinfra.NewQuestionSetCache(redisClient, loader, setTTL)
	} else {
		sets = memory.NewQuestionSetCache(loader, setTTL)
	}

	service := app.NewGameService(registry, sets, saver)
	wsHandler := transport.NewWSHandler(service)
	gameHandler := transport.NewGameHandler(service, hostPassword)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go registry.Run(sweepCtx, sweepInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /host/login", gameHandler.Login)
	mux.HandleFunc("POST /host/upload", gameHandler.Upload)
	mux.HandleFunc("POST /host/rehost/{setID}", gameHandler.Rehost)
	mux.HandleFunc("GET /game/{gameID}", gameHandler.Info)
	mux.HandleFunc("GET /ws/player/{gameID}", wsHandler.ServePlayerWS)
	mux.HandleFunc("GET /ws/host/{gameID}", wsHandler.ServeHostWS)

	allowedOrigin := cfg.Server.AllowedOrigin
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3001"
	}
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}).Handler(mux)

	server := &http.Server{
		Addr:    ":" + finalPort,
		Handler: handler,
		// Only the header read is bounded; websocket connections live for
		// the whole game.
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz game server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	stopSweeper()
	registry.Clear()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
