package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"satprep-service/internal/app"
	"satprep-service/internal/config"
	"satprep-service/internal/infra/google"
	"satprep-service/internal/infra/memory"
	"satprep-service/internal/infra/opensat"
	pg "satprep-service/internal/infra/postgres"
	redissnap "satprep-service/internal/infra/redis"
	transport "satprep-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice server",
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

	// Question source: upstream API, wrapped in the redis snapshot cache when
	// redis is configured.
	var source app.QuestionSource = opensat.NewClient(cfg.OpenSAT.URL)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapshotTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)
		source = redissnap.NewSnapshotCache(redisClient, source, snapshotTTL)
	}
	bank := app.NewQuestionBank(source)
	if err := bank.Load(ctx); err != nil {
		return err
	}
	log.Printf("question bank loaded: %d questions", bank.Status().Count)

	// Persistence: postgres when configured, in-memory otherwise.
	var (
		users     app.UserRepository
		sessions  app.SessionRepository
		responses app.ResponseRepository
		analytics app.AnalyticsRepository
	)
	if cfg.Postgres.URL != "" {
		db := pg.Open(cfg.Postgres.URL)
		defer db.Close()
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		users = pg.NewUserRepo(db)
		sessions = pg.NewSessionRepo(db)
		responses = pg.NewResponseRepo(db)
		analytics = pg.NewAnalyticsRepo(pool)
	} else {
		log.Printf("postgres not configured, using in-memory repositories")
		store := memory.NewStore()
		users = memory.NewUserRepo(store)
		sessions = memory.NewSessionRepo(store)
		responses = memory.NewResponseRepo(store)
		analytics = memory.NewAnalyticsRepo(store)
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 7*24*time.Hour)
	authService := app.NewAuthService(users, google.NewVerifier(), []byte(cfg.Auth.JWTSecret), tokenTTL)
	progressService := app.NewProgressService(users, sessions, responses, analytics)

	server := transport.NewServer(transport.Options{
		Auth:        authService,
		Progress:    progressService,
		Bank:        bank,
		FrontendURL: cfg.Server.FrontendURL,
	})

	go func() {
		log.Printf("starting satprep service on :%s", finalPort)
		if err := server.Start(":" + finalPort); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
