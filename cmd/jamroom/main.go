package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/jamroom/internal/app"
	"github.com/Freeeeeet/jamroom/internal/auth"
	"github.com/Freeeeeet/jamroom/internal/config"
	"github.com/Freeeeeet/jamroom/internal/httpapi"
	"github.com/Freeeeeet/jamroom/internal/migrations"
	"github.com/Freeeeeet/jamroom/internal/notify"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"github.com/Freeeeeet/jamroom/internal/repository/memstore"
	"github.com/Freeeeeet/jamroom/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	tokenTTL        = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

type options struct {
	envFile     string
	migrateOnly bool
	issueToken  string
	seedUsers   []string
}

func main() {
	var opts options
	pflag.StringVar(&opts.envFile, "env-file", ".env", "path to .env file")
	pflag.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")
	pflag.StringVar(&opts.issueToken, "issue-token", "", "register the nickname if needed, print its bearer token and exit")
	pflag.StringSliceVar(&opts.seedUsers, "seed-users", nil, "nicknames to register on startup (tokens are logged outside production)")
	pflag.Parse()

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, opts, logger); err != nil {
		logger.Fatal("jamroom stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, opts options, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting jamroom",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.Bool("env_file_loaded", cfg.EnvFileLoaded),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.migrateOnly {
		logger.Info("Migrations done, exiting")
		return nil
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, tokenTTL)
	if err != nil {
		return err
	}
	users := service.NewUserService(store.Users(), logger)

	if opts.issueToken != "" {
		token, err := issueToken(ctx, users, tokens, opts.issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	for _, nickname := range opts.seedUsers {
		token, err := issueToken(ctx, users, tokens, nickname)
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			logger.Info("Seed user registered", zap.String("nickname", nickname))
			continue
		}
		logger.Info("Seed user registered", zap.String("nickname", nickname), zap.String("token", token))
	}

	senders := []notify.Sender{notify.NewLogSender(logger)}
	if cfg.TelegramToken != "" {
		b, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return err
		}
		senders = append(senders, notify.NewTelegramSender(b, store.Users(), cfg.PublicBaseURL, logger))
	}

	dispatcher := app.NewDispatcher(cfg.NotifyQueueSize, logger, senders...)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	router := httpapi.NewRouter(httpapi.Deps{
		Store:              store,
		Auth:               tokens,
		Rooms:              service.NewRoomService(store, dispatcher, logger),
		Sessions:           service.NewSessionService(store, dispatcher, logger),
		Reservations:       service.NewReservationService(store, logger),
		Availability:       service.NewAvailabilityService(store, logger),
		Evaluations:        service.NewEvaluationService(store, logger),
		Chat:               service.NewChatService(store, logger),
		Logger:             logger,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// openStore выбирает хранилище по конфигу; для PostgreSQL применяет миграции
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewStore(pool), pool.Close, nil
}

func issueToken(ctx context.Context, users *service.UserService, tokens *auth.Manager, nickname string) (string, error) {
	user, err := users.RegisterUser(ctx, nickname, nil)
	if err != nil {
		return "", err
	}
	return tokens.Issue(user.ID)
}
