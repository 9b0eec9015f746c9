package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/localtourx-api/internal/config"
	"github.com/localtourx-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/localtourx-api/internal/infrastructure/jwt"
	"github.com/localtourx-api/internal/infrastructure/pending"
	s3infra "github.com/localtourx-api/internal/infrastructure/s3"
	"github.com/localtourx-api/internal/infrastructure/smtp"
	"github.com/localtourx-api/internal/infrastructure/sns"
	transporthttp "github.com/localtourx-api/internal/transport/http"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		fatal("dynamodb client not available", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		fatal("s3 client not available", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider not available", err)
	}

	pendingStore, err := newPendingStore(ctx, cfg)
	if err != nil {
		fatal("pending registration store not available", err)
	}

	var smsSender sns.SMSSender
	if cfg.SMSOTPEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			slog.Warn("sns sender not available, otp goes by email only", "err", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		PostRepo:     dynamo.NewPostRepo(dynamoClient, cfg.DynamoTables.Posts),
		PendingStore: pendingStore,
		ObjectStore:  s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.S3PublicBaseURL),
		Mailer:       smtp.NewMailer(cfg),
		SMSSender:    smsSender,
		JWTProvider:  jwtProvider,
		TokenTTL:     jwtProvider.Expiry(),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		fatal("server error", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("forced shutdown", err)
	}
	slog.Info("server stopped")
}

// newPendingStore picks the pending registration backend. The in-memory store
// is swept in the background until ctx ends.
func newPendingStore(ctx context.Context, cfg *config.Config) (transporthttp.PendingStore, error) {
	switch cfg.PendingStore {
	case "redis":
		client, err := pending.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		slog.Info("pending registrations stored in redis")
		return pending.NewRedisStore(client), nil
	case "memory", "":
		store := pending.NewMemoryStore()
		go store.Run(ctx, cfg.PendingSweepInterval)
		return store, nil
	}
	return nil, fmt.Errorf("unknown PENDING_STORE %q", cfg.PendingStore)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
