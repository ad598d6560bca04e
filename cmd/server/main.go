package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"mri_diagnosis/internal/app/di"
	"mri_diagnosis/internal/app/router"
	"mri_diagnosis/internal/feature/diagnosis/adapters/inference"
	"mri_diagnosis/internal/feature/diagnosis/adapters/preview"
	diagnosishandler "mri_diagnosis/internal/feature/diagnosis/transport/handler"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	"mri_diagnosis/internal/platform/http/handler"
	jwtmw "mri_diagnosis/internal/platform/jwt"
	"mri_diagnosis/internal/platform/logging"
	infraredis "mri_diagnosis/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	logCfg, err := logging.LoadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, logCfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis（任意）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running with in-memory sessions and no classification cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	jwtCfg, err := jwtmw.LoadConfig()
	if err != nil {
		return err
	}
	// JWT_SECRETチェック（開発中の注意喚起）
	if jwtCfg.Secret == "" {
		slog.Warn("JWT_SECRET is not set. Authenticated routes will answer 500 until it is configured.")
	}

	inferenceCfg := inference.LoadConfig()
	classifier, err := di.NewClassifier(inferenceCfg, rdb)
	if err != nil {
		return err
	}
	deriver, err := di.NewDeriver()
	if err != nil {
		return err
	}
	narrator, err := di.NewNarrator(ctx)
	if err != nil {
		slog.Warn("report narrative disabled", "error", err)
	}

	// Usecase
	sessions := di.NewSessionRepository(rdb, jwtCfg.Expiration)
	uc := usecase.NewDiagnosisUsecase(sessions, classifier, preview.NewEncoder(), deriver,
		usecase.WithNarrator(narrator),
		usecase.WithTimeout(inferenceCfg.Timeout),
		usecase.WithSessionTTL(jwtCfg.Expiration),
		usecase.WithLogger(logger),
	)

	// Handler
	diagnosisH := diagnosishandler.NewDiagnosisHandler(uc, jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration))

	checks := map[string]handler.Check{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ルータ生成
	r := router.NewRouter(router.Config{
		JWTSecret:    jwtCfg.Secret,
		AllowOrigins: splitList(os.Getenv("CORS_ALLOW_ORIGINS")),
		ReadyChecks:  checks,
	}, diagnosisH)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("received shutdown signal, draining...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// 実行中の分類リクエストの確定を待つ
	uc.Wait()
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
