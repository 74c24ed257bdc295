// Command server starts the oral-interview evaluator HTTP server.
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

	"github.com/redis/go-redis/v9"

	ai "github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/ai/openai"
	httpserver "github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/httpserver"
	kbfile "github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/kb/file"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/app"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/usecase"
)

// redisPinger adapts *redis.Client to app.RedisClient.
type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) app.RedisPingResult { return p.rdb.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Knowledge base
	loader := kbfile.New(cfg.DataDir)

	// AI client; the expected-answer path goes through the Redis cache when
	// REDIS_ADDR is configured.
	oa := openai.New(cfg)
	var rdb *redis.Client
	var gen domain.AnswerGenerator = oa
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		gen = ai.NewExpectedAnswerCache(oa, rdb, cfg.ExpectedAnswerTTL)
		slog.Info("expected-answer cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	evalSvc := usecase.NewEvaluateService(loader, gen, cfg.TopicMap, cfg.Engine)
	ctxSvc := usecase.NewContextService(loader, cfg.TopicMap, cfg.Engine)

	var pinger app.RedisClient
	if rdb != nil {
		pinger = redisPinger{rdb}
	}
	kbCheck, redisCheck, openaiCheck := app.BuildReadinessChecks(loader, pinger, oa)

	srv := httpserver.NewServer(cfg, evalSvc, ctxSvc, oa, kbCheck, redisCheck, openaiCheck)
	handler := app.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
