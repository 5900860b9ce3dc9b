package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jsdelfino/watsonwork-weather/common/id"
	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/common/otel"
	"github.com/jsdelfino/watsonwork-weather/core/config"
	"github.com/jsdelfino/watsonwork-weather/internal/brain"
	"github.com/jsdelfino/watsonwork-weather/internal/mapper"
	"github.com/jsdelfino/watsonwork-weather/internal/pipeline"
	"github.com/jsdelfino/watsonwork-weather/internal/queue"
	"github.com/jsdelfino/watsonwork-weather/internal/service"
	"github.com/jsdelfino/watsonwork-weather/internal/service/watsonwork"
	"github.com/jsdelfino/watsonwork-weather/internal/service/weather"
	"github.com/jsdelfino/watsonwork-weather/internal/state"
	"github.com/jsdelfino/watsonwork-weather/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "weather worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"state_backend", cfg.State.Backend)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    cfg.Worker.Concurrency * 2,
		Block:        5 * time.Second,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	var store state.Store
	switch cfg.State.Backend {
	case "memory":
		slog.WarnContext(ctx, "conversation state kept in memory; it is lost on restart and not shared between workers")
		store = state.NewMemoryStore()
	default:
		store = state.NewRedisStore(redisClient, state.RedisStoreConfig{
			KeyPrefix: cfg.State.KeyPrefix,
			TTL:       cfg.State.TTL,
		})
	}

	tokens := watsonwork.NewTokenSource(ctx, cfg.WatsonAPI.BaseURL, cfg.App.ID, cfg.App.Secret,
		&http.Client{Timeout: cfg.WatsonAPI.Timeout})
	if _, err := tokens.Token(); err != nil {
		slog.ErrorContext(ctx, "failed to authenticate app with watson work", "error", err)
		os.Exit(1)
	}

	watson, err := watsonwork.New(watsonwork.Config{
		BaseURL: cfg.WatsonAPI.BaseURL,
		Timeout: cfg.WatsonAPI.Timeout,
	}, tokens, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create watson work client", "error", err)
		os.Exit(1)
	}

	twc := weather.New(weather.Config{
		BaseURL:   cfg.Weather.BaseURL,
		User:      cfg.Weather.User,
		Password:  cfg.Weather.Password,
		Timeout:   cfg.Weather.Timeout,
		RateLimit: cfg.Weather.RateLimit,
		Burst:     cfg.Weather.Burst,
	}, slog.Default())

	handler := pipeline.New(
		mapper.NewWatsonWorkClassifier(cfg.App.ID),
		service.NewCorrelationResolver(cfg.App.ID, watson, watson, slog.Default()),
		store,
		brain.NewDialog(twc, slog.Default()),
		watson,
		slog.Default(),
	)

	w := worker.New(consumer, handler, worker.Config{
		Concurrency: cfg.Worker.Concurrency,
		MaxAttempts: cfg.Worker.MaxAttempts,
		LaneBuffer:  cfg.Worker.LaneBuffer,
	}, slog.Default())

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer,
		MinIdle:   2 * time.Minute,
		Interval:  30 * time.Second,
		BatchSize: 20,
	}, consumer, w.Dispatch)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return reclaimer.Run(gctx) })

	slog.InfoContext(ctx, "worker initialized and running")

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "worker error", "error", err)
	}

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "worker shutdown complete")
}

const banner = `
 _    _            _   _                 _    _            _
| |  | |          | | | |               | |  | |          | |
| |  | | ___  __ _| |_| |__   ___ _ __  | |  | | ___  _ __| | _____ _ __
| |/\| |/ _ \/ _` + "`" + ` | __| '_ \ / _ \ '__| | |/\| |/ _ \| '__| |/ / _ \ '__|
\  /\  /  __/ (_| | |_| | | |  __/ |    \  /\  / (_) | |  |   <  __/ |
 \/  \/ \___|\__,_|\__|_| |_|\___|_|     \/  \/ \___/|_|  |_|\_\___|_|
`
