// Command worker runs the long-lived media-processing consumer (spec.md §6
// WORKER CLI, §4.8).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mediaforge/internal/assetdb"
	"mediaforge/internal/bus"
	"mediaforge/internal/config"
	"mediaforge/internal/fetch"
	"mediaforge/internal/imaging"
	"mediaforge/internal/ingest"
	"mediaforge/internal/logger"
	"mediaforge/internal/objectstore"
	"mediaforge/internal/observability"
	"mediaforge/internal/profiles"
	"mediaforge/internal/tempspool"
	"mediaforge/internal/worker"
)

// bootstrapPath resolves the config source: argv[1], else BOOTSTRAP_PATH,
// else config.DefaultBootstrapPath (spec.md §6).
func bootstrapPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if p := os.Getenv("BOOTSTRAP_PATH"); p != "" {
		return p
	}
	return config.DefaultBootstrapPath
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker: fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "worker: no .env file found, using environment variables")
	}

	cfg, err := config.Load(bootstrapPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init("mediaforge-worker", cfg.Env, logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, "mediaforge-worker")
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	db, err := assetdb.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	memoryLimit, err := parseMemoryLimit(cfg)
	if err != nil {
		return fmt.Errorf("parse imaging memory limit: %w", err)
	}

	imaging.Startup()
	defer imaging.Shutdown()
	engine := imaging.NewEngine(memoryLimit)

	store := objectstore.New(objectstore.Config{
		Endpoint:          cfg.S3.Endpoint,
		Region:            cfg.S3.Region,
		Bucket:            cfg.S3.Bucket,
		AccessKey:         cfg.S3.AccessKey,
		SecretKey:         cfg.S3.SecretKey,
		PublicBaseURL:     cfg.S3.PublicURL,
		CacheSeconds:      cfg.S3.CacheSeconds,
		UploadConcurrency: 5,
	})

	b, err := bus.New(bus.Config{
		Host:     cfg.Rabbit.Host,
		Port:     cfg.Rabbit.Port,
		User:     cfg.Rabbit.User,
		Pass:     cfg.Rabbit.Pass,
		Vhost:    cfg.Rabbit.Vhost,
		Queue:    cfg.Rabbit.Queue,
		Prefetch: cfg.Rabbit.Prefetch,
		RetryMax: cfg.Rabbit.RetryMax,
		DLQ:      cfg.Rabbit.DLQ,
	})
	if err != nil {
		return fmt.Errorf("connect message bus: %w", err)
	}
	defer b.Close()

	downloader := fetch.New(fetch.Config{
		TimeoutSeconds: cfg.HTTP.TimeoutSeconds,
		MaxBytes:       cfg.HTTP.MaxBytes,
		UserAgent:      cfg.HTTP.UserAgent,
	})

	registry := profiles.New(cfg.Profiles)

	var spool *tempspool.Spool
	if cfg.Temp.UploadDir != "" {
		spool = tempspool.New(cfg.Temp.UploadDir)
	}

	ingestor := ingest.New(db, engine, store, b, registry, downloader, spool)
	w := worker.New(b, ingestor, worker.Config{RetryMax: retryMax(cfg)})

	queueName := cfg.Rabbit.Queue
	if queueName == "" {
		queueName = "media.process"
	}
	fmt.Printf("worker: consuming queue %q at %s:%d\n", queueName, cfg.Rabbit.Host, cfg.Rabbit.Port)

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}

func retryMax(cfg *config.Config) int {
	if cfg.Rabbit.RetryMax <= 0 {
		return 5
	}
	return cfg.Rabbit.RetryMax
}

func parseMemoryLimit(cfg *config.Config) (int64, error) {
	return imaging.ParseMemoryLimit(cfg.Imaging.MemoryLimit)
}
