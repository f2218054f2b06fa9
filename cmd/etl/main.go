package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-covid-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-covid-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/county-covid-etl/internal/adapter/kafka"
	"github.com/couchcryptid/county-covid-etl/internal/adapter/nyt"
	"github.com/couchcryptid/county-covid-etl/internal/config"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
	"github.com/couchcryptid/county-covid-etl/internal/pipeline"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		slog.Error("failed to load env file", "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}()

	feed := nyt.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics)
	reference := csvfile.NewReferenceReader(cfg.ReferencePath, logger, metrics)
	transformer := pipeline.NewTransformer(pipeline.TransformOptions{
		Cluster:        cfg.Cluster,
		DensityMetrics: cfg.DensityMetrics,
		RollingMean:    cfg.RollingMean,
		Smoothing:      cfg.Smoothing,
		OptimizeOutput: cfg.OptimizeOutput,
	}, logger, metrics)

	loaders := []pipeline.Loader{csvfile.NewWriter(cfg.OutputPath(), logger, metrics)}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger, metrics)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "batch_size", cfg.BatchSize)
	}

	p := pipeline.New(feed, reference, transformer, loaders, clockwork.NewRealClock(), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics.Registry(), logger)
		serverCtx, stopServer := context.WithCancel(ctx)
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.ListenAndServe(serverCtx, cfg.ShutdownTimeout); err != nil {
				logger.Error("status server error", "error", err)
			}
		}()
		defer func() {
			stopServer()
			<-served
		}()
	}

	if err := p.Run(ctx); err != nil {
		return 1
	}
	return 0
}
