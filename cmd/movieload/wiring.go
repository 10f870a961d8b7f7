package main

import (
	"context"
	"fmt"

	"movieload/internal/config"
	"movieload/internal/logger"
	"movieload/internal/metrics"
	"movieload/internal/metrics/datadog"
	"movieload/internal/metrics/prompush"
	"movieload/internal/pipeline"
	"movieload/internal/storage"
	"movieload/internal/storage/mongo"
	"movieload/internal/storage/postgres"
	"movieload/internal/storage/sqlite"
)

// relationalConfig maps the configured kind onto a storage.Config.
func relationalConfig(cfg config.Config) (storage.Config, error) {
	switch cfg.RelationalKind {
	case postgres.Kind:
		return storage.Config{Kind: cfg.RelationalKind, DSN: cfg.Postgres.DSN(), ConnectTimeout: cfg.Postgres.ConnectTimeout}, nil
	case sqlite.Kind:
		return storage.Config{Kind: cfg.RelationalKind, DSN: cfg.SQLitePath, ConnectTimeout: cfg.Postgres.ConnectTimeout}, nil
	default:
		return storage.Config{}, fmt.Errorf("unknown relational kind %q", cfg.RelationalKind)
	}
}

func relationalOpener(cfg config.Config) pipeline.RelationalOpener {
	return func(ctx context.Context) (storage.Relational, error) {
		sc, err := relationalConfig(cfg)
		if err != nil {
			return nil, err
		}
		return storage.New(ctx, sc)
	}
}

func documentOpener(cfg config.Config) pipeline.DocumentOpener {
	return func(ctx context.Context) (storage.Document, error) {
		s, err := mongo.Open(ctx, mongo.Config{
			URI:                    cfg.Mongo.URI(),
			Database:               cfg.Mongo.Database,
			ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// setupMetrics installs the configured backend and returns the function
// that flushes it at the end of the run. A backend that fails to start is
// logged and metrics stay disabled.
func setupMetrics(cfg config.Config, runID string, log *logger.Logger) func() {
	metrics.SetJob(cfg.Metrics.Job)

	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(prompush.Config{GatewayURL: cfg.Metrics.PushgatewayURL, Job: cfg.Metrics.Job, RunID: runID})
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: cfg.Metrics.DatadogAddr, Tags: []string{"run_id:" + runID}})
	case "", "none":
		return func() {}
	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", cfg.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend unavailable; metrics disabled", "backend", cfg.Metrics.Backend, "err", err)
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled", "backend", cfg.Metrics.Backend, "job", cfg.Metrics.Job)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", "err", err)
		}
	}
}
