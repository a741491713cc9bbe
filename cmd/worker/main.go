package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dailyflow/dailyflow/internal/app"
	"github.com/dailyflow/dailyflow/internal/dailyreport"
	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
	jobmetrics "github.com/dailyflow/dailyflow/internal/jobs"
	"github.com/dailyflow/dailyflow/internal/observability"
	"github.com/dailyflow/dailyflow/internal/platform/db"
	"github.com/dailyflow/dailyflow/jobs"
	"github.com/dailyflow/dailyflow/report"
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "serve worker metrics on this address (disabled when empty)")
	flag.Parse()

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	loc := cfg.Location()

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 4})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	exportMetrics := observability.NewExportMetrics(registry)
	jobMetrics := jobmetrics.NewMetrics(registry)

	renderer, err := export.NewHTMLRenderer()
	if err != nil {
		logger.Error("parse export template", slog.Any("error", err))
		os.Exit(1)
	}
	reportRepo := dailyreport.NewRepository(pool)
	exporter := export.NewExporter(export.ExporterConfig{
		Source: reportRepo,
		Images: export.NewInliner(export.InlinerConfig{
			Timeout:  cfg.ImageFetchTimeout,
			MaxBytes: cfg.ImageMaxBytes,
			Metrics:  exportMetrics,
			Logger:   logger,
		}),
		Renderer: renderer,
		PDF:      report.NewClient(cfg.GotenbergURL, cfg.ExportTimeout),
		Location: loc,
		Metrics:  exportMetrics,
		Logger:   logger,
	})
	archiveJob := export.NewArchiveJob(export.ArchiveJobConfig{
		Exporter: exporter,
		Areas:    reportRepo,
		Dir:      cfg.ArchiveDir,
		Location: loc,
		Logger:   logger,
		Metrics:  jobMetrics,
	})

	archiveTask, err := jobs.NewWeeklyArchiveTask(jobs.WeeklyArchivePayload{})
	if err != nil {
		logger.Error("build archive task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskWeeklyArchive, Handler: archiveJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ArchiveCron, Task: archiveTask},
		},
		Location: loc,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("worker started", slog.String("archive_cron", cfg.ArchiveCron), slog.String("timezone", loc.String()))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
