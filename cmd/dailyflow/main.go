package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailyflow/dailyflow/cmd/dailyflow/cli"
	"github.com/dailyflow/dailyflow/internal/app"
	"github.com/dailyflow/dailyflow/internal/auth"
	"github.com/dailyflow/dailyflow/internal/dailyreport"
	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
	reporthttp "github.com/dailyflow/dailyflow/internal/dailyreport/http"
	"github.com/dailyflow/dailyflow/internal/observability"
	"github.com/dailyflow/dailyflow/internal/platform/cache"
	"github.com/dailyflow/dailyflow/internal/platform/db"
	"github.com/dailyflow/dailyflow/internal/rbac"
	"github.com/dailyflow/dailyflow/internal/shared"
	"github.com/dailyflow/dailyflow/internal/view"
	"github.com/dailyflow/dailyflow/jobs"
	"github.com/dailyflow/dailyflow/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
		case "export":
			os.Exit(runExport(ctx, cfg, logger, os.Args[2:]))
		case "jobs":
			os.Exit(runJobs(ctx, cfg, os.Args[2:]))
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (serve, export, jobs)\n", os.Args[1])
			os.Exit(cli.ExitUsage)
		}
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("serve", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	loc := cfg.Location()

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 10, MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "dailyflow_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine(loc)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	metrics := observability.NewMetrics()
	exportMetrics := observability.NewExportMetrics(metrics.Registerer())

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	reportRepo := dailyreport.NewRepository(dbpool)
	reportService := dailyreport.NewService(reportRepo)
	pagesHandler := dailyreport.NewHandler(logger, reportRepo, reportService, templates, csrfManager, loc)

	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.ExportTimeout)
	reportHandler := report.NewHandler(pdfClient, logger)

	exporter, err := newExporter(cfg, logger, dbpool, pdfClient, exportMetrics)
	if err != nil {
		return err
	}

	redisOpts := cfg.AsynqRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	exportHandler := reporthttp.NewHandler(logger, exporter, rbacService, jobClient, loc, cfg.ExportTimeout)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		AuthHandler:    authHandler,
		PagesHandler:   pagesHandler,
		ExportHandler:  exportHandler,
		ReportHandler:  reportHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newExporter(cfg *app.Config, logger *slog.Logger, pool *pgxpool.Pool, pdf export.PDFConverter, metrics *observability.ExportMetrics) (*export.Exporter, error) {
	renderer, err := export.NewHTMLRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse export template: %w", err)
	}
	return export.NewExporter(export.ExporterConfig{
		Source: dailyreport.NewRepository(pool),
		Images: export.NewInliner(export.InlinerConfig{
			Timeout:  cfg.ImageFetchTimeout,
			MaxBytes: cfg.ImageMaxBytes,
			Metrics:  metrics,
			Logger:   logger,
		}),
		Renderer: renderer,
		PDF:      pdf,
		Location: cfg.Location(),
		Metrics:  metrics,
		Logger:   logger,
	}), nil
}

func runExport(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	opts := cli.ExportOptions{Location: cfg.Location()}
	fs.StringVar(&opts.AreaID, "area", "", "area id (uuid)")
	fs.StringVar(&opts.Week, "week", "", "any date inside the work week, YYYY-MM-DD (default today)")
	fs.StringVar(&opts.Format, "format", "pdf", "pdf or xlsx")
	fs.StringVar(&opts.OutDir, "out", ".", "output directory")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print a JSON summary")
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		return cli.ExitFailure
	}
	defer pool.Close()

	exporter, err := newExporter(cfg, logger, pool, report.NewClient(cfg.GotenbergURL, cfg.ExportTimeout), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ExportTimeout)
	defer cancel()
	return cli.ExportCommand(ctx, exporter, opts)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dailyflow jobs archive [-area uuid] [-week YYYY-MM-DD] | dailyflow jobs stats")
		return cli.ExitUsage
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.AsynqRedis())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "archive":
		fs := flag.NewFlagSet("jobs archive", flag.ContinueOnError)
		var payload jobs.WeeklyArchivePayload
		fs.StringVar(&payload.AreaID, "area", "", "area id (empty archives every area)")
		fs.StringVar(&payload.Reference, "week", "", "any date inside the work week, YYYY-MM-DD")
		if err := fs.Parse(args[1:]); err != nil {
			return cli.ExitUsage
		}
		info, err := jobsCLI.TriggerArchive(ctx, payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "enqueue archive: %v\n", err)
			return cli.ExitFailure
		}
		fmt.Printf("enqueued %s (%s)\n", info.ID, info.Type)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "inspect queue: %v\n", err)
			return cli.ExitFailure
		}
		_ = json.NewEncoder(os.Stdout).Encode(stats)
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return cli.ExitUsage
	}
	return cli.ExitOK
}
