package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	resultformservice "tally/contexts/results-processing/result-form-service"
	"tally/contexts/results-processing/result-form-service/adapters/memory"
	"tally/contexts/results-processing/result-form-service/adapters/policy"
	postgresadapter "tally/contexts/results-processing/result-form-service/adapters/postgres"
	"tally/contexts/results-processing/result-form-service/adapters/telemetry"
	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/application/workers"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/quarantine"
	"tally/contexts/results-processing/result-form-service/ports"
	"tally/internal/platform/config"
	"tally/internal/platform/db"
	"tally/internal/platform/httpserver"
	"tally/internal/platform/messaging"
	"tally/internal/platform/monitoring"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	monitor  *monitoring.Monitor
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	monitor         *monitoring.Monitor
	bus             *messaging.Bus
	outboxRelay     workers.OutboxRelay
	refresher       workers.ProjectionRefresher
	pollInterval    time.Duration
	refreshInterval time.Duration
	logger          *slog.Logger
}

// tallyStore is everything one storage backend provides to the module.
type tallyStore interface {
	ports.UnitOfWork
	ports.WorkflowStore
	ports.ReportReader
	ports.ProjectionStore
	ports.StationProgressStore
	ports.OutboxRepository
	ports.Clock
	ports.IDGenerator
}

// NewLogger builds the JSON process logger at the configured level.
func NewLogger(cfg config.Config, process string) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", cfg.ServiceName, "process", process)
}

// Settings maps the workflow file onto the application settings.
func Settings(workflow config.Workflow) application.Settings {
	return application.Settings{
		MinStationNumber:           workflow.MinStationNumber,
		MaxStationNumber:           workflow.MaxStationNumber,
		MaxFileUploadSize:          workflow.MaxFileUploadSize,
		PrintCoverInIntake:         workflow.PrintCoverInIntake,
		PrintCoverInClearance:      workflow.PrintCoverInClearance,
		PrintCoverInQualityControl: workflow.PrintCoverInQualityControl,
		PrintCoverInAudit:          workflow.PrintCoverInAudit,
	}
}

// QuarantineChecks returns the configured seed checks, or the built-in
// defaults when the workflow file lists none.
func QuarantineChecks(workflow config.Workflow) []entities.QuarantineCheck {
	if len(workflow.QuarantineChecks) == 0 {
		return quarantine.DefaultChecks()
	}
	checks := make([]entities.QuarantineCheck, 0, len(workflow.QuarantineChecks))
	for _, item := range workflow.QuarantineChecks {
		checks = append(checks, entities.QuarantineCheck{
			Name:        strings.TrimSpace(item.Name),
			Method:      strings.TrimSpace(item.Method),
			Description: item.Description,
			Value:       item.ToleranceValue,
			Percentage:  item.Percentage,
			Active:      item.Active,
		})
	}
	return checks
}

// OpenPostgres connects and migrates the tally schema.
func OpenPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*db.Postgres, *postgresadapter.Repository, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.ConnectWithOptions(ctx, cfg.PostgresDSN, db.Options{}, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return pg, repo, nil
}

// BuildModule wires the result-form module over store and seeds the
// configured quarantine checks.
func BuildModule(
	ctx context.Context,
	cfg config.Config,
	store tallyStore,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *slog.Logger,
) (resultformservice.Module, error) {
	authorizer, err := policy.NewAuthorizer(logger)
	if err != nil {
		return resultformservice.Module{}, err
	}
	module := resultformservice.NewModule(resultformservice.Dependencies{
		UnitOfWork:      store,
		Forms:           store,
		Entries:         store,
		Disputes:        store,
		Reviews:         store,
		Reference:       store,
		Comments:        store,
		Checks:          store,
		History:         store,
		Reports:         store,
		Projections:     store,
		Progress:        store,
		Outbox:          store,
		OutboxWrite:     store,
		Publisher:       publisher,
		Authorizer:      authorizer,
		Metrics:         metrics,
		Flights:         &singleflight.Group{},
		Clock:           store,
		IDGen:           store,
		Settings:        Settings(cfg.Workflow),
		Registry:        quarantine.DefaultRegistry(),
		TallyIDs:        cfg.TallyIDs,
		OutboxBatchSize: 100,
		Logger:          logger,
	})
	if _, err := module.Handler.CheckAdmin.EnsureChecks(ctx, QuarantineChecks(cfg.Workflow)); err != nil {
		return resultformservice.Module{}, fmt.Errorf("seed quarantine checks: %w", err)
	}
	return module, nil
}

func newMonitor(cfg config.Config, logger *slog.Logger) (*monitoring.Monitor, ports.Metrics, error) {
	if !cfg.MetricsEnabled {
		return nil, nil, nil
	}
	monitor, err := monitoring.New(cfg.ServiceName, logger)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := telemetry.NewMetrics(monitor.Meter())
	if err != nil {
		return nil, nil, err
	}
	return monitor, metrics, nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, "api")
	ctx := context.Background()

	monitor, metrics, err := newMonitor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store tallyStore
	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store = memory.NewStore(entities.ReferenceBatch{})
	} else {
		conn, repo, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		pg, store = conn, repo
	}

	module, err := BuildModule(ctx, cfg, store, nil, metrics, logger)
	if err != nil {
		if pg != nil {
			_ = pg.Close()
		}
		return nil, err
	}

	server := httpserver.New(module, monitorHandler(monitor), logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		monitor:  monitor,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, "worker")
	ctx := context.Background()

	monitor, metrics, err := newMonitor(cfg, logger)
	if err != nil {
		return nil, err
	}
	pg, repo, err := OpenPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(256, logger)
	module, err := BuildModule(ctx, cfg, repo, bus, metrics, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	return &WorkerApp{
		postgres:        pg,
		monitor:         monitor,
		bus:             bus,
		outboxRelay:     module.Outbox,
		refresher:       module.Refresher,
		pollInterval:    cfg.WorkerPollInterval,
		refreshInterval: cfg.ProjectionRefreshInterval,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *APIApp) Close() error {
	var errs []error
	if a.monitor != nil {
		errs = append(errs, a.monitor.Shutdown(context.Background()))
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run relays the outbox every poll interval and rebuilds the candidate
// projections every refresh interval until ctx is cancelled. Relayed events
// are logged by an in-process consumer.
func (w *WorkerApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer w.bus.Wait()
	defer cancel()
	if err := w.bus.Subscribe(ctx, messaging.AllTopics, "tally-event-log", w.logEvent); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"refresh_interval", w.refreshInterval.String(),
		"tally_ids", w.refresher.TallyIDs,
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return runEvery(ctx, w.pollInterval, w.outboxRelay.RunOnce)
	})
	group.Go(func() error {
		return runEvery(ctx, w.refreshInterval, w.refresher.RunOnce)
	})
	return group.Wait()
}

// WorkerSchedule is what a worker process refreshes and how often.
type WorkerSchedule struct {
	TallyIDs        []string
	PollInterval    time.Duration
	RefreshInterval time.Duration
}

func (w *WorkerApp) Schedule() WorkerSchedule {
	return WorkerSchedule{
		TallyIDs:        append([]string(nil), w.refresher.TallyIDs...),
		PollInterval:    w.pollInterval,
		RefreshInterval: w.refreshInterval,
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.monitor != nil {
		errs = append(errs, w.monitor.Shutdown(context.Background()))
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) logEvent(_ context.Context, event ports.EventEnvelope) error {
	w.logger.Info("tally event relayed",
		"event", "tally_event_relayed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"tally_id", event.TallyID,
		"partition_key", event.PartitionKey,
	)
	return nil
}

// runEvery calls fn at once and then on every tick. A failing fn stops the
// loop unless ctx is already done.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func monitorHandler(monitor *monitoring.Monitor) http.Handler {
	if monitor == nil {
		return nil
	}
	return monitor.Handler()
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
