package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/metrics"
	"dwellwatch/internal/repository"
	"dwellwatch/internal/repository/postgres"
	"dwellwatch/internal/repository/sqlite"
	"dwellwatch/internal/routes"
	"dwellwatch/internal/service/ai"
	"dwellwatch/internal/service/session"
	"dwellwatch/internal/service/storage"
	"dwellwatch/internal/service/video"
	"dwellwatch/internal/service/websocket"
)

const shutdownTimeout = 15 * time.Second

// Stores are the audit log and evidence store selected by configuration.
type Stores struct {
	Audit    repository.AuditRepository
	Evidence repository.EvidenceStore

	db *sqlite.DB
	pg *sql.DB
}

// OpenStores opens the configured audit and evidence backends. The SQLite
// file is opened when either backend needs it.
func OpenStores(cfg *config.Config, logger *logger.Logger) (*Stores, error) {
	s := &Stores{}

	if cfg.AuditBackend == config.AuditBackendSQLite || cfg.EvidenceBackend == config.EvidenceBackendFile {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}

	switch cfg.AuditBackend {
	case config.AuditBackendPostgres:
		pg, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		s.pg = pg
		s.Audit = postgres.NewAuditRepository(pg)
	default:
		s.Audit = sqlite.NewAuditRepository(s.db)
	}

	switch cfg.EvidenceBackend {
	case config.EvidenceBackendCOS:
		store, err := storage.NewCOSStore(cfg, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Evidence = store
	default:
		s.Evidence = storage.NewFileStore(cfg, logger, sqlite.NewEvidenceRepository(s.db))
	}

	logger.Info("Audit log: %s, evidence store: %s", cfg.AuditBackend, cfg.EvidenceBackend)
	return s, nil
}

// Close releases the database handles.
func (s *Stores) Close() error {
	var errs []error
	if s.pg != nil {
		errs = append(errs, s.pg.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// App is the dwellwatch server: session workers, live hub and HTTP surface.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	stores   *Stores
	detector *ai.DetectorService
	hub      *websocket.HubService
	manager  *session.Manager
	server   *http.Server
}

// NewApp wires the stores, detector, session workers and routes.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	stores, err := OpenStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	detector, err := ai.NewDetectorService(cfg, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	hub := websocket.NewHubService(cfg, logger)
	manager, err := session.NewManager(cfg, logger, video.NewOpener(cfg, detector), session.Sinks{
		Evidence:  stores.Evidence,
		Audit:     stores.Audit,
		Annotator: video.NewAnnotator(),
	}, hub, m)
	if err != nil {
		detector.Close()
		stores.Close()
		return nil, err
	}

	router := routes.SetupRoutes(cfg, logger, routes.Services{
		Sessions: manager,
		Audit:    stores.Audit,
		Evidence: stores.Evidence,
		Hub:      hub,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return &App{
		config:   cfg,
		logger:   logger,
		stores:   stores,
		detector: detector,
		hub:      hub,
		manager:  manager,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is done, then drains sessions and shuts down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("dwellwatch listening on %s (threshold %s, policy %s)",
			a.server.Addr, a.config.DwellThreshold, a.config.ViolationPolicy)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(shutdownCtx)
		a.manager.Stop()
		if err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases the detector and the stores. Call after Run returns.
func (a *App) Close() error {
	a.manager.Stop()
	return errors.Join(a.detector.Close(), a.stores.Close())
}
