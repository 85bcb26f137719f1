package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/BrandonDHaskell/kinetic/internal/config"
	"github.com/BrandonDHaskell/kinetic/internal/db"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/seed"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store/leveldb"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store/memory"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store/postgres"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store/s3"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store/sqlite"
	"github.com/BrandonDHaskell/kinetic/internal/metrics"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	metrics *metrics.Prometheus

	book   *ledger.Book
	svc    *service.Service
	store  store.SnapshotStore // nil when the driver is "none"
	syncer *service.SnapshotSyncer

	// sqliteStore is set for the sqlite driver so the ledger command can
	// query the mirrored entries.
	sqliteStore *sqlite.SnapshotStore

	closers []func() error
}

// buildApp seeds the book and wires the service to its snapshot store. It
// does not load the snapshot or start any goroutine.
func buildApp(ctx context.Context, cfg config.Config, logger *log.Logger, health service.HealthReporter) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.NewPrometheus()}

	data := seed.Default()
	if cfg.SeedFile != "" {
		var err error
		if data, err = seed.LoadFile(cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	dir, reports, err := data.Build(seed.BuildOptions{InitialCredits: cfg.Economy.InitialCredits})
	if err != nil {
		return nil, fmt.Errorf("build seed: %w", err)
	}
	a.book, err = ledger.New(dir, reports)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	a.svc, err = service.New(service.Dependencies{
		Book: a.book,
		Economy: service.Economy{
			InitialCredits:  cfg.Economy.InitialCredits,
			ViewCost:        cfg.Economy.ViewCost,
			ConsumeBatchMax: cfg.Economy.ConsumeBatchMax,
		},
		Logger:  logger,
		Metrics: a.metrics,
	})
	if err != nil {
		return nil, err
	}

	if err := a.openStore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.store != nil {
		a.syncer = service.NewSnapshotSyncer(a.store, a.svc, service.SyncerConfig{
			ID:       cfg.Snapshot.ID,
			Debounce: cfg.Snapshot.Debounce(),
			Timeout:  cfg.Snapshot.Timeout(),
			Compress: cfg.Snapshot.Compress,
		}, logger, a.metrics, health)
		a.svc.SetNotifier(a.syncer)
	}
	return a, nil
}

// openStore picks the snapshot backend named by the config.
func (a *app) openStore(ctx context.Context) error {
	cfg := a.cfg
	switch cfg.Snapshot.Driver {
	case "none":
		a.logger.Warn("snapshot persistence disabled, state lives in memory only")
	case "memory":
		a.store = memory.New()
	case "sqlite":
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		writer := db.NewWorker(conn)
		a.closers = append(a.closers, conn.Close, func() error { writer.Close(); return nil })
		a.sqliteStore = sqlite.NewSnapshotStore(conn, writer)
		a.store = a.sqliteStore
	case "postgres":
		st, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		a.store = st
	case "s3":
		st, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return fmt.Errorf("open s3: %w", err)
		}
		a.store = st
	case "leveldb":
		st, err := leveldb.Open(cfg.LevelDB.Path)
		if err != nil {
			return fmt.Errorf("open leveldb: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		a.store = st
	default:
		return fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
	}
	return nil
}

// Close releases store handles in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
