package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/metrics"
)

// SnapshotSource is the state the syncer persists. *Service implements it.
type SnapshotSource interface {
	Snapshot() types.Snapshot
	Restore(types.Snapshot) error
}

// HealthReporter learns the outcome of each save.
type HealthReporter interface {
	SetSnapshotHealthy(ok bool)
}

type SyncerConfig struct {
	ID       string
	Debounce time.Duration // defaults to 500ms
	Timeout  time.Duration // per load or save; defaults to 5s
	Compress bool
}

// SnapshotSyncer writes the whole state to a store after each burst of
// mutations settles. Saving never blocks the mutation that triggered it;
// a failed save is logged and retried on the next mutation.
type SnapshotSyncer struct {
	store  store.SnapshotStore
	source SnapshotSource
	cfg    SyncerConfig

	logger  *log.Logger
	metrics metrics.Recorder
	health  HealthReporter

	kick   chan struct{}
	saveMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSnapshotSyncer(st store.SnapshotStore, src SnapshotSource, cfg SyncerConfig, logger *log.Logger, rec metrics.Recorder, health HealthReporter) *SnapshotSyncer {
	if cfg.ID == "" {
		cfg.ID = "kinetic-demo"
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &SnapshotSyncer{
		store:   st,
		source:  src,
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
		health:  health,
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Load restores the stored snapshot into the source. It reports whether a
// snapshot was applied; a missing, unreadable or malformed snapshot leaves
// the seeded state in place and is never fatal.
func (s *SnapshotSyncer) Load(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	data, err := s.store.Load(ctx, s.cfg.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Info("no snapshot found, starting from seed", "id", s.cfg.ID)
		return false
	}
	if err != nil {
		s.logger.Warn("snapshot load failed, starting from seed", "id", s.cfg.ID, "err", err)
		return false
	}
	snap, err := store.Decode(data)
	if err != nil {
		s.logger.Warn("snapshot unreadable, starting from seed", "id", s.cfg.ID, "err", err)
		return false
	}
	if err := s.source.Restore(snap); err != nil {
		s.logger.Warn("snapshot rejected, starting from seed", "id", s.cfg.ID, "err", err)
		return false
	}
	s.logger.Info("snapshot restored", "id", s.cfg.ID,
		"clinics", len(snap.Clinics), "reports", len(snap.Reports), "entries", len(snap.Ledger))
	return true
}

// Notify schedules a save. It never blocks.
func (s *SnapshotSyncer) Notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Start begins the background loop. It exits when ctx is cancelled or Stop
// is called, saving first if a save is pending.
func (s *SnapshotSyncer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Info("snapshot syncer started", "id", s.cfg.ID, "debounce", s.cfg.Debounce)
}

// Stop ends the loop and waits for the final save.
func (s *SnapshotSyncer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *SnapshotSyncer) loop(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if pending || len(s.kick) > 0 {
				// The run context is gone; the final save gets its own.
				_ = s.Flush(context.Background())
			}
			return
		case <-s.kick:
			pending = true
			timer.Reset(s.cfg.Debounce)
		case <-timer.C:
			err := s.Flush(ctx)
			// Interrupted by shutdown: let the final save retry it.
			pending = err != nil && ctx.Err() != nil
		}
	}
}

// Flush saves the current state now.
func (s *SnapshotSyncer) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	data, err := store.Encode(s.source.Snapshot(), s.cfg.Compress)
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		err = s.store.Save(ctx, s.cfg.ID, data)
		cancel()
	}

	s.metrics.SnapshotSaved(err == nil)
	if s.health != nil {
		s.health.SetSnapshotHealthy(err == nil)
	}
	if err != nil {
		s.logger.Warn("snapshot save failed", "id", s.cfg.ID, "err", err)
		return err
	}
	s.logger.Debug("snapshot saved", "id", s.cfg.ID, "bytes", len(data))
	return nil
}
