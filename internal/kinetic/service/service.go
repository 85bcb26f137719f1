// Package service runs every command and query against the ledger. All of
// them execute under one lock covering the whole book, so a compound
// operation such as an unlock is never observed half applied.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/metrics"
)

// Economy holds the fixed economic constants. ViewCost is both the price
// of an unlock and the amount credited to the author.
type Economy struct {
	InitialCredits  int
	ViewCost        int
	ConsumeBatchMax int
}

func DefaultEconomy() Economy {
	return Economy{InitialCredits: 30, ViewCost: 10, ConsumeBatchMax: 5}
}

// Notifier is told after every applied mutation. It must not block.
type Notifier interface {
	Notify()
}

type Dependencies struct {
	Book    *ledger.Book
	Economy Economy
	Logger  *log.Logger
	Metrics metrics.Recorder
}

type Service struct {
	mu   sync.Mutex
	book *ledger.Book
	dir  *ledger.Directory
	econ Economy

	auth     *Authenticator
	sessions *Sessions

	logger   *log.Logger
	metrics  metrics.Recorder
	notifier Notifier
}

func New(deps Dependencies) (*Service, error) {
	if deps.Book == nil {
		return nil, fmt.Errorf("service: nil book")
	}
	e := deps.Economy
	if e.ViewCost <= 0 || e.InitialCredits < 0 || e.ConsumeBatchMax <= 0 {
		return nil, fmt.Errorf("service: invalid economy %+v", e)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	dir := deps.Book.Directory()
	return &Service{
		book:     deps.Book,
		dir:      dir,
		econ:     e,
		auth:     NewAuthenticator(dir),
		sessions: NewSessions(),
		logger:   logger,
		metrics:  rec,
	}, nil
}

// SetNotifier registers the snapshot syncer. It is set once at wiring time,
// before the service handles requests.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

func (s *Service) Economy() Economy { return s.econ }

// changed must be called with s.mu held, after a mutation was applied.
func (s *Service) changed() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// Snapshot exports the whole state.
func (s *Service) Snapshot() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Export()
}

// Restore replaces the whole state with snap. A malformed snapshot leaves
// the current state in place.
func (s *Service) Restore(snap types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Import(snap)
}
