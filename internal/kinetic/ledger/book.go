// Package ledger holds the whole mutable state of the collective: clinic
// balances and flags, the report store, the unlock registry and the audit
// log. Balances change only through Transfer.
//
// A Book is not safe for concurrent use. Callers wrap every compound
// operation in a single-writer boundary covering the whole book.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

var (
	// ErrInvariantViolation marks a programming error in calling code, such
	// as a transfer the caller should have refused.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	ErrUnknownClinic = errors.New("unknown clinic")
)

type unlockKey struct {
	viewer string
	report string
}

type Book struct {
	dir *Directory

	clinics map[string]*types.Clinic

	reports   []types.Report
	reportIdx map[string]int

	unlocks     map[unlockKey]struct{}
	unlockOrder []types.UnlockRecord

	entries []types.LedgerEntry // oldest first

	now   func() time.Time
	newID func() string
}

type Option func(*Book)

// WithClock replaces time.Now for entry and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithIDs replaces the uuid generator for ledger entry ids.
func WithIDs(newID func() string) Option {
	return func(b *Book) { b.newID = newID }
}

// New returns a book in its seeded state: clinics as listed in the
// directory and the given seed reports. Each clinic's ReportsShared counter
// is derived from the seed reports that were shareable.
func New(dir *Directory, seedReports []types.Report, opts ...Option) (*Book, error) {
	b := &Book{
		dir:   dir,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(b)
	}
	b.reset(dir.initialClinics())

	for _, r := range seedReports {
		if err := b.AddReport(r); err != nil {
			return nil, err
		}
		if b.isShareable(r) {
			b.clinics[r.AuthorClinicID].ReportsShared++
		}
	}
	return b, nil
}

func (b *Book) reset(clinics []types.Clinic) {
	b.clinics = make(map[string]*types.Clinic, len(clinics))
	for i := range clinics {
		c := clinics[i]
		b.clinics[c.ID] = &c
	}
	b.reports = nil
	b.reportIdx = make(map[string]int)
	b.unlocks = make(map[unlockKey]struct{})
	b.unlockOrder = nil
	b.entries = nil
}

func (b *Book) Directory() *Directory { return b.dir }

// Now is the book's clock.
func (b *Book) Now() time.Time { return b.now() }

// NewID returns a fresh identifier from the book's generator.
func (b *Book) NewID() string { return b.newID() }
