package service_test

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/seed"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func silentLogger() *log.Logger {
	return log.New(io.Discard)
}

// newService builds a service over data with every clinic starting at
// initialCredits and the default view cost and batch size.
func newService(t *testing.T, data seed.Data, initialCredits int) (*service.Service, *ledger.Book) {
	t.Helper()

	dir, reports, err := data.Build(seed.BuildOptions{
		InitialCredits: initialCredits,
		Now:            testNow,
		HashCost:       bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("seed build: %v", err)
	}
	book, err := ledger.New(dir, reports, ledger.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	econ := service.DefaultEconomy()
	econ.InitialCredits = initialCredits
	svc, err := service.New(service.Dependencies{
		Book:    book,
		Economy: econ,
		Logger:  silentLogger(),
	})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return svc, book
}

func newDefaultService(t *testing.T) (*service.Service, *ledger.Book) {
	t.Helper()
	return newService(t, seed.Default(), 30)
}

// twoClinics is a minimal network: C1 views, C2 authors n consenting
// Summary reports.
func twoClinics(n int) seed.Data {
	d := seed.Data{
		Clinics: []seed.Clinic{
			{ID: "C1", Name: "Viewer Clinic", Username: "viewer", Password: "pw", OptedIn: true},
			{ID: "C2", Name: "Author Clinic", Username: "author", Password: "pw", OptedIn: true},
		},
		Patients: []seed.Patient{
			{ID: "P1", Name: "Pat One", HomeClinicID: "C2", Consent: true},
		},
	}
	for i := 0; i < n; i++ {
		d.Reports = append(d.Reports, seed.Report{
			ID:             "R" + string(rune('1'+i)),
			PatientID:      "P1",
			AuthorClinicID: "C2",
			Tier:           "Summary",
			Notes:          "notes",
		})
	}
	return d
}

func countKind(entries []types.LedgerEntry, kind types.EventType) int {
	n := 0
	for _, e := range entries {
		if e.Type == kind {
			n++
		}
	}
	return n
}

func credits(t *testing.T, b *ledger.Book, id string) int {
	t.Helper()
	c, ok := b.Clinic(id)
	if !ok {
		t.Fatalf("unknown clinic %s", id)
	}
	return c.Credits
}
