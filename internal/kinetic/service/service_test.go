package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// ── Construction ─────────────────────────────────────────────────────────────

func TestNew_RejectsBadEconomy(t *testing.T) {
	_, book := newDefaultService(t)
	for _, e := range []service.Economy{
		{InitialCredits: 30, ViewCost: 0, ConsumeBatchMax: 5},
		{InitialCredits: -1, ViewCost: 10, ConsumeBatchMax: 5},
		{InitialCredits: 30, ViewCost: 10, ConsumeBatchMax: 0},
	} {
		if _, err := service.New(service.Dependencies{Book: book, Economy: e}); err == nil {
			t.Errorf("expected error for %+v", e)
		}
	}
	if _, err := service.New(service.Dependencies{Economy: service.DefaultEconomy()}); err == nil {
		t.Error("expected error for nil book")
	}
}

// ── Login / Logout ───────────────────────────────────────────────────────────

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)

	resp, err := svc.Login(ctx, "Harbour", "Heidi123!")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "c1", resp.Clinic.ID)
	assert.Equal(t, 0, resp.Clinic.Net)

	entries := book.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.EventLogin, entries[0].Type)
	assert.Equal(t, "Successful login: Harbour Physio", entries[0].Message)

	id, ok := svc.SessionClinic(resp.Token)
	assert.True(t, ok)
	assert.Equal(t, "c1", id)

	svc.Logout(ctx, resp.Token)
	svc.Logout(ctx, resp.Token)
	_, ok = svc.SessionClinic(resp.Token)
	assert.False(t, ok)
}

func TestLogin_Refused(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)

	for _, creds := range [][2]string{
		{"harbour", "wrong"},
		{"harbour", ""},
		{"nobody", "Heidi123!"},
		{"", ""},
	} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, service.ErrInvalidCredentials, "login %q", creds[0])
	}
	assert.Zero(t, book.EntryCount(), "failed logins are not audited")
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultService(t)

	clinics := svc.Clinics(ctx)
	require.Len(t, clinics, 5)
	assert.Equal(t, "c1", clinics[0].ID)
	assert.Equal(t, 1, clinics[0].ReportsShared)

	assert.Len(t, svc.Patients(ctx), 10)

	own, err := svc.AuthoredReports(ctx, "c3")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.False(t, own[0].Shareable, "c3 is opted out")
	assert.Equal(t, "c3", own[0].Author)

	_, err = svc.AuthoredReports(ctx, "zz")
	assert.ErrorIs(t, err, service.ErrUnknownClinic)

	econ := svc.EconomyOverview(ctx)
	assert.Equal(t, 30, econ.InitialCredits)
	assert.Equal(t, 10, econ.ViewCost)
	assert.Equal(t, 4, econ.ClinicsOptedIn)
	assert.Equal(t, 5, econ.ClinicsTotal)
	assert.Equal(t, 4, econ.ReportsTotal)
}

func TestLedger_Filters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultService(t)

	_, err := svc.Login(ctx, "peak", "Heidi123!")
	require.NoError(t, err)
	_, err = svc.UnlockView(ctx, "c2", "r1")
	require.NoError(t, err)

	all, err := svc.Ledger(ctx, service.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, types.EventTransfer, all.Entries[0].Type)
	assert.Equal(t, types.EventLogin, all.Entries[2].Type)

	transfers, err := svc.Ledger(ctx, service.LedgerFilter{TransfersOnly: true})
	require.NoError(t, err)
	require.Len(t, transfers.Entries, 1)

	views, err := svc.Ledger(ctx, service.LedgerFilter{Types: []types.EventType{types.EventView, types.EventLogin}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, views.Entries, 1)
	assert.Equal(t, types.EventView, views.Entries[0].Type)

	_, err = svc.Ledger(ctx, service.LedgerFilter{Types: []types.EventType{"BOGUS"}})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}

// ── Properties ───────────────────────────────────────────────────────────────

// Any interleaving of commands keeps every balance non-negative and the
// network total fixed.
func TestProperty_BalancesNeverNegativeAndConserved(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)
	rng := rand.New(rand.NewSource(42))

	clinics := []string{"c1", "c2", "c3", "c4", "c5"}
	patients := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10"}
	tiers := []string{"Private", "Summary", "Full"}
	total := book.TotalCredits()

	for step := 0; step < 400; step++ {
		c := clinics[rng.Intn(len(clinics))]
		switch rng.Intn(5) {
		case 0:
			_, _ = svc.SetOptIn(ctx, c, rng.Intn(3) > 0)
		case 1:
			_, _ = svc.CreateReport(ctx, types.CreateReportRequest{
				AuthorClinicID: c,
				PatientID:      patients[rng.Intn(len(patients))],
				Tier:           tiers[rng.Intn(len(tiers))],
				Notes:          "note",
			})
		case 2:
			rs := book.Reports()
			_, err := svc.UnlockView(ctx, c, rs[rng.Intn(len(rs))].ID)
			if errors.Is(err, ledger.ErrInvariantViolation) {
				t.Fatalf("step %d: invariant violation reached through the service: %v", step, err)
			}
		case 3:
			_, _ = svc.SimulateConsume(ctx, c)
		case 4:
			_, _ = svc.SimulateEarn(ctx, c)
		}

		for _, cl := range book.Clinics() {
			require.GreaterOrEqual(t, cl.Credits, 0, "clinic %s at step %d", cl.ID, step)
		}
		require.Equal(t, total, book.TotalCredits(), "step %d", step)
	}

	// Every unlock paid exactly once.
	transfers := len(book.Entries(types.EventTransfer))
	assert.Equal(t, len(book.Unlocks()), transfers)
	assert.Equal(t, transfers, len(book.Entries(types.EventView)))
}

// ── Notifier ─────────────────────────────────────────────────────────────────

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify() { c.n++ }

func TestService_NotifiesOnlyOnMutation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultService(t)
	n := &countingNotifier{}
	svc.SetNotifier(n)

	_ = svc.Clinics(ctx)
	_, _ = svc.UnlockView(ctx, "c3", "r1") // refused
	assert.Equal(t, 0, n.n)

	_, err := svc.UnlockView(ctx, "c1", "r2")
	require.NoError(t, err)
	assert.Equal(t, 1, n.n)

	_, err = svc.UnlockView(ctx, "c1", "r2") // already unlocked
	require.NoError(t, err)
	assert.Equal(t, 1, n.n)
}
