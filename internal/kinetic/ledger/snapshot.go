package ledger

import (
	"errors"
	"fmt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Export returns a deep copy of the whole state as a snapshot document.
func (b *Book) Export() types.Snapshot {
	return types.Snapshot{
		Clinics:         b.Clinics(),
		Reports:         b.Reports(),
		Ledger:          b.Entries(),
		UnlockedReports: b.Unlocks(),
	}
}

// Import replaces the book's state with snap. The snapshot is validated in
// full first; on error the book is left as it was. Directory clinics missing
// from the snapshot keep their seeded state.
func (b *Book) Import(snap types.Snapshot) error {
	if err := b.validate(snap); err != nil {
		return err
	}

	byID := make(map[string]types.Clinic, len(snap.Clinics))
	for _, c := range snap.Clinics {
		byID[c.ID] = c
	}
	clinics := b.dir.initialClinics()
	for i, c := range clinics {
		if s, ok := byID[c.ID]; ok {
			clinics[i] = s
		}
	}

	b.reset(clinics)
	for _, r := range snap.Reports {
		// validated above
		_ = b.AddReport(r)
	}
	for _, u := range snap.UnlockedReports {
		b.Unlock(u.ViewerClinicID, u.ReportID)
	}
	// Stored newest first; keep them oldest first in memory.
	b.entries = make([]types.LedgerEntry, 0, len(snap.Ledger))
	for i := len(snap.Ledger) - 1; i >= 0; i-- {
		b.entries = append(b.entries, snap.Ledger[i])
	}
	return nil
}

func (b *Book) validate(snap types.Snapshot) error {
	if snap.Clinics == nil || snap.Reports == nil || snap.Ledger == nil || snap.UnlockedReports == nil {
		return fmt.Errorf("%w: missing section", ErrMalformedSnapshot)
	}

	seen := make(map[string]struct{}, len(snap.Clinics))
	for _, c := range snap.Clinics {
		if !b.dir.HasClinic(c.ID) {
			return fmt.Errorf("%w: unknown clinic %q", ErrMalformedSnapshot, c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate clinic %q", ErrMalformedSnapshot, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Credits < 0 {
			return fmt.Errorf("%w: clinic %q has negative credits", ErrMalformedSnapshot, c.ID)
		}
	}

	reports := make(map[string]struct{}, len(snap.Reports))
	for _, r := range snap.Reports {
		if r.ID == "" {
			return fmt.Errorf("%w: report without id", ErrMalformedSnapshot)
		}
		if _, dup := reports[r.ID]; dup {
			return fmt.Errorf("%w: duplicate report %q", ErrMalformedSnapshot, r.ID)
		}
		if !b.dir.HasClinic(r.AuthorClinicID) {
			return fmt.Errorf("%w: report %q by unknown clinic", ErrMalformedSnapshot, r.ID)
		}
		if _, ok := b.dir.Patient(r.PatientID); !ok {
			return fmt.Errorf("%w: report %q for unknown patient", ErrMalformedSnapshot, r.ID)
		}
		if !r.Tier.Valid() {
			return fmt.Errorf("%w: report %q has tier %q", ErrMalformedSnapshot, r.ID, r.Tier)
		}
		reports[r.ID] = struct{}{}
	}

	for _, u := range snap.UnlockedReports {
		if !b.dir.HasClinic(u.ViewerClinicID) {
			return fmt.Errorf("%w: unlock by unknown clinic %q", ErrMalformedSnapshot, u.ViewerClinicID)
		}
		if _, ok := reports[u.ReportID]; !ok {
			return fmt.Errorf("%w: unlock of unknown report %q", ErrMalformedSnapshot, u.ReportID)
		}
	}

	for _, e := range snap.Ledger {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: ledger entry %q has type %q", ErrMalformedSnapshot, e.ID, e.Type)
		}
	}
	return nil
}
