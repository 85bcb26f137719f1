package ledger

import (
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

// AddReport stores a report. Reports are never edited or removed.
func (b *Book) AddReport(r types.Report) error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return fmt.Errorf("%w: report without id", ErrInvariantViolation)
	}
	if _, dup := b.reportIdx[r.ID]; dup {
		return fmt.Errorf("%w: duplicate report %s", ErrInvariantViolation, r.ID)
	}
	if _, ok := b.clinics[r.AuthorClinicID]; !ok {
		return fmt.Errorf("%w: report %s by unknown clinic %s", ErrInvariantViolation, r.ID, r.AuthorClinicID)
	}
	if _, ok := b.dir.Patient(r.PatientID); !ok {
		return fmt.Errorf("%w: report %s for unknown patient %s", ErrInvariantViolation, r.ID, r.PatientID)
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("%w: report %s has tier %q", ErrInvariantViolation, r.ID, r.Tier)
	}
	b.reportIdx[r.ID] = len(b.reports)
	b.reports = append(b.reports, r)
	return nil
}

func (b *Book) Report(id string) (types.Report, bool) {
	i, ok := b.reportIdx[id]
	if !ok {
		return types.Report{}, false
	}
	return b.reports[i], true
}

// Reports returns all reports in creation order.
func (b *Book) Reports() []types.Report {
	out := make([]types.Report, len(b.reports))
	copy(out, b.reports)
	return out
}

// AuthoredBy returns the clinic's own reports in creation order.
func (b *Book) AuthoredBy(clinicID string) []types.Report {
	var out []types.Report
	for _, r := range b.reports {
		if r.AuthorClinicID == clinicID {
			out = append(out, r)
		}
	}
	return out
}

// Discoverable returns the reports requesterID may discover, optionally
// restricted to one patient ("" means any patient), in creation order.
func (b *Book) Discoverable(requesterID, patientID string) []types.Report {
	var out []types.Report
	for _, r := range b.reports {
		if patientID != "" && r.PatientID != patientID {
			continue
		}
		p, ok := b.dir.Patient(r.PatientID)
		if !ok {
			continue
		}
		if visibility.IsDiscoverable(r, p, requesterID) {
			out = append(out, r)
		}
	}
	return out
}

// IsShareable evaluates the sharing rule for r against current state.
func (b *Book) IsShareable(r types.Report) bool {
	return b.isShareable(r)
}

func (b *Book) isShareable(r types.Report) bool {
	author, ok := b.clinics[r.AuthorClinicID]
	if !ok {
		return false
	}
	p, ok := b.dir.Patient(r.PatientID)
	if !ok {
		return false
	}
	return visibility.IsShareable(r, p, *author)
}
