package service

import (
	"time"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

const defaultReportType = "Visit Note"

// The helpers below must be called with s.mu held.

func (s *Service) clinicView(c types.Clinic) types.ClinicView {
	return types.ClinicView{
		ID:            c.ID,
		Name:          c.Name,
		Username:      c.Username,
		OptedIn:       c.OptedIn,
		Credits:       c.Credits,
		Net:           c.Credits - s.econ.InitialCredits,
		ReportsShared: c.ReportsShared,
		ReportsViewed: c.ReportsViewed,
	}
}

func (s *Service) baseView(r types.Report) types.ReportView {
	v := types.ReportView{
		ID:         r.ID,
		PatientID:  r.PatientID,
		Tier:       r.Tier,
		ReportType: r.ReportType,
		VisitDate:  r.VisitDate,
		CreatedAt:  r.CreatedAt().Format(time.RFC3339),
		Shareable:  s.book.IsShareable(r),
	}
	if p, ok := s.dir.Patient(r.PatientID); ok {
		v.PatientName = p.Name
	}
	if v.ReportType == "" {
		v.ReportType = defaultReportType
	}
	if v.VisitDate == "" {
		v.VisitDate = r.CreatedAt().Format("2006-01-02")
	}
	return v
}

// ownView is the author's view: real authorship and all content.
func (s *Service) ownView(r types.Report) types.ReportView {
	v := s.baseView(r)
	v.Author = r.AuthorClinicID
	v.Unlocked = true
	v.Summary = r.Summary
	if v.Summary == "" {
		v.Summary = visibility.DeriveSummary(r.Notes)
	}
	v.Notes = r.Notes
	return v
}

// externalView is what viewerID sees of someone else's report: the
// contributor label and content redacted by tier and unlock state.
func (s *Service) externalView(r types.Report, viewerID string) types.ReportView {
	v := s.baseView(r)
	v.Author = s.dir.Label(r.AuthorClinicID)
	v.Unlocked = s.book.IsUnlocked(viewerID, r.ID)
	v.Summary, v.Notes = visibility.Content(r, v.Unlocked)
	return v
}

func entryView(e types.LedgerEntry) types.LedgerEntryView {
	return types.LedgerEntryView{
		ID:        e.ID,
		Type:      e.Type,
		Message:   e.Message,
		Timestamp: e.Time().Format(time.RFC3339Nano),
	}
}
