package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

// CreateReport stores a new report and resolves its sharing outcome once:
// a shareable report bumps the author's shared counter and is logged as
// SHARE, anything else is logged as BLOCKED with one reason. No credits
// move.
func (s *Service) CreateReport(ctx context.Context, req types.CreateReportRequest) (resp types.CreateReportResponse, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "create_report", start, err) }()

	authorID := strings.TrimSpace(req.AuthorClinicID)
	patientID := strings.TrimSpace(req.PatientID)
	notes := strings.TrimSpace(req.Notes)
	if authorID == "" || patientID == "" {
		return types.CreateReportResponse{}, fmt.Errorf("%w: author_clinic_id and patient_id are required", ErrInvalidRequest)
	}
	tier, err := types.ParseTier(req.Tier)
	if err != nil {
		return types.CreateReportResponse{}, ErrInvalidTier
	}
	if notes == "" {
		return types.CreateReportResponse{}, ErrEmptyNotes
	}
	visitDate := strings.TrimSpace(req.VisitDate)
	if visitDate != "" {
		if _, err := time.Parse("2006-01-02", visitDate); err != nil {
			return types.CreateReportResponse{}, fmt.Errorf("%w: visit_date must be YYYY-MM-DD", ErrInvalidRequest)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.book.Clinic(authorID)
	if !ok {
		return types.CreateReportResponse{}, ErrUnknownClinic
	}
	patient, ok := s.dir.Patient(patientID)
	if !ok {
		return types.CreateReportResponse{}, ErrUnknownPatient
	}

	now := s.book.Now()
	if visitDate == "" {
		visitDate = now.Format("2006-01-02")
	}
	reportType := strings.TrimSpace(req.ReportType)
	if reportType == "" {
		reportType = defaultReportType
	}
	r := types.Report{
		ID:             s.book.NewID(),
		PatientID:      patientID,
		AuthorClinicID: authorID,
		Tier:           tier,
		Notes:          notes,
		Summary:        strings.TrimSpace(req.Summary),
		ReportType:     reportType,
		VisitDate:      visitDate,
		Timestamp:      now.UnixMilli(),
	}
	if err := s.book.AddReport(r); err != nil {
		return types.CreateReportResponse{}, err
	}

	resp = types.CreateReportResponse{OK: true}
	if visibility.IsShareable(r, patient, author) {
		if err := s.book.NoteShared(authorID); err != nil {
			return types.CreateReportResponse{}, err
		}
		s.book.RecordEvent(types.EventShare, shareMessage(author.Name, tier, patient.Name))
		resp.Shared = true
		s.logger.Info("report shared", "report", r.ID, "author", authorID, "tier", tier)
	} else {
		reason := visibility.ReasonBlocked(author, patient, tier)
		s.book.RecordEvent(types.EventBlocked, blockedMessage(author.Name, tier, patient.Name, reason))
		s.metrics.ShareBlocked()
		resp.BlockedReason = reason
		s.logger.Info("report saved, share blocked", "report", r.ID, "author", authorID, "reason", reason)
	}
	s.changed()

	resp.Report = s.ownView(r)
	return resp, nil
}

// SetOptIn sets a clinic's participation flag. An actual change is logged
// as an OPT entry; setting the current value again is a no-op.
func (s *Service) SetOptIn(ctx context.Context, clinicID string, optedIn bool) (view types.ClinicView, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "set_opt_in", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.book.Clinic(strings.TrimSpace(clinicID))
	if !ok {
		return types.ClinicView{}, ErrUnknownClinic
	}
	if c.OptedIn != optedIn {
		if err := s.book.SetOptIn(c.ID, optedIn); err != nil {
			return types.ClinicView{}, err
		}
		s.book.RecordEvent(types.EventOpt, optMessage(c.Name, optedIn))
		s.changed()
		c.OptedIn = optedIn
		s.logger.Info("opt-in changed", "clinic", c.ID, "opted_in", optedIn)
	}
	return s.clinicView(c), nil
}
