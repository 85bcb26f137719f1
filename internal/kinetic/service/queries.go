package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// Clinics lists every clinic in directory order.
func (s *Service) Clinics(_ context.Context) []types.ClinicView {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := s.book.Clinics()
	out := make([]types.ClinicView, 0, len(cs))
	for _, c := range cs {
		out = append(out, s.clinicView(c))
	}
	return out
}

func (s *Service) Clinic(_ context.Context, id string) (types.ClinicView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.book.Clinic(strings.TrimSpace(id))
	if !ok {
		return types.ClinicView{}, ErrUnknownClinic
	}
	return s.clinicView(c), nil
}

func (s *Service) Patients(_ context.Context) []types.PatientView {
	ps := s.dir.Patients()
	out := make([]types.PatientView, 0, len(ps))
	for _, p := range ps {
		out = append(out, types.PatientView{
			ID:           p.ID,
			Name:         p.Name,
			HomeClinicID: p.HomeClinicID,
			Consent:      p.Consent,
		})
	}
	return out
}

// DiscoverReports lists the external reports requesterID may discover,
// optionally for one patient. Authors appear as contributor labels and
// content is redacted until unlocked.
func (s *Service) DiscoverReports(_ context.Context, requesterID, patientID string) ([]types.ReportView, error) {
	requesterID, patientID = strings.TrimSpace(requesterID), strings.TrimSpace(patientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.HasClinic(requesterID) {
		return nil, ErrUnknownClinic
	}
	if patientID != "" {
		if _, ok := s.dir.Patient(patientID); !ok {
			return nil, ErrUnknownPatient
		}
	}

	rs := s.book.Discoverable(requesterID, patientID)
	out := make([]types.ReportView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.externalView(r, requesterID))
	}
	return out, nil
}

// AuthoredReports lists the clinic's own reports with their current
// shareability.
func (s *Service) AuthoredReports(_ context.Context, clinicID string) ([]types.ReportView, error) {
	clinicID = strings.TrimSpace(clinicID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.HasClinic(clinicID) {
		return nil, ErrUnknownClinic
	}
	rs := s.book.AuthoredBy(clinicID)
	out := make([]types.ReportView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.ownView(r))
	}
	return out, nil
}

type LedgerFilter struct {
	TransfersOnly bool
	Types         []types.EventType
	Limit         int // <= 0 means no limit
}

// Ledger returns audit entries newest first.
func (s *Service) Ledger(_ context.Context, f LedgerFilter) (types.LedgerResponse, error) {
	kinds := f.Types
	if f.TransfersOnly {
		kinds = []types.EventType{types.EventTransfer}
	}
	for _, k := range kinds {
		if !k.Valid() {
			return types.LedgerResponse{}, fmt.Errorf("%w: unknown entry type %q", ErrInvalidRequest, k)
		}
	}

	s.mu.Lock()
	entries := s.book.Entries(kinds...)
	s.mu.Unlock()

	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	out := types.LedgerResponse{Entries: make([]types.LedgerEntryView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, entryView(e))
	}
	return out, nil
}

// EconomyOverview reports the constants and network-wide figures.
func (s *Service) EconomyOverview(_ context.Context) types.EconomyResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := s.book.Clinics()
	resp := types.EconomyResponse{
		InitialCredits:  s.econ.InitialCredits,
		ViewCost:        s.econ.ViewCost,
		ConsumeBatchMax: s.econ.ConsumeBatchMax,
		ClinicsTotal:    len(cs),
		ReportsTotal:    len(s.book.Reports()),
		Clinics:         make([]types.ClinicView, 0, len(cs)),
	}
	for _, c := range cs {
		if c.OptedIn {
			resp.ClinicsOptedIn++
		}
		resp.Clinics = append(resp.Clinics, s.clinicView(c))
	}
	return resp
}
