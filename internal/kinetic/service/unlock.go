package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

// UnlockView lets viewerID pay to see reportID. Checks run in order: the
// report must be someone else's and discoverable, the viewer must be opted
// in, then able to afford the view. A pair that is already unlocked
// succeeds again without a second charge.
func (s *Service) UnlockView(ctx context.Context, viewerID, reportID string) (resp types.UnlockResponse, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "unlock", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	viewerID, reportID = strings.TrimSpace(viewerID), strings.TrimSpace(reportID)
	r, already, err := s.unlockLocked(viewerID, reportID)
	if err != nil {
		return types.UnlockResponse{}, err
	}
	if !already {
		s.changed()
	}

	c, _ := s.book.Clinic(viewerID)
	resp = types.UnlockResponse{
		OK:              true,
		ReportID:        r.ID,
		AlreadyUnlocked: already,
		Credits:         c.Credits,
		Report:          s.externalView(r, viewerID),
	}
	if !already {
		resp.Charged = s.econ.ViewCost
	}
	return resp, nil
}

// unlockLocked runs one unlock. Every check happens before the first
// mutation; after that the transfer, the unlock record, the counter and
// both audit entries are applied together. Must be called with s.mu held.
func (s *Service) unlockLocked(viewerID, reportID string) (types.Report, bool, error) {
	viewer, ok := s.book.Clinic(viewerID)
	if !ok {
		return types.Report{}, false, ErrUnknownClinic
	}
	r, ok := s.book.Report(reportID)
	if !ok {
		return types.Report{}, false, ErrUnknownReport
	}
	if r.AuthorClinicID == viewerID {
		return types.Report{}, false, ErrOwnReport
	}
	patient, ok := s.dir.Patient(r.PatientID)
	if !ok || !visibility.IsDiscoverable(r, patient, viewerID) {
		return types.Report{}, false, ErrNotDiscoverable
	}

	if !viewer.OptedIn {
		return types.Report{}, false, ErrNotOptedIn
	}
	cost := s.econ.ViewCost
	if viewer.Credits < cost {
		return types.Report{}, false, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCredits, viewer.Credits, cost)
	}
	if s.book.IsUnlocked(viewerID, r.ID) {
		return r, true, nil
	}

	if err := s.book.Transfer(viewerID, r.AuthorClinicID, cost); err != nil {
		return types.Report{}, false, err
	}
	s.book.Unlock(viewerID, r.ID)
	if err := s.book.NoteViewed(viewerID); err != nil {
		return types.Report{}, false, err
	}

	label := s.dir.Label(r.AuthorClinicID)
	s.book.RecordEvent(types.EventView, viewMessage(viewer.Name, r.Tier, patient.Name, label))
	s.book.RecordEvent(types.EventTransfer, transferMessage(viewer.Name, cost, label))

	s.metrics.Unlocked()
	s.metrics.CreditsTransferred(cost)
	s.logger.Info("report unlocked", "viewer", viewerID, "report", r.ID, "cost", cost)
	return r, false, nil
}
