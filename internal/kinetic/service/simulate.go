package service

import (
	"context"
	"strings"
	"time"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

// SimulateConsume has viewerID unlock discoverable reports it has not paid
// for yet, in store order, one unlock at a time. It stops after
// ConsumeBatchMax unlocks or as soon as the viewer can no longer afford the
// next one. Unlocks already made are kept.
func (s *Service) SimulateConsume(ctx context.Context, viewerID string) (resp types.ConsumeResponse, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "simulate_consume", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	viewerID = strings.TrimSpace(viewerID)
	viewer, ok := s.book.Clinic(viewerID)
	if !ok {
		return types.ConsumeResponse{}, ErrUnknownClinic
	}
	if !viewer.OptedIn {
		return types.ConsumeResponse{}, ErrNotOptedIn
	}
	if viewer.Credits < s.econ.ViewCost {
		return types.ConsumeResponse{}, ErrInsufficientCredits
	}

	resp = types.ConsumeResponse{OK: true, ReportIDs: []string{}}
	for _, r := range s.book.Discoverable(viewerID, "") {
		if resp.Count >= s.econ.ConsumeBatchMax {
			break
		}
		if s.book.IsUnlocked(viewerID, r.ID) {
			continue
		}
		if c, _ := s.book.Clinic(viewerID); c.Credits < s.econ.ViewCost {
			break
		}
		if _, _, err := s.unlockLocked(viewerID, r.ID); err != nil {
			if resp.Count > 0 {
				s.changed()
			}
			return types.ConsumeResponse{}, err
		}
		resp.Count++
		resp.CreditsSpent += s.econ.ViewCost
		resp.ReportIDs = append(resp.ReportIDs, r.ID)
	}
	if resp.Count > 0 {
		s.changed()
	}

	c, _ := s.book.Clinic(viewerID)
	resp.Credits = c.Credits
	s.logger.Debug("consume simulation", "viewer", viewerID, "unlocked", resp.Count)
	return resp, nil
}

// SimulateEarn has another clinic view one of authorID's reports. The
// viewer is the first clinic in directory order that is opted in, can
// afford a view and has not yet unlocked one of the author's discoverable
// reports. The view runs through the normal unlock protocol.
func (s *Service) SimulateEarn(ctx context.Context, authorID string) (resp types.EarnResponse, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "simulate_earn", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	authorID = strings.TrimSpace(authorID)
	if _, ok := s.book.Clinic(authorID); !ok {
		return types.EarnResponse{}, ErrUnknownClinic
	}

	var shared []types.Report
	for _, r := range s.book.AuthoredBy(authorID) {
		p, ok := s.dir.Patient(r.PatientID)
		// Any clinic other than the author sees the same thing.
		if ok && visibility.IsDiscoverable(r, p, "") {
			shared = append(shared, r)
		}
	}
	if len(shared) == 0 {
		return types.EarnResponse{}, ErrNoSharedReports
	}

	for _, c := range s.book.Clinics() {
		if c.ID == authorID || !c.OptedIn || c.Credits < s.econ.ViewCost {
			continue
		}
		for _, r := range shared {
			if s.book.IsUnlocked(c.ID, r.ID) {
				continue
			}
			if _, _, err := s.unlockLocked(c.ID, r.ID); err != nil {
				return types.EarnResponse{}, err
			}
			s.changed()

			author, _ := s.book.Clinic(authorID)
			s.logger.Debug("earn simulation", "author", authorID, "viewer", c.ID, "report", r.ID)
			return types.EarnResponse{
				OK:       true,
				ViewerID: c.ID,
				ReportID: r.ID,
				Credited: s.econ.ViewCost,
				Credits:  author.Credits,
			}, nil
		}
	}
	return types.EarnResponse{}, ErrNoEligibleViewer
}
