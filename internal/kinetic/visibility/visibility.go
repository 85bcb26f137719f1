// Package visibility decides whether a report may be shared or discovered.
// Everything here is a pure function of its arguments.
package visibility

import (
	"fmt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// Block reasons, in the order they are checked.
const (
	ReasonAuthorOptedOut = "author not opted in"
	ReasonNoConsent      = "patient has not consented"
	ReasonPrivateTier    = "tier is Private"
)

// summaryRunes bounds the derived summary of a report without one.
const summaryRunes = 100

// IsShareable reports whether a freshly authored report enters the network.
func IsShareable(r types.Report, p types.Patient, author types.Clinic) bool {
	return author.OptedIn && p.Consent && r.Tier != types.TierPrivate
}

// IsDiscoverable reports whether requesterID may see that r exists. The
// requester's own opt-in and balance are checked only when unlocking.
func IsDiscoverable(r types.Report, p types.Patient, requesterID string) bool {
	return r.AuthorClinicID != requesterID && r.Tier != types.TierPrivate && p.Consent
}

// ReasonBlocked returns the first failing sharing rule, or "" when none fails.
func ReasonBlocked(author types.Clinic, p types.Patient, tier types.Tier) string {
	switch {
	case !author.OptedIn:
		return ReasonAuthorOptedOut
	case !p.Consent:
		return ReasonNoConsent
	case tier == types.TierPrivate:
		return ReasonPrivateTier
	}
	return ""
}

// ContributorLabel is the pseudonym for the clinic at the given zero-based
// position of the seeded directory.
func ContributorLabel(position int) string {
	return fmt.Sprintf("Contributor #%d", position+1)
}

// DeriveSummary shortens notes to the redacted summary shown for Summary tier.
func DeriveSummary(notes string) string {
	rs := []rune(notes)
	if len(rs) <= summaryRunes {
		return notes
	}
	return string(rs[:summaryRunes]) + "..."
}

// Content returns the summary and notes a non-author may read. Locked reports
// expose nothing; Summary tier never exposes full notes.
func Content(r types.Report, unlocked bool) (summary, notes string) {
	if !unlocked || r.Tier == types.TierPrivate {
		return "", ""
	}
	summary = r.Summary
	if summary == "" {
		summary = DeriveSummary(r.Notes)
	}
	if r.Tier == types.TierFull {
		notes = r.Notes
	}
	return summary, notes
}
