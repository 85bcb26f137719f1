package types

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a report's sharing class, fixed at creation.
type Tier string

const (
	TierPrivate Tier = "Private"
	TierSummary Tier = "Summary"
	TierFull    Tier = "Full"
)

// ParseTier accepts the canonical names case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private":
		return TierPrivate, nil
	case "summary":
		return TierSummary, nil
	case "full":
		return TierFull, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

func (t Tier) Valid() bool {
	return t == TierPrivate || t == TierSummary || t == TierFull
}

// EventType classifies a ledger entry.
type EventType string

const (
	EventLogin    EventType = "LOGIN"
	EventOpt      EventType = "OPT"
	EventShare    EventType = "SHARE"
	EventView     EventType = "VIEW"
	EventTransfer EventType = "TRANSFER"
	EventBlocked  EventType = "BLOCKED"
	EventConsent  EventType = "CONSENT"
)

func (e EventType) Valid() bool {
	switch e {
	case EventLogin, EventOpt, EventShare, EventView, EventTransfer, EventBlocked, EventConsent:
		return true
	}
	return false
}

// Clinic is a participating organization and the unit of credit ownership.
// JSON field names follow the persisted snapshot layout.
type Clinic struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	OptedIn       bool   `json:"optedIn"`
	Credits       int    `json:"credits"`
	ReportsShared int    `json:"reportsShared"`
	ReportsViewed int    `json:"reportsViewed"`
}

type Patient struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HomeClinicID string `json:"homeClinicId"`
	Consent      bool   `json:"consent"`
}

// Report is an authored clinical record. Immutable once stored.
type Report struct {
	ID             string `json:"id"`
	PatientID      string `json:"patientId"`
	AuthorClinicID string `json:"authorClinicId"`
	Tier           Tier   `json:"tier"`
	Notes          string `json:"notes"`
	Summary        string `json:"summary,omitempty"`
	ReportType     string `json:"reportType,omitempty"`
	VisitDate      string `json:"visitDate,omitempty"`
	Timestamp      int64  `json:"timestamp"` // unix ms
}

func (r Report) CreatedAt() time.Time { return time.UnixMilli(r.Timestamp).UTC() }

// UnlockRecord marks that a viewer has paid to see a report.
type UnlockRecord struct {
	ViewerClinicID string `json:"viewerClinicId"`
	ReportID       string `json:"reportId"`
}

type LedgerEntry struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"` // unix ms
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
}

func (e LedgerEntry) Time() time.Time { return time.UnixMilli(e.Timestamp).UTC() }

// Snapshot is the whole persisted state document. Ledger is newest-first.
type Snapshot struct {
	Clinics         []Clinic       `json:"clinics"`
	Reports         []Report       `json:"reports"`
	Ledger          []LedgerEntry  `json:"ledger"`
	UnlockedReports []UnlockRecord `json:"unlockedReports"`
}
