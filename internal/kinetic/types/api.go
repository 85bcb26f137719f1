package types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK     bool       `json:"ok"`
	Token  string     `json:"token"`
	Clinic ClinicView `json:"clinic"`
}

type ClinicView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	OptedIn       bool   `json:"opted_in"`
	Credits       int    `json:"credits"`
	Net           int    `json:"net"` // credits minus the initial stake
	ReportsShared int    `json:"reports_shared"`
	ReportsViewed int    `json:"reports_viewed"`
}

type OptInRequest struct {
	OptedIn *bool `json:"opted_in"`
}

type CreateReportRequest struct {
	AuthorClinicID string `json:"author_clinic_id"`
	PatientID      string `json:"patient_id"`
	Tier           string `json:"tier"`
	Notes          string `json:"notes"`
	Summary        string `json:"summary,omitempty"`
	ReportType     string `json:"report_type,omitempty"`
	VisitDate      string `json:"visit_date,omitempty"`
}

type CreateReportResponse struct {
	OK            bool       `json:"ok"`
	Report        ReportView `json:"report"`
	Shared        bool       `json:"shared"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
}

// ReportView is a report as one clinic is allowed to see it. Author is the
// real clinic id only for the author's own reports; everyone else gets the
// contributor label.
type ReportView struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name,omitempty"`
	Author      string `json:"author"`
	Tier        Tier   `json:"tier"`
	ReportType  string `json:"report_type"`
	VisitDate   string `json:"visit_date"`
	CreatedAt   string `json:"created_at"`
	Unlocked    bool   `json:"unlocked"`
	Shareable   bool   `json:"shareable"`
	Summary     string `json:"summary,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type UnlockResponse struct {
	OK              bool       `json:"ok"`
	ReportID        string     `json:"report_id"`
	AlreadyUnlocked bool       `json:"already_unlocked"`
	Charged         int        `json:"charged"`
	Credits         int        `json:"credits"`
	Report          ReportView `json:"report"`
}

type ConsumeResponse struct {
	OK           bool     `json:"ok"`
	Count        int      `json:"count"`
	CreditsSpent int      `json:"credits_spent"`
	Credits      int      `json:"credits"`
	ReportIDs    []string `json:"report_ids"`
}

type EarnResponse struct {
	OK       bool   `json:"ok"`
	ViewerID string `json:"viewer_id"`
	ReportID string `json:"report_id"`
	Credited int    `json:"credited"`
	Credits  int    `json:"credits"`
}

type LedgerResponse struct {
	Entries []LedgerEntryView `json:"entries"`
}

type LedgerEntryView struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Timestamp string    `json:"timestamp"`
}

type EconomyResponse struct {
	InitialCredits  int          `json:"initial_credits"`
	ViewCost        int          `json:"view_cost"`
	ConsumeBatchMax int          `json:"consume_batch_max"`
	ClinicsOptedIn  int          `json:"clinics_opted_in"`
	ClinicsTotal    int          `json:"clinics_total"`
	ReportsTotal    int          `json:"reports_total"`
	Clinics         []ClinicView `json:"clinics"`
}

type PatientView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HomeClinicID string `json:"home_clinic_id"`
	Consent      bool   `json:"consent"`
}
