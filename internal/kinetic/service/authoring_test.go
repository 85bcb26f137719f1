package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

func TestCreateReport_OptedOutAuthorIsBlocked(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)
	before, _ := book.Clinic("c3")

	resp, err := svc.CreateReport(ctx, types.CreateReportRequest{
		AuthorClinicID: "c3", PatientID: "p6", Tier: "Summary", Notes: "Hamstring strain, week 2.",
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if resp.Shared || resp.BlockedReason != "author not opted in" {
		t.Errorf("unexpected outcome %+v", resp)
	}
	if _, ok := book.Report(resp.Report.ID); !ok {
		t.Error("blocked report must still be stored")
	}
	after, _ := book.Clinic("c3")
	if after.ReportsShared != before.ReportsShared {
		t.Errorf("reportsShared changed from %d to %d", before.ReportsShared, after.ReportsShared)
	}

	entries := book.Entries()
	if len(entries) != 1 || entries[0].Type != types.EventBlocked {
		t.Fatalf("expected a single BLOCKED entry, got %+v", entries)
	}
	want := "City Sports Rehab saved Summary report for Priya Rao. Network share blocked: author not opted in"
	if entries[0].Message != want {
		t.Errorf("message = %q, want %q", entries[0].Message, want)
	}
	if book.TotalCredits() != 150 {
		t.Error("authoring must not move credits")
	}
}

func TestCreateReport_ReasonOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDefaultService(t)

	cases := []struct {
		author, patient, tier string
		want                  string
	}{
		// Opted out, no consent and Private all hold: the opt-out wins.
		{"c3", "p5", "Private", "author not opted in"},
		{"c1", "p5", "Private", "patient has not consented"},
		{"c1", "p1", "Private", "tier is Private"},
	}
	for _, tc := range cases {
		resp, err := svc.CreateReport(ctx, types.CreateReportRequest{
			AuthorClinicID: tc.author, PatientID: tc.patient, Tier: tc.tier, Notes: "n",
		})
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		if resp.BlockedReason != tc.want {
			t.Errorf("%s/%s/%s: reason %q, want %q", tc.author, tc.patient, tc.tier, resp.BlockedReason, tc.want)
		}
	}
}

func TestCreateReport_SharedBumpsCounter(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)
	before, _ := book.Clinic("c1")

	resp, err := svc.CreateReport(ctx, types.CreateReportRequest{
		AuthorClinicID: "c1", PatientID: "p2", Tier: "full", Notes: "Post-op knee review.",
		ReportType: "Discharge", VisitDate: "2026-02-20",
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if !resp.Shared || resp.BlockedReason != "" {
		t.Errorf("expected shared, got %+v", resp)
	}
	if resp.Report.Tier != types.TierFull || resp.Report.ReportType != "Discharge" || resp.Report.VisitDate != "2026-02-20" {
		t.Errorf("unexpected report view %+v", resp.Report)
	}
	if resp.Report.Author != "c1" || resp.Report.Notes == "" {
		t.Error("author must see own identity and notes")
	}

	after, _ := book.Clinic("c1")
	if after.ReportsShared != before.ReportsShared+1 {
		t.Errorf("reportsShared = %d, want %d", after.ReportsShared, before.ReportsShared+1)
	}
	entries := book.Entries()
	if entries[0].Type != types.EventShare || entries[0].Message != "Harbour Physio shared a Full report for Maya Patel" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestCreateReport_Defaults(t *testing.T) {
	svc, _ := newDefaultService(t)
	resp, err := svc.CreateReport(context.Background(), types.CreateReportRequest{
		AuthorClinicID: "c2", PatientID: "p4", Tier: "Summary", Notes: "Rotator cuff follow-up.",
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if resp.Report.ReportType != "Visit Note" {
		t.Errorf("report type = %q", resp.Report.ReportType)
	}
	if resp.Report.VisitDate != testNow.Format("2006-01-02") {
		t.Errorf("visit date = %q", resp.Report.VisitDate)
	}
	if resp.Report.Summary != "Rotator cuff follow-up." {
		t.Errorf("summary = %q", resp.Report.Summary)
	}
}

func TestCreateReport_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  types.CreateReportRequest
		want error
	}{
		{"missing ids", types.CreateReportRequest{Tier: "Full", Notes: "n"}, service.ErrInvalidRequest},
		{"bad tier", types.CreateReportRequest{AuthorClinicID: "c1", PatientID: "p1", Tier: "Secret", Notes: "n"}, service.ErrInvalidTier},
		{"empty notes", types.CreateReportRequest{AuthorClinicID: "c1", PatientID: "p1", Tier: "Full", Notes: "  "}, service.ErrEmptyNotes},
		{"bad date", types.CreateReportRequest{AuthorClinicID: "c1", PatientID: "p1", Tier: "Full", Notes: "n", VisitDate: "01/02/2026"}, service.ErrInvalidRequest},
		{"unknown author", types.CreateReportRequest{AuthorClinicID: "c9", PatientID: "p1", Tier: "Full", Notes: "n"}, service.ErrUnknownClinic},
		{"unknown patient", types.CreateReportRequest{AuthorClinicID: "c1", PatientID: "p99", Tier: "Full", Notes: "n"}, service.ErrUnknownPatient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, book := newDefaultService(t)
			if _, err := svc.CreateReport(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if book.EntryCount() != 0 || len(book.Reports()) != 4 {
				t.Error("rejected input must not change state")
			}
		})
	}
}

// ── Opt-in ───────────────────────────────────────────────────────────────────

func TestSetOptIn_RecordsOnlyChanges(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)

	view, err := svc.SetOptIn(ctx, "c3", true)
	if err != nil {
		t.Fatalf("SetOptIn: %v", err)
	}
	if !view.OptedIn {
		t.Error("expected opted in")
	}
	if _, err := svc.SetOptIn(ctx, "c3", true); err != nil {
		t.Fatalf("SetOptIn again: %v", err)
	}

	entries := book.Entries(types.EventOpt)
	if len(entries) != 1 || entries[0].Message != "City Sports Rehab switched status to OPTED IN" {
		t.Errorf("unexpected OPT entries %+v", entries)
	}

	if _, err := svc.SetOptIn(ctx, "c9", true); !errors.Is(err, service.ErrUnknownClinic) {
		t.Errorf("expected ErrUnknownClinic, got %v", err)
	}
}

// Opting out later does not rewrite the history of earlier shares.
func TestSetOptIn_DoesNotRewriteHistory(t *testing.T) {
	ctx := context.Background()
	svc, book := newDefaultService(t)

	if _, err := svc.CreateReport(ctx, types.CreateReportRequest{
		AuthorClinicID: "c1", PatientID: "p1", Tier: "Summary", Notes: "n",
	}); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if _, err := svc.SetOptIn(ctx, "c1", false); err != nil {
		t.Fatalf("SetOptIn: %v", err)
	}
	if got := len(book.Entries(types.EventShare)); got != 1 {
		t.Errorf("SHARE entries = %d, want 1", got)
	}
	if got := len(book.Entries(types.EventBlocked)); got != 0 {
		t.Errorf("BLOCKED entries = %d, want 0", got)
	}
}
