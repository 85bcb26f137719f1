package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/kinetic/internal/httpapi"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/seed"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/metrics"
)

// newTestServer wires the demo network into a service and returns an
// httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir, reports, err := seed.Default().Build(seed.BuildOptions{InitialCredits: 30, HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	book, err := ledger.New(dir, reports)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	rec := metrics.NewPrometheus()
	svc, err := service.New(service.Dependencies{
		Book:    book,
		Economy: service.DefaultEconomy(),
		Logger:  log.New(io.Discard),
		Metrics: rec,
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  log.New(io.Discard),
		Addr:    ":0",
		Service: svc,
		Metrics: rec.Handler(),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected %d, got %d", status, resp.StatusCode)
	}
	var e struct {
		Error string `json:"error"`
	}
	decode(t, resp, &e)
	if e.Error != code {
		t.Errorf("expected error=%q, got %q", code, e.Error)
	}
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestLogin_OK(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/login", `{"username":"harbour","password":"Heidi123!"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var lr types.LoginResponse
	decode(t, resp, &lr)
	if !lr.OK || lr.Token == "" || lr.Clinic.ID != "c1" {
		t.Fatalf("unexpected login response %+v", lr)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/logout", nil)
	req.Header.Set("X-Session-Token", lr.Token)
	out, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	out.Body.Close()
	if out.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 on logout, got %d", out.StatusCode)
	}
}

func TestLogin_BadPassword_401(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/login", `{"username":"harbour","password":"nope"}`)
	expectError(t, resp, http.StatusUnauthorized, "invalid_credentials")
}

func TestLogin_InvalidJSON_400(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/login", `not json at all`)
	expectError(t, resp, http.StatusBadRequest, "bad_request")
}

func TestLogout_MissingToken_400(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/logout", "")
	expectError(t, resp, http.StatusBadRequest, "missing_token")
}

// ── Unlock ───────────────────────────────────────────────────────────────────

func TestUnlock_ChargesViewer(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/clinics/c1/unlock/r2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ur types.UnlockResponse
	decode(t, resp, &ur)
	if ur.AlreadyUnlocked || ur.Charged != 10 || ur.Credits != 20 {
		t.Errorf("unexpected unlock response %+v", ur)
	}
	if ur.Report.Notes == "" {
		t.Error("unlocked report should carry notes")
	}

	again := do(t, http.MethodPost, ts.URL+"/v1/clinics/c1/unlock/r2", "")
	var ur2 types.UnlockResponse
	decode(t, again, &ur2)
	if !ur2.AlreadyUnlocked || ur2.Charged != 0 || ur2.Credits != 20 {
		t.Errorf("second unlock should be free: %+v", ur2)
	}
}

func TestUnlock_Refusals(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/v1/clinics/zz/unlock/r1", http.StatusNotFound, "unknown_clinic"},
		{"/v1/clinics/c1/unlock/r99", http.StatusNotFound, "unknown_report"},
		{"/v1/clinics/c1/unlock/r1", http.StatusForbidden, "own_report"},
		{"/v1/clinics/c1/unlock/r3", http.StatusForbidden, "not_discoverable"},
		{"/v1/clinics/c3/unlock/r1", http.StatusForbidden, "not_opted_in"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			expectError(t, do(t, http.MethodPost, ts.URL+tc.path, ""), tc.status, tc.code)
		})
	}
}

func TestUnlock_InsufficientCredits_409(t *testing.T) {
	ts := newTestServer(t)

	// c5 has no reports of its own, so three unlocks leave it at zero.
	for _, id := range []string{"r1", "r2", "r4"} {
		if resp := do(t, http.MethodPost, ts.URL+"/v1/clinics/c5/unlock/"+id, ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("unlock %s: %d", id, resp.StatusCode)
		}
	}

	var cr types.CreateReportResponse
	body := `{"author_clinic_id":"c4","patient_id":"p7","tier":"Full","notes":"gait analysis"}`
	decode(t, do(t, http.MethodPost, ts.URL+"/v1/reports", body), &cr)
	if !cr.Shared {
		t.Fatalf("new report should be shared: %+v", cr)
	}

	resp := do(t, http.MethodPost, ts.URL+"/v1/clinics/c5/unlock/"+cr.Report.ID, "")
	expectError(t, resp, http.StatusConflict, "insufficient_credits")
}

// ── Reports ──────────────────────────────────────────────────────────────────

func TestCreateReport_Validation(t *testing.T) {
	ts := newTestServer(t)

	cases := map[string]struct {
		body   string
		status int
		code   string
	}{
		"bad tier":        {`{"author_clinic_id":"c1","patient_id":"p1","tier":"Secret","notes":"x"}`, http.StatusBadRequest, "invalid_tier"},
		"empty notes":     {`{"author_clinic_id":"c1","patient_id":"p1","tier":"Full","notes":"  "}`, http.StatusBadRequest, "empty_notes"},
		"unknown patient": {`{"author_clinic_id":"c1","patient_id":"p99","tier":"Full","notes":"x"}`, http.StatusNotFound, "unknown_patient"},
		"unknown field":   {`{"author":"c1"}`, http.StatusBadRequest, "bad_request"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			expectError(t, do(t, http.MethodPost, ts.URL+"/v1/reports", tc.body), tc.status, tc.code)
		})
	}
}

func TestCreateReport_BlockedWhenOptedOut(t *testing.T) {
	ts := newTestServer(t)

	body := `{"author_clinic_id":"c3","patient_id":"p6","tier":"Summary","notes":"progress"}`
	resp := do(t, http.MethodPost, ts.URL+"/v1/reports", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var cr types.CreateReportResponse
	decode(t, resp, &cr)
	if cr.Shared || cr.BlockedReason != "author not opted in" {
		t.Errorf("expected blocked share, got %+v", cr)
	}

	var lr types.LedgerResponse
	decode(t, do(t, http.MethodGet, ts.URL+"/v1/ledger?type=blocked", ""), &lr)
	if len(lr.Entries) != 1 || !strings.Contains(lr.Entries[0].Message, "author not opted in") {
		t.Errorf("expected one BLOCKED entry, got %+v", lr.Entries)
	}
}

func TestDiscover_RedactsAndFilters(t *testing.T) {
	ts := newTestServer(t)

	var reports []types.ReportView
	decode(t, do(t, http.MethodGet, ts.URL+"/v1/clinics/c1/discover", ""), &reports)
	if len(reports) != 2 {
		t.Fatalf("expected 2 discoverable reports, got %d", len(reports))
	}
	for _, r := range reports {
		if r.Notes != "" || r.Unlocked {
			t.Errorf("report %s should be locked and redacted", r.ID)
		}
		if strings.HasPrefix(r.Author, "c") {
			t.Errorf("author %q must be a contributor label", r.Author)
		}
	}

	decode(t, do(t, http.MethodGet, ts.URL+"/v1/clinics/c1/discover?patient_id=p7", ""), &reports)
	if len(reports) != 1 || reports[0].ID != "r4" {
		t.Errorf("patient filter: %+v", reports)
	}

	expectError(t, do(t, http.MethodGet, ts.URL+"/v1/clinics/c1/discover?patient_id=p99", ""), http.StatusNotFound, "unknown_patient")
}

// ── Opt-in ───────────────────────────────────────────────────────────────────

func TestOptIn(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/v1/clinics/c3/opt_in", `{"opted_in":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var cv types.ClinicView
	decode(t, resp, &cv)
	if !cv.OptedIn || cv.ID != "c3" {
		t.Errorf("unexpected clinic view %+v", cv)
	}

	expectError(t, do(t, http.MethodPut, ts.URL+"/v1/clinics/c3/opt_in", `{}`), http.StatusBadRequest, "bad_request")
}

// ── Simulation ───────────────────────────────────────────────────────────────

func TestSimulate(t *testing.T) {
	ts := newTestServer(t)

	var cr types.ConsumeResponse
	decode(t, do(t, http.MethodPost, ts.URL+"/v1/clinics/c5/simulate/consume", ""), &cr)
	if cr.Count != 3 || cr.Credits != 0 {
		t.Errorf("unexpected consume response %+v", cr)
	}

	var er types.EarnResponse
	decode(t, do(t, http.MethodPost, ts.URL+"/v1/clinics/c1/simulate/earn", ""), &er)
	if er.ViewerID != "c2" || er.Credited != 10 {
		t.Errorf("unexpected earn response %+v", er)
	}

	expectError(t, do(t, http.MethodPost, ts.URL+"/v1/clinics/c5/simulate/earn", ""), http.StatusConflict, "no_shared_reports")
}

// ── Ledger / economy / metrics ───────────────────────────────────────────────

func TestLedger_QueryValidation(t *testing.T) {
	ts := newTestServer(t)
	expectError(t, do(t, http.MethodGet, ts.URL+"/v1/ledger?transfers_only=maybe", ""), http.StatusBadRequest, "bad_request")
	expectError(t, do(t, http.MethodGet, ts.URL+"/v1/ledger?limit=-1", ""), http.StatusBadRequest, "bad_request")
	expectError(t, do(t, http.MethodGet, ts.URL+"/v1/ledger?type=BOGUS", ""), http.StatusBadRequest, "bad_request")
}

func TestLedger_TransfersOnly(t *testing.T) {
	ts := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/v1/clinics/c1/unlock/r2", "")

	var lr types.LedgerResponse
	decode(t, do(t, http.MethodGet, ts.URL+"/v1/ledger?transfers_only=true", ""), &lr)
	if len(lr.Entries) != 1 || lr.Entries[0].Type != types.EventTransfer {
		t.Errorf("unexpected entries %+v", lr.Entries)
	}
}

func TestEconomyAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	var econ types.EconomyResponse
	decode(t, do(t, http.MethodGet, ts.URL+"/v1/economy", ""), &econ)
	if econ.ViewCost != 10 || econ.ClinicsTotal != 5 {
		t.Errorf("unexpected economy %+v", econ)
	}

	do(t, http.MethodPost, ts.URL+"/v1/clinics/c1/unlock/r2", "")
	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("kinetic_unlocks_total 1")) {
		t.Errorf("metrics missing unlock counter:\n%s", body)
	}
}

// ── Protobuf ─────────────────────────────────────────────────────────────────

func TestProtobuf_Negotiation(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/economy", nil)
	req.Header.Set("Accept", "application/x-protobuf")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/x-protobuf" {
		t.Fatalf("expected protobuf content type, got %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	var v structpb.Value
	if err := proto.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := v.GetStructValue().GetFields()["view_cost"].GetNumberValue(); got != 10 {
		t.Errorf("view_cost = %v, want 10", got)
	}
}

func TestProtobuf_RequestBody(t *testing.T) {
	ts := newTestServer(t)

	msg, err := structpb.NewValue(map[string]any{"username": "peak", "password": "Heidi123!"})
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	raw, err := proto.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := http.Post(ts.URL+"/v1/login", "application/x-protobuf", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var lr types.LoginResponse
	decode(t, resp, &lr)
	if lr.Clinic.ID != "c2" {
		t.Errorf("expected c2, got %q", lr.Clinic.ID)
	}
}
