package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// sessionHeader carries the token returned by login.
const sessionHeader = "X-Session-Token"

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get(sessionHeader))
	if token == "" {
		writeError(w, r, http.StatusBadRequest, "missing_token", sessionHeader+" header is required")
		return
	}
	s.svc.Logout(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}

// ── Clinics ──────────────────────────────────────────────────────────────────

func (s *Server) handleClinics(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, s.svc.Clinics(r.Context()))
}

func (s *Server) handleClinic(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Clinic(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "clinic", err)
		return
	}
	respond(w, r, http.StatusOK, view)
}

func (s *Server) handleOptIn(w http.ResponseWriter, r *http.Request) {
	var req types.OptInRequest
	if err := decodeBody(r, &req); err != nil || req.OptedIn == nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "opted_in is required")
		return
	}

	view, err := s.svc.SetOptIn(r.Context(), r.PathValue("id"), *req.OptedIn)
	if err != nil {
		s.fail(w, r, "opt_in", err)
		return
	}
	respond(w, r, http.StatusOK, view)
}

func (s *Server) handleAuthoredReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.AuthoredReports(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "authored_reports", err)
		return
	}
	respond(w, r, http.StatusOK, reports)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.DiscoverReports(r.Context(), r.PathValue("id"), r.URL.Query().Get("patient_id"))
	if err != nil {
		s.fail(w, r, "discover", err)
		return
	}
	respond(w, r, http.StatusOK, reports)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.UnlockView(r.Context(), r.PathValue("id"), r.PathValue("report_id"))
	if err != nil {
		s.fail(w, r, "unlock", err)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleSimulateConsume(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.SimulateConsume(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "simulate_consume", err)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleSimulateEarn(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.SimulateEarn(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "simulate_earn", err)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

// ── Reports, ledger, economy ─────────────────────────────────────────────────

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, s.svc.Patients(r.Context()))
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req types.CreateReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	resp, err := s.svc.CreateReport(r.Context(), req)
	if err != nil {
		s.fail(w, r, "create_report", err)
		return
	}
	respond(w, r, http.StatusCreated, resp)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	f, err := ledgerFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	resp, err := s.svc.Ledger(r.Context(), f)
	if err != nil {
		s.fail(w, r, "ledger", err)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, s.svc.EconomyOverview(r.Context()))
}

// ledgerFilter reads transfers_only, limit and any number of type
// parameters (repeated or comma separated).
func ledgerFilter(r *http.Request) (service.LedgerFilter, error) {
	q := r.URL.Query()
	var f service.LedgerFilter

	if v := q.Get("transfers_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("transfers_only: %q is not a boolean", v)
		}
		f.TransfersOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit: %q is not a non-negative integer", v)
		}
		f.Limit = n
	}
	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, types.EventType(strings.ToUpper(t)))
			}
		}
	}
	return f, nil
}
