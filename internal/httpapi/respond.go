package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respond writes v as protobuf when the client asked for it, JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		msg, err := toProtoValue(v)
		if err != nil {
			http.Error(w, "proto conversion error", http.StatusInternalServerError)
			return
		}
		writeProto(w, status, msg)
		return
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respond(w, r, status, errorResponse{Error: code, Message: message})
}

// statusFor maps service sentinels onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidTier):
		return http.StatusBadRequest, "invalid_tier"
	case errors.Is(err, service.ErrEmptyNotes):
		return http.StatusBadRequest, "empty_notes"
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrUnknownClinic):
		return http.StatusNotFound, "unknown_clinic"
	case errors.Is(err, service.ErrUnknownPatient):
		return http.StatusNotFound, "unknown_patient"
	case errors.Is(err, service.ErrUnknownReport):
		return http.StatusNotFound, "unknown_report"
	case errors.Is(err, service.ErrOwnReport):
		return http.StatusForbidden, "own_report"
	case errors.Is(err, service.ErrNotDiscoverable):
		return http.StatusForbidden, "not_discoverable"
	case errors.Is(err, service.ErrNotOptedIn):
		return http.StatusForbidden, "not_opted_in"
	case errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusConflict, "insufficient_credits"
	case errors.Is(err, service.ErrNoSharedReports):
		return http.StatusConflict, "no_shared_reports"
	case errors.Is(err, service.ErrNoEligibleViewer):
		return http.StatusConflict, "no_eligible_viewer"
	case errors.Is(err, ledger.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes the mapped error. Server-side failures are logged and their
// detail withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
		writeError(w, r, status, code, "unexpected server error")
		return
	}
	writeError(w, r, status, code, err.Error())
}
