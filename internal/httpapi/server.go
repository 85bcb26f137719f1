package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/service"
)

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	Service *service.Service
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	svc        *service.Service
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		logger: logger,
		mux:    mux,
		svc:    d.Service,
	}

	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/logout", s.handleLogout)

	mux.HandleFunc("GET /v1/clinics", s.handleClinics)
	mux.HandleFunc("GET /v1/clinics/{id}", s.handleClinic)
	mux.HandleFunc("PUT /v1/clinics/{id}/opt_in", s.handleOptIn)
	mux.HandleFunc("GET /v1/clinics/{id}/reports", s.handleAuthoredReports)
	mux.HandleFunc("GET /v1/clinics/{id}/discover", s.handleDiscover)
	mux.HandleFunc("POST /v1/clinics/{id}/unlock/{report_id}", s.handleUnlock)
	mux.HandleFunc("POST /v1/clinics/{id}/simulate/consume", s.handleSimulateConsume)
	mux.HandleFunc("POST /v1/clinics/{id}/simulate/earn", s.handleSimulateEarn)

	mux.HandleFunc("GET /v1/patients", s.handlePatients)
	mux.HandleFunc("POST /v1/reports", s.handleCreateReport)
	mux.HandleFunc("GET /v1/ledger", s.handleLedger)
	mux.HandleFunc("GET /v1/economy", s.handleEconomy)

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	handler := loggingMiddleware(logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
