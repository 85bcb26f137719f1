package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// Authenticator checks usernames and passwords against the bcrypt hashes
// held in the directory.
type Authenticator struct {
	dir *ledger.Directory
}

func NewAuthenticator(dir *ledger.Directory) *Authenticator {
	return &Authenticator{dir: dir}
}

// Verify returns the clinic id for a valid username/password pair. The
// username is matched case-insensitively; an empty password never matches.
func (a *Authenticator) Verify(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	cred, ok := a.dir.Credential(username)
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.Hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return cred.ClinicID, nil
}

// Sessions maps opaque tokens to clinic ids. It is independent of the
// ledger lock.
type Sessions struct {
	mu     sync.RWMutex
	byTok  map[string]string
	newTok func() string
}

func NewSessions() *Sessions {
	return &Sessions{byTok: make(map[string]string), newTok: uuid.NewString}
}

func (ss *Sessions) Open(clinicID string) string {
	tok := ss.newTok()
	ss.mu.Lock()
	ss.byTok[tok] = clinicID
	ss.mu.Unlock()
	return tok
}

func (ss *Sessions) Lookup(token string) (string, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	id, ok := ss.byTok[token]
	return id, ok
}

func (ss *Sessions) Close(token string) {
	ss.mu.Lock()
	delete(ss.byTok, token)
	ss.mu.Unlock()
}

// Login verifies credentials, records a LOGIN entry and opens a session.
// Failed attempts are refused without an audit entry.
func (s *Service) Login(ctx context.Context, username, password string) (resp types.LoginResponse, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "login", start, err) }()

	// bcrypt is slow; keep it outside the ledger lock.
	clinicID, err := s.auth.Verify(username, password)
	if err != nil {
		s.logger.Debug("login refused", "username", username)
		return types.LoginResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.book.Clinic(clinicID)
	if !ok {
		return types.LoginResponse{}, ErrInvalidCredentials
	}
	s.book.RecordEvent(types.EventLogin, loginMessage(c.Name))
	s.changed()

	tok := s.sessions.Open(clinicID)
	s.logger.Info("clinic logged in", "clinic", clinicID)
	return types.LoginResponse{OK: true, Token: tok, Clinic: s.clinicView(c)}, nil
}

// Logout forgets the session token. Unknown tokens are ignored.
func (s *Service) Logout(_ context.Context, token string) {
	s.sessions.Close(strings.TrimSpace(token))
}

// SessionClinic resolves a session token to its clinic id.
func (s *Service) SessionClinic(token string) (string, bool) {
	return s.sessions.Lookup(strings.TrimSpace(token))
}
