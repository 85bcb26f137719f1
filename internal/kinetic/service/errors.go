package service

import "errors"

// User-actionable refusals. None of them changes state or writes an audit
// entry.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnknownClinic       = errors.New("unknown clinic")
	ErrUnknownPatient      = errors.New("unknown patient")
	ErrUnknownReport       = errors.New("unknown report")
	ErrInvalidTier         = errors.New("tier must be Private, Summary or Full")
	ErrEmptyNotes          = errors.New("notes are required")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrOwnReport           = errors.New("clinic authored this report")
	ErrNotDiscoverable     = errors.New("report is not available to this clinic")
	ErrNotOptedIn          = errors.New("clinic is not opted in")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoSharedReports     = errors.New("clinic has no shared reports")
	ErrNoEligibleViewer    = errors.New("no clinic can view a report right now")
)
