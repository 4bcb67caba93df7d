// Package viewstate models the dashboard's UI state as an immutable value.
//
// Every transition takes a State and returns a new one. Handlers build a
// State per request by applying transitions in order; nothing is shared
// between requests.
package viewstate

import (
	"github.com/dalemusser/stratagrades/internal/app/system/gradeview"
	"github.com/dalemusser/stratagrades/internal/domain/models"
)

// Phase is the fetch lifecycle phase.
type Phase string

const (
	Pending Phase = "pending"
	Loaded  Phase = "loaded"
	Errored Phase = "errored"
)

// State is the full dashboard state.
type State struct {
	Phase      Phase
	Payload    *models.GradesResponse
	Filter     gradeview.Filter
	ErrMessage string
}

// Initial returns the state before the first fetch resolves.
func Initial() State {
	return State{Phase: Pending, Filter: gradeview.DefaultFilter()}
}

// BeginFetch moves to Pending. A previously loaded payload stays in place
// until the fetch resolves.
func BeginFetch(s State) State {
	s.Phase = Pending
	s.ErrMessage = ""
	return s
}

// Succeeded replaces the payload wholesale and moves to Loaded.
func Succeeded(s State, payload *models.GradesResponse) State {
	s.Phase = Loaded
	s.Payload = payload
	s.ErrMessage = ""
	return s
}

// Failed discards the payload and moves to Errored with a user-facing message.
func Failed(s State, message string) State {
	s.Phase = Errored
	s.Payload = nil
	s.ErrMessage = message
	return s
}

// Reload is the only way out of Errored. It starts over from Pending and
// keeps the filters.
func Reload(s State) State {
	if s.Phase != Errored {
		return s
	}
	return State{Phase: Pending, Filter: s.Filter}
}

// SelectSubject sets the subject filter.
func SelectSubject(s State, subject string) State {
	s.Filter.Subject = subject
	s.Filter = s.Filter.Normalize()
	return s
}

// SetMinimumPercent sets the minimum percent filter.
func SetMinimumPercent(s State, minimum float64) State {
	s.Filter.MinimumPercent = minimum
	return s
}

// ResetFilters resets subject and minimum together.
func ResetFilters(s State) State {
	s.Filter = gradeview.DefaultFilter()
	return s
}

// WithFilter replaces both filters at once.
func WithFilter(s State, f gradeview.Filter) State {
	s.Filter = f.Normalize()
	return s
}

// IsLoading reports whether the state is waiting on a fetch.
func (s State) IsLoading() bool { return s.Phase == Pending }

// HasError reports whether the last fetch failed.
func (s State) HasError() bool { return s.Phase == Errored }

// View derives the view model. Outside the Loaded phase the payload is
// treated as absent.
func View(s State) gradeview.View {
	if s.Phase != Loaded {
		return gradeview.Derive(nil, s.Filter)
	}
	return gradeview.Derive(s.Payload, s.Filter)
}

// Badge is the session badge shown in the header.
type Badge struct {
	Status models.SessionStatus `json:"status"`
	Label  string               `json:"label"`
	Tone   string               `json:"tone"`
	User   string               `json:"user"`
}

var badgeCopy = map[models.SessionStatus]struct{ label, tone string }{
	models.SessionActive:  {"Session active", "good"},
	models.SessionExpired: {"Session expired", "bad"},
	models.SessionPending: {"Connecting", "warn"},
}

// SessionBadge returns the badge for the state's payload. A missing or
// unknown status shows as pending; a missing user shows as Anonymous.
func SessionBadge(s State) Badge {
	status := models.SessionPending
	user := "Anonymous"
	if s.Phase == Loaded && s.Payload != nil && s.Payload.Session != nil {
		if s.Payload.Session.Status.IsValid() {
			status = s.Payload.Session.Status
		}
		if s.Payload.Session.User != "" {
			user = s.Payload.Session.User
		}
	}
	c := badgeCopy[status]
	return Badge{Status: status, Label: c.label, Tone: c.tone, User: user}
}
