// internal/domain/models/grades.go
package models

// SessionStatus is the state of the upstream school-system session that
// produced a grades payload. It is display-only; nothing refetches on it.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
	SessionPending SessionStatus = "pending"
)

// AllSessionStatuses lists the recognized session statuses.
var AllSessionStatuses = []SessionStatus{SessionActive, SessionExpired, SessionPending}

// IsValid reports whether s is one of the recognized statuses.
func (s SessionStatus) IsValid() bool {
	for _, v := range AllSessionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Grade is a single graded assignment as delivered by the grades endpoint.
type Grade struct {
	Subject string    `json:"subject"`
	Title   string    `json:"title"`
	Percent float64   `json:"percent"`
	Date    string    `json:"date,omitempty"`  // ISO-8601; may be absent
	Trend   []float64 `json:"trend,omitempty"` // oldest first

	// Raw points as reported by the school system, when known.
	Score     *float64 `json:"score,omitempty"`
	MaxPoints *float64 `json:"max_points,omitempty"`
}

// Key returns the display key of a grade. It is not guaranteed unique.
func (g Grade) Key() string {
	return g.Subject + "-" + g.Title + "-" + g.Date
}

// LatestTrend returns the last trend value, falling back to the grade's own percent.
func (g Grade) LatestTrend() float64 {
	if n := len(g.Trend); n > 0 {
		return g.Trend[n-1]
	}
	return g.Percent
}

// SubjectAggregate is a per-subject summary computed by the server.
type SubjectAggregate struct {
	Subject string    `json:"subject"`
	Average float64   `json:"average"`
	Latest  *float64  `json:"latest,omitempty"`
	Best    *float64  `json:"best,omitempty"`
	Trend   []float64 `json:"trend,omitempty"`
}

// Aggregates holds server-side totals. Nil fields were absent in the payload.
type Aggregates struct {
	OverallAverage   *float64 `json:"overallAverage,omitempty"`
	TotalAssignments *int     `json:"totalAssignments,omitempty"`
	Outstanding      *int     `json:"outstanding,omitempty"`
}

// SessionInfo describes the upstream session for the badge.
type SessionInfo struct {
	Status SessionStatus `json:"status,omitempty"`
	User   string        `json:"user,omitempty"`
}

// GradesResponse is the full payload of one grades fetch. It is owned by the
// producer and treated as read-only once received.
type GradesResponse struct {
	Grades      []Grade            `json:"grades"`
	Subjects    []SubjectAggregate `json:"subjects,omitempty"`
	Aggregates  *Aggregates        `json:"aggregates,omitempty"`
	LastUpdated string             `json:"lastUpdated,omitempty"`
	Session     *SessionInfo       `json:"session,omitempty"`
}
