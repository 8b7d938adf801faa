package domain

import "time"

// Record is one immutable audit trail entry: who did what to which resource.
// Records are never edited or removed once appended.
type Record struct {
	ID           string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Details      string
	IP           string
	UserAgent    string
	CreatedAt    time.Time
}

// Filter selects records for a query. Zero values mean "no constraint".
type Filter struct {
	ActorID string
	Action  string
	From    time.Time
	To      time.Time
}

// Matches reports whether r satisfies the filter. Used by the in-memory store;
// the Postgres store applies the same constraints in SQL.
func (f Filter) Matches(r *Record) bool {
	if f.ActorID != "" && r.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && r.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.CreatedAt.After(f.To) {
		return false
	}
	return true
}
