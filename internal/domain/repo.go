// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for all timeseries points.
const DateLayout = "2006-01-02"

// RepoSource identifies a tracked repository on a specific hosting provider.
// It is an immutable value and serves as the logical cache key.
type RepoSource struct {
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
}

// FullName returns the "owner/repo" form used for storage lookups.
func (s RepoSource) FullName() string {
	return fmt.Sprintf("%s/%s", s.Owner, s.Repo)
}

// ID returns the provider-qualified identity "provider/owner/repo".
func (s RepoSource) ID() string {
	return fmt.Sprintf("%s/%s/%s", s.Provider, s.Owner, s.Repo)
}

// TimeseriesPoint is a single sampled value on a calendar date (YYYY-MM-DD).
type TimeseriesPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// RepoInfo is the cached metrics record for one repository source.
// CreatedAt is set once at creation and never mutated afterwards;
// UpdatedAt is set whenever any field-level update happens.
type RepoInfo struct {
	ID int `json:"id"`

	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`

	OpenPRsCount   int        `json:"open_prs_count"`
	ClosedPRsCount int        `json:"closed_prs_count"`
	UsersCount     int        `json:"users_count"`
	OldestPR       *time.Time `json:"oldest_pr,omitempty"`

	OpenPRs   []TimeseriesPoint `json:"open_prs"`
	ClosedPRs []TimeseriesPoint `json:"closed_prs"`
	Users     []TimeseriesPoint `json:"users"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Source reconstructs the identity tuple of the record.
func (r *RepoInfo) Source() RepoSource {
	return RepoSource{Provider: r.Provider, Owner: r.Owner, Repo: r.Repo}
}

// FullName returns the "owner/repo" form of the record's source.
func (r *RepoInfo) FullName() string {
	return r.Source().FullName()
}

// Age reports how long ago the record was last refreshed, measured at now.
// UpdatedAt wins over CreatedAt when set, so a record that was never updated
// ages from its creation time.
func (r *RepoInfo) Age(now time.Time) time.Duration {
	last := r.CreatedAt
	if r.UpdatedAt != nil && r.UpdatedAt.After(last) {
		last = *r.UpdatedAt
	}
	return now.Sub(last)
}

// IsFresh reports whether the record is still within its time-to-live.
func (r *RepoInfo) IsFresh(now time.Time, ttl time.Duration) bool {
	return r.Age(now) < ttl
}

// DaysSinceOldestPR returns the whole days elapsed since the oldest known
// pull request, or nil when the repository has no pull requests.
func (r *RepoInfo) DaysSinceOldestPR(now time.Time) *int {
	if r.OldestPR == nil {
		return nil
	}
	days := int(now.Sub(*r.OldestPR).Hours() / 24)
	return &days
}
