// Package storage provides the keyed record store for cached repository
// metrics, with in-memory and PostgreSQL implementations.
package storage

import (
	"context"
	"time"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

// Filter narrows GetMany results. Fields are optional; a nil field matches
// everything. Matching is exact, no reflection involved.
type Filter struct {
	FullName *string
}

// matches reports whether a record satisfies the filter.
func (f Filter) matches(rec *domain.RepoInfo) bool {
	if f.FullName != nil && rec.FullName() != *f.FullName {
		return false
	}
	return true
}

// Patch holds optional field-level updates. Nil fields are left untouched.
// Applying a non-empty patch bumps the record's UpdatedAt.
type Patch struct {
	OpenPRsCount   *int
	ClosedPRsCount *int
	UsersCount     *int
	OldestPR       *time.Time
	OpenPRs        []domain.TimeseriesPoint
	ClosedPRs      []domain.TimeseriesPoint
	Users          []domain.TimeseriesPoint
}

// apply copies the set fields of the patch onto the record.
func (p Patch) apply(rec *domain.RepoInfo, now time.Time) {
	if p.OpenPRsCount != nil {
		rec.OpenPRsCount = *p.OpenPRsCount
	}
	if p.ClosedPRsCount != nil {
		rec.ClosedPRsCount = *p.ClosedPRsCount
	}
	if p.UsersCount != nil {
		rec.UsersCount = *p.UsersCount
	}
	if p.OldestPR != nil {
		oldest := *p.OldestPR
		rec.OldestPR = &oldest
	}
	if p.OpenPRs != nil {
		rec.OpenPRs = p.OpenPRs
	}
	if p.ClosedPRs != nil {
		rec.ClosedPRs = p.ClosedPRs
	}
	if p.Users != nil {
		rec.Users = p.Users
	}
	rec.UpdatedAt = &now
}

// Store is the generic keyed record store the cache persists through.
// GetOne and UpdateOne return a nil record when the id is unknown; absence
// is an expected condition, not an error.
type Store interface {
	CreateOne(ctx context.Context, draft domain.RepoInfo) (domain.RepoInfo, error)
	GetOne(ctx context.Context, id int) (*domain.RepoInfo, error)
	GetMany(ctx context.Context, filter Filter, skip, limit int) ([]domain.RepoInfo, error)
	UpdateOne(ctx context.Context, id int, patch Patch) (*domain.RepoInfo, error)
	DeleteOne(ctx context.Context, id int) (bool, error)
}
