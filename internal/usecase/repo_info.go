// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/repo-compare/internal/domain"
	"github.com/naka-gawa/repo-compare/internal/gateway"
	"github.com/naka-gawa/repo-compare/internal/storage"
	"github.com/naka-gawa/repo-compare/internal/timeseries"
)

// DefaultTTL bounds how old a cached record may get before it is refetched.
const DefaultTTL = time.Hour

// ErrUnsupportedProvider is returned when the requested provider has no
// registered gateway. It is surfaced before any I/O happens.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// RepoInfoService is the freshness-gated cache over the provider gateways.
// A lookup either returns the stored record while it is within its TTL, or
// deletes the stale record, refetches through the gateway and persists the
// fresh result. Concurrent lookups for the same source share one fetch.
type RepoInfoService struct {
	selector *gateway.Selector
	store    storage.Store
	ttl      time.Duration
	logger   *log.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewRepoInfoService creates the cache service. A non-positive ttl falls
// back to DefaultTTL.
func NewRepoInfoService(selector *gateway.Selector, store storage.Store, ttl time.Duration, logger *log.Logger) *RepoInfoService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RepoInfoService{
		selector: selector,
		store:    store,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// GetBySource returns the cached record for the source, fetching through the
// provider gateway when no fresh record exists. Concurrent calls for the
// same logical source are coalesced into a single fetch. The shared fetch
// runs under the first caller's context, so cancelling it fails the joined
// callers as well.
func (s *RepoInfoService) GetBySource(ctx context.Context, source domain.RepoSource) (domain.RepoInfo, error) {
	v, err, _ := s.group.Do(source.ID(), func() (interface{}, error) {
		return s.getBySource(ctx, source)
	})
	if err != nil {
		return domain.RepoInfo{}, err
	}
	return v.(domain.RepoInfo), nil
}

func (s *RepoInfoService) getBySource(ctx context.Context, source domain.RepoSource) (domain.RepoInfo, error) {
	fetcher, ok := s.selector.Select(source.Provider)
	if !ok {
		return domain.RepoInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, source.Provider)
	}

	if rec, err := s.getStored(ctx, source); err != nil {
		return domain.RepoInfo{}, err
	} else if rec != nil {
		s.logger.Printf("Usecase: cache hit for %s", source.ID())
		return *rec, nil
	}

	s.logger.Printf("Usecase: cache miss for %s, fetching from %s...", source.ID(), source.Provider)
	draft, err := s.fetch(ctx, fetcher, source)
	if err != nil {
		return domain.RepoInfo{}, err
	}

	created, err := s.store.CreateOne(ctx, draft)
	if err != nil {
		return domain.RepoInfo{}, fmt.Errorf("failed to persist record for %s: %w", source.ID(), err)
	}
	return created, nil
}

// getStored looks up the live record for the source. A fresh record is
// returned as-is; a stale one is deleted so the caller refetches.
func (s *RepoInfoService) getStored(ctx context.Context, source domain.RepoSource) (*domain.RepoInfo, error) {
	fullName := source.FullName()
	records, err := s.store.GetMany(ctx, storage.Filter{FullName: &fullName}, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", fullName, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rec := records[0]
	if rec.IsFresh(s.now(), s.ttl) {
		return &rec, nil
	}

	s.logger.Printf("Usecase: record %d for %s is stale, deleting", rec.ID, fullName)
	if _, err := s.store.DeleteOne(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("failed to delete stale record %d: %w", rec.ID, err)
	}
	return nil, nil
}

// fetch runs the seven independent gateway operations concurrently and
// composes the record draft. Any single failure aborts the whole fetch and
// nothing is persisted.
func (s *RepoInfoService) fetch(ctx context.Context, fetcher gateway.Fetcher, source domain.RepoSource) (domain.RepoInfo, error) {
	var (
		openCount, closedCount, usersCount    int
		oldestPR                              *time.Time
		openSeries, closedSeries, usersSeries map[string]int
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		openCount, err = fetcher.OpenPullRequestsCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		closedCount, err = fetcher.ClosedPullRequestsCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		usersCount, err = fetcher.UsersCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		oldestPR, err = fetcher.OldestPullRequestDate(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		openSeries, err = fetcher.OpenPullRequestsSeries(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		closedSeries, err = fetcher.ClosedPullRequestsSeries(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		usersSeries, err = fetcher.UsersSeries(egCtx, source.Owner, source.Repo)
		return err
	})
	if err := eg.Wait(); err != nil {
		return domain.RepoInfo{}, err
	}

	return domain.RepoInfo{
		Provider:       source.Provider,
		Owner:          source.Owner,
		Repo:           source.Repo,
		OpenPRsCount:   openCount,
		ClosedPRsCount: closedCount,
		UsersCount:     usersCount,
		OldestPR:       oldestPR,
		OpenPRs:        timeseries.Fill(openSeries),
		ClosedPRs:      timeseries.Fill(closedSeries),
		Users:          timeseries.Fill(usersSeries),
		CreatedAt:      s.now(),
	}, nil
}

// GetByIDs returns the stored records for the given ids. Duplicate ids are
// looked up once, unknown ids are silently dropped.
func (s *RepoInfoService) GetByIDs(ctx context.Context, ids []int) ([]domain.RepoInfo, error) {
	seen := make(map[int]bool, len(ids))
	result := make([]domain.RepoInfo, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		rec, err := s.store.GetOne(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load record %d: %w", id, err)
		}
		if rec != nil {
			result = append(result, *rec)
		}
	}
	return result, nil
}
