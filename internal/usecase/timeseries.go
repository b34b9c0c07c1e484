package usecase

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-compare/internal/domain"
	"github.com/naka-gawa/repo-compare/internal/gateway"
	"github.com/naka-gawa/repo-compare/internal/timeseries"
)

// RepoTimeseries is an uncached snapshot of a repository's weekly series.
type RepoTimeseries struct {
	Provider  string                   `json:"provider"`
	Owner     string                   `json:"owner"`
	Repo      string                   `json:"repo"`
	OpenPRs   []domain.TimeseriesPoint `json:"open_prs"`
	ClosedPRs []domain.TimeseriesPoint `json:"closed_prs"`
	Users     []domain.TimeseriesPoint `json:"users"`
}

// TimeseriesService fetches the weekly series straight from the gateway,
// bypassing the cache.
type TimeseriesService struct {
	selector *gateway.Selector
	logger   *log.Logger
}

// NewTimeseriesService creates a new TimeseriesService instance.
func NewTimeseriesService(selector *gateway.Selector, logger *log.Logger) *TimeseriesService {
	return &TimeseriesService{selector: selector, logger: logger}
}

// GetTimeseries fetches the three weekly series concurrently and normalizes
// each into an ordered point sequence.
func (s *TimeseriesService) GetTimeseries(ctx context.Context, source domain.RepoSource) (RepoTimeseries, error) {
	fetcher, ok := s.selector.Select(source.Provider)
	if !ok {
		return RepoTimeseries{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, source.Provider)
	}

	s.logger.Printf("Usecase: fetching timeseries for %s", source.ID())

	var openSeries, closedSeries, usersSeries map[string]int
	eg, egCtx := errgroup.WithContext(ctx)
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
		return RepoTimeseries{}, err
	}

	return RepoTimeseries{
		Provider:  source.Provider,
		Owner:     source.Owner,
		Repo:      source.Repo,
		OpenPRs:   timeseries.Fill(openSeries),
		ClosedPRs: timeseries.Fill(closedSeries),
		Users:     timeseries.Fill(usersSeries),
	}, nil
}
