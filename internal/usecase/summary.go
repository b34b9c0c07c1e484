package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-compare/internal/domain"
	"github.com/naka-gawa/repo-compare/internal/gateway"
)

// RepoSummary is an uncached snapshot of a repository's headline counts.
type RepoSummary struct {
	Provider  string     `json:"provider"`
	Owner     string     `json:"owner"`
	Repo      string     `json:"repo"`
	OpenPRs   int        `json:"open_prs"`
	ClosedPRs int        `json:"closed_prs"`
	Users     int        `json:"users"`
	OldestPR  *time.Time `json:"oldest_pr,omitempty"`
}

// TrendStats summarizes the distribution of a timeseries' values.
type TrendStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SummaryService fetches headline counts straight from the gateway,
// bypassing the cache.
type SummaryService struct {
	selector *gateway.Selector
	logger   *log.Logger
}

// NewSummaryService creates a new SummaryService instance.
func NewSummaryService(selector *gateway.Selector, logger *log.Logger) *SummaryService {
	return &SummaryService{selector: selector, logger: logger}
}

// GetSummary fetches the four headline counts concurrently.
func (s *SummaryService) GetSummary(ctx context.Context, source domain.RepoSource) (RepoSummary, error) {
	fetcher, ok := s.selector.Select(source.Provider)
	if !ok {
		return RepoSummary{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, source.Provider)
	}

	s.logger.Printf("Usecase: fetching summary for %s", source.ID())
	summary := RepoSummary{Provider: source.Provider, Owner: source.Owner, Repo: source.Repo}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		summary.OpenPRs, err = fetcher.OpenPullRequestsCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		summary.ClosedPRs, err = fetcher.ClosedPullRequestsCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		summary.Users, err = fetcher.UsersCount(egCtx, source.Owner, source.Repo)
		return err
	})
	eg.Go(func() error {
		var err error
		summary.OldestPR, err = fetcher.OldestPullRequestDate(egCtx, source.Owner, source.Repo)
		return err
	})
	if err := eg.Wait(); err != nil {
		return RepoSummary{}, err
	}
	return summary, nil
}

// Trend computes distribution statistics over the values of a timeseries.
// An empty series has no trend and returns an error.
func Trend(series []domain.TimeseriesPoint) (TrendStats, error) {
	if len(series) == 0 {
		return TrendStats{}, fmt.Errorf("cannot compute trend of an empty series")
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = float64(p.Value)
	}
	data := stats.LoadRawData(values)

	min, err := data.Min()
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute min: %w", err)
	}
	max, err := data.Max()
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute max: %w", err)
	}
	mean, err := data.Mean()
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	median, err := data.Median()
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute median: %w", err)
	}
	return TrendStats{Min: min, Max: max, Mean: mean, Median: median}, nil
}
