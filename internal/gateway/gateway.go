// Package gateway provides the provider-agnostic contract for fetching
// repository metrics, plus the concrete hosting-provider adapters.
package gateway

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Fetcher defines the capability surface a hosting-provider adapter must
// implement. The rest of the application depends only on this contract.
// Timeseries methods return sparse date (YYYY-MM-DD) to value mappings.
type Fetcher interface {
	OpenPullRequestsCount(ctx context.Context, owner, repo string) (int, error)
	ClosedPullRequestsCount(ctx context.Context, owner, repo string) (int, error)
	UsersCount(ctx context.Context, owner, repo string) (int, error)
	OldestPullRequestDate(ctx context.Context, owner, repo string) (*time.Time, error)
	OpenPullRequestsSeries(ctx context.Context, owner, repo string) (map[string]int, error)
	ClosedPullRequestsSeries(ctx context.Context, owner, repo string) (map[string]int, error)
	UsersSeries(ctx context.Context, owner, repo string) (map[string]int, error)
}

// FetchError wraps any failure of a Fetcher operation with the provider and
// operation that produced it. Callers surface it as-is; nothing is retried
// at this layer.
type FetchError struct {
	Provider string
	Op       string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Selector maps provider identifiers to their Fetcher implementations.
// It is populated once at startup; lookups afterwards are read-only.
type Selector struct {
	gateways map[string]Fetcher
}

// NewSelector builds a selector over the given provider set.
func NewSelector(gateways map[string]Fetcher) *Selector {
	return &Selector{gateways: gateways}
}

// Providers lists the registered provider identifiers in sorted order.
func (s *Selector) Providers() []string {
	names := make([]string, 0, len(s.gateways))
	for name := range s.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the Fetcher registered for the provider, if any.
func (s *Selector) Select(provider string) (Fetcher, bool) {
	f, ok := s.gateways[provider]
	return f, ok
}
