package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repo-compare/internal/timeseries"
)

// ProviderGitHub is the identifier the selector registers this adapter under.
const ProviderGitHub = "github"

// GitHubGateway is the GitHub implementation of the Fetcher interface.
// Counts go through the GraphQL search API to avoid paginating, while the
// event listings backing the timeseries use the REST API.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
	now           func() time.Time
}

// searchCountQuery asks the search API for a match count only.
type searchCountQuery struct {
	Search struct {
		IssueCount githubv4.Int
	} `graphql:"search(query: $query, type: ISSUE, first: 1)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
		now:           time.Now,
	}, nil
}

// fetchError tags an underlying failure with this provider and operation.
func (g *GitHubGateway) fetchError(op string, err error) error {
	return &FetchError{Provider: ProviderGitHub, Op: op, Err: err}
}

func (g *GitHubGateway) searchCount(ctx context.Context, query string) (int, error) {
	variables := map[string]interface{}{"query": githubv4.String(query)}
	var q searchCountQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL count query: %w", err)
	}
	return int(q.Search.IssueCount), nil
}

// OpenPullRequestsCount returns the number of currently open pull requests.
func (g *GitHubGateway) OpenPullRequestsCount(ctx context.Context, owner, repo string) (int, error) {
	g.logger.Printf("Fetching open PR count for %s/%s...", owner, repo)
	count, err := g.searchCount(ctx, fmt.Sprintf("repo:%s/%s is:pr is:open", owner, repo))
	if err != nil {
		return 0, g.fetchError("open pull requests count", err)
	}
	return count, nil
}

// ClosedPullRequestsCount returns the number of closed pull requests.
func (g *GitHubGateway) ClosedPullRequestsCount(ctx context.Context, owner, repo string) (int, error) {
	g.logger.Printf("Fetching closed PR count for %s/%s...", owner, repo)
	count, err := g.searchCount(ctx, fmt.Sprintf("repo:%s/%s is:pr is:closed", owner, repo))
	if err != nil {
		return 0, g.fetchError("closed pull requests count", err)
	}
	return count, nil
}

// UsersCount returns the number of contributors to the repository.
func (g *GitHubGateway) UsersCount(ctx context.Context, owner, repo string) (int, error) {
	g.logger.Printf("Fetching contributor count for %s/%s...", owner, repo)
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	count := 0
	for {
		contributors, resp, err := g.restClient.Repositories.ListContributors(ctx, owner, repo, opts)
		if err != nil {
			return 0, g.fetchError("users count", err)
		}
		count += len(contributors)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of contributors...")
	}
	return count, nil
}

// OldestPullRequestDate returns the creation date of the oldest pull request,
// or nil when the repository has none.
func (g *GitHubGateway) OldestPullRequestDate(ctx context.Context, owner, repo string) (*time.Time, error) {
	g.logger.Printf("Fetching oldest PR date for %s/%s...", owner, repo)
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 1},
	}
	prs, _, err := g.restClient.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, g.fetchError("oldest pull request date", err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	created := prs[0].GetCreatedAt().Time
	return &created, nil
}

// listPREvents pages through pull requests in the given state and converts
// them into open/close event pairs for the sampler.
func (g *GitHubGateway) listPREvents(ctx context.Context, owner, repo, state string) ([]timeseries.PREvent, error) {
	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var events []timeseries.PREvent
	for {
		prs, resp, err := g.restClient.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		for _, pr := range prs {
			ev := timeseries.PREvent{CreatedAt: pr.GetCreatedAt().Time}
			if pr.ClosedAt != nil {
				closed := pr.GetClosedAt().Time
				ev.ClosedAt = &closed
			}
			events = append(events, ev)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of pull requests...")
	}
	return events, nil
}

// OpenPullRequestsSeries samples the weekly net-open pull request counts over
// the bounded historical window.
func (g *GitHubGateway) OpenPullRequestsSeries(ctx context.Context, owner, repo string) (map[string]int, error) {
	g.logger.Printf("Building open PR timeseries for %s/%s...", owner, repo)
	oldest, err := g.OldestPullRequestDate(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	events, err := g.listPREvents(ctx, owner, repo, "all")
	if err != nil {
		return nil, g.fetchError("open pull requests timeseries", err)
	}
	return timeseries.OpenPullRequests(events, oldest, g.now()), nil
}

// ClosedPullRequestsSeries samples the weekly cumulative closed pull request
// counts over the bounded historical window.
func (g *GitHubGateway) ClosedPullRequestsSeries(ctx context.Context, owner, repo string) (map[string]int, error) {
	g.logger.Printf("Building closed PR timeseries for %s/%s...", owner, repo)
	oldest, err := g.OldestPullRequestDate(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	events, err := g.listPREvents(ctx, owner, repo, "closed")
	if err != nil {
		return nil, g.fetchError("closed pull requests timeseries", err)
	}
	return timeseries.ClosedPullRequests(events, oldest, g.now()), nil
}

// UsersSeries samples the weekly cumulative contributor counts from the most
// recent commits, bounded by the sampler's commit cap.
func (g *GitHubGateway) UsersSeries(ctx context.Context, owner, repo string) (map[string]int, error) {
	g.logger.Printf("Building contributor timeseries for %s/%s...", owner, repo)
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var commits []timeseries.Commit
	for {
		page, resp, err := g.restClient.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, g.fetchError("users timeseries", fmt.Errorf("failed to list commits: %w", err))
		}
		for _, rc := range page {
			commits = append(commits, timeseries.Commit{
				Author: rc.GetAuthor().GetLogin(),
				Date:   rc.GetCommit().GetAuthor().GetDate().Time,
			})
		}
		if resp.NextPage == 0 || len(commits) >= timeseries.MaxCommits {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of commits...")
	}
	return timeseries.Contributors(commits, g.now()), nil
}
