package gateway

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGateway points a gateway at a local test server so no real GitHub
// traffic happens. Time is pinned so the sampled windows are deterministic.
func newTestGateway(t *testing.T, handler http.Handler) *GitHubGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client()),
		logger:        log.New(io.Discard, "", 0),
		now: func() time.Time {
			return time.Date(2024, 6, 1, 15, 30, 0, 0, time.Local)
		},
	}
}

func TestGitHubGateway_OpenPullRequestsCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"search":{"issueCount":42}}}`))
	})

	g := newTestGateway(t, mux)
	count, err := g.OpenPullRequestsCount(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestGitHubGateway_ClosedPullRequestsCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"search":{"issueCount":1234}}}`))
	})

	g := newTestGateway(t, mux)
	count, err := g.ClosedPullRequestsCount(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, 1234, count)
}

func TestGitHubGateway_CountError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unhappy", http.StatusInternalServerError)
	})

	g := newTestGateway(t, mux)
	_, err := g.OpenPullRequestsCount(context.Background(), "golang", "go")

	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ProviderGitHub, fe.Provider)
	assert.Equal(t, "open pull requests count", fe.Op)
}

func TestGitHubGateway_UsersCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"login":"alice"},{"login":"bob"},{"login":"carol"}]`))
	})

	g := newTestGateway(t, mux)
	count, err := g.UsersCount(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGitHubGateway_OldestPullRequestDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "asc", r.URL.Query().Get("direction"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"number":1,"created_at":"2019-04-30T10:00:00Z"}]`))
	})

	g := newTestGateway(t, mux)
	oldest, err := g.OldestPullRequestDate(context.Background(), "golang", "go")

	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, time.Date(2019, 4, 30, 10, 0, 0, 0, time.UTC), *oldest)
}

func TestGitHubGateway_OldestPullRequestDate_NoPRs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	g := newTestGateway(t, mux)
	oldest, err := g.OldestPullRequestDate(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Nil(t, oldest)
}

func TestGitHubGateway_OpenPullRequestsSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// One PR opened recently and still open.
		w.Write([]byte(`[{"number":1,"created_at":"2024-05-20T12:00:00Z"}]`))
	})

	g := newTestGateway(t, mux)
	series, err := g.OpenPullRequestsSeries(context.Background(), "golang", "go")

	require.NoError(t, err)
	// The window narrows to the oldest PR, so sampling starts there.
	require.Len(t, series, 2)
	assert.Equal(t, 1, series["2024-05-20"])
	assert.Equal(t, 1, series["2024-05-27"])
}

func TestGitHubGateway_UsersSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"author":{"login":"alice"},"commit":{"author":{"date":"2024-05-28T09:00:00Z"}}},
			{"author":{"login":"bob"},"commit":{"author":{"date":"2024-05-29T09:00:00Z"}}}
		]`))
	})

	g := newTestGateway(t, mux)
	series, err := g.UsersSeries(context.Background(), "golang", "go")

	require.NoError(t, err)
	require.NotEmpty(t, series)
	assert.Equal(t, 2, series["2024-05-31"])
}

func TestGitHubGateway_UsersSeriesError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/commits", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	g := newTestGateway(t, mux)
	_, err := g.UsersSeries(context.Background(), "golang", "go")

	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "users timeseries", fe.Op)
}
