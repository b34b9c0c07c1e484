package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	gh := &GitHubGateway{}
	selector := NewSelector(map[string]Fetcher{
		"github": gh,
		"gitea":  gh,
	})

	assert.Equal(t, []string{"gitea", "github"}, selector.Providers())

	fetcher, ok := selector.Select("github")
	require.True(t, ok)
	assert.Same(t, gh, fetcher)

	_, ok = selector.Select("bitbucket")
	assert.False(t, ok)
}

func TestSelector_Empty(t *testing.T) {
	selector := NewSelector(nil)

	assert.Empty(t, selector.Providers())
	_, ok := selector.Select("github")
	assert.False(t, ok)
}
