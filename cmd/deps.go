package cmd

import (
	"fmt"
	"log"

	"github.com/naka-gawa/repo-compare/internal/config"
	"github.com/naka-gawa/repo-compare/internal/gateway"
	"github.com/naka-gawa/repo-compare/internal/storage"
	"github.com/naka-gawa/repo-compare/internal/usecase"
)

// services bundles the use case layer the commands talk to.
type services struct {
	info       *usecase.RepoInfoService
	summary    *usecase.SummaryService
	timeseries *usecase.TimeseriesService
}

// buildDeps wires the provider registry, the record store and the services
// from the loaded configuration. The registry is resolved once here; commands
// only ever see the services.
func buildDeps(logger *log.Logger) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GitHubToken == "" {
		return nil, fmt.Errorf("no GitHub token configured: set REPOCOMPARE_GITHUB_TOKEN or GITHUB_TOKEN")
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	selector := gateway.NewSelector(map[string]gateway.Fetcher{
		gateway.ProviderGitHub: githubGateway,
	})

	var store storage.Store
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open record store: %w", err)
		}
	} else {
		logger.Println("No database DSN configured, using in-memory store")
		store = storage.NewMemory()
	}

	return &services{
		info:       usecase.NewRepoInfoService(selector, store, cfg.CacheTTL, logger),
		summary:    usecase.NewSummaryService(selector, logger),
		timeseries: usecase.NewTimeseriesService(selector, logger),
	}, nil
}
