// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

var rootCmd = &cobra.Command{
	Use:   "repo-compare",
	Short: "A CLI tool to fetch and compare repository activity metrics.",
	Long: `repo-compare fetches repository activity metrics (pull request counts,
contributor counts and their weekly time evolution) from a hosting provider,
caches them with a time-to-live, and renders a side-by-side comparison.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger builds the injected logger: silent unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// parseSource parses a repository argument of the form "owner/repo" or
// "provider/owner/repo". The provider defaults to github.
func parseSource(arg string) (domain.RepoSource, error) {
	parts := strings.Split(arg, "/")
	switch len(parts) {
	case 2:
		return domain.RepoSource{Provider: "github", Owner: parts[0], Repo: parts[1]}, nil
	case 3:
		return domain.RepoSource{Provider: parts[0], Owner: parts[1], Repo: parts[2]}, nil
	default:
		return domain.RepoSource{}, fmt.Errorf("invalid repository %q: expected owner/repo or provider/owner/repo", arg)
	}
}
