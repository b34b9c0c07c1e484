package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [owner/repo]",
	Short: "Fetches a repository's headline counts, bypassing the cache",
	Long: `Fetches the current open/closed pull request counts, contributor count and
oldest pull request date straight from the provider, without touching the
cache, and outputs the result in JSON format.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		source, err := parseSource(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		svc, err := buildDeps(logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		summary, err := svc.summary.GetSummary(ctx, source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch summary for %s: %v\n", args[0], err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal summary to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
