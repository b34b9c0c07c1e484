package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries [owner/repo]",
	Short: "Fetches a repository's weekly metric series, bypassing the cache",
	Long: `Fetches the weekly open/closed pull request and contributor series straight
from the provider, without touching the cache, and outputs them in JSON
format.`,
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

		series, err := svc.timeseries.GetTimeseries(ctx, source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch timeseries for %s: %v\n", args[0], err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(series, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal timeseries to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(timeseriesCmd)
}
