package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-compare/internal/domain"
	"github.com/naka-gawa/repo-compare/internal/usecase"
)

var compareCmd = &cobra.Command{
	Use:   "compare [owner/repo]...",
	Short: "Fetches metrics for one or more repositories and compares them",
	Long: `Fetches activity metrics (open/closed pull requests, contributors and their
weekly evolution) for each given repository, serving repeated requests from
the cache while records are within their time-to-live.

Repositories are given as "owner/repo" (provider defaults to github) or
"provider/owner/repo".

Examples:
  # Compare two repositories as a table
  repo-compare compare golang/go rust-lang/rust

  # Output the full cached records, timeseries included, as JSON
  repo-compare compare golang/go --output json`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)
		output, _ := cmd.Flags().GetString("output")

		svc, err := buildDeps(logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		records := make([]domain.RepoInfo, 0, len(args))
		for _, arg := range args {
			source, err := parseSource(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			rec, err := svc.info.GetBySource(ctx, source)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to fetch %s: %v\n", arg, err)
				os.Exit(1)
			}
			records = append(records, rec)
		}

		if strings.EqualFold(output, "json") {
			jsonData, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
			return
		}

		if err := printComparisonTable(os.Stdout, records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render comparison table: %v\n", err)
			os.Exit(1)
		}
	},
}

// printComparisonTable renders one row per repository with its headline
// counts, the age of its oldest pull request and the median of its weekly
// open-PR series.
func printComparisonTable(w io.Writer, records []domain.RepoInfo) error {
	color.New(color.Bold).Fprintln(w, "Repository comparison")

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repository", "Open PRs", "Closed PRs", "Users", "Oldest PR", "PR Age (Days)", "Median Open PRs/Week"})

	now := time.Now()
	var data [][]string
	for _, rec := range records {
		oldest := "-"
		if rec.OldestPR != nil {
			oldest = rec.OldestPR.Format(domain.DateLayout)
		}
		prAge := "-"
		if days := rec.DaysSinceOldestPR(now); days != nil {
			prAge = strconv.Itoa(*days)
		}
		medianOpen := "-"
		if trend, err := usecase.Trend(rec.OpenPRs); err == nil {
			medianOpen = strconv.FormatFloat(trend.Median, 'f', 1, 64)
		}
		data = append(data, []string{
			rec.FullName(),
			strconv.Itoa(rec.OpenPRsCount),
			strconv.Itoa(rec.ClosedPRsCount),
			strconv.Itoa(rec.UsersCount),
			oldest,
			prAge,
			medianOpen,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}
