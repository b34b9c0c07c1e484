package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var idsCmd = &cobra.Command{
	Use:   "ids [id]...",
	Short: "Looks up cached records by their storage ids",
	Long: `Looks up already-cached records by their storage-assigned ids and outputs
them as JSON. Duplicate ids are looked up once; unknown ids are dropped
silently. Only meaningful with a durable store configured.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		ids := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid id %q: %v\n", arg, err)
				os.Exit(1)
			}
			ids = append(ids, id)
		}

		svc, err := buildDeps(logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		records, err := svc.info.GetByIDs(ctx, ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to look up records: %v\n", err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal records to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(idsCmd)
}
