// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osn-filter/internal/archive"
	"github.com/pdiddy/osn-filter/internal/export"
	"github.com/pdiddy/osn-filter/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived filter runs",
	Long: `Runs lists the filter runs recorded with --db, newest first. Use --run
with a run ID to print the notes that run kept.`,
	RunE: runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	dbPath := setting(cmd, flagDB)
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := archive.Open(types.ArchiveConfig{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)

	if runID != "" {
		notes, err := a.Notes(ctx, runID)
		if err != nil {
			return err
		}
		format := types.OutputFormat(setting(cmd, flagFormat))
		return export.Write(cmd.OutOrStdout(), notes, format)
	}

	runs, err := a.Runs(ctx, limit)
	if err != nil {
		return err
	}
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []archive.Run, jsonOutput bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []archive.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No archived runs.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-30s  %6s  %6s  %s\n",
		"Run", "Filtered at", "Source", "Total", "Kept", "Filters")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for _, r := range runs {
		source := r.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-30s  %6d  %6d  %s\n",
			r.ID, r.FilteredAt.Format("2006-01-02 15:04:05"), source, r.Total, r.Kept, describeFilters(r))
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

func describeFilters(r archive.Run) string {
	var parts []string
	if r.InitialCreation != "" {
		parts = append(parts, "from "+r.InitialCreation)
	}
	if r.FinalCreation != "" {
		parts = append(parts, "before "+r.FinalCreation)
	}
	if r.BoundingBox != "" {
		parts = append(parts, "bbox "+r.BoundingBox)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func init() {
	runsCmd.Flags().String(flagDB, "", "SQLite archive to read")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	runsCmd.Flags().String("run", "", "print the notes kept by this run ID")
	runsCmd.Flags().String(flagFormat, "json", "note output format for --run: json or yaml")
	runsCmd.Flags().Bool("json", false, "list runs as JSON")

	rootCmd.AddCommand(runsCmd)
}
