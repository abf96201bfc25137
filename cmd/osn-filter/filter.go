// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/osn-filter/internal/filter"
	"github.com/pdiddy/osn-filter/internal/pipeline"
	"github.com/pdiddy/osn-filter/pkg/types"
)

const (
	flagFile            = "file"
	flagInitialCreation = "initial-creation-timestamp"
	flagFinalCreation   = "final-creation-timestamp"
	flagBoundingBox     = "bbox"
	flagFormat          = "format"
	flagOutput          = "output"
	flagDB              = "db"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter an OSN export by creation date and bounding box",
	Long: `Filter reads an OpenStreetMap Notes file, converts it to note records and
applies the requested filters in order: initial creation timestamp
(inclusive), final creation timestamp (exclusive), then bounding box
(inclusive on both axes). Filters that are not given are skipped.

The result is printed to stdout as JSON (or YAML with --format yaml), or
written to --output. With --db the run and its kept notes are also recorded
in a SQLite archive.`,
	Example: `  osn-filter filter --file planet-notes-latest.osn --initial-creation-timestamp 2015-04-10 --final-creation-timestamp 2015-05-25
  osn-filter filter --file planet-notes-latest.osn --bbox -0.5,51.3,0.3,51.7 --format yaml --output london.yaml`,
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	input := setting(cmd, flagFile)
	if input == "" {
		return fmt.Errorf("--file is required (or set file in the config file or OSN_FILTER_FILE)")
	}

	cfg := types.RunConfig{
		InputPath: input,
		Output: types.OutputConfig{
			Format: types.OutputFormat(setting(cmd, flagFormat)),
			Path:   setting(cmd, flagOutput),
		},
		Archive: types.ArchiveConfig{
			DBPath: setting(cmd, flagDB),
		},
	}
	criteria := criteriaFromFlags(cmd)

	summary, err := pipeline.Run(commandContext(cmd), cfg, criteria, cmd.OutOrStdout(), cmd.ErrOrStderr(), slog.Default())
	if err != nil {
		return err
	}
	logSummary(slog.Default(), summary)
	return nil
}

// logSummary reports the per-stage trace of a run at debug level.
func logSummary(logger *slog.Logger, summary pipeline.Summary) {
	if summary.Empty {
		return
	}
	for _, r := range summary.Reports {
		if !r.Active {
			logger.Debug("stage skipped", "stage", r.Stage)
			continue
		}
		logger.Debug("stage applied", "stage", r.Stage, "in", r.In, "out", r.Out, "malformed", r.Malformed)
	}
	logger.Debug("filter complete", "source", summary.Source, "total", summary.Total, "kept", summary.Kept)
}

// criteriaFromFlags snapshots the filter parameters once. A parameter is
// present when its flag was given or the config/environment sets it.
func criteriaFromFlags(cmd *cobra.Command) filter.Criteria {
	return filter.Criteria{
		InitialCreation: optionalParam(cmd, flagInitialCreation),
		FinalCreation:   optionalParam(cmd, flagFinalCreation),
		BoundingBox:     optionalParam(cmd, flagBoundingBox),
	}
}

func optionalParam(cmd *cobra.Command, name string) filter.Param {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return filter.Present(f.Value.String())
	}
	if viper.IsSet(name) {
		return filter.Present(viper.GetString(name))
	}
	return filter.Param{}
}

func init() {
	filterCmd.Flags().String(flagFile, "", "OpenStreetMap Notes file to open (.osn, required)")
	filterCmd.Flags().String(flagInitialCreation, "", "keep notes created at or after this date (YYYY-MM-DD or RFC 3339)")
	filterCmd.Flags().String(flagFinalCreation, "", "keep notes created before this date (YYYY-MM-DD or RFC 3339)")
	filterCmd.Flags().String(flagBoundingBox, "", "keep notes inside lon_min,lat_min,lon_max,lat_max")
	filterCmd.Flags().String(flagFormat, "json", "output format: json or yaml")
	filterCmd.Flags().String(flagOutput, "", "write the result to this file instead of stdout")
	filterCmd.Flags().String(flagDB, "", "record the run in this SQLite archive")

	rootCmd.AddCommand(filterCmd)
}
