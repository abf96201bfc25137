// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one read-filter-emit pass over an OSN export:
// load, convert, stop early on an empty collection, filter, archive
// (optional) and emit. Any failure stops the run before output is written.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdiddy/osn-filter/internal/archive"
	"github.com/pdiddy/osn-filter/internal/export"
	"github.com/pdiddy/osn-filter/internal/filter"
	"github.com/pdiddy/osn-filter/internal/osn"
	"github.com/pdiddy/osn-filter/pkg/types"
)

// Summary describes a completed run.
type Summary struct {
	Source  string
	Total   int
	Kept    int
	Empty   bool
	RunID   string
	Reports []filter.Report
}

// Run executes the pipeline for cfg and criteria c. The filtered collection
// goes to stdout unless cfg.Output.Path is set; progress lines go to w.
// An input with no notes is reported on w and returns a Summary with Empty
// set and no error.
func Run(ctx context.Context, cfg types.RunConfig, c filter.Criteria, stdout, w io.Writer, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	summary := Summary{Source: cfg.InputPath}

	// Configuration errors surface before the input is read.
	if err := osn.CheckExtension(cfg.InputPath); err != nil {
		return summary, err
	}
	if err := c.Validate(); err != nil {
		return summary, err
	}
	if _, err := export.Marshal(nil, cfg.Output.Format); err != nil {
		return summary, err
	}

	notes, err := osn.Load(cfg.InputPath)
	if err != nil {
		return summary, err
	}
	summary.Total = len(notes)

	if len(notes) == 0 {
		fmt.Fprintf(w, "empty notes collection in %s\n", cfg.InputPath)
		summary.Empty = true
		return summary, nil
	}
	fmt.Fprintf(w, "loaded %s (%d notes)\n", cfg.InputPath, len(notes))

	res, err := filter.Run(notes, c, logger)
	if err != nil {
		return summary, err
	}
	summary.Kept = len(res.Notes)
	summary.Reports = res.Reports

	data, err := export.Marshal(res.Notes, cfg.Output.Format)
	if err != nil {
		return summary, err
	}

	if !cfg.Archive.Enabled() {
		if err := export.EmitBytes(cfg.Output, stdout, data); err != nil {
			return summary, err
		}
	} else {
		runID, err := archiveAndEmit(ctx, cfg, c, summary.Total, res.Notes, stdout, data)
		if err != nil {
			return summary, err
		}
		summary.RunID = runID
		fmt.Fprintf(w, "archived run %s to %s\n", runID, cfg.Archive.DBPath)
	}

	if cfg.Output.Path != "" {
		fmt.Fprintf(w, "wrote %d of %d notes to %s\n", summary.Kept, summary.Total, cfg.Output.Path)
	}

	return summary, nil
}

// archiveAndEmit records the run, then writes the output. A failed write
// removes the run again so the archive only holds runs that produced output.
func archiveAndEmit(ctx context.Context, cfg types.RunConfig, c filter.Criteria, total int, kept []types.Note, stdout io.Writer, data []byte) (string, error) {
	a, err := archive.Open(cfg.Archive)
	if err != nil {
		return "", err
	}
	defer a.Close()

	run, err := a.Record(ctx, cfg.InputPath, c, total, kept)
	if err != nil {
		return "", err
	}

	if err := export.EmitBytes(cfg.Output, stdout, data); err != nil {
		if derr := a.Delete(ctx, run.ID); derr != nil {
			return "", fmt.Errorf("%w (removing archived run %s: %v)", err, run.ID, derr)
		}
		return "", err
	}
	return run.ID, nil
}
