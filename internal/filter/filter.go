// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter selects subsets of a note collection by creation date and
// bounding box. Each stage is independent and only active when its
// parameter was supplied; stages never modify a note, they only select.
package filter

import (
	"log/slog"

	"github.com/pdiddy/osn-filter/pkg/types"
)

// Stage filters notes under c and returns the kept notes in their original
// order, plus the number of notes dropped because a field the stage needed
// did not parse. A stage whose parameter is unset returns notes unchanged.
type Stage func(notes []types.Note, c Criteria) (kept []types.Note, malformed int, err error)

// NamedStage pairs a stage with its diagnostic name and controlling parameter.
type NamedStage struct {
	Name   string
	Param  func(Criteria) Param
	Filter Stage
}

// Stages lists the pipeline in its fixed run order.
var Stages = []NamedStage{
	{
		Name:   "initial-creation",
		Param:  func(c Criteria) Param { return c.InitialCreation },
		Filter: ByInitialCreation,
	},
	{
		Name:   "final-creation",
		Param:  func(c Criteria) Param { return c.FinalCreation },
		Filter: ByFinalCreation,
	},
	{
		Name:   "bounding-box",
		Param:  func(c Criteria) Param { return c.BoundingBox },
		Filter: ByBoundingBox,
	},
}

// ByInitialCreation keeps notes created at or after the initial creation bound.
func ByInitialCreation(notes []types.Note, c Criteria) ([]types.Note, int, error) {
	if !c.InitialCreation.Set {
		return notes, 0, nil
	}
	bound, err := parseBound("initial creation timestamp", c.InitialCreation.Value)
	if err != nil {
		return nil, 0, err
	}
	kept, malformed := keep(notes, func(n types.Note) (bool, error) {
		created, err := n.Created()
		if err != nil {
			return false, err
		}
		return !created.Before(bound), nil
	})
	return kept, malformed, nil
}

// ByFinalCreation keeps notes created strictly before the final creation
// bound, so adjacent ranges never share a boundary instant.
func ByFinalCreation(notes []types.Note, c Criteria) ([]types.Note, int, error) {
	if !c.FinalCreation.Set {
		return notes, 0, nil
	}
	bound, err := parseBound("final creation timestamp", c.FinalCreation.Value)
	if err != nil {
		return nil, 0, err
	}
	kept, malformed := keep(notes, func(n types.Note) (bool, error) {
		created, err := n.Created()
		if err != nil {
			return false, err
		}
		return created.Before(bound), nil
	})
	return kept, malformed, nil
}

// ByBoundingBox keeps notes whose coordinates fall inside the bounding box.
func ByBoundingBox(notes []types.Note, c Criteria) ([]types.Note, int, error) {
	if !c.BoundingBox.Set {
		return notes, 0, nil
	}
	box, err := ParseBoundingBox(c.BoundingBox.Value)
	if err != nil {
		return nil, 0, err
	}
	kept, malformed := keep(notes, func(n types.Note) (bool, error) {
		lat, lon, err := n.Coordinates()
		if err != nil {
			return false, err
		}
		return box.Contains(lat, lon), nil
	})
	return kept, malformed, nil
}

// keep returns the notes for which pred is true. Notes for which pred
// fails are dropped and counted.
func keep(notes []types.Note, pred func(types.Note) (bool, error)) ([]types.Note, int) {
	kept := make([]types.Note, 0, len(notes))
	malformed := 0
	for _, n := range notes {
		ok, err := pred(n)
		if err != nil {
			malformed++
			continue
		}
		if ok {
			kept = append(kept, n)
		}
	}
	return kept, malformed
}

// Report describes what one stage did during a run.
type Report struct {
	Stage     string `json:"stage" yaml:"stage"`
	Active    bool   `json:"active" yaml:"active"`
	In        int    `json:"in" yaml:"in"`
	Out       int    `json:"out" yaml:"out"`
	Malformed int    `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

// Result holds the final collection and a per-stage trace.
type Result struct {
	Notes   []types.Note
	Reports []Report
}

// Run applies every stage in order, feeding each stage's output to the next.
// The first parameter error stops the run.
func Run(notes []types.Note, c Criteria, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := Result{Notes: notes}
	for _, s := range Stages {
		in := len(res.Notes)
		kept, malformed, err := s.Filter(res.Notes, c)
		if err != nil {
			return Result{}, err
		}
		r := Report{
			Stage:     s.Name,
			Active:    s.Param(c).Set,
			In:        in,
			Out:       len(kept),
			Malformed: malformed,
		}
		if r.Active {
			logger.Debug("filter stage", "stage", r.Stage, "in", r.In, "out", r.Out)
		}
		if r.Malformed > 0 {
			logger.Warn("excluded notes with unparseable fields", "stage", r.Stage, "count", r.Malformed)
		}
		res.Reports = append(res.Reports, r)
		res.Notes = kept
	}
	return res, nil
}
