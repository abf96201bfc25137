// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/osn-filter/pkg/types"
)

// ErrInvalidParam is returned when a supplied filter parameter cannot be parsed.
var ErrInvalidParam = errors.New("invalid filter parameter")

// Param is an optional user-supplied parameter. Set distinguishes a value
// that was supplied (even if empty) from one that was not.
type Param struct {
	Value string
	Set   bool
}

// Present returns a supplied parameter holding v.
func Present(v string) Param {
	return Param{Value: v, Set: true}
}

// Criteria is the filter configuration for one run. Unset parameters
// disable their stage.
type Criteria struct {
	// InitialCreation is the inclusive lower creation bound.
	InitialCreation Param

	// FinalCreation is the exclusive upper creation bound.
	FinalCreation Param

	// BoundingBox is "lon_min,lat_min,lon_max,lat_max", inclusive on both axes.
	BoundingBox Param
}

// Validate parses every supplied parameter and returns the first failure.
func (c Criteria) Validate() error {
	if c.InitialCreation.Set {
		if _, err := parseBound("initial creation timestamp", c.InitialCreation.Value); err != nil {
			return err
		}
	}
	if c.FinalCreation.Set {
		if _, err := parseBound("final creation timestamp", c.FinalCreation.Value); err != nil {
			return err
		}
	}
	if c.BoundingBox.Set {
		if _, err := ParseBoundingBox(c.BoundingBox.Value); err != nil {
			return err
		}
	}
	return nil
}

func parseBound(name, value string) (time.Time, error) {
	t, err := types.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidParam, name, err)
	}
	return t, nil
}

// BoundingBox is an axis-aligned rectangle in longitude/latitude space.
type BoundingBox struct {
	LonMin, LatMin, LonMax, LatMax float64
}

// ParseBoundingBox parses exactly four comma-separated decimal numbers in
// the order lon_min,lat_min,lon_max,lat_max.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: bounding box %q: want 4 comma-separated numbers (lon_min,lat_min,lon_max,lat_max), got %d",
			ErrInvalidParam, s, len(parts))
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return BoundingBox{}, fmt.Errorf("%w: bounding box %q: value %d (%q) is not a number",
				ErrInvalidParam, s, i+1, p)
		}
		vals[i] = v
	}

	return BoundingBox{LonMin: vals[0], LatMin: vals[1], LonMax: vals[2], LatMax: vals[3]}, nil
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax &&
		lon >= b.LonMin && lon <= b.LonMax
}
