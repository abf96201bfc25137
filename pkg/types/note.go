// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the osn-filter pipeline:
// the note record model produced by conversion, and the configuration
// structs handed to each stage.
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Note is one geotagged, timestamped note from an OpenStreetMap Notes
// export. Coordinate and timestamp fields keep the source text exactly;
// they are parsed only when a filter stage needs them.
type Note struct {
	// ID is the note identifier from the source document, if present.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Lat is the latitude attribute as written in the source.
	Lat string `json:"lat" yaml:"lat"`

	// Lon is the longitude attribute as written in the source.
	Lon string `json:"lon" yaml:"lon"`

	// CreatedAt is the creation timestamp attribute as written in the source.
	CreatedAt string `json:"created_at" yaml:"created_at"`

	// ClosedAt is the closing timestamp for resolved notes.
	ClosedAt string `json:"closed_at,omitempty" yaml:"closed_at,omitempty"`

	// Attrs holds any other attributes of the note element, keyed by local name.
	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`

	// Comments lists the note's comment thread in document order.
	Comments []Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Comment is a single entry in a note's discussion thread.
type Comment struct {
	Action    string `json:"action,omitempty" yaml:"action,omitempty"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	UID       string `json:"uid,omitempty" yaml:"uid,omitempty"`
	User      string `json:"user,omitempty" yaml:"user,omitempty"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Created parses the note's creation timestamp.
func (n Note) Created() (time.Time, error) {
	t, err := ParseTimestamp(n.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("note %s created_at: %w", n.label(), err)
	}
	return t, nil
}

// Coordinates parses the note's latitude and longitude.
func (n Note) Coordinates() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(strings.TrimSpace(n.Lat), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("note %s lat %q: %w", n.label(), n.Lat, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(n.Lon), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("note %s lon %q: %w", n.label(), n.Lon, err)
	}
	return lat, lon, nil
}

func (n Note) label() string {
	if n.ID == "" {
		return "(no id)"
	}
	return n.ID
}
