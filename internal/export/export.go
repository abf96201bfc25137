// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes a note collection as JSON or YAML, to a writer
// or to an output file.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/osn-filter/pkg/types"
)

// Marshal serializes notes in the given format. An empty or nil collection
// serializes as an empty list.
func Marshal(notes []types.Note, format types.OutputFormat) ([]byte, error) {
	if notes == nil {
		notes = []types.Note{}
	}

	switch format {
	case types.OutputJSON, "":
		data, err := json.MarshalIndent(notes, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return append(data, '\n'), nil
	case types.OutputYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(notes); err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}

// Write serializes notes to w.
func Write(w io.Writer, notes []types.Note, format types.OutputFormat) error {
	data, err := Marshal(notes, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile serializes notes to path. The file is only created once
// serialization has succeeded.
func WriteFile(path string, notes []types.Note, format types.OutputFormat) error {
	data, err := Marshal(notes, format)
	if err != nil {
		return err
	}
	return EmitBytes(types.OutputConfig{Format: format, Path: path}, nil, data)
}

// Emit writes notes to cfg.Path, or to stdout when no path is configured.
func Emit(cfg types.OutputConfig, stdout io.Writer, notes []types.Note) error {
	data, err := Marshal(notes, cfg.Format)
	if err != nil {
		return err
	}
	return EmitBytes(cfg, stdout, data)
}

// EmitBytes writes already serialized output to cfg.Path, or to stdout when
// no path is configured.
func EmitBytes(cfg types.OutputConfig, stdout io.Writer, data []byte) error {
	if cfg.Path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(cfg.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Path, err)
	}
	return nil
}
