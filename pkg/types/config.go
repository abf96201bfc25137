// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutputFormat selects the serialization of the filtered collection.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// OutputConfig holds settings for the emit step.
type OutputConfig struct {
	// Format selects the serialization: json (default) or yaml.
	Format OutputFormat `json:"format" yaml:"format"`

	// Path is the file to write. Empty means standard output.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ArchiveConfig holds settings for the optional SQLite run archive.
type ArchiveConfig struct {
	// DBPath is the SQLite database file. Empty disables archiving.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Enabled reports whether a run should be archived.
func (c ArchiveConfig) Enabled() bool {
	return c.DBPath != ""
}

// RunConfig groups the settings for one read-filter-emit run.
type RunConfig struct {
	// InputPath is the .osn file to read.
	InputPath string `json:"input_path" yaml:"input_path"`

	Output  OutputConfig  `json:"output" yaml:"output"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}
