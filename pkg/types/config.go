// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractRequest carries the parameters of one extraction run. It is
// built once from the command line and is read-only for the rest of
// the run.
type ExtractRequest struct {
	// InputPath is the tree file to read.
	InputPath string

	// Format names the grammar used to decode the input. It must be one
	// of the identifiers advertised by the format catalog; matching is
	// exact and case-sensitive.
	Format string

	// Prefix is used to synthesize output names for unlabeled trees as
	// "{prefix}_{index}" with the tree's 0-based position in the file.
	Prefix string

	// OutDir is the directory the .tre files are written into. Empty
	// means the current working directory.
	OutDir string
}

// RunLogConfig holds settings for the extraction run history.
type RunLogConfig struct {
	// Enabled controls whether completed runs are recorded even without
	// the --record flag.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory holding the history database
	// (default ".treextract").
	Dir string `json:"dir" yaml:"dir"`
}
