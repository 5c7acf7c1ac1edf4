// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/treextract/pkg/types"
)

// Manifest is the on-disk YAML report of one extraction run. It lists
// the written files in output order so a run can be audited or cleaned
// up later.
type Manifest struct {
	Input     string         `yaml:"input"`
	Format    string         `yaml:"format"`
	Prefix    string         `yaml:"prefix"`
	TreeCount int            `yaml:"tree_count"`
	Trees     []ManifestTree `yaml:"trees"`
	Timestamp time.Time      `yaml:"timestamp"`
}

// ManifestTree is one written tree in the manifest.
type ManifestTree struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// WriteManifest saves a YAML summary of a completed run to path.
func WriteManifest(path string, req types.ExtractRequest, result Result) error {
	m := Manifest{
		Input:     req.InputPath,
		Format:    req.Format,
		Prefix:    req.Prefix,
		TreeCount: result.Count(),
		Timestamp: time.Now(),
	}
	for _, t := range result.Written {
		m.Trees = append(m.Trees, ManifestTree{Name: t.Name, File: t.Path})
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
