// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract orchestrates the tree extraction pipeline: format
// validation, decoding, per-tree name resolution, and output files.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/treextract/internal/treeio"
	"github.com/pdiddy/treextract/pkg/types"
)

// treeExt is the suffix of every output file.
const treeExt = ".tre"

// ErrNoTrees reports an input that parsed cleanly for its format but
// contained no tree statements. It is distinct from a parse failure:
// the file was valid, just empty of content.
var ErrNoTrees = errors.New("the file was parsed successfully, but no trees were found")

// WrittenTree records one output file produced by a run.
type WrittenTree struct {
	Name string
	Path string
}

// Result holds the outcome of an extraction run.
type Result struct {
	Written []WrittenTree
}

// Count returns the number of trees written.
func (r Result) Count() int {
	return len(r.Written)
}

// Extract runs the pipeline for one request, printing a progress line
// per written file to w. The format is validated against the catalog
// before any I/O touches the input path. Named trees keep their name
// verbatim; unnamed trees are written as "{prefix}_{index}" using the
// tree's 0-based position in the source file. Resolved names are not
// de-duplicated: two trees with the same name overwrite one output
// file, last write wins.
//
// There is no rollback. If writing tree k fails, trees 0..k-1 stay on
// disk, the error is returned, and nothing later is written.
func Extract(req types.ExtractRequest, w io.Writer) (Result, error) {
	if !treeio.Supported(req.Format) {
		return Result{}, &treeio.UnsupportedFormatError{Format: req.Format, Valid: treeio.Formats()}
	}

	in, err := os.Open(req.InputPath)
	if err != nil {
		return Result{}, &treeio.ParseError{
			Kind:   treeio.FailureIO,
			Format: req.Format,
			Msg:    "opening input",
			Err:    err,
		}
	}
	defer in.Close()

	records, err := treeio.Decode(in, req.Format)
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return Result{}, ErrNoTrees
	}

	var result Result
	for i, rec := range records {
		name := rec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", req.Prefix, i)
		}
		path := filepath.Join(req.OutDir, name+treeExt)
		if err := WriteTree(rec.Newick, path); err != nil {
			return result, err
		}
		fmt.Fprintf(w, "wrote: %s\n", path)
		result.Written = append(result.Written, WrittenTree{Name: name, Path: path})
	}

	fmt.Fprintf(w, "\nExtracted %d of %d trees from %s\n", result.Count(), len(records), req.InputPath)
	return result, nil
}

// WriteTree writes one Newick string to path, appending the ';'
// statement terminator and nothing else. The file is created or
// truncated, and is flushed and closed on every path.
func WriteTree(newick, path string) error {
	if err := os.WriteFile(path, []byte(newick+";"), 0o644); err != nil {
		return fmt.Errorf("writing tree file: %w", err)
	}
	return nil
}
