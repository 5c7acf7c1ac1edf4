// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pdiddy/treextract/internal/treeio"
	"github.com/pdiddy/treextract/pkg/types"
)

// writeInput creates an input tree file in its own temp dir and returns
// its path.
func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// treFiles returns the sorted names of the .tre files in dir.
func treFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tre") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestExtractSingleUnnamedTree(t *testing.T) {
	input := writeInput(t, "(A:0.1,B:0.2);")
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "newick", Prefix: "tree", OutDir: outDir}

	var log bytes.Buffer
	result, err := Extract(req, &log)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if result.Count() != 1 {
		t.Fatalf("Count = %d, want 1", result.Count())
	}
	got := treFiles(t, outDir)
	if len(got) != 1 || got[0] != "tree_0.tre" {
		t.Fatalf("output files = %v, want [tree_0.tre]", got)
	}
	if content := readFile(t, filepath.Join(outDir, "tree_0.tre")); content != "(A:0.1,B:0.2);" {
		t.Errorf("content = %q, want %q", content, "(A:0.1,B:0.2);")
	}
	if !strings.Contains(log.String(), "wrote:") {
		t.Errorf("log %q has no progress line", log.String())
	}
}

func TestExtractPositionalNaming(t *testing.T) {
	// Named trees keep their name verbatim; unnamed trees use the
	// original 0-based position, not a re-numbered count.
	input := writeInput(t, `#NEXUS
BEGIN TREES;
TREE A = (x,y);
TREE = (x,z);
TREE C = (y,z);
TREE = (x,(y,z));
END;`)
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "nexus", Prefix: "tree", OutDir: outDir}

	result, err := Extract(req, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := []string{"A.tre", "C.tre", "tree_1.tre", "tree_3.tre"}
	if got := treFiles(t, outDir); !equalStrings(got, want) {
		t.Fatalf("output files = %v, want %v", got, want)
	}

	order := make([]string, 0, len(result.Written))
	for _, w := range result.Written {
		order = append(order, w.Name)
	}
	if !equalStrings(order, []string{"A", "tree_1", "C", "tree_3"}) {
		t.Errorf("written order = %v, want source order", order)
	}
}

func TestExtractCustomPrefix(t *testing.T) {
	input := writeInput(t, "(A,B);\n(C,D);")
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "newick", Prefix: "primates", OutDir: outDir}

	if _, err := Extract(req, &bytes.Buffer{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"primates_0.tre", "primates_1.tre"}
	if got := treFiles(t, outDir); !equalStrings(got, want) {
		t.Fatalf("output files = %v, want %v", got, want)
	}
}

func TestExtractNoTrees(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
	}{
		{"empty newick input", "newick", ""},
		{"nexus without tree statements", "nexus", "#NEXUS\nBEGIN TREES;\nEND;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeInput(t, tt.input)
			outDir := t.TempDir()
			req := types.ExtractRequest{InputPath: input, Format: tt.format, Prefix: "tree", OutDir: outDir}

			_, err := Extract(req, &bytes.Buffer{})
			if !errors.Is(err, ErrNoTrees) {
				t.Fatalf("err = %v, want ErrNoTrees", err)
			}
			if got := treFiles(t, outDir); len(got) != 0 {
				t.Errorf("output files = %v, want none", got)
			}
		})
	}
}

func TestExtractMalformedInput(t *testing.T) {
	input := writeInput(t, "(A,B")
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "newick", Prefix: "tree", OutDir: outDir}

	_, err := Extract(req, &bytes.Buffer{})
	var pe *treeio.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *treeio.ParseError", err)
	}
	if pe.Kind != treeio.FailureSyntax {
		t.Errorf("Kind = %v, want FailureSyntax", pe.Kind)
	}
	if got := treFiles(t, outDir); len(got) != 0 {
		t.Errorf("output files = %v, want none", got)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	input := writeInput(t, "(A,B);")
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "fasta", Prefix: "tree", OutDir: outDir}

	_, err := Extract(req, &bytes.Buffer{})
	var ufe *treeio.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want *treeio.UnsupportedFormatError", err)
	}
	if !equalStrings(ufe.Valid, treeio.Formats()) {
		t.Errorf("Valid = %v, want full catalog %v", ufe.Valid, treeio.Formats())
	}
	if got := treFiles(t, outDir); len(got) != 0 {
		t.Errorf("output files = %v, want none", got)
	}
}

func TestExtractMissingInputFile(t *testing.T) {
	req := types.ExtractRequest{
		InputPath: filepath.Join(t.TempDir(), "does-not-exist.nwk"),
		Format:    "newick",
		Prefix:    "tree",
		OutDir:    t.TempDir(),
	}

	_, err := Extract(req, &bytes.Buffer{})
	var pe *treeio.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *treeio.ParseError", err)
	}
	if pe.Kind != treeio.FailureIO {
		t.Errorf("Kind = %v, want FailureIO", pe.Kind)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	input := writeInput(t, "(A,B);\n(C,D);")
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "newick", Prefix: "tree", OutDir: outDir}

	if _, err := Extract(req, &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readFile(t, filepath.Join(outDir, "tree_0.tre"))

	if _, err := Extract(req, &bytes.Buffer{}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readFile(t, filepath.Join(outDir, "tree_0.tre"))

	if first != second {
		t.Errorf("second run changed output: %q vs %q", first, second)
	}
	if got := treFiles(t, outDir); len(got) != 2 {
		t.Errorf("output files = %v, want exactly 2 (overwritten, not appended)", got)
	}
}

func TestExtractDuplicateNamesLastWriteWins(t *testing.T) {
	input := writeInput(t, `#NEXUS
BEGIN TREES;
TREE dup = (A,B);
TREE dup = (C,D);
END;`)
	outDir := t.TempDir()
	req := types.ExtractRequest{InputPath: input, Format: "nexus", Prefix: "tree", OutDir: outDir}

	result, err := Extract(req, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Count() != 2 {
		t.Errorf("Count = %d, want 2 (both trees are written)", result.Count())
	}
	if got := treFiles(t, outDir); len(got) != 1 {
		t.Fatalf("output files = %v, want the single collided file", got)
	}
	if content := readFile(t, filepath.Join(outDir, "dup.tre")); content != "(C,D);" {
		t.Errorf("content = %q, want the later tree %q", content, "(C,D);")
	}
}

func TestExtractStopsOnWriteFailure(t *testing.T) {
	input := writeInput(t, "(A,B);\n(C,D);\n(E,F);")
	outDir := t.TempDir()
	// A directory squatting on the second output name makes that write fail.
	if err := os.Mkdir(filepath.Join(outDir, "tree_1.tre"), 0o755); err != nil {
		t.Fatal(err)
	}
	req := types.ExtractRequest{InputPath: input, Format: "newick", Prefix: "tree", OutDir: outDir}

	result, err := Extract(req, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Extract succeeded, want write failure")
	}
	if result.Count() != 1 {
		t.Errorf("Count = %d, want 1 (the prefix written before the failure)", result.Count())
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "tree_0.tre")); statErr != nil {
		t.Error("tree_0.tre missing: earlier writes must survive")
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "tree_2.tre")); !os.IsNotExist(statErr) {
		t.Error("tree_2.tre exists: nothing after the failure may be written")
	}
}

func TestWriteTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tre")
	if err := WriteTree("(A,B)", path); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	// Exactly the newick plus the terminator, no trailing newline.
	if content := readFile(t, path); content != "(A,B);" {
		t.Errorf("content = %q, want %q", content, "(A,B);")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
