// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared across treextract stages.
package types

// TreeRecord is the result of decoding one tree statement from an input
// file. Records are created by the format decoders, are immutable once
// built, and are consumed exactly once when their output file is written.
type TreeRecord struct {
	// Name is the label the source file gave the tree. It is empty when
	// the source format carries no tree names (bare Newick input) or the
	// statement omitted one.
	Name string

	// Newick is the bracketed representation of the tree's topology and
	// branch lengths, without the trailing ';' terminator.
	Newick string
}
