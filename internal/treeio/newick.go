// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package treeio

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/TuftsBCB/io/newick"

	"github.com/pdiddy/treextract/pkg/types"
)

// decodeNewick reads one or more bare Newick statements from r. The
// format carries no tree names, so every record is unnamed.
func decodeNewick(r io.Reader) ([]types.TreeRecord, error) {
	// The newick lexer treats any read error as end of input, which
	// would pass off a truncated stream as a complete batch. Reading
	// the stream up front keeps I/O failures distinct from syntax
	// failures.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: FailureIO, Msg: "reading input", Err: err}
	}

	trees, err := newick.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, &ParseError{Kind: FailureSyntax, Msg: err.Error(), Err: err}
	}

	records := make([]types.TreeRecord, 0, len(trees))
	for _, t := range trees {
		records = append(records, types.TreeRecord{Newick: newickString(t)})
	}
	return records, nil
}

// newickString renders t in canonical Newick form without the trailing
// terminator: descendent list first, then the node label and branch
// length.
func newickString(t *newick.Tree) string {
	var b strings.Builder
	writeSubtree(&b, t)
	return b.String()
}

func writeSubtree(b *strings.Builder, t *newick.Tree) {
	if len(t.Children) > 0 {
		b.WriteByte('(')
		for i := range t.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeSubtree(b, &t.Children[i])
		}
		b.WriteByte(')')
	}
	b.WriteString(t.Label)
	if t.Length != nil {
		// Plain decimal only; the grammar does not accept exponent
		// notation, so the output must round-trip without it.
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(*t.Length, 'f', -1, 64))
	}
}
