// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package treeio decodes tree files in the supported phylogenetic
// formats and yields one record per tree statement, in source order.
package treeio

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/treextract/pkg/types"
)

// FailureKind classifies a decode failure.
type FailureKind int

const (
	// FailureSyntax means the input does not conform to the format's grammar.
	FailureSyntax FailureKind = iota

	// FailureIO means the input stream could not be read.
	FailureIO

	// FailureUnknown covers failures with no useful classification, such
	// as a panic inside a decoder.
	FailureUnknown
)

// String returns a short human-readable name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureSyntax:
		return "syntax"
	case FailureIO:
		return "i/o"
	case FailureUnknown:
		return "unknown"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// ParseError reports a decode failure together with its classification.
// It is the only error type decoders produce, so callers branch on Kind
// rather than on error ordering.
type ParseError struct {
	Kind   FailureKind
	Format string
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Format == "" {
		return fmt.Sprintf("parsing input: %s", msg)
	}
	return fmt.Sprintf("parsing %s input: %s", e.Format, msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a format identifier outside the catalog.
// Valid carries the full catalog so callers can show the user every
// acceptable identifier.
type UnsupportedFormatError struct {
	Format string
	Valid  []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (valid formats: %s)",
		e.Format, strings.Join(e.Valid, ", "))
}

// decoderFn decodes one whole input stream into tree records.
type decoderFn func(io.Reader) ([]types.TreeRecord, error)

// decoders maps each catalog identifier to its grammar. A phyliptree
// file carries the same bare-tree grammar as newick; it stays a distinct
// identifier because input files are declared with it.
var decoders = map[string]decoderFn{
	"newick":     decodeNewick,
	"nexus":      decodeNexus,
	"phyliptree": decodeNewick,
}

// Formats returns every supported format identifier, sorted. The list is
// fixed for a given build.
func Formats() []string {
	ids := make([]string, 0, len(decoders))
	for id := range decoders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Supported reports whether id names a decodable format. Matching is
// exact and case-sensitive; identifiers must be given as advertised.
func Supported(id string) bool {
	_, ok := decoders[id]
	return ok
}

// Decode reads every tree from r according to the named format and
// returns the records in source order; downstream naming depends on
// positions being preserved. Failures are reported as *ParseError. A
// panic inside a decoder is recovered and classified as FailureUnknown
// so that no failure mode escapes the taxonomy.
func Decode(r io.Reader, format string) (records []types.TreeRecord, err error) {
	dec, ok := decoders[format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format, Valid: Formats()}
	}

	defer func() {
		if v := recover(); v != nil {
			records = nil
			err = &ParseError{
				Kind:   FailureUnknown,
				Format: format,
				Msg:    fmt.Sprintf("unknown error during parsing: %v", v),
			}
		}
	}()

	records, err = dec(r)
	if pe, ok := err.(*ParseError); ok && pe.Format == "" {
		pe.Format = format
	}
	return records, err
}

// syntaxErr builds a FailureSyntax error; Decode fills in the format.
func syntaxErr(msg string) *ParseError {
	return &ParseError{Kind: FailureSyntax, Msg: msg}
}
