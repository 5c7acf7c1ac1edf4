// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package treeio

import (
	"fmt"
	"io"
	"strings"

	"github.com/TuftsBCB/io/newick"

	"github.com/pdiddy/treextract/pkg/types"
)

// decodeNexus reads every TREE (or UTREE) statement from the TREES
// blocks of a Nexus file. Statement names become record names; an
// optional TRANSLATE table is applied to matching node labels. Each
// tree payload is validated and canonicalized through the Newick
// reader, so a malformed tree fails the whole decode.
func decodeNexus(r io.Reader) ([]types.TreeRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: FailureIO, Msg: "reading input", Err: err}
	}

	src := strings.TrimSpace(string(data))
	if len(src) < 6 || !strings.EqualFold(src[:6], "#nexus") {
		return nil, syntaxErr("input does not begin with a #NEXUS header")
	}

	stmts, err := splitStatements(src[6:])
	if err != nil {
		return nil, err
	}

	var records []types.TreeRecord
	translate := map[string]string{}
	block := ""
	for _, stmt := range stmts {
		if stmt == "" {
			continue
		}
		fields := splitNexusFields(stmt)
		if len(fields) == 0 {
			continue
		}

		switch kw := strings.ToLower(fields[0]); {
		case kw == "begin":
			if len(fields) < 2 {
				return nil, syntaxErr("BEGIN statement with no block name")
			}
			block = strings.ToLower(fields[1])
			if block == "trees" {
				// Each TREES block starts with a fresh translate table.
				translate = map[string]string{}
			}
		case kw == "end" || kw == "endblock":
			block = ""
		case block != "trees":
			// Statements outside TREES blocks carry no trees.
		case kw == "translate":
			m, err := parseTranslate(fields[1:])
			if err != nil {
				return nil, err
			}
			translate = m
		case kw == "tree" || kw == "utree":
			rec, err := parseTreeStatement(stmt, translate)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// splitStatements removes [...] comments (which may nest) and splits the
// input into semicolon-terminated statements. Quoted regions keep their
// quotes so splitNexusFields can honor them later.
func splitStatements(src string) ([]string, error) {
	var stmts []string
	var cur strings.Builder
	depth := 0
	inQuote := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case depth > 0:
			if c == '[' {
				depth++
			} else if c == ']' {
				depth--
			}
		case inQuote:
			cur.WriteByte(c)
			if c == '\'' {
				if i+1 < len(src) && src[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
				}
			}
		case c == '[':
			depth = 1
		case c == '\'':
			inQuote = true
			cur.WriteByte(c)
		case c == ';':
			stmts = append(stmts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	if inQuote {
		return nil, syntaxErr("unterminated quoted token")
	}
	if depth > 0 {
		return nil, syntaxErr("unterminated [ comment")
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		return nil, syntaxErr(fmt.Sprintf("statement %q is missing its ';' terminator", abbrev(rest)))
	}
	return stmts, nil
}

// splitNexusFields tokenizes a comment-free statement. Whitespace
// separates tokens, ',' and '=' are tokens of their own, and a
// single-quoted region is one token with its quotes removed and a
// doubled quote unescaped to a single one.
func splitNexusFields(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			i++
			for ; i < len(s); i++ {
				if s[i] == '\'' {
					if i+1 < len(s) && s[i+1] == '\'' {
						cur.WriteByte('\'')
						i++
						continue
					}
					break
				}
				cur.WriteByte(s[i])
			}
		case c == ',' || c == '=':
			flush()
			out = append(out, string(c))
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// parseTranslate reads a tokenized TRANSLATE body: comma-separated pairs
// of (token, label).
func parseTranslate(fields []string) (map[string]string, error) {
	m := make(map[string]string)
	var entry []string
	flush := func() error {
		if len(entry) == 0 {
			return nil
		}
		if len(entry) != 2 {
			return syntaxErr(fmt.Sprintf("TRANSLATE entry %q must pair a token with a label",
				strings.Join(entry, " ")))
		}
		m[entry[0]] = entry[1]
		entry = nil
		return nil
	}

	for _, f := range fields {
		if f == "," {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		entry = append(entry, f)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseTreeStatement decodes one TREE statement: "TREE [*] [name] =
// <newick>". The name is optional; the NCL-style '*' default-tree marker
// is accepted and ignored.
func parseTreeStatement(stmt string, translate map[string]string) (types.TreeRecord, error) {
	eq := indexUnquoted(stmt, '=')
	if eq < 0 {
		return types.TreeRecord{}, syntaxErr(fmt.Sprintf("TREE statement %q has no '='", abbrev(stmt)))
	}

	head := splitNexusFields(stmt[:eq])[1:]
	if len(head) > 0 && head[0] == "*" {
		head = head[1:]
	}
	var name string
	switch len(head) {
	case 0:
	case 1:
		name = head[0]
	default:
		return types.TreeRecord{}, syntaxErr(fmt.Sprintf("TREE statement %q names more than one tree", abbrev(stmt)))
	}

	// Whitespace inside the payload is insignificant; the rooting
	// comment ([&R]/[&U]) was already stripped with the other comments.
	payload := strings.Join(strings.Fields(stmt[eq+1:]), "")
	if payload == "" {
		return types.TreeRecord{}, syntaxErr(fmt.Sprintf("TREE statement %q has an empty tree", abbrev(stmt)))
	}

	trees, err := newick.NewReader(strings.NewReader(payload + ";")).ReadAll()
	if err != nil {
		return types.TreeRecord{}, syntaxErr(fmt.Sprintf("tree %q: %v", name, err))
	}
	if len(trees) != 1 {
		return types.TreeRecord{}, syntaxErr(fmt.Sprintf("tree %q: expected exactly one tree in the statement", name))
	}

	applyTranslate(trees[0], translate)
	return types.TreeRecord{Name: name, Newick: newickString(trees[0])}, nil
}

// applyTranslate replaces node labels listed in the translate table.
// Spaces in substituted labels become underscores, the usual convention
// for unquoted Newick labels.
func applyTranslate(t *newick.Tree, m map[string]string) {
	if len(m) == 0 {
		return
	}
	if label, ok := m[t.Label]; ok {
		t.Label = strings.ReplaceAll(label, " ", "_")
	}
	for i := range t.Children {
		applyTranslate(&t.Children[i], m)
	}
}

// indexUnquoted returns the index of the first target byte outside
// quoted regions, or -1.
func indexUnquoted(s string, target byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case inQuote:
			if s[i] == '\'' {
				inQuote = false
			}
		case s[i] == '\'':
			inQuote = true
		case s[i] == target:
			return i
		}
	}
	return -1
}

// abbrev shortens long statement text for error messages.
func abbrev(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
