package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/gosub-io/gosub-engine/parser"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// parseFind turns a --find expression into a query. The grammar is a small
// selector subset:
//
//	[parent >] [tag] {#id | .class | [attr]} [:has(child)]
func parseFind(expr string, all bool) (*dom.Query, error) {
	q := dom.NewQuery()
	if all {
		q.FindAll()
	} else {
		q.FindFirst()
	}

	expr = strings.TrimSpace(expr)
	if i := strings.IndexByte(expr, '>'); i >= 0 {
		parent := strings.TrimSpace(expr[:i])
		if !isName(parent) {
			return nil, errors.Errorf("find %q: bad parent tag %q", expr, parent)
		}
		q.HasParentTag(strings.ToLower(parent))
		expr = strings.TrimSpace(expr[i+1:])
	}
	if i := strings.Index(expr, ":has("); i >= 0 {
		if !strings.HasSuffix(expr, ")") {
			return nil, errors.Errorf("find %q: unclosed :has(", expr)
		}
		child := expr[i+len(":has(") : len(expr)-1]
		if !isName(child) {
			return nil, errors.Errorf("find %q: bad child tag %q", expr, child)
		}
		q.ContainsChildTag(strings.ToLower(child))
		expr = expr[:i]
	}

	tag := expr
	if i := strings.IndexAny(expr, "#.["); i >= 0 {
		tag = expr[:i]
	}
	if tag != "" && tag != "*" {
		if !isName(tag) {
			return nil, errors.Errorf("find %q: bad tag %q", expr, tag)
		}
		q.EqualsTag(strings.ToLower(tag))
	}

	for rest := expr[len(tag):]; rest != ""; {
		kind := rest[0]
		rest = rest[1:]
		var name string
		if kind == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.Errorf("find %q: unclosed [", expr)
			}
			name, rest = rest[:end], rest[end+1:]
		} else {
			end := strings.IndexAny(rest, "#.[")
			if end < 0 {
				end = len(rest)
			}
			name, rest = rest[:end], rest[end:]
		}
		if !isName(name) {
			return nil, errors.Errorf("find %q: empty or bad name after %q", expr, kind)
		}
		switch kind {
		case '#':
			q.EqualsID(name)
		case '.':
			q.ContainsClass(name)
		case '[':
			q.ContainsAttribute(strings.ToLower(name))
		default:
			return nil, errors.Errorf("find %q: unexpected %q", expr, kind)
		}
	}
	if len(q.Conditions) == 0 {
		return nil, errors.Errorf("find %q: no conditions", expr)
	}
	return q, nil
}

func isName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\n\f\r#.[]>():")
}

// writeMatches prints the outer HTML of every node matching q, one per line.
func writeMatches(w io.Writer, res *parser.Result, q *dom.Query) (int, error) {
	var found []dom.NodeID
	if len(q.Conditions) == 1 && q.Conditions[0].Kind == dom.EqualsID && q.Search == dom.SearchFirst {
		if id, ok := res.Document.ElementByID(q.Conditions[0].Value); ok {
			found = append(found, id)
		}
	} else {
		var err error
		if found, err = res.Document.Query(res.Root, q); err != nil {
			return 0, errors.Wrap(err, "query")
		}
	}
	for _, id := range found {
		if _, err := fmt.Fprintln(w, res.Document.OuterHTML(id)); err != nil {
			return 0, err
		}
	}
	return len(found), nil
}
