package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosub-io/gosub-engine/parser"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

func TestParseFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want []dom.Condition
	}{
		{"li", []dom.Condition{{Kind: dom.EqualsTag, Value: "li"}}},
		{"LI.done", []dom.Condition{{Kind: dom.EqualsTag, Value: "li"}, {Kind: dom.ContainsClass, Value: "done"}}},
		{"#main", []dom.Condition{{Kind: dom.EqualsID, Value: "main"}}},
		{"[title]", []dom.Condition{{Kind: dom.ContainsAttribute, Value: "title"}}},
		{"ul > li", []dom.Condition{{Kind: dom.HasParentTag, Value: "ul"}, {Kind: dom.EqualsTag, Value: "li"}}},
		{"*:has(em)", []dom.Condition{{Kind: dom.ContainsChildTag, Value: "em"}}},
		{"ul>li#two.x[data-n]:has(em)", []dom.Condition{
			{Kind: dom.HasParentTag, Value: "ul"},
			{Kind: dom.ContainsChildTag, Value: "em"},
			{Kind: dom.EqualsTag, Value: "li"},
			{Kind: dom.EqualsID, Value: "two"},
			{Kind: dom.ContainsClass, Value: "x"},
			{Kind: dom.ContainsAttribute, Value: "data-n"},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			q, err := parseFind(tt.expr, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Conditions)
			assert.Equal(t, dom.SearchFirst, q.Search)
		})
	}

	for _, bad := range []string{"", "*", "li.", "li[title", "> li", "li:has(em", "a b"} {
		bad := bad
		t.Run("bad "+bad, func(t *testing.T) {
			t.Parallel()
			_, err := parseFind(bad, true)
			assert.Error(t, err)
		})
	}
}

func TestWriteMatches(t *testing.T) {
	t.Parallel()

	const src = `<ul id=list><li class=done>1<li id=two>2<em>!</em></ul><p id=two>`
	tests := []struct {
		expr string
		all  bool
		want string
	}{
		{"li", false, "<li class=\"done\">1</li>\n"},
		{"li", true, "<li class=\"done\">1</li>\n<li id=\"two\">2<em>!</em></li>\n"},
		{"#two", false, "<li id=\"two\">2<em>!</em></li>\n"},
		{"#two", true, "<li id=\"two\">2<em>!</em></li>\n<p id=\"two\"></p>\n"},
		{"ul > li:has(em)", true, "<li id=\"two\">2<em>!</em></li>\n"},
		{"table", true, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			res, err := parser.ParseString(src)
			require.NoError(t, err)
			q, err := parseFind(tt.expr, tt.all)
			require.NoError(t, err)
			var buf bytes.Buffer
			n, err := writeMatches(&buf, res, q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, bytes.Count(buf.Bytes(), []byte("\n")), n)
		})
	}
}
