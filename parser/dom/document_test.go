package dom

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"
)

// buildSample makes <html><head></head><body><p id=x>a<b>b</b></p><!--c--></body></html>.
func buildSample(t *testing.T) (*Document, map[string]NodeID) {
	t.Helper()
	d := NewDocument()
	ids := map[string]NodeID{
		"doctype": d.CreateDoctype("html", "", ""),
		"html":    d.CreateElement("html", Htmlns, nil),
		"head":    d.CreateElement("head", Htmlns, nil),
		"body":    d.CreateElement("body", Htmlns, nil),
		"p":       d.CreateElement("p", Htmlns, []Attribute{{Key: "id", Val: "x"}}),
		"b":       d.CreateElement("b", Htmlns, nil),
		"comment": d.CreateComment("c"),
	}
	require.NoError(t, d.AppendChild(d.Root(), ids["doctype"]))
	require.NoError(t, d.AppendChild(d.Root(), ids["html"]))
	require.NoError(t, d.AppendChild(ids["html"], ids["head"]))
	require.NoError(t, d.AppendChild(ids["html"], ids["body"]))
	require.NoError(t, d.AppendChild(ids["body"], ids["p"]))
	_, err := d.AppendText(ids["p"], NoNode, "a")
	require.NoError(t, err)
	require.NoError(t, d.AppendChild(ids["p"], ids["b"]))
	_, err = d.AppendText(ids["b"], NoNode, "b")
	require.NoError(t, err)
	require.NoError(t, d.AppendChild(ids["body"], ids["comment"]))
	return d, ids
}

func TestDump(t *testing.T) {
	d, _ := buildSample(t)
	want := `| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <p>
|       id="x"
|       "a"
|       <b>
|         "b"
|     <!-- c -->`
	assert.Equal(t, want, d.Dump(d.Root()))
}

func TestDumpForeignAndTemplate(t *testing.T) {
	d := NewDocument()
	svg := d.CreateElement("svg", Svgns, []Attribute{
		{Namespace: Xlinkns, Key: "href", Val: "#a"},
		{Key: "viewBox", Val: "0 0 1 1"},
	})
	tmpl := d.CreateElement("template", Htmlns, nil)
	require.NoError(t, d.AppendChild(d.Root(), svg))
	require.NoError(t, d.AppendChild(d.Root(), tmpl))
	_, err := d.AppendText(d.TemplateContent(tmpl), NoNode, "x")
	require.NoError(t, err)

	want := `| <svg svg>
|   viewBox="0 0 1 1"
|   xlink href="#a"
| <template>
|   content
|     "x"`
	assert.Equal(t, want, d.Dump(d.Root()))
}

func TestSiblingInvariants(t *testing.T) {
	d, ids := buildSample(t)
	body := ids["body"]

	assert.Equal(t, []NodeID{ids["p"], ids["comment"]}, d.Children(body))
	assert.Equal(t, ids["p"], d.FirstChild(body))
	assert.Equal(t, ids["comment"], d.LastChild(body))
	assert.Equal(t, ids["comment"], d.NextSibling(ids["p"]))
	assert.Equal(t, ids["p"], d.PrevSibling(ids["comment"]))
	assert.Equal(t, body, d.Parent(ids["p"]))

	// Moving the comment in front of p keeps both ends consistent.
	require.NoError(t, d.InsertBefore(body, ids["comment"], ids["p"]))
	assert.Equal(t, []NodeID{ids["comment"], ids["p"]}, d.Children(body))
	assert.Equal(t, NoNode, d.PrevSibling(ids["comment"]))
	assert.Equal(t, NoNode, d.NextSibling(ids["p"]))

	require.NoError(t, d.Remove(ids["comment"]))
	assert.Equal(t, []NodeID{ids["p"]}, d.Children(body))
	assert.Equal(t, NoNode, d.Parent(ids["comment"]))
}

func TestAppendTextMerges(t *testing.T) {
	d := NewDocument()
	div := d.CreateElement("div", Htmlns, nil)
	require.NoError(t, d.AppendChild(d.Root(), div))
	first, err := d.AppendText(div, NoNode, "a")
	require.NoError(t, err)
	second, err := d.AppendText(div, NoNode, "b")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "ab", d.Data(first))

	span := d.CreateElement("span", Htmlns, nil)
	require.NoError(t, d.InsertBefore(div, span, first))
	inserted, err := d.AppendText(div, first, "c")
	require.NoError(t, err)
	assert.NotEqual(t, first, inserted, "text before an element is not merged into text after it")
}

func TestHierarchyErrors(t *testing.T) {
	d, ids := buildSample(t)
	err := d.AppendChild(ids["b"], ids["body"])
	assert.Equal(t, ErrHierarchy, errors.Cause(err))

	err = d.AppendChild(ids["p"], d.Root())
	assert.Equal(t, ErrHierarchy, errors.Cause(err))

	err = d.InsertBefore(ids["body"], ids["b"], ids["head"])
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestCloneNode(t *testing.T) {
	d, ids := buildSample(t)
	clone, err := d.CloneNode(ids["p"])
	require.NoError(t, err)
	assert.Equal(t, "p", d.Name(clone))
	assert.Equal(t, atom.P, d.DataAtom(clone))
	assert.Equal(t, Htmlns, d.Namespace(clone))
	assert.Equal(t, d.Attributes(ids["p"]), d.Attributes(clone))
	assert.Equal(t, NoNode, d.FirstChild(clone))
	assert.Equal(t, NoNode, d.Parent(clone))
}

func TestCloneNodeRejects(t *testing.T) {
	t.Parallel()

	d, _ := buildSample(t)
	tests := []struct {
		name string
		id   NodeID
		want error
	}{
		{"document", d.Root(), ErrHierarchy},
		{"out of range", NodeID(d.Len() + 5), ErrNotFound},
		{"no node", NoNode, ErrNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := d.CloneNode(tt.id)
			assert.Equal(t, tt.want, errors.Cause(err))
			assert.Equal(t, NoNode, got)
		})
	}

	t.Run("doctype and comment", func(t *testing.T) {
		t.Parallel()
		d, ids := buildSample(t)
		for _, id := range []NodeID{ids["doctype"], ids["comment"]} {
			clone, err := d.CloneNode(id)
			require.NoError(t, err)
			assert.Equal(t, d.Type(id), d.Type(clone))
			assert.Equal(t, d.Data(id), d.Data(clone))
		}
	})
}

func TestInsertIntoLeafNode(t *testing.T) {
	t.Parallel()

	tests := []string{"doctype", "comment", "text"}
	for _, parent := range tests {
		parent := parent
		t.Run(parent, func(t *testing.T) {
			t.Parallel()
			d, ids := buildSample(t)
			ids["text"] = d.FirstChild(ids["p"])
			span := d.CreateElement("span", Htmlns, nil)

			err := d.InsertBefore(ids[parent], span, NoNode)
			assert.Equal(t, ErrHierarchy, errors.Cause(err))
			err = d.AppendChild(ids[parent], span)
			assert.Equal(t, ErrHierarchy, errors.Cause(err))
			assert.Equal(t, NoNode, d.FirstChild(ids[parent]))
			assert.Equal(t, NoNode, d.Parent(span))
		})
	}
}

func TestReparentChildren(t *testing.T) {
	d, ids := buildSample(t)
	div := d.CreateElement("div", Htmlns, nil)
	require.NoError(t, d.ReparentChildren(div, ids["p"]))
	assert.Equal(t, NoNode, d.FirstChild(ids["p"]))
	assert.Len(t, d.Children(div), 2)
	assert.Equal(t, div, d.Parent(ids["b"]))
}

func TestQuirksModeWriteOnce(t *testing.T) {
	d := NewDocument()
	assert.Equal(t, NoQuirks, d.QuirksMode())
	require.NoError(t, d.SetQuirksMode(Quirks))
	err := d.SetQuirksMode(NoQuirks)
	assert.Equal(t, ErrQuirksModeSet, errors.Cause(err))
	assert.Equal(t, Quirks, d.QuirksMode())
}

func TestAccessors(t *testing.T) {
	d, ids := buildSample(t)
	assert.Equal(t, ids["doctype"], d.Doctype())
	assert.Equal(t, ids["html"], d.DocumentElement())
	v, ok := d.Attr(ids["p"], "id")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = d.Attr(ids["p"], "class")
	assert.False(t, ok)

	added, err := d.SetAttributeIfAbsent(ids["p"], Attribute{Key: "id", Val: "y"})
	require.NoError(t, err)
	assert.False(t, added)
	added, err = d.SetAttributeIfAbsent(ids["p"], Attribute{Key: "class", Val: "c"})
	require.NoError(t, err)
	assert.True(t, added)
}

func TestWalkIsReadOnly(t *testing.T) {
	d, ids := buildSample(t)
	var names []string
	var mutationErr error
	d.Walk(d.Root(), VisitorFuncs{
		EnterFunc: func(n NodeRef) bool {
			if n.Type() == ElementNode {
				names = append(names, n.Name())
			}
			if n.ID == ids["b"] {
				mutationErr = n.Doc.Remove(ids["comment"])
			}
			return n.ID != ids["head"]
		},
	})
	assert.Equal(t, []string{"html", "head", "body", "p", "b"}, names)
	assert.Equal(t, ErrMutationDuringWalk, mutationErr)

	// The guard is lifted once the walk is over.
	assert.NoError(t, d.Remove(ids["comment"]))
	assert.Equal(t, "ab", d.TextContent(d.Root()))
}

func TestWalkLeaveOrder(t *testing.T) {
	d, _ := buildSample(t)
	var events []string
	d.Walk(d.DocumentElement(), VisitorFuncs{
		EnterFunc: func(n NodeRef) bool {
			events = append(events, "+"+n.Name())
			return n.Name() != "p"
		},
		LeaveFunc: func(n NodeRef) { events = append(events, "-"+n.Name()) },
	})
	assert.Equal(t, []string{"+html", "+head", "-head", "+body", "+p", "-p", "+", "-", "-body", "-html"}, events)
}

func TestRender(t *testing.T) {
	d, ids := buildSample(t)
	_, err := d.AppendText(ids["b"], NoNode, "<&\u00A0>")
	require.NoError(t, err)
	script := d.CreateElement("script", Htmlns, []Attribute{{Key: "data-x", Val: `"q"&`}})
	require.NoError(t, d.AppendChild(ids["head"], script))
	_, err = d.AppendText(script, NoNode, "if (a < b) {}")
	require.NoError(t, err)
	br := d.CreateElement("br", Htmlns, nil)
	require.NoError(t, d.AppendChild(ids["body"], br))

	want := `<!DOCTYPE html><html><head><script data-x="&quot;q&quot;&amp;">if (a < b) {}</script></head>` +
		`<body><p id="x">a<b>b&lt;&amp;&nbsp;&gt;</b></p><!--c--><br></body></html>`
	assert.Equal(t, want, d.RenderString(d.Root()))
}

func TestRenderDoctypeAndCarriageReturn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		public string
		system string
		text   string
		want   string
	}{
		{
			name: "plain",
			want: "<!DOCTYPE html><p></p>",
		},
		{
			name:   "public only",
			public: "-//W3C//DTD HTML 4.01 Transitional//EN",
			want:   `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN"><p></p>`,
		},
		{
			name:   "public and system",
			public: "-//W3C//DTD HTML 4.01//EN",
			system: "http://www.w3.org/TR/html4/strict.dtd",
			want:   `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd"><p></p>`,
		},
		{
			name:   "system only",
			system: "about:legacy-compat",
			want:   `<!DOCTYPE html SYSTEM "about:legacy-compat"><p></p>`,
		},
		{
			name:   "quote in identifier",
			system: `a"b`,
			want:   `<!DOCTYPE html SYSTEM 'a"b'><p></p>`,
		},
		{
			name: "carriage return",
			text: "a\rb\r\n",
			want: "<!DOCTYPE html><p>a&#13;b&#13;\n</p>",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDocument()
			require.NoError(t, d.AppendChild(d.Root(), d.CreateDoctype("html", tt.public, tt.system)))
			p := d.CreateElement("p", Htmlns, nil)
			require.NoError(t, d.AppendChild(d.Root(), p))
			if tt.text != "" {
				_, err := d.AppendText(p, NoNode, tt.text)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, d.RenderString(d.Root()))
		})
	}
}
