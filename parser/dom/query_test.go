package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildList makes
// <html><body><ul id=list class="a b"><li class="done x">1</li><li id=two>2<em>!</em></li></ul><p id=list></p></body></html>.
func buildList(t *testing.T) (*Document, map[string]NodeID) {
	t.Helper()
	d := NewDocument()
	ids := map[string]NodeID{
		"html": d.CreateElement("html", Htmlns, nil),
		"body": d.CreateElement("body", Htmlns, nil),
		"ul":   d.CreateElement("ul", Htmlns, []Attribute{{Key: "id", Val: "list"}, {Key: "class", Val: "a b"}}),
		"li1":  d.CreateElement("li", Htmlns, []Attribute{{Key: "class", Val: "done x"}}),
		"li2":  d.CreateElement("li", Htmlns, []Attribute{{Key: "id", Val: "two"}}),
		"em":   d.CreateElement("em", Htmlns, nil),
		"p":    d.CreateElement("p", Htmlns, []Attribute{{Key: "id", Val: "list"}}),
	}
	require.NoError(t, d.AppendChild(d.Root(), ids["html"]))
	require.NoError(t, d.AppendChild(ids["html"], ids["body"]))
	require.NoError(t, d.AppendChild(ids["body"], ids["ul"]))
	require.NoError(t, d.AppendChild(ids["ul"], ids["li1"]))
	require.NoError(t, d.AppendChild(ids["ul"], ids["li2"]))
	_, err := d.AppendText(ids["li1"], NoNode, "1")
	require.NoError(t, err)
	_, err = d.AppendText(ids["li2"], NoNode, "2")
	require.NoError(t, err)
	require.NoError(t, d.AppendChild(ids["li2"], ids["em"]))
	require.NoError(t, d.AppendChild(ids["body"], ids["p"]))
	return d, ids
}

func TestElementByID(t *testing.T) {
	t.Parallel()

	t.Run("lookup", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		tests := []struct {
			id   string
			want NodeID
			ok   bool
		}{
			{"list", ids["ul"], true},
			{"two", ids["li2"], true},
			{"missing", NoNode, false},
			{"", NoNode, false},
			{"has space", NoNode, false},
		}
		for _, tt := range tests {
			got, ok := d.ElementByID(tt.id)
			assert.Equal(t, tt.ok, ok, tt.id)
			assert.Equal(t, tt.want, got, tt.id)
		}
	})

	t.Run("detached element falls back to tree order", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		require.NoError(t, d.Remove(ids["ul"]))
		got, ok := d.ElementByID("list")
		assert.True(t, ok)
		assert.Equal(t, ids["p"], got)

		_, ok = d.ElementByID("two")
		assert.False(t, ok)
	})

	t.Run("attribute set later", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		added, err := d.SetAttributeIfAbsent(ids["em"], Attribute{Key: "id", Val: "bang"})
		require.NoError(t, err)
		require.True(t, added)
		got, ok := d.ElementByID("bang")
		assert.True(t, ok)
		assert.Equal(t, ids["em"], got)
	})
}

func TestClassList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		attr  string
		names []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"whitespace", " a\tb\n c\f", []string{"a", "b", "c"}},
		{"repeated", "a b a", []string{"a", "b"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := ParseClassList(tt.attr)
			assert.Equal(t, len(tt.names), c.Len())
			assert.Equal(t, tt.names, c.Names())
			for _, n := range tt.names {
				assert.True(t, c.Contains(n))
				assert.True(t, c.IsActive(n))
			}
		})
	}

	t.Run("flags", func(t *testing.T) {
		t.Parallel()
		c := ParseClassList("a b")
		assert.False(t, c.Contains("z"))
		assert.False(t, c.IsActive("z"))

		c.Toggle("a")
		assert.False(t, c.IsActive("a"))
		c.Add("a")
		assert.False(t, c.IsActive("a"), "adding a known name keeps its flag")
		c.SetActive("a", true)
		assert.True(t, c.IsActive("a"))

		c.Toggle("z")
		c.SetActive("z", true)
		assert.False(t, c.Contains("z"))

		c.Remove("a")
		assert.Equal(t, []string{"b"}, c.Names())
		c.Remove("a")
		assert.Equal(t, 1, c.Len())
	})

	t.Run("element", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		assert.Equal(t, []string{"a", "b"}, d.ClassList(ids["ul"]).Names())
		assert.Equal(t, 0, d.ClassList(ids["em"]).Len())
		assert.Nil(t, d.ClassList(d.Root()))

		_, err := d.SetAttributeIfAbsent(ids["em"], Attribute{Key: "class", Val: "loud"})
		require.NoError(t, err)
		assert.True(t, d.ClassList(ids["em"]).Contains("loud"))
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	_, ids := buildList(t)
	tests := []struct {
		name  string
		query *Query
		want  []NodeID
	}{
		{"tag all", NewQuery().EqualsTag("li").FindAll(), []NodeID{ids["li1"], ids["li2"]}},
		{"tag first", NewQuery().EqualsTag("li").FindFirst(), []NodeID{ids["li1"]}},
		{"id in tree order", NewQuery().EqualsID("list").FindAll(), []NodeID{ids["ul"], ids["p"]}},
		{"class", NewQuery().ContainsClass("done").FindAll(), []NodeID{ids["li1"]}},
		{"attribute", NewQuery().ContainsAttribute("id").FindAll(), []NodeID{ids["ul"], ids["li2"], ids["p"]}},
		{"child tag", NewQuery().ContainsChildTag("em").FindAll(), []NodeID{ids["li2"]}},
		{"parent tag", NewQuery().HasParentTag("ul").FindAll(), []NodeID{ids["li1"], ids["li2"]}},
		{"combined", NewQuery().EqualsTag("li").HasParentTag("ul").ContainsAttribute("id").FindAll(), []NodeID{ids["li2"]}},
		{"no match", NewQuery().EqualsTag("table").FindAll(), nil},
		{"no match first", NewQuery().ContainsClass("nope").FindFirst(), nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, _ := buildList(t)
			got, err := d.Query(d.Root(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("subtree", func(t *testing.T) {
		t.Parallel()
		d, _ := buildList(t)
		got, err := d.Query(ids["li2"], NewQuery().ContainsAttribute("id").FindAll())
		require.NoError(t, err)
		assert.Equal(t, []NodeID{ids["li2"]}, got)
	})

	t.Run("uninitialized", func(t *testing.T) {
		t.Parallel()
		d, _ := buildList(t)
		_, err := d.Query(d.Root(), NewQuery().EqualsTag("li"))
		assert.Equal(t, ErrQueryUninitialized, err)
		_, err = d.Query(d.Root(), nil)
		assert.Equal(t, ErrQueryUninitialized, err)
	})

	t.Run("conditions", func(t *testing.T) {
		t.Parallel()
		q := NewQuery().EqualsTag("div").EqualsID("x").ContainsClass("c").
			ContainsAttribute("a").ContainsChildTag("h1").HasParentTag("html").FindFirst()
		kinds := make([]string, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			kinds = append(kinds, c.Kind.String())
		}
		assert.Equal(t, []string{"EqualsTag", "EqualsID", "ContainsClass", "ContainsAttribute", "ContainsChildTag", "HasParentTag"}, kinds)
		assert.Equal(t, SearchFirst, q.Search)
	})
}

func TestTreeIterator(t *testing.T) {
	t.Parallel()

	collect := func(d *Document, root NodeID) []NodeID {
		var got []NodeID
		for it := d.Iterate(root); it.Next(); {
			got = append(got, it.Node())
		}
		return got
	}

	t.Run("same order as walk", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		for _, root := range []NodeID{d.Root(), ids["ul"], ids["em"]} {
			var walked []NodeID
			d.Walk(root, VisitorFuncs{EnterFunc: func(n NodeRef) bool {
				walked = append(walked, n.ID)
				return true
			}})
			assert.Equal(t, walked, collect(d, root))
		}
	})

	t.Run("stays inside root", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		got := collect(d, ids["li1"])
		assert.Equal(t, []NodeID{ids["li1"], d.FirstChild(ids["li1"])}, got)
	})

	t.Run("sees nodes added while iterating", func(t *testing.T) {
		t.Parallel()
		d, ids := buildList(t)
		it := d.Iterate(ids["ul"])
		require.True(t, it.Next())
		require.True(t, it.Next())
		require.Equal(t, ids["li1"], it.Node())

		strong := d.CreateElement("strong", Htmlns, nil)
		require.NoError(t, d.InsertBefore(ids["li1"], strong, d.FirstChild(ids["li1"])))
		li3 := d.CreateElement("li", Htmlns, nil)
		require.NoError(t, d.InsertBefore(ids["ul"], li3, ids["li2"]))

		var rest []NodeID
		for it.Next() {
			rest = append(rest, it.Node())
		}
		assert.Equal(t, []NodeID{strong, d.LastChild(ids["li1"]), li3, ids["li2"], d.FirstChild(ids["li2"]), ids["em"]}, rest)
		assert.Equal(t, NoNode, it.Node())
	})
}
