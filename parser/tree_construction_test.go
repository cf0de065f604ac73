package parser

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

type scriptingMode uint

const (
	scriptBoth scriptingMode = iota
	scriptOff
	scriptOn
)

type treeTest struct {
	file       string
	in         string
	errors     int
	fragment   *FragmentContext
	scriptMode scriptingMode
	expected   string
}

// parseFragmentContext reads the context line of a #document-fragment
// section: a tag name, optionally prefixed by "svg " or "math ".
func parseFragmentContext(line string) *FragmentContext {
	ctx := &FragmentContext{Name: line, Namespace: dom.Htmlns}
	if ns, name, ok := strings.Cut(line, " "); ok {
		ctx.Name = name
		switch ns {
		case "svg":
			ctx.Namespace = dom.Svgns
		case "math":
			ctx.Namespace = dom.Mathmlns
		}
	}
	return ctx
}

// parseTests reads the html5lib tree construction format.
func parseTests(t *testing.T, file string) []treeTest {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	var (
		tests   []treeTest
		cur     *treeTest
		section string
		lines   []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		switch section {
		case "#data":
			cur.in = strings.Join(lines, "\n")
		case "#errors":
			cur.errors = len(lines)
		case "#document-fragment":
			if len(lines) > 0 {
				cur.fragment = parseFragmentContext(lines[0])
			}
		case "#document":
			cur.expected = strings.TrimRight(strings.Join(lines, "\n"), "\n")
		}
		lines = lines[:0]
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch line {
		case "#data":
			flush()
			if cur != nil {
				tests = append(tests, *cur)
			}
			cur = &treeTest{file: filepath.Base(file)}
			section = line
			continue
		case "#errors", "#document-fragment", "#document", "#new-errors":
			flush()
			section = line
			continue
		case "#script-on":
			cur.scriptMode = scriptOn
			continue
		case "#script-off":
			cur.scriptMode = scriptOff
			continue
		}
		// The blank line ending a test is trimmed in flush, blank lines
		// inside a quoted text node are kept.
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	flush()
	if cur != nil {
		tests = append(tests, *cur)
	}
	return tests
}

// errorCountedFiles are the fixtures whose #errors sections list exactly
// the errors this parser reports. The html5lib files predate the current
// error codes and count some errors the ErrorLog merges.
var errorCountedFiles = map[string]bool{
	"rules.dat": true,
}

func treeTestFiles(t *testing.T) []treeTest {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "tree-construction", "*.dat"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	var tests []treeTest
	for _, file := range files {
		tests = append(tests, parseTests(t, file)...)
	}
	return tests
}

func TestTreeConstructor(t *testing.T) {
	for _, test := range treeTestFiles(t) {
		switch test.scriptMode {
		case scriptBoth:
			runTreeConstructorTest(test, t, false)
			runTreeConstructorTest(test, t, true)
		case scriptOn:
			runTreeConstructorTest(test, t, true)
		default:
			runTreeConstructorTest(test, t, false)
		}
	}
}

func runTreeConstructorTest(test treeTest, t *testing.T, scriptingEnabled bool) {
	name := test.file + "/" + test.in
	if scriptingEnabled {
		name += "/script-on"
	}
	t.Run(name, func(t *testing.T) {
		t.Parallel()
		var (
			res *Result
			err error
		)
		if test.fragment != nil {
			res, err = ParseFragment(*test.fragment, test.in, WithScripting(scriptingEnabled))
		} else {
			res, err = ParseString(test.in, WithScripting(scriptingEnabled))
		}
		require.NoError(t, err)
		if diff := cmp.Diff(test.expected, res.Document.Dump(res.Root)); diff != "" {
			t.Errorf("Wrong document for %q (-want +got):\n%s", test.in, diff)
		}
		if errorCountedFiles[test.file] {
			assert.Len(t, res.Errors, test.errors, "errors for %q: %v", test.in, res.Errors)
		}
	})
}

// feedByteByByte drives p the way a network reader would.
func feedByteByByte(t *testing.T, p *Parser, in string) *Result {
	t.Helper()
	for i := 0; i < len(in); i++ {
		require.NoError(t, p.Feed([]byte{in[i]}))
		err := p.Run()
		if err != nil {
			require.ErrorIs(t, err, ErrNeedMoreInput)
		}
	}
	p.Close()
	require.NoError(t, p.Run())
	require.True(t, p.Finished())
	return p.Result()
}

func TestTreeConstructorIncremental(t *testing.T) {
	for _, test := range treeTestFiles(t) {
		test := test
		t.Run(test.file+"/"+test.in, func(t *testing.T) {
			t.Parallel()
			opts := []Option{WithEncoding(bytestream.UTF8), WithScripting(test.scriptMode == scriptOn)}
			var p *Parser
			if test.fragment != nil {
				var err error
				p, err = NewFragmentParser(*test.fragment, opts...)
				require.NoError(t, err)
			} else {
				p = NewParser(opts...)
			}
			res := feedByteByByte(t, p, test.in)
			assert.Equal(t, test.expected, res.Document.Dump(res.Root))
		})
	}
}

func TestQuirksMode(t *testing.T) {
	tests := []struct {
		in     string
		srcdoc bool
		want   dom.QuirksMode
	}{
		{"<!DOCTYPE html><p>", false, dom.NoQuirks},
		{"<p>", false, dom.Quirks},
		{"<p>", true, dom.NoQuirks},
		{"<!DOCTYPE foo>", false, dom.Quirks},
		{`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN">`, false, dom.Quirks},
		{`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd">`, false, dom.LimitedQuirks},
		{`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`, false, dom.LimitedQuirks},
		{`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`, false, dom.NoQuirks},
		{`<!DOCTYPE html SYSTEM "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd">`, false, dom.Quirks},
		{`<!DOCTYPE html PUBLIC "-//W3O//DTD W3 HTML Strict 3.0//EN//">`, false, dom.Quirks},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			res, err := ParseString(tt.in, WithIframeSrcdoc(tt.srcdoc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Document.QuirksMode())
		})
	}
}

func TestTableInQuirksModeKeepsParagraphOpen(t *testing.T) {
	res, err := ParseString("<p><table></table>")
	require.NoError(t, err)
	want := `| <html>
|   <head>
|   <body>
|     <p>
|       <table>`
	assert.Equal(t, want, res.Document.Dump(res.Root))

	res, err = ParseString("<!DOCTYPE html><p><table></table>")
	require.NoError(t, err)
	want = `| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <p>
|     <table>`
	assert.Equal(t, want, res.Document.Dump(res.Root))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want []ErrorKind
	}{
		{"<!DOCTYPE html><p>x</p>", nil},
		{"<p>x", []ErrorKind{errExpectedDoctypeButGotStartTag}},
		{"<!DOCTYPE html></p>", []ErrorKind{errUnexpectedEndTag}},
		{"<!DOCTYPE html><table>x</table>", []ErrorKind{errFosterParentedContent}},
		{"<!DOCTYPE html><div/></div>", []ErrorKind{errNonVoidHTMLElementStartTagWithTrailingSolidus}},
		{"<!DOCTYPE html><br/><img/>", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			res, err := ParseString(tt.in)
			require.NoError(t, err)
			var got []ErrorKind
			for _, e := range res.Errors {
				got = append(got, e.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrorsAreLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	res, err := ParseString("<p>x", WithLogger(logger))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)

	var logged []string
	for _, e := range hook.AllEntries() {
		if e.Message == "parse error" {
			logged = append(logged, e.Data["kind"].(string))
		}
	}
	assert.Equal(t, []string{string(errExpectedDoctypeButGotStartTag)}, logged)
}

func TestRenderRoundTrip(t *testing.T) {
	inputs := []string{
		`<!DOCTYPE html><title>a &amp; b</title><p class="x">1 &lt; 2<br>3</p>`,
		`<table><tr><td>1<td>2</table><pre>` + "\n\nx</pre>",
		`<svg viewBox="0 0 1 1"><path d="M0 0"/></svg><textarea>&lt;b&gt;</textarea>`,
		`<template><li>x</template><script>if (a < b) {}</script>`,
		`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN"><p><table></table>`,
		`<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd"><p><table></table>`,
		`<!DOCTYPE html SYSTEM "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd"><p><table></table>`,
		`<p>a&#13;b</p>`,
		`FOO&#x000D;ZOO<p title="x&#13;y">`,
	}
	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			first, err := ParseString(in)
			require.NoError(t, err)
			rendered := first.Document.RenderString(first.Root)
			second, err := ParseString(rendered)
			require.NoError(t, err)
			assert.Equal(t, first.Document.Dump(first.Root), second.Document.Dump(second.Root), rendered)
			assert.Equal(t, first.Document.QuirksMode(), second.Document.QuirksMode(), rendered)
		})
	}
}

// dumpNetHTML prints the children of n like dom.Document.Dump does.
func dumpNetHTML(n *html.Node) string {
	var sb strings.Builder
	var dump func(n *html.Node, depth int)
	indent := func(depth int) {
		sb.WriteString("| " + strings.Repeat("  ", depth))
	}
	dump = func(n *html.Node, depth int) {
		indent(depth)
		switch n.Type {
		case html.ElementNode:
			sb.WriteString("<")
			if n.Namespace != "" {
				sb.WriteString(n.Namespace + " ")
			}
			sb.WriteString(n.Data + ">\n")
			attrs := make([]string, 0, len(n.Attr))
			for _, a := range n.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + " " + a.Key
				}
				attrs = append(attrs, key+`="`+a.Val+`"`)
			}
			sort.Strings(attrs)
			for _, a := range attrs {
				indent(depth + 1)
				sb.WriteString(a + "\n")
			}
		case html.TextNode:
			sb.WriteString(`"` + n.Data + "\"\n")
		case html.CommentNode:
			sb.WriteString("<!-- " + n.Data + " -->\n")
		case html.DoctypeNode:
			sb.WriteString("<!DOCTYPE " + n.Data)
			var public, system string
			for _, a := range n.Attr {
				switch a.Key {
				case "public":
					public = a.Val
				case "system":
					system = a.Val
				}
			}
			if public != "" || system != "" {
				sb.WriteString(` "` + public + `" "` + system + `"`)
			}
			sb.WriteString(">\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dump(c, depth+1)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dump(c, 0)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// TestAgainstNetHTML compares trees with golang.org/x/net/html for inputs
// both parsers are expected to agree on.
func TestAgainstNetHTML(t *testing.T) {
	inputs := []string{
		`<!DOCTYPE html><html><head><title>x</title></head><body><p class="a">Hello <b>world</b></p></body></html>`,
		`<table><tr><td>1<td>2</table>`,
		`<ul><li>a<li>b</ul><dl><dt>x<dd>y</dl>`,
		`<p>A<b>B<i>C</p>D</b>E</i>F`,
		`<svg><path d="M0"/><foreignObject><b>x</b></foreignObject></svg>`,
		`<select><option>1<optgroup><option>2</select>`,
		`<a href=x>1<a href=y>2</a>`,
		`<div><h1>a<h2>b</h2></div>`,
		`<frameset><frame></frameset>`,
		"<body><form><input type=hidden></form><textarea>\nx</textarea>",
		`<b><p>x</b>y`,
		`<table><caption>c<td>x</table>`,
		`<math><mi>x</mi><mtext><b>y</b></mtext></math>`,
	}
	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			want, err := html.Parse(strings.NewReader(in))
			require.NoError(t, err)
			got, err := ParseString(in)
			require.NoError(t, err)
			if diff := cmp.Diff(dumpNetHTML(want), got.Document.Dump(got.Root)); diff != "" {
				t.Errorf("tree differs from x/net/html (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConcurrentParsers(t *testing.T) {
	tests := treeTestFiles(t)
	var g errgroup.Group
	results := make([]string, len(tests))
	for i, test := range tests {
		i, test := i, test
		g.Go(func() error {
			var (
				res *Result
				err error
			)
			if test.fragment != nil {
				res, err = ParseFragment(*test.fragment, test.in, WithScripting(test.scriptMode == scriptOn))
			} else {
				res, err = ParseString(test.in, WithScripting(test.scriptMode == scriptOn))
			}
			if err != nil {
				return err
			}
			results[i] = res.Document.Dump(res.Root)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, test := range tests {
		assert.Equal(t, test.expected, results[i], test.in)
	}
}

func TestParserLifecycle(t *testing.T) {
	p := NewParser(WithEncoding(bytestream.UTF8))
	require.NoError(t, p.Feed([]byte("<p>a")))
	assert.ErrorIs(t, p.Run(), ErrNeedMoreInput)
	assert.False(t, p.Finished())

	p.Close()
	require.NoError(t, p.Run())
	assert.True(t, p.Finished())

	err := p.Feed([]byte("b"))
	assert.True(t, IsFatalConfiguration(err))
	assert.ErrorIs(t, err, ErrParserFinished)

	err = p.Run()
	assert.True(t, IsFatalConfiguration(err))
	assert.ErrorIs(t, err, ErrParserFinished)
}

func TestRunSurfacesTreeMutationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"start tag", "<p>a"},
		{"doctype", "<!DOCTYPE html><p>"},
		{"comment", "<!--c-->"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewParser(WithEncoding(bytestream.UTF8))
			require.NoError(t, p.Feed([]byte(tt.input)))
			p.Close()

			var err error
			doc := p.TreeConstructor.Document()
			doc.Walk(doc.Root(), dom.VisitorFuncs{EnterFunc: func(n dom.NodeRef) bool {
				err = p.Run()
				return false
			}})
			require.Error(t, err)
			assert.True(t, IsFatalConfiguration(err))
			assert.ErrorIs(t, err, dom.ErrMutationDuringWalk)
			assert.True(t, p.Finished())
			assert.ErrorIs(t, p.TreeConstructor.Err(), dom.ErrMutationDuringWalk)
			assert.Equal(t, dom.NoNode, doc.FirstChild(doc.Root()))
		})
	}
}

func TestStop(t *testing.T) {
	p := NewParser(WithEncoding(bytestream.UTF8))
	require.NoError(t, p.Feed([]byte("<div><p>partial")))
	assert.ErrorIs(t, p.Run(), ErrNeedMoreInput)
	p.Stop()
	assert.True(t, p.Finished())

	res := p.Result()
	want := `| <html>
|   <head>
|   <body>
|     <div>
|       <p>
|         "partial"`
	assert.Equal(t, want, res.Document.Dump(res.Root))
}

func TestSniffWaitsForInput(t *testing.T) {
	p := NewParser()
	require.NoError(t, p.Feed([]byte("<p>")))
	assert.ErrorIs(t, p.Run(), ErrNeedMoreInput)
	assert.Equal(t, bytestream.UnknownEncoding, p.Stream.Encoding())

	p.Close()
	require.NoError(t, p.Run())
	assert.Equal(t, bytestream.UTF8, p.Result().Encoding)
}

func utf16LE(s string) []byte {
	b := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

func TestParseEncodings(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bytestream.Encoding
		text string
	}{
		{"utf-8 bom", []byte("\xef\xbb\xbf<p>café"), bytestream.UTF8, "café"},
		{"utf-16le bom", utf16LE("<p>café"), bytestream.UTF16LE, "café"},
		{"no declaration", []byte("<p>café"), bytestream.UTF8, "café"},
		{"meta charset", []byte(`<meta charset="us-ascii"><p>cafe`), bytestream.ASCII, "cafe"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Parse(bytes.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Encoding)
			assert.Equal(t, tt.text, res.Document.TextContent(res.Document.DocumentElement()))
		})
	}
}

func TestFragmentContextRequired(t *testing.T) {
	_, err := ParseFragment(FragmentContext{}, "<p>")
	assert.True(t, IsFatalConfiguration(err))
}

func TestFragmentInForm(t *testing.T) {
	res, err := ParseFragment(FragmentContext{Name: "form"}, "<form><input></form>")
	require.NoError(t, err)
	// The context form is the form element pointer, so the nested start tag
	// is ignored.
	want := `| <input>`
	assert.Equal(t, want, res.Document.Dump(res.Root))
}
