package parser

import (
	"github.com/pkg/errors"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// FragmentContext describes the element a fragment is parsed in, as for
// innerHTML.
type FragmentContext struct {
	Name string
	// Namespace defaults to HTML.
	Namespace  dom.Namespace
	Attributes []dom.Attribute
	// QuirksMode is the mode of the document the context element is in.
	QuirksMode dom.QuirksMode
}

// fragmentStartState is the tokenizer state the content model of the
// context element implies.
func fragmentStartState(ctx FragmentContext, scripting bool) TokenizerState {
	if ctx.Namespace != dom.Htmlns {
		return DataState
	}
	switch ctx.Name {
	case "title", "textarea":
		return RCDATAState
	case "style", "xmp", "iframe", "noembed", "noframes":
		return RawTextState
	case "script":
		return ScriptDataState
	case "noscript":
		if scripting {
			return RawTextState
		}
	case "plaintext":
		return PlaintextState
	}
	return DataState
}

// NewFragmentParser creates a parser for the HTML fragment parsing algorithm.
// The nodes of the fragment end up as children of Result().Root.
// https://html.spec.whatwg.org/#html-fragment-parsing-algorithm
func NewFragmentParser(ctx FragmentContext, opts ...Option) (*Parser, error) {
	if ctx.Name == "" {
		return nil, fatal(errors.New("empty context element name"), "fragment")
	}
	if ctx.Namespace == dom.NoNamespace {
		ctx.Namespace = dom.Htmlns
	}
	o := newOptions(opts)
	p := NewParser(opts...)
	c := p.TreeConstructor
	doc := c.Document()
	if err := doc.SetQuirksMode(ctx.QuirksMode); err != nil {
		return nil, fatal(err, "fragment")
	}

	c.context = doc.CreateElement(ctx.Name, ctx.Namespace, ctx.Attributes)
	root := doc.CreateElement("html", dom.Htmlns, nil)
	c.must(doc.AppendChild(doc.Root(), root))
	c.stackOfOpenElements.push(root)
	if ctx.Namespace == dom.Htmlns && ctx.Name == "template" {
		c.pushTemplateInsertionMode(inTemplate)
	}
	c.resetInsertionMode()
	// The context element has no ancestors, so it can only be the form
	// itself.
	if ctx.Namespace == dom.Htmlns && ctx.Name == "form" {
		c.formElementPointer = c.context
	}

	state := fragmentStartState(ctx, o.scripting)
	p.progress = MakeProgress(&state, ctx.Namespace != dom.Htmlns)
	p.root = root
	return p, nil
}

// ParseFragment parses input in the context element ctx.
func ParseFragment(ctx FragmentContext, input string, opts ...Option) (*Result, error) {
	p, err := NewFragmentParser(ctx, append([]Option{WithEncoding(bytestream.UTF8)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := p.Feed([]byte(input)); err != nil {
		return nil, err
	}
	p.Close()
	if err := p.Run(); err != nil {
		return nil, err
	}
	return p.Result(), nil
}
