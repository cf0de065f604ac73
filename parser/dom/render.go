package dom

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html/atom"
)

// https://html.spec.whatwg.org/#escapingString
func escapeString(s string, attrVal bool) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\u00A0", "&nbsp;")
	// The parser would turn a raw CR into LF.
	s = strings.ReplaceAll(s, "\r", "&#13;")
	if attrVal {
		s = strings.ReplaceAll(s, "\"", "&quot;")
	} else {
		s = strings.ReplaceAll(s, "<", "&lt;")
		s = strings.ReplaceAll(s, ">", "&gt;")
	}
	return s
}

// quoteIdentifier quotes a doctype identifier with the quote it does not
// contain. The tokenizer ends an identifier at its closing quote, so no
// identifier holds both.
func quoteIdentifier(s string) string {
	if strings.ContainsRune(s, '"') {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// voidElements have no end tag and no children when serialised.
var voidElements = []atom.Atom{
	atom.Area, atom.Base, atom.Basefont, atom.Bgsound, atom.Br, atom.Col,
	atom.Embed, atom.Frame, atom.Hr, atom.Img, atom.Input, atom.Keygen,
	atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr,
}

// rawTextElements have their text children written without escaping.
var rawTextElements = []atom.Atom{
	atom.Style, atom.Script, atom.Xmp, atom.Iframe, atom.Noembed,
	atom.Noframes, atom.Plaintext,
}

// Render writes the HTML serialisation of id's children to w. Rendering the
// document node produces markup that parses back into the same tree.
func (d *Document) Render(w io.Writer, id NodeID) error {
	bw := bufio.NewWriter(w)
	for c := d.nodes[id].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		if err := d.render(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RenderString is Render into a string.
func (d *Document) RenderString(id NodeID) string {
	var sb strings.Builder
	_ = d.Render(&sb, id)
	return sb.String()
}

// OuterHTML serialises id itself, including its start and end tags.
func (d *Document) OuterHTML(id NodeID) string {
	if id == d.Root() || d.nodes[id].typ == DocumentFragmentNode {
		return d.RenderString(id)
	}
	var sb strings.Builder
	bw := bufio.NewWriter(&sb)
	_ = d.render(bw, id)
	_ = bw.Flush()
	return sb.String()
}

func qualifiedAttributeName(a Attribute) string {
	switch a.Namespace {
	case Xlinkns:
		return "xlink:" + a.Key
	case Xmlns:
		return "xml:" + a.Key
	case Xmlnsns:
		if a.Key == "xmlns" {
			return a.Key
		}
		return "xmlns:" + a.Key
	}
	return a.Key
}

func (d *Document) render(w *bufio.Writer, id NodeID) error {
	n := &d.nodes[id]
	switch n.typ {
	case TextNode:
		parent := n.parent
		if parent != NoNode && d.IsElement(parent, Htmlns, rawTextElements...) {
			_, err := w.Write(n.text)
			return err
		}
		_, err := w.WriteString(escapeString(string(n.text), false))
		return err
	case CommentNode:
		_, err := w.WriteString("<!--" + n.data + "-->")
		return err
	case DocumentTypeNode:
		w.WriteString("<!DOCTYPE " + n.name)
		if n.publicID != "" {
			w.WriteString(" PUBLIC " + quoteIdentifier(n.publicID))
			if n.systemID != "" {
				w.WriteString(" " + quoteIdentifier(n.systemID))
			}
		} else if n.systemID != "" {
			w.WriteString(" SYSTEM " + quoteIdentifier(n.systemID))
		}
		_, err := w.WriteString(">")
		return err
	case DocumentFragmentNode:
		for c := n.firstChild; c != NoNode; c = d.nodes[c].nextSibling {
			if err := d.render(w, c); err != nil {
				return err
			}
		}
		return nil
	}

	w.WriteByte('<')
	w.WriteString(n.name)
	for _, a := range n.attrs {
		w.WriteString(" " + qualifiedAttributeName(a) + "=\"" + escapeString(a.Val, true) + "\"")
	}
	w.WriteByte('>')
	if n.ns == Htmlns && d.IsElement(id, Htmlns, voidElements...) {
		return nil
	}

	children := n.firstChild
	if n.content != NoNode {
		children = d.nodes[n.content].firstChild
	}
	// The parser drops a newline right after these start tags.
	if d.IsElement(id, Htmlns, atom.Pre, atom.Textarea, atom.Listing) && children != NoNode &&
		d.nodes[children].typ == TextNode && len(d.nodes[children].text) > 0 && d.nodes[children].text[0] == '\n' {
		w.WriteByte('\n')
	}
	for c := children; c != NoNode; c = d.nodes[c].nextSibling {
		if err := d.render(w, c); err != nil {
			return err
		}
	}
	_, err := w.WriteString("</" + n.name + ">")
	return err
}
