package dom

import (
	"sort"
	"strings"
)

// Dump serialises the children of id in the html5lib tree-construction test
// format: one node per line, "| " followed by two spaces per level.
func (d *Document) Dump(id NodeID) string {
	var sb strings.Builder
	for c := d.nodes[id].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		d.dump(&sb, c, 0)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString("| ")
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

func (d *Document) dump(sb *strings.Builder, id NodeID, depth int) {
	n := &d.nodes[id]
	indent(sb, depth)
	switch n.typ {
	case ElementNode:
		sb.WriteByte('<')
		switch n.ns {
		case Svgns:
			sb.WriteString("svg ")
		case Mathmlns:
			sb.WriteString("math ")
		}
		sb.WriteString(n.name)
		sb.WriteString(">\n")

		attrs := make([]string, 0, len(n.attrs))
		for _, a := range n.attrs {
			attrs = append(attrs, attributeDumpName(a)+"=\""+a.Val+"\"")
		}
		sort.Strings(attrs)
		for _, a := range attrs {
			indent(sb, depth+1)
			sb.WriteString(a)
			sb.WriteByte('\n')
		}
		if n.content != NoNode {
			indent(sb, depth+1)
			sb.WriteString("content\n")
			for c := d.nodes[n.content].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
				d.dump(sb, c, depth+2)
			}
		}
	case TextNode:
		sb.WriteByte('"')
		sb.Write(n.text)
		sb.WriteString("\"\n")
	case CommentNode:
		sb.WriteString("<!-- " + n.data + " -->\n")
	case DocumentTypeNode:
		sb.WriteString("<!DOCTYPE " + n.name)
		if n.publicID != "" || n.systemID != "" {
			sb.WriteString(" \"" + n.publicID + "\" \"" + n.systemID + "\"")
		}
		sb.WriteString(">\n")
	default:
		sb.WriteString("#" + strings.ToLower(n.typ.String()) + "\n")
	}
	for c := n.firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		d.dump(sb, c, depth+1)
	}
}

func attributeDumpName(a Attribute) string {
	switch a.Namespace {
	case Xlinkns:
		return "xlink " + a.Key
	case Xmlns:
		return "xml " + a.Key
	case Xmlnsns:
		return "xmlns " + a.Key
	}
	return a.Key
}
