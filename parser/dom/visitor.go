package dom

import "strings"

// Visitor receives the nodes of a subtree in document order. Enter returns
// false to skip the node's children, Leave is called after them either way.
type Visitor interface {
	Enter(n NodeRef) bool
	Leave(n NodeRef)
}

// VisitorFuncs adapts a pair of functions to Visitor. Nil functions are
// skipped; a nil EnterFunc descends into every node.
type VisitorFuncs struct {
	EnterFunc func(n NodeRef) bool
	LeaveFunc func(n NodeRef)
}

func (v VisitorFuncs) Enter(n NodeRef) bool {
	if v.EnterFunc == nil {
		return true
	}
	return v.EnterFunc(n)
}

func (v VisitorFuncs) Leave(n NodeRef) {
	if v.LeaveFunc != nil {
		v.LeaveFunc(n)
	}
}

// Walk visits root and its descendants. Template contents are not part of
// the walk, visitors that want them call Walk on TemplateContent. The
// document cannot be mutated until Walk returns.
func (d *Document) Walk(root NodeID, v Visitor) {
	d.walking++
	defer func() { d.walking-- }()

	d.walk(root, v)
}

func (d *Document) walk(id NodeID, v Visitor) {
	ref := NodeRef{Doc: d, ID: id}
	if v.Enter(ref) {
		for c := d.nodes[id].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
			d.walk(c, v)
		}
	}
	v.Leave(ref)
}

// TextContent concatenates the text nodes below id.
func (d *Document) TextContent(id NodeID) string {
	var sb strings.Builder
	d.Walk(id, VisitorFuncs{EnterFunc: func(n NodeRef) bool {
		if n.Type() == TextNode {
			sb.Write(d.nodes[n.ID].text)
		}
		return true
	}})
	return sb.String()
}
