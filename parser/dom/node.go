// Package dom is the document tree built by the parser: an arena of nodes in
// a Document, addressed by NodeID.
package dom

import (
	"golang.org/x/net/html/atom"
)

// NodeID addresses a node inside its Document.
type NodeID int32

// NoNode is the NodeID of a missing parent, child or sibling.
const NoNode NodeID = -1

// NodeType values follow https://dom.spec.whatwg.org/#dom-node-nodetype
type NodeType uint16

const (
	ElementNode          NodeType = 1
	TextNode             NodeType = 3
	CommentNode          NodeType = 8
	DocumentNode         NodeType = 9
	DocumentTypeNode     NodeType = 10
	DocumentFragmentNode NodeType = 11
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DocumentNode:
		return "Document"
	case DocumentTypeNode:
		return "DocumentType"
	case DocumentFragmentNode:
		return "DocumentFragment"
	}
	return "NodeType(?)"
}

// Namespace is an element or attribute namespace URI.
type Namespace string

// https://infra.spec.whatwg.org/#namespaces
const (
	NoNamespace Namespace = ""
	Htmlns      Namespace = "http://www.w3.org/1999/xhtml"
	Mathmlns    Namespace = "http://www.w3.org/1998/Math/MathML"
	Svgns       Namespace = "http://www.w3.org/2000/svg"
	Xlinkns     Namespace = "http://www.w3.org/1999/xlink"
	Xmlns       Namespace = "http://www.w3.org/XML/1998/namespace"
	Xmlnsns     Namespace = "http://www.w3.org/2000/xmlns/"
)

// Attribute is an element attribute. Namespace is empty except for the
// adjusted foreign attributes (xlink:href and friends).
type Attribute struct {
	Namespace Namespace
	Key       string
	Val       string
}

// QuirksMode is the document's compatibility mode.
type QuirksMode uint8

const (
	NoQuirks QuirksMode = iota
	LimitedQuirks
	Quirks
)

func (m QuirksMode) String() string {
	switch m {
	case LimitedQuirks:
		return "limited-quirks"
	case Quirks:
		return "quirks"
	}
	return "no-quirks"
}

type node struct {
	typ NodeType

	// name is the local name of an element or the name of a doctype.
	name     string
	dataAtom atom.Atom
	ns       Namespace
	attrs    []Attribute

	// data is the text of a Comment node. Text nodes keep theirs in text,
	// which character insertion appends to.
	data string
	text []byte

	publicID, systemID string

	parent, firstChild, lastChild, prevSibling, nextSibling NodeID

	// content is the template contents fragment of an HTML template element.
	content NodeID

	classes *ClassList
}

func newNode(typ NodeType) node {
	return node{
		typ:         typ,
		parent:      NoNode,
		firstChild:  NoNode,
		lastChild:   NoNode,
		prevSibling: NoNode,
		nextSibling: NoNode,
		content:     NoNode,
	}
}

// NodeRef is a node together with the document it lives in. Visitors get
// NodeRefs so they can read the node without holding on to the Document.
type NodeRef struct {
	Doc *Document
	ID  NodeID
}

func (r NodeRef) Type() NodeType { return r.Doc.Type(r.ID) }

func (r NodeRef) Name() string { return r.Doc.Name(r.ID) }

func (r NodeRef) Data() string { return r.Doc.Data(r.ID) }
