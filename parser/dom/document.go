package dom

import (
	"github.com/pkg/errors"
	"golang.org/x/net/html/atom"
)

var (
	// ErrMutationDuringWalk is returned by every mutation while a Walk is in
	// progress on the document.
	ErrMutationDuringWalk = errors.New("dom: document mutated during walk")
	// ErrHierarchy is returned when a mutation would make a node its own
	// ancestor or give the document a parent.
	ErrHierarchy = errors.New("dom: hierarchy request error")
	// ErrNotFound is returned for a reference child that is not a child of
	// the given parent, or for an id outside the document.
	ErrNotFound = errors.New("dom: node not found")
	// ErrQuirksModeSet is returned when the quirks mode is set a second time.
	ErrQuirksModeSet = errors.New("dom: quirks mode already set")
)

// Document owns every node of one parsed document. The document node itself
// is NodeID 0. Nodes are never freed, removing a node only detaches it.
type Document struct {
	nodes []node

	quirksMode QuirksMode
	quirksSet  bool

	// namedIDs maps an id attribute value to the first element created
	// with it.
	namedIDs map[string]NodeID

	walking int
}

// NewDocument returns a document holding nothing but the document node.
func NewDocument() *Document {
	d := &Document{namedIDs: make(map[string]NodeID)}
	d.nodes = append(d.nodes, newNode(DocumentNode))
	return d
}

// Root is the document node.
func (d *Document) Root() NodeID {
	return 0
}

// Len is the number of nodes ever created in the document, attached or not.
func (d *Document) Len() int {
	return len(d.nodes)
}

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}

func (d *Document) add(n node) NodeID {
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

// CreateElement creates a detached element. An HTML template element gets
// its template contents fragment right away.
func (d *Document) CreateElement(name string, ns Namespace, attrs []Attribute) NodeID {
	n := newNode(ElementNode)
	n.name = name
	n.ns = ns
	n.dataAtom = atom.Lookup([]byte(name))
	if len(attrs) > 0 {
		n.attrs = append([]Attribute(nil), attrs...)
	}
	id := d.add(n)
	for _, a := range attrs {
		d.attributeAdded(id, a)
	}
	if ns == Htmlns && n.dataAtom == atom.Template {
		content := d.CreateDocumentFragment()
		d.nodes[id].content = content
	}
	return id
}

// CreateText creates a detached text node.
func (d *Document) CreateText(data string) NodeID {
	n := newNode(TextNode)
	n.text = []byte(data)
	return d.add(n)
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) NodeID {
	n := newNode(CommentNode)
	n.data = data
	return d.add(n)
}

// CreateDoctype creates a detached doctype node.
func (d *Document) CreateDoctype(name, publicID, systemID string) NodeID {
	n := newNode(DocumentTypeNode)
	n.name = name
	n.publicID = publicID
	n.systemID = systemID
	return d.add(n)
}

// CreateDocumentFragment creates a detached document fragment.
func (d *Document) CreateDocumentFragment() NodeID {
	return d.add(newNode(DocumentFragmentNode))
}

// CloneNode creates a detached shallow copy of id: same type, name,
// namespace, attributes and data, no children. A cloned template gets a new,
// empty contents fragment. The document node itself cannot be cloned.
func (d *Document) CloneNode(id NodeID) (NodeID, error) {
	if !d.valid(id) {
		return NoNode, errors.Wrapf(ErrNotFound, "clone %d", id)
	}
	src := d.nodes[id]
	switch src.typ {
	case DocumentNode:
		return NoNode, errors.Wrapf(ErrHierarchy, "clone document node %d", id)
	case ElementNode:
		return d.CreateElement(src.name, src.ns, src.attrs), nil
	case DocumentTypeNode:
		return d.CreateDoctype(src.name, src.publicID, src.systemID), nil
	}
	n := newNode(src.typ)
	n.data = src.data
	n.text = append([]byte(nil), src.text...)
	return d.add(n), nil
}

func (d *Document) checkMutable() error {
	if d.walking > 0 {
		return ErrMutationDuringWalk
	}
	return nil
}

// isInclusiveAncestor reports whether id is other or one of its ancestors.
func (d *Document) isInclusiveAncestor(id, other NodeID) bool {
	for n := other; n != NoNode; n = d.nodes[n].parent {
		if n == id {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of parent's children.
func (d *Document) AppendChild(parent, child NodeID) error {
	return d.InsertBefore(parent, child, NoNode)
}

// InsertBefore moves child into parent, before ref. A ref of NoNode appends.
// The child is detached from its old parent first.
func (d *Document) InsertBefore(parent, child, ref NodeID) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !d.valid(parent) || !d.valid(child) {
		return errors.Wrapf(ErrNotFound, "insert %d into %d", child, parent)
	}
	if ref != NoNode && (!d.valid(ref) || d.nodes[ref].parent != parent) {
		return errors.Wrapf(ErrNotFound, "reference node %d is not a child of %d", ref, parent)
	}
	if d.nodes[child].typ == DocumentNode || d.isInclusiveAncestor(child, parent) {
		return errors.Wrapf(ErrHierarchy, "insert %d into %d", child, parent)
	}
	switch d.nodes[parent].typ {
	case TextNode, CommentNode, DocumentTypeNode:
		return errors.Wrapf(ErrHierarchy, "insert %d into %s node %d", child, d.nodes[parent].typ, parent)
	}
	if ref == child {
		return nil
	}
	d.detach(child)

	c := &d.nodes[child]
	c.parent = parent
	if ref == NoNode {
		c.prevSibling = d.nodes[parent].lastChild
		if c.prevSibling != NoNode {
			d.nodes[c.prevSibling].nextSibling = child
		} else {
			d.nodes[parent].firstChild = child
		}
		d.nodes[parent].lastChild = child
		return nil
	}
	c.nextSibling = ref
	c.prevSibling = d.nodes[ref].prevSibling
	if c.prevSibling != NoNode {
		d.nodes[c.prevSibling].nextSibling = child
	} else {
		d.nodes[parent].firstChild = child
	}
	d.nodes[ref].prevSibling = child
	return nil
}

// Remove detaches id from its parent. The node and its subtree stay in the
// arena and may be inserted again.
func (d *Document) Remove(id NodeID) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if !d.valid(id) {
		return errors.Wrapf(ErrNotFound, "remove %d", id)
	}
	d.detach(id)
	return nil
}

func (d *Document) detach(id NodeID) {
	n := &d.nodes[id]
	if n.parent == NoNode {
		return
	}
	if n.prevSibling != NoNode {
		d.nodes[n.prevSibling].nextSibling = n.nextSibling
	} else {
		d.nodes[n.parent].firstChild = n.nextSibling
	}
	if n.nextSibling != NoNode {
		d.nodes[n.nextSibling].prevSibling = n.prevSibling
	} else {
		d.nodes[n.parent].lastChild = n.prevSibling
	}
	n.parent, n.prevSibling, n.nextSibling = NoNode, NoNode, NoNode
}

// ReparentChildren moves every child of src, in order, to the end of dst.
func (d *Document) ReparentChildren(dst, src NodeID) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if d.isInclusiveAncestor(src, dst) {
		return errors.Wrapf(ErrHierarchy, "reparent children of %d into %d", src, dst)
	}
	for c := d.nodes[src].firstChild; c != NoNode; c = d.nodes[src].firstChild {
		if err := d.AppendChild(dst, c); err != nil {
			return err
		}
	}
	return nil
}

// AppendText inserts data into parent before ref, merging it into the text
// node right before the insertion point when there is one. It returns the
// text node holding data.
func (d *Document) AppendText(parent, ref NodeID, data string) (NodeID, error) {
	if err := d.checkMutable(); err != nil {
		return NoNode, err
	}
	if !d.valid(parent) {
		return NoNode, errors.Wrapf(ErrNotFound, "append text to %d", parent)
	}
	prev := d.nodes[parent].lastChild
	if ref != NoNode {
		if !d.valid(ref) || d.nodes[ref].parent != parent {
			return NoNode, errors.Wrapf(ErrNotFound, "reference node %d is not a child of %d", ref, parent)
		}
		prev = d.nodes[ref].prevSibling
	}
	if prev != NoNode && d.nodes[prev].typ == TextNode {
		d.nodes[prev].text = append(d.nodes[prev].text, data...)
		return prev, nil
	}
	text := d.CreateText(data)
	return text, d.InsertBefore(parent, text, ref)
}

// SetAttributeIfAbsent adds attr to an element that has no attribute with
// the same name yet. It reports whether the attribute was added.
func (d *Document) SetAttributeIfAbsent(id NodeID, attr Attribute) (bool, error) {
	if err := d.checkMutable(); err != nil {
		return false, err
	}
	n := &d.nodes[id]
	for _, a := range n.attrs {
		if a.Namespace == attr.Namespace && a.Key == attr.Key {
			return false, nil
		}
	}
	n.attrs = append(n.attrs, attr)
	d.attributeAdded(id, attr)
	return true, nil
}

// SetQuirksMode records the document's compatibility mode. It can only be
// set once.
func (d *Document) SetQuirksMode(m QuirksMode) error {
	if d.quirksSet {
		return errors.Wrapf(ErrQuirksModeSet, "set %s", m)
	}
	d.quirksMode = m
	d.quirksSet = true
	return nil
}

// QuirksMode returns the compatibility mode, NoQuirks until it is set.
func (d *Document) QuirksMode() QuirksMode {
	return d.quirksMode
}

func (d *Document) Type(id NodeID) NodeType { return d.nodes[id].typ }

// Name is the local name of an element or the name of a doctype.
func (d *Document) Name(id NodeID) string { return d.nodes[id].name }

// DataAtom is the atom of an element's local name, 0 for unknown names.
func (d *Document) DataAtom(id NodeID) atom.Atom { return d.nodes[id].dataAtom }

func (d *Document) Namespace(id NodeID) Namespace { return d.nodes[id].ns }

// Data is the text of a Text or Comment node.
func (d *Document) Data(id NodeID) string {
	if d.nodes[id].typ == TextNode {
		return string(d.nodes[id].text)
	}
	return d.nodes[id].data
}

// Attributes returns the element's attributes in source order. The slice
// must not be modified.
func (d *Document) Attributes(id NodeID) []Attribute { return d.nodes[id].attrs }

// Attr returns the value of the attribute key in no namespace.
func (d *Document) Attr(id NodeID, key string) (string, bool) {
	for _, a := range d.nodes[id].attrs {
		if a.Namespace == NoNamespace && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (d *Document) PublicID(id NodeID) string    { return d.nodes[id].publicID }
func (d *Document) SystemID(id NodeID) string    { return d.nodes[id].systemID }
func (d *Document) Parent(id NodeID) NodeID      { return d.nodes[id].parent }
func (d *Document) FirstChild(id NodeID) NodeID  { return d.nodes[id].firstChild }
func (d *Document) LastChild(id NodeID) NodeID   { return d.nodes[id].lastChild }
func (d *Document) NextSibling(id NodeID) NodeID { return d.nodes[id].nextSibling }
func (d *Document) PrevSibling(id NodeID) NodeID { return d.nodes[id].prevSibling }

// Children returns the children of id in order.
func (d *Document) Children(id NodeID) []NodeID {
	var children []NodeID
	for c := d.nodes[id].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		children = append(children, c)
	}
	return children
}

// TemplateContent returns the contents fragment of an HTML template element,
// NoNode for any other node.
func (d *Document) TemplateContent(id NodeID) NodeID { return d.nodes[id].content }

// Doctype returns the document's doctype child, NoNode if there is none.
func (d *Document) Doctype() NodeID {
	for c := d.nodes[0].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		if d.nodes[c].typ == DocumentTypeNode {
			return c
		}
	}
	return NoNode
}

// DocumentElement returns the document's element child, NoNode if there is
// none.
func (d *Document) DocumentElement() NodeID {
	for c := d.nodes[0].firstChild; c != NoNode; c = d.nodes[c].nextSibling {
		if d.nodes[c].typ == ElementNode {
			return c
		}
	}
	return NoNode
}

// IsElement reports whether id is an element in namespace ns with one of the
// given atoms.
func (d *Document) IsElement(id NodeID, ns Namespace, atoms ...atom.Atom) bool {
	if id == NoNode {
		return false
	}
	n := &d.nodes[id]
	if n.typ != ElementNode || n.ns != ns {
		return false
	}
	for _, a := range atoms {
		if n.dataAtom == a {
			return true
		}
	}
	return false
}
