package dom

import "strings"

const asciiWhitespace = " \t\n\f\r"

// attributeAdded keeps the id index and the class list of element id in step
// with a newly set attribute.
func (d *Document) attributeAdded(id NodeID, a Attribute) {
	if a.Namespace != NoNamespace {
		return
	}
	switch a.Key {
	case "id":
		if validID(a.Val) {
			if _, ok := d.namedIDs[a.Val]; !ok {
				d.namedIDs[a.Val] = id
			}
		}
	case "class":
		if d.nodes[id].classes == nil {
			d.nodes[id].classes = ParseClassList(a.Val)
		}
	}
}

// validID reports whether v can name an element: it is not empty and holds
// no whitespace.
func validID(v string) bool {
	return v != "" && !strings.ContainsAny(v, asciiWhitespace)
}

// ElementByID returns the element in the document with the given id. When
// several elements share an id, the first one created wins for as long as it
// stays in the document. Elements in template contents are not found.
func (d *Document) ElementByID(id string) (NodeID, bool) {
	if !validID(id) {
		return NoNode, false
	}
	if n, ok := d.namedIDs[id]; ok && d.isInclusiveAncestor(d.Root(), n) {
		if v, _ := d.Attr(n, "id"); v == id {
			return n, true
		}
	}
	for it := d.Iterate(d.Root()); it.Next(); {
		n := it.Node()
		if d.nodes[n].typ != ElementNode {
			continue
		}
		if v, ok := d.Attr(n, "id"); ok && v == id {
			d.namedIDs[id] = n
			return n, true
		}
	}
	delete(d.namedIDs, id)
	return NoNode, false
}

// ClassList is the set of class names of an element. Every name carries an
// active flag that can be switched off without dropping the name.
type ClassList struct {
	names  []string
	active map[string]bool
}

// ParseClassList splits a class attribute value on ASCII whitespace.
// Repeated names are kept once.
func ParseClassList(v string) *ClassList {
	c := &ClassList{active: make(map[string]bool)}
	for _, name := range strings.FieldsFunc(v, func(r rune) bool {
		return strings.ContainsRune(asciiWhitespace, r)
	}) {
		c.Add(name)
	}
	return c
}

// Len counts the names, active or not.
func (c *ClassList) Len() int { return len(c.names) }

func (c *ClassList) Contains(name string) bool {
	_, ok := c.active[name]
	return ok
}

// Add adds name as an active class. A name already present keeps its flag.
func (c *ClassList) Add(name string) {
	if c.Contains(name) {
		return
	}
	c.names = append(c.names, name)
	c.active[name] = true
}

func (c *ClassList) Remove(name string) {
	if !c.Contains(name) {
		return
	}
	delete(c.active, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
}

// Toggle flips the active flag of name. Unknown names are ignored.
func (c *ClassList) Toggle(name string) {
	if a, ok := c.active[name]; ok {
		c.active[name] = !a
	}
}

// SetActive sets the active flag of name. Unknown names are ignored.
func (c *ClassList) SetActive(name string, active bool) {
	if _, ok := c.active[name]; ok {
		c.active[name] = active
	}
}

// IsActive is false for unknown names.
func (c *ClassList) IsActive(name string) bool {
	return c.active[name]
}

// Names returns the class names in the order they were added.
func (c *ClassList) Names() []string {
	return append([]string(nil), c.names...)
}

// ClassList returns the class list of element id, parsed from its class
// attribute when the element was created. Changes to the list are not
// written back to the attribute. Non-elements have no class list.
func (d *Document) ClassList(id NodeID) *ClassList {
	n := &d.nodes[id]
	if n.typ != ElementNode {
		return nil
	}
	if n.classes == nil {
		n.classes = ParseClassList("")
	}
	return n.classes
}
