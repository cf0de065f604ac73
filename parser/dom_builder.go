package parser

import (
	"golang.org/x/net/html/atom"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

// scopeMarker is the marker entry of the list of active formatting elements.
const scopeMarker dom.NodeID = -2

// nodeStack is used for both the stack of open elements and the list of
// active formatting elements. The last entry is the top.
type nodeStack []dom.NodeID

func (s *nodeStack) push(id dom.NodeID) {
	*s = append(*s, id)
}

func (s *nodeStack) pop() dom.NodeID {
	old := *s
	if len(old) == 0 {
		return dom.NoNode
	}
	id := old[len(old)-1]
	*s = old[:len(old)-1]
	return id
}

func (s nodeStack) top() dom.NodeID {
	if len(s) == 0 {
		return dom.NoNode
	}
	return s[len(s)-1]
}

// index returns the position of id, searching from the top, or -1.
func (s nodeStack) index(id dom.NodeID) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == id {
			return i
		}
	}
	return -1
}

func (s nodeStack) contains(id dom.NodeID) bool {
	return s.index(id) != -1
}

func (s *nodeStack) insert(i int, id dom.NodeID) {
	old := *s
	old = append(old, dom.NoNode)
	copy(old[i+1:], old[i:])
	old[i] = id
	*s = old
}

func (s *nodeStack) removeAt(i int) {
	old := *s
	copy(old[i:], old[i+1:])
	*s = old[:len(old)-1]
}

func (s *nodeStack) remove(id dom.NodeID) {
	if i := s.index(id); i != -1 {
		s.removeAt(i)
	}
}

func (c *HTMLTreeConstructor) currentNode() dom.NodeID {
	return c.stackOfOpenElements.top()
}

// isHTML reports whether id is an HTML element with one of names.
func (c *HTMLTreeConstructor) isHTML(id dom.NodeID, names ...string) bool {
	if id == dom.NoNode || id == scopeMarker || c.doc.Type(id) != dom.ElementNode || c.doc.Namespace(id) != dom.Htmlns {
		return false
	}
	name := c.doc.Name(id)
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// isForeign reports whether id is an element in namespace ns with one of
// names.
func (c *HTMLTreeConstructor) isForeign(id dom.NodeID, ns dom.Namespace, names ...string) bool {
	if id == dom.NoNode || id == scopeMarker || c.doc.Type(id) != dom.ElementNode || c.doc.Namespace(id) != ns {
		return false
	}
	name := c.doc.Name(id)
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func isWhitespaceToken(t *Token) bool {
	if t.Type != CharacterToken || len(t.Data) != 1 {
		return false
	}
	return isASCIIWhitespace(int(t.Data[0]))
}

// https://html.spec.whatwg.org/#special
func (c *HTMLTreeConstructor) isSpecial(id dom.NodeID) bool {
	switch c.doc.Namespace(id) {
	case dom.Htmlns:
		switch c.doc.Name(id) {
		case "address", "applet", "area", "article", "aside", "base", "basefont", "bgsound", "blockquote", "body",
			"br", "button", "caption", "center", "col", "colgroup", "dd", "details", "dir", "div", "dl", "dt",
			"embed", "fieldset", "figcaption", "figure", "footer", "form", "frame", "frameset", "h1", "h2", "h3",
			"h4", "h5", "h6", "head", "header", "hgroup", "hr", "html", "iframe", "img", "input", "keygen", "li",
			"link", "listing", "main", "marquee", "menu", "meta", "nav", "noembed", "noframes", "noscript",
			"object", "ol", "p", "param", "plaintext", "pre", "script", "search", "section", "select", "source",
			"style", "summary", "table", "tbody", "td", "template", "textarea", "tfoot", "th", "thead", "title",
			"tr", "track", "ul", "wbr", "xmp":
			return true
		}
	case dom.Mathmlns:
		switch c.doc.Name(id) {
		case "mi", "mo", "mn", "ms", "mtext", "annotation-xml":
			return true
		}
	case dom.Svgns:
		switch c.doc.Name(id) {
		case "foreignObject", "desc", "title":
			return true
		}
	}
	return false
}

type scope uint8

const (
	defaultScope scope = iota
	listItemScope
	buttonScope
	tableScope
	selectScope
)

func (c *HTMLTreeConstructor) isScopeBoundary(id dom.NodeID, s scope) bool {
	switch s {
	case tableScope:
		return c.isHTML(id, "html", "table", "template")
	case selectScope:
		return !c.isHTML(id, "optgroup", "option")
	}
	if c.isHTML(id, "applet", "caption", "html", "table", "td", "th", "marquee", "object", "template") ||
		c.isForeign(id, dom.Mathmlns, "mi", "mo", "mn", "ms", "mtext", "annotation-xml") ||
		c.isForeign(id, dom.Svgns, "foreignObject", "desc", "title") {
		return true
	}
	switch s {
	case listItemScope:
		return c.isHTML(id, "ol", "ul")
	case buttonScope:
		return c.isHTML(id, "button")
	}
	return false
}

// elementInSpecificScope walks the stack of open elements down from the top
// until match succeeds or a boundary of s is hit.
// https://html.spec.whatwg.org/#has-an-element-in-the-specific-scope
func (c *HTMLTreeConstructor) elementInSpecificScope(s scope, match func(dom.NodeID) bool) bool {
	for i := len(c.stackOfOpenElements) - 1; i >= 0; i-- {
		id := c.stackOfOpenElements[i]
		if match(id) {
			return true
		}
		if c.isScopeBoundary(id, s) {
			return false
		}
	}
	return false
}

// elementInScope reports whether an HTML element with one of names is in
// scope s.
func (c *HTMLTreeConstructor) elementInScope(s scope, names ...string) bool {
	return c.elementInSpecificScope(s, func(id dom.NodeID) bool {
		return c.isHTML(id, names...)
	})
}

// nodeInScope reports whether the element target is in the default scope.
func (c *HTMLTreeConstructor) nodeInScope(target dom.NodeID) bool {
	return c.elementInSpecificScope(defaultScope, func(id dom.NodeID) bool {
		return id == target
	})
}

// popUntil pops elements off the stack of open elements until an HTML
// element with one of names has been popped.
func (c *HTMLTreeConstructor) popUntil(names ...string) {
	for len(c.stackOfOpenElements) > 0 {
		if c.isHTML(c.stackOfOpenElements.pop(), names...) {
			return
		}
	}
}

// popUntilNode pops elements off the stack of open elements until target has
// been popped.
func (c *HTMLTreeConstructor) popUntilNode(target dom.NodeID) {
	for len(c.stackOfOpenElements) > 0 {
		if c.stackOfOpenElements.pop() == target {
			return
		}
	}
}

// https://html.spec.whatwg.org/#generate-implied-end-tags
func (c *HTMLTreeConstructor) generateImpliedEndTags(exceptions ...string) {
	for {
		cur := c.currentNode()
		if !c.isHTML(cur, "dd", "dt", "li", "optgroup", "option", "p", "rb", "rp", "rt", "rtc") ||
			c.isHTML(cur, exceptions...) {
			return
		}
		c.stackOfOpenElements.pop()
	}
}

// https://html.spec.whatwg.org/#generate-all-implied-end-tags-thoroughly
func (c *HTMLTreeConstructor) generateAllImpliedEndTagsThoroughly() {
	for c.isHTML(c.currentNode(), "caption", "colgroup", "dd", "dt", "li", "optgroup", "option", "p", "rb",
		"rp", "rt", "rtc", "tbody", "td", "tfoot", "th", "thead", "tr") {
		c.stackOfOpenElements.pop()
	}
}

// https://html.spec.whatwg.org/#close-a-p-element
func (c *HTMLTreeConstructor) closePElement(t *Token) {
	c.generateImpliedEndTags("p")
	if !c.isHTML(c.currentNode(), "p") {
		c.parseError(errEndTagTooEarly, t)
	}
	c.popUntil("p")
}

// closePElementInButtonScope closes a p element if one is in button scope,
// the first step of many start tags in body.
func (c *HTMLTreeConstructor) closePElementInButtonScope(t *Token) {
	if c.elementInScope(buttonScope, "p") {
		c.closePElement(t)
	}
}

// appropriatePlaceForInsertion returns the parent and the child to insert
// before (dom.NoNode to append) for a new node. override replaces the
// current node as the target when it is not dom.NoNode.
// https://html.spec.whatwg.org/#appropriate-place-for-inserting-a-node
func (c *HTMLTreeConstructor) appropriatePlaceForInsertion(override dom.NodeID) (parent, before dom.NodeID) {
	target := override
	if target == dom.NoNode {
		target = c.currentNode()
	}
	parent, before = target, dom.NoNode

	if c.fosterParenting && c.isHTML(target, "table", "tbody", "tfoot", "thead", "tr") {
		lastTemplate, lastTable := -1, -1
		for i := len(c.stackOfOpenElements) - 1; i >= 0; i-- {
			id := c.stackOfOpenElements[i]
			if lastTemplate == -1 && c.isHTML(id, "template") {
				lastTemplate = i
			}
			if lastTable == -1 && c.isHTML(id, "table") {
				lastTable = i
			}
		}
		switch {
		case lastTemplate != -1 && (lastTable == -1 || lastTemplate > lastTable):
			parent = c.stackOfOpenElements[lastTemplate]
		case lastTable == -1:
			// Fragment case.
			parent = c.stackOfOpenElements[0]
		default:
			table := c.stackOfOpenElements[lastTable]
			if p := c.doc.Parent(table); p != dom.NoNode {
				parent, before = p, table
			} else {
				parent = c.stackOfOpenElements[lastTable-1]
			}
		}
	}

	if c.isHTML(parent, "template") {
		parent, before = c.doc.TemplateContent(parent), dom.NoNode
	}
	return parent, before
}

// insertCharacter inserts data at the appropriate place, merging it into a
// text node right before that place.
// https://html.spec.whatwg.org/#insert-a-character
func (c *HTMLTreeConstructor) insertCharacter(data string) {
	parent, before := c.appropriatePlaceForInsertion(dom.NoNode)
	if c.doc.Type(parent) == dom.DocumentNode {
		return
	}
	_, err := c.doc.AppendText(parent, before, data)
	c.must(err)
}

// https://html.spec.whatwg.org/#insert-a-comment
func (c *HTMLTreeConstructor) insertCommentAt(t *Token, parent, before dom.NodeID) {
	comment := c.doc.CreateComment(t.Data)
	c.must(c.doc.InsertBefore(parent, comment, before))
}

func (c *HTMLTreeConstructor) insertComment(t *Token) {
	parent, before := c.appropriatePlaceForInsertion(dom.NoNode)
	c.insertCommentAt(t, parent, before)
}

// insertForeignElement creates an element at the appropriate place and
// pushes it on the stack of open elements.
// https://html.spec.whatwg.org/#insert-a-foreign-element
func (c *HTMLTreeConstructor) insertForeignElement(name string, ns dom.Namespace, attrs []dom.Attribute) dom.NodeID {
	parent, before := c.appropriatePlaceForInsertion(dom.NoNode)
	elem := c.doc.CreateElement(name, ns, attrs)
	c.must(c.doc.InsertBefore(parent, elem, before))
	c.stackOfOpenElements.push(elem)
	return elem
}

// https://html.spec.whatwg.org/#insert-an-html-element
func (c *HTMLTreeConstructor) insertHTMLElementForToken(t *Token) dom.NodeID {
	return c.insertForeignElement(t.TagName, dom.Htmlns, t.domAttributes())
}

// insertHTMLElementNamed inserts an HTML element for a start tag token that
// is not in the input, like the implied head and body.
func (c *HTMLTreeConstructor) insertHTMLElementNamed(name string) dom.NodeID {
	return c.insertForeignElement(name, dom.Htmlns, nil)
}

// https://html.spec.whatwg.org/#insert-a-foreign-element
func (c *HTMLTreeConstructor) insertForeignElementForToken(t *Token, ns dom.Namespace) dom.NodeID {
	return c.insertForeignElement(adjustForeignTagName(ns, t.TagName), ns, adjustForeignAttributes(ns, t.Attributes))
}

// mergeAttributes adds the attributes of t that elem does not have yet, for
// a second <html> or <body> start tag.
func (c *HTMLTreeConstructor) mergeAttributes(elem dom.NodeID, t *Token) {
	for _, a := range t.Attributes {
		_, err := c.doc.SetAttributeIfAbsent(elem, dom.Attribute{Key: a.Key, Val: a.Val})
		c.must(err)
	}
}

func sameAttributes(a, b []dom.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
outer:
	for _, x := range a {
		for _, y := range b {
			if x == y {
				continue outer
			}
		}
		return false
	}
	return true
}

// pushActiveFormattingElement adds elem to the list of active formatting
// elements. There can be at most three entries with the same tag name,
// namespace and attributes after the last marker; the earliest goes.
// https://html.spec.whatwg.org/#push-onto-the-list-of-active-formatting-elements
func (c *HTMLTreeConstructor) pushActiveFormattingElement(elem dom.NodeID) {
	d := c.doc
	count, earliest := 0, -1
	for i := len(c.activeFormattingElements) - 1; i >= 0; i-- {
		entry := c.activeFormattingElements[i]
		if entry == scopeMarker {
			break
		}
		if d.Name(entry) != d.Name(elem) || d.Namespace(entry) != d.Namespace(elem) ||
			!sameAttributes(d.Attributes(entry), d.Attributes(elem)) {
			continue
		}
		count++
		earliest = i
	}
	if count >= 3 {
		c.activeFormattingElements.removeAt(earliest)
	}
	c.activeFormattingElements.push(elem)
}

// https://html.spec.whatwg.org/#clear-the-list-of-active-formatting-elements-up-to-the-last-marker
func (c *HTMLTreeConstructor) clearActiveFormattingElementsToLastMarker() {
	for len(c.activeFormattingElements) > 0 {
		if c.activeFormattingElements.pop() == scopeMarker {
			return
		}
	}
}

// https://html.spec.whatwg.org/#reconstruct-the-active-formatting-elements
func (c *HTMLTreeConstructor) reconstructActiveFormattingElements() {
	afe := c.activeFormattingElements
	if len(afe) == 0 {
		return
	}
	last := len(afe) - 1
	if afe[last] == scopeMarker || c.stackOfOpenElements.contains(afe[last]) {
		return
	}

	// Rewind to the entry after the last marker or open element.
	i := last
	for i > 0 {
		prev := afe[i-1]
		if prev == scopeMarker || c.stackOfOpenElements.contains(prev) {
			break
		}
		i--
	}

	// Advance and create.
	for ; i <= last; i++ {
		entry := afe[i]
		clone := c.clone(entry)
		parent, before := c.appropriatePlaceForInsertion(dom.NoNode)
		c.must(c.doc.InsertBefore(parent, clone, before))
		c.stackOfOpenElements.push(clone)
		afe[i] = clone
	}
}

// formattingElementAfterLastMarker returns the last entry named name between
// the end of the list of active formatting elements and the last marker.
func (c *HTMLTreeConstructor) formattingElementAfterLastMarker(name string) (dom.NodeID, int) {
	for i := len(c.activeFormattingElements) - 1; i >= 0; i-- {
		entry := c.activeFormattingElements[i]
		if entry == scopeMarker {
			break
		}
		if c.isHTML(entry, name) {
			return entry, i
		}
	}
	return dom.NoNode, -1
}

// https://html.spec.whatwg.org/#reset-the-insertion-mode-appropriately
func (c *HTMLTreeConstructor) resetInsertionMode() {
	for i := len(c.stackOfOpenElements) - 1; i >= 0; i-- {
		node := c.stackOfOpenElements[i]
		last := i == 0
		if last && c.context != dom.NoNode {
			node = c.context
		}
		if c.doc.Namespace(node) != dom.Htmlns {
			if last {
				c.switchTo(inBody)
				return
			}
			continue
		}
		switch c.doc.DataAtom(node) {
		case atom.Select:
			if !last {
				for j := i - 1; j >= 0; j-- {
					ancestor := c.stackOfOpenElements[j]
					if c.isHTML(ancestor, "template") {
						break
					}
					if c.isHTML(ancestor, "table") {
						c.switchTo(inSelectInTable)
						return
					}
				}
			}
			c.switchTo(inSelect)
			return
		case atom.Td, atom.Th:
			if !last {
				c.switchTo(inCell)
				return
			}
		case atom.Tr:
			c.switchTo(inRow)
			return
		case atom.Tbody, atom.Thead, atom.Tfoot:
			c.switchTo(inTableBody)
			return
		case atom.Caption:
			c.switchTo(inCaption)
			return
		case atom.Colgroup:
			c.switchTo(inColumnGroup)
			return
		case atom.Table:
			c.switchTo(inTable)
			return
		case atom.Template:
			c.switchTo(c.currentTemplateInsertionMode())
			return
		case atom.Head:
			if !last {
				c.switchTo(inHead)
				return
			}
		case atom.Body:
			c.switchTo(inBody)
			return
		case atom.Frameset:
			c.switchTo(inFrameset)
			return
		case atom.Html:
			if c.headElementPointer == dom.NoNode {
				c.switchTo(beforeHead)
			} else {
				c.switchTo(afterHead)
			}
			return
		}
		if last {
			c.switchTo(inBody)
			return
		}
	}
}

func (c *HTMLTreeConstructor) currentTemplateInsertionMode() insertionMode {
	if n := len(c.stackOfTemplateInsertionModes); n > 0 {
		return c.stackOfTemplateInsertionModes[n-1]
	}
	return inBody
}

func (c *HTMLTreeConstructor) pushTemplateInsertionMode(mode insertionMode) {
	c.stackOfTemplateInsertionModes = append(c.stackOfTemplateInsertionModes, mode)
}

func (c *HTMLTreeConstructor) popTemplateInsertionMode() {
	if n := len(c.stackOfTemplateInsertionModes); n > 0 {
		c.stackOfTemplateInsertionModes = c.stackOfTemplateInsertionModes[:n-1]
	}
}

// replaceTemplateInsertionMode swaps the current template insertion mode.
func (c *HTMLTreeConstructor) replaceTemplateInsertionMode(mode insertionMode) {
	c.popTemplateInsertionMode()
	c.pushTemplateInsertionMode(mode)
}

// parseRawText is the generic raw text and generic RCDATA element parsing
// algorithm.
// https://html.spec.whatwg.org/#generic-raw-text-element-parsing-algorithm
func (c *HTMLTreeConstructor) parseRawText(t *Token, state TokenizerState) {
	c.insertHTMLElementForToken(t)
	c.switchTokenizer(state)
	c.originalInsertionMode = c.mode
	c.switchTo(text)
}

// hasTemplateOnStack reports whether a template element is open.
func (c *HTMLTreeConstructor) hasTemplateOnStack() bool {
	for _, id := range c.stackOfOpenElements {
		if c.isHTML(id, "template") {
			return true
		}
	}
	return false
}
