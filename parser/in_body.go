package parser

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

// Elements that may stay open at the end of the body without a parse error.
var impliedAtEOF = []string{
	"dd", "dt", "li", "optgroup", "option", "p", "rb", "rp", "rt", "rtc",
	"tbody", "td", "tfoot", "th", "thead", "tr", "body", "html",
}

func (c *HTMLTreeConstructor) checkOpenElementsAtEnd(t *Token) {
	for _, id := range c.stackOfOpenElements {
		if !c.isHTML(id, impliedAtEOF...) {
			c.parseError(errUnexpectedEOF, t)
			return
		}
	}
}

// https://html.spec.whatwg.org/#parsing-main-inbody
func (c *HTMLTreeConstructor) inBodyModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		switch {
		case t.Data == "\x00":
			c.parseError(errUnexpectedNullCharacter, t)
		case isWhitespaceToken(t):
			c.reconstructActiveFormattingElements()
			c.insertCharacter(t.Data)
		default:
			c.reconstructActiveFormattingElements()
			c.insertCharacter(t.Data)
			c.framesetOK = false
		}
	case CommentToken:
		c.insertComment(t)
	case DoctypeToken:
		c.unexpected(t)
	case StartTagToken:
		return c.inBodyStartTag(t)
	case EndTagToken:
		return c.inBodyEndTag(t)
	case EndOfFileToken:
		if len(c.stackOfTemplateInsertionModes) > 0 {
			return c.useRulesFor(t, inTemplate)
		}
		c.checkOpenElementsAtEnd(t)
	}
	return false
}

func (c *HTMLTreeConstructor) inBodyStartTag(t *Token) bool {
	switch t.TagName {
	case "html":
		c.unexpected(t)
		if !c.hasTemplateOnStack() {
			c.mergeAttributes(c.stackOfOpenElements[0], t)
		}
	case "base", "basefont", "bgsound", "link", "meta", "noframes", "script", "style", "template", "title":
		return c.useRulesFor(t, inHead)
	case "body":
		c.unexpected(t)
		if len(c.stackOfOpenElements) < 2 || !c.isHTML(c.stackOfOpenElements[1], "body") || c.hasTemplateOnStack() {
			return false
		}
		c.framesetOK = false
		c.mergeAttributes(c.stackOfOpenElements[1], t)
	case "frameset":
		c.unexpected(t)
		if len(c.stackOfOpenElements) < 2 || !c.isHTML(c.stackOfOpenElements[1], "body") || !c.framesetOK {
			return false
		}
		c.must(c.doc.Remove(c.stackOfOpenElements[1]))
		c.stackOfOpenElements = c.stackOfOpenElements[:1]
		c.insertHTMLElementForToken(t)
		c.switchTo(inFrameset)
	case "address", "article", "aside", "blockquote", "center", "details", "dialog", "dir", "div", "dl",
		"fieldset", "figcaption", "figure", "footer", "header", "hgroup", "main", "menu", "nav", "ol", "p",
		"search", "section", "summary", "ul":
		c.closePElementInButtonScope(t)
		c.insertHTMLElementForToken(t)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.closePElementInButtonScope(t)
		if c.isHTML(c.currentNode(), "h1", "h2", "h3", "h4", "h5", "h6") {
			c.unexpected(t)
			c.stackOfOpenElements.pop()
		}
		c.insertHTMLElementForToken(t)
	case "pre", "listing":
		c.closePElementInButtonScope(t)
		c.insertHTMLElementForToken(t)
		c.ignoreNextLF = true
		c.framesetOK = false
	case "form":
		templateOpen := c.hasTemplateOnStack()
		if c.formElementPointer != dom.NoNode && !templateOpen {
			c.unexpected(t)
			return false
		}
		c.closePElementInButtonScope(t)
		form := c.insertHTMLElementForToken(t)
		if !templateOpen {
			c.formElementPointer = form
		}
	case "li":
		c.closeListItem(t, "li")
	case "dd", "dt":
		c.closeListItem(t, "dd", "dt")
	case "plaintext":
		c.closePElementInButtonScope(t)
		c.insertHTMLElementForToken(t)
		c.switchTokenizer(PlaintextState)
	case "button":
		if c.elementInScope(defaultScope, "button") {
			c.unexpected(t)
			c.generateImpliedEndTags()
			c.popUntil("button")
		}
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
		c.framesetOK = false
	case "a":
		if a, _ := c.formattingElementAfterLastMarker("a"); a != dom.NoNode {
			c.unexpected(t)
			c.adoptionAgencyAlgorithm(t)
			c.activeFormattingElements.remove(a)
			c.stackOfOpenElements.remove(a)
		}
		c.reconstructActiveFormattingElements()
		c.pushActiveFormattingElement(c.insertHTMLElementForToken(t))
	case "b", "big", "code", "em", "font", "i", "s", "small", "strike", "strong", "tt", "u":
		c.reconstructActiveFormattingElements()
		c.pushActiveFormattingElement(c.insertHTMLElementForToken(t))
	case "nobr":
		c.reconstructActiveFormattingElements()
		if c.elementInScope(defaultScope, "nobr") {
			c.unexpected(t)
			c.adoptionAgencyAlgorithm(t)
			c.reconstructActiveFormattingElements()
		}
		c.pushActiveFormattingElement(c.insertHTMLElementForToken(t))
	case "applet", "marquee", "object":
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
		c.activeFormattingElements.push(scopeMarker)
		c.framesetOK = false
	case "table":
		if c.doc.QuirksMode() != dom.Quirks {
			c.closePElementInButtonScope(t)
		}
		c.insertHTMLElementForToken(t)
		c.framesetOK = false
		c.switchTo(inTable)
	case "area", "br", "embed", "img", "keygen", "wbr":
		c.reconstructActiveFormattingElements()
		c.insertVoidElement(t)
		c.framesetOK = false
	case "input":
		c.reconstructActiveFormattingElements()
		c.insertVoidElement(t)
		if typ, ok := t.Attr("type"); !ok || !strings.EqualFold(typ, "hidden") {
			c.framesetOK = false
		}
	case "param", "source", "track":
		c.insertVoidElement(t)
	case "hr":
		c.closePElementInButtonScope(t)
		c.insertVoidElement(t)
		c.framesetOK = false
	case "image":
		c.unexpected(t)
		t.TagName, t.DataAtom = "img", atom.Img
		return true
	case "textarea":
		c.insertHTMLElementForToken(t)
		c.ignoreNextLF = true
		c.switchTokenizer(RCDATAState)
		c.originalInsertionMode = c.mode
		c.framesetOK = false
		c.switchTo(text)
	case "xmp":
		c.closePElementInButtonScope(t)
		c.reconstructActiveFormattingElements()
		c.framesetOK = false
		c.parseRawText(t, RawTextState)
	case "iframe":
		c.framesetOK = false
		c.parseRawText(t, RawTextState)
	case "noembed":
		c.parseRawText(t, RawTextState)
	case "noscript":
		if c.scriptingEnabled {
			c.parseRawText(t, RawTextState)
			return false
		}
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
	case "select":
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
		c.framesetOK = false
		switch c.mode {
		case inTable, inCaption, inTableBody, inRow, inCell:
			c.switchTo(inSelectInTable)
		default:
			c.switchTo(inSelect)
		}
	case "optgroup", "option":
		if c.isHTML(c.currentNode(), "option") {
			c.stackOfOpenElements.pop()
		}
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
	case "rb", "rtc":
		if c.elementInScope(defaultScope, "ruby") {
			c.generateImpliedEndTags()
			if !c.isHTML(c.currentNode(), "ruby") {
				c.unexpected(t)
			}
		}
		c.insertHTMLElementForToken(t)
	case "rp", "rt":
		if c.elementInScope(defaultScope, "ruby") {
			c.generateImpliedEndTags("rtc")
			if !c.isHTML(c.currentNode(), "ruby", "rtc") {
				c.unexpected(t)
			}
		}
		c.insertHTMLElementForToken(t)
	case "math":
		c.reconstructActiveFormattingElements()
		c.insertForeignElementForToken(t, dom.Mathmlns)
		if t.SelfClosing {
			c.stackOfOpenElements.pop()
			c.selfClosingAcknowledged = true
		}
	case "svg":
		c.reconstructActiveFormattingElements()
		c.insertForeignElementForToken(t, dom.Svgns)
		if t.SelfClosing {
			c.stackOfOpenElements.pop()
			c.selfClosingAcknowledged = true
		}
	case "caption", "col", "colgroup", "frame", "head", "tbody", "td", "tfoot", "th", "thead", "tr":
		c.unexpected(t)
	default:
		c.reconstructActiveFormattingElements()
		c.insertHTMLElementForToken(t)
	}
	return false
}

// closeListItem runs the start tag steps shared by li, dd and dt: close an
// open item of the same kind unless a special element is in between.
func (c *HTMLTreeConstructor) closeListItem(t *Token, names ...string) {
	c.framesetOK = false
	for i := len(c.stackOfOpenElements) - 1; i >= 0; i-- {
		node := c.stackOfOpenElements[i]
		if c.isHTML(node, names...) {
			name := c.doc.Name(node)
			c.generateImpliedEndTags(name)
			if !c.isHTML(c.currentNode(), name) {
				c.unexpected(t)
			}
			c.popUntil(name)
			break
		}
		if c.isSpecial(node) && !c.isHTML(node, "address", "div", "p") {
			break
		}
	}
	c.closePElementInButtonScope(t)
	c.insertHTMLElementForToken(t)
}

func (c *HTMLTreeConstructor) inBodyEndTag(t *Token) bool {
	switch t.TagName {
	case "template":
		return c.useRulesFor(t, inHead)
	case "body":
		if !c.elementInScope(defaultScope, "body") {
			c.unexpected(t)
			return false
		}
		c.checkOpenElementsAtEnd(t)
		c.switchTo(afterBody)
	case "html":
		if !c.elementInScope(defaultScope, "body") {
			c.unexpected(t)
			return false
		}
		c.checkOpenElementsAtEnd(t)
		c.switchTo(afterBody)
		return true
	case "address", "article", "aside", "blockquote", "button", "center", "details", "dialog", "dir", "div",
		"dl", "fieldset", "figcaption", "figure", "footer", "header", "hgroup", "listing", "main", "menu",
		"nav", "ol", "pre", "search", "section", "summary", "ul":
		c.closeElementInScope(t, defaultScope)
	case "form":
		if c.hasTemplateOnStack() {
			c.closeElementInScope(t, defaultScope)
			return false
		}
		node := c.formElementPointer
		c.formElementPointer = dom.NoNode
		if node == dom.NoNode || !c.nodeInScope(node) {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags()
		if c.currentNode() != node {
			c.unexpected(t)
		}
		c.stackOfOpenElements.remove(node)
	case "p":
		if !c.elementInScope(buttonScope, "p") {
			c.unexpected(t)
			c.insertHTMLElementNamed("p")
		}
		c.closePElement(t)
	case "li":
		if !c.elementInScope(listItemScope, "li") {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags("li")
		if !c.isHTML(c.currentNode(), "li") {
			c.unexpected(t)
		}
		c.popUntil("li")
	case "dd", "dt":
		if !c.elementInScope(defaultScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags(t.TagName)
		if !c.isHTML(c.currentNode(), t.TagName) {
			c.unexpected(t)
		}
		c.popUntil(t.TagName)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		headings := []string{"h1", "h2", "h3", "h4", "h5", "h6"}
		if !c.elementInScope(defaultScope, headings...) {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags()
		if !c.isHTML(c.currentNode(), t.TagName) {
			c.unexpected(t)
		}
		c.popUntil(headings...)
	case "a", "b", "big", "code", "em", "font", "i", "nobr", "s", "small", "strike", "strong", "tt", "u":
		if c.adoptionAgencyAlgorithm(t) {
			c.anyOtherEndTag(t)
		}
	case "applet", "marquee", "object":
		if !c.elementInScope(defaultScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags()
		if !c.isHTML(c.currentNode(), t.TagName) {
			c.unexpected(t)
		}
		c.popUntil(t.TagName)
		c.clearActiveFormattingElementsToLastMarker()
	case "br":
		c.unexpected(t)
		br := &Token{Type: StartTagToken, TagName: "br", DataAtom: atom.Br, Location: t.Location}
		c.reconstructActiveFormattingElements()
		c.insertVoidElement(br)
		c.framesetOK = false
	default:
		c.anyOtherEndTag(t)
	}
	return false
}

// closeElementInScope pops up to and including the element named like the
// end tag t, when there is one in scope s.
func (c *HTMLTreeConstructor) closeElementInScope(t *Token, s scope) {
	if !c.elementInScope(s, t.TagName) {
		c.unexpected(t)
		return
	}
	c.generateImpliedEndTags()
	if !c.isHTML(c.currentNode(), t.TagName) {
		c.unexpected(t)
	}
	c.popUntil(t.TagName)
}

// https://html.spec.whatwg.org/#any-other-end-tag
func (c *HTMLTreeConstructor) anyOtherEndTag(t *Token) {
	for i := len(c.stackOfOpenElements) - 1; i >= 0; i-- {
		node := c.stackOfOpenElements[i]
		if c.isHTML(node, t.TagName) {
			c.generateImpliedEndTags(t.TagName)
			if node != c.currentNode() {
				c.unexpected(t)
			}
			c.popUntilNode(node)
			return
		}
		if c.isSpecial(node) {
			c.unexpected(t)
			return
		}
	}
}
