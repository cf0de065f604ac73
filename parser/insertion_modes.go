package parser

import (
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// unexpected reports t as a parse error of the kind matching its type.
func (c *HTMLTreeConstructor) unexpected(t *Token) {
	switch t.Type {
	case StartTagToken:
		c.parseError(errUnexpectedStartTag, t)
	case EndTagToken:
		c.parseError(errUnexpectedEndTag, t)
	case DoctypeToken:
		c.parseError(errUnexpectedDoctype, t)
	case EndOfFileToken:
		c.parseError(errUnexpectedEOF, t)
	default:
		c.parseError(errUnexpectedCharacter, t)
	}
}

// insertVoidElement inserts an element that is popped right away and
// acknowledges its self-closing flag.
func (c *HTMLTreeConstructor) insertVoidElement(t *Token) {
	c.insertHTMLElementForToken(t)
	c.stackOfOpenElements.pop()
	c.selfClosingAcknowledged = true
}

func isStartTag(t *Token, names ...string) bool {
	return t.Type == StartTagToken && nameIn(t.TagName, names)
}

func isEndTag(t *Token, names ...string) bool {
	return t.Type == EndTagToken && nameIn(t.TagName, names)
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// https://html.spec.whatwg.org/#the-initial-insertion-mode
func (c *HTMLTreeConstructor) initialModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		return false
	case t.Type == CommentToken:
		c.insertCommentAt(t, c.doc.Root(), dom.NoNode)
		return false
	case t.Type == DoctypeToken:
		if !isConformingDoctype(t) {
			c.parseError(errUnknownDoctype, t)
		}
		doctype := c.doc.CreateDoctype(t.TagName, t.PublicIdentifier, t.SystemIdentifier)
		c.must(c.doc.AppendChild(c.doc.Root(), doctype))
		c.must(c.doc.SetQuirksMode(quirksModeForDoctype(t, c.iframeSrcdoc)))
		c.switchTo(beforeHTML)
		return false
	}

	if !c.iframeSrcdoc {
		switch t.Type {
		case StartTagToken:
			c.parseError(errExpectedDoctypeButGotStartTag, t)
		case EndTagToken:
			c.parseError(errExpectedDoctypeButGotEndTag, t)
		case EndOfFileToken:
			c.parseError(errExpectedDoctypeButGotEOF, t)
		default:
			c.parseError(errExpectedDoctypeButGotChars, t)
		}
		c.must(c.doc.SetQuirksMode(dom.Quirks))
	}
	c.switchTo(beforeHTML)
	return true
}

// https://html.spec.whatwg.org/#the-before-html-insertion-mode
func (c *HTMLTreeConstructor) beforeHTMLModeHandler(t *Token) bool {
	switch {
	case t.Type == DoctypeToken:
		c.unexpected(t)
		return false
	case t.Type == CommentToken:
		c.insertCommentAt(t, c.doc.Root(), dom.NoNode)
		return false
	case isWhitespaceToken(t):
		return false
	case isStartTag(t, "html"):
		html := c.doc.CreateElement("html", dom.Htmlns, t.domAttributes())
		c.must(c.doc.AppendChild(c.doc.Root(), html))
		c.stackOfOpenElements.push(html)
		c.switchTo(beforeHead)
		return false
	case t.Type == EndTagToken && !isEndTag(t, "head", "body", "html", "br"):
		c.unexpected(t)
		return false
	}
	html := c.doc.CreateElement("html", dom.Htmlns, nil)
	c.must(c.doc.AppendChild(c.doc.Root(), html))
	c.stackOfOpenElements.push(html)
	c.switchTo(beforeHead)
	return true
}

// https://html.spec.whatwg.org/#the-before-head-insertion-mode
func (c *HTMLTreeConstructor) beforeHeadModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		return false
	case t.Type == CommentToken:
		c.insertComment(t)
		return false
	case t.Type == DoctypeToken:
		c.unexpected(t)
		return false
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isStartTag(t, "head"):
		c.headElementPointer = c.insertHTMLElementForToken(t)
		c.switchTo(inHead)
		return false
	case t.Type == EndTagToken && !isEndTag(t, "head", "body", "html", "br"):
		c.unexpected(t)
		return false
	}
	c.headElementPointer = c.insertHTMLElementNamed("head")
	c.switchTo(inHead)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-inhead
func (c *HTMLTreeConstructor) inHeadModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		if isWhitespaceToken(t) {
			c.insertCharacter(t.Data)
			return false
		}
	case CommentToken:
		c.insertComment(t)
		return false
	case DoctypeToken:
		c.unexpected(t)
		return false
	case StartTagToken:
		switch t.TagName {
		case "html":
			return c.useRulesFor(t, inBody)
		case "base", "basefont", "bgsound", "link", "meta":
			c.insertVoidElement(t)
			return false
		case "title":
			c.parseRawText(t, RCDATAState)
			return false
		case "noscript":
			if c.scriptingEnabled {
				c.parseRawText(t, RawTextState)
				return false
			}
			c.insertHTMLElementForToken(t)
			c.switchTo(inHeadNoScript)
			return false
		case "noframes", "style":
			c.parseRawText(t, RawTextState)
			return false
		case "script":
			c.parseRawText(t, ScriptDataState)
			return false
		case "template":
			c.insertHTMLElementForToken(t)
			c.activeFormattingElements.push(scopeMarker)
			c.framesetOK = false
			c.switchTo(inTemplate)
			c.pushTemplateInsertionMode(inTemplate)
			return false
		case "head":
			c.unexpected(t)
			return false
		}
	case EndTagToken:
		switch t.TagName {
		case "head":
			c.stackOfOpenElements.pop()
			c.switchTo(afterHead)
			return false
		case "body", "html", "br":
		case "template":
			if !c.hasTemplateOnStack() {
				c.unexpected(t)
				return false
			}
			c.generateAllImpliedEndTagsThoroughly()
			if !c.isHTML(c.currentNode(), "template") {
				c.parseError(errEndTagTooEarly, t)
			}
			c.popUntil("template")
			c.clearActiveFormattingElementsToLastMarker()
			c.popTemplateInsertionMode()
			c.resetInsertionMode()
			return false
		default:
			c.unexpected(t)
			return false
		}
	}
	c.stackOfOpenElements.pop()
	c.switchTo(afterHead)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-inheadnoscript
func (c *HTMLTreeConstructor) inHeadNoScriptModeHandler(t *Token) bool {
	switch {
	case t.Type == DoctypeToken:
		c.unexpected(t)
		return false
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isEndTag(t, "noscript"):
		c.stackOfOpenElements.pop()
		c.switchTo(inHead)
		return false
	case isWhitespaceToken(t), t.Type == CommentToken,
		isStartTag(t, "basefont", "bgsound", "link", "meta", "noframes", "style"):
		return c.useRulesFor(t, inHead)
	case isStartTag(t, "head", "noscript"),
		t.Type == EndTagToken && t.TagName != "br":
		c.unexpected(t)
		return false
	}
	c.unexpected(t)
	c.stackOfOpenElements.pop()
	c.switchTo(inHead)
	return true
}

// https://html.spec.whatwg.org/#the-after-head-insertion-mode
func (c *HTMLTreeConstructor) afterHeadModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		c.insertCharacter(t.Data)
		return false
	case t.Type == CommentToken:
		c.insertComment(t)
		return false
	case t.Type == DoctypeToken:
		c.unexpected(t)
		return false
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isStartTag(t, "body"):
		c.insertHTMLElementForToken(t)
		c.framesetOK = false
		c.switchTo(inBody)
		return false
	case isStartTag(t, "frameset"):
		c.insertHTMLElementForToken(t)
		c.switchTo(inFrameset)
		return false
	case isStartTag(t, "base", "basefont", "bgsound", "link", "meta", "noframes", "script", "style",
		"template", "title"):
		c.unexpected(t)
		head := c.headElementPointer
		c.stackOfOpenElements.push(head)
		reprocess := c.useRulesFor(t, inHead)
		c.stackOfOpenElements.remove(head)
		return reprocess
	case isEndTag(t, "template"):
		return c.useRulesFor(t, inHead)
	case isStartTag(t, "head"),
		t.Type == EndTagToken && !isEndTag(t, "body", "html", "br"):
		c.unexpected(t)
		return false
	}
	c.insertHTMLElementNamed("body")
	c.switchTo(inBody)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-incdata
func (c *HTMLTreeConstructor) textModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		c.insertCharacter(t.Data)
		return false
	case EndOfFileToken:
		c.unexpected(t)
		c.stackOfOpenElements.pop()
		c.switchTo(c.originalInsertionMode)
		return true
	case EndTagToken:
		// Scripts are never run, so </script> needs no special handling.
		c.stackOfOpenElements.pop()
		c.switchTo(c.originalInsertionMode)
	}
	return false
}

// https://html.spec.whatwg.org/#parsing-main-intemplate
func (c *HTMLTreeConstructor) inTemplateModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken, CommentToken, DoctypeToken:
		return c.useRulesFor(t, inBody)
	case StartTagToken:
		var next insertionMode
		switch t.TagName {
		case "base", "basefont", "bgsound", "link", "meta", "noframes", "script", "style", "template", "title":
			return c.useRulesFor(t, inHead)
		case "caption", "colgroup", "tbody", "tfoot", "thead":
			next = inTable
		case "col":
			next = inColumnGroup
		case "tr":
			next = inTableBody
		case "td", "th":
			next = inRow
		default:
			next = inBody
		}
		c.replaceTemplateInsertionMode(next)
		c.switchTo(next)
		return true
	case EndTagToken:
		if t.TagName == "template" {
			return c.useRulesFor(t, inHead)
		}
		c.unexpected(t)
		return false
	}

	if !c.hasTemplateOnStack() {
		return false
	}
	c.unexpected(t)
	c.popUntil("template")
	c.clearActiveFormattingElementsToLastMarker()
	c.popTemplateInsertionMode()
	c.resetInsertionMode()
	return true
}

// https://html.spec.whatwg.org/#parsing-main-afterbody
func (c *HTMLTreeConstructor) afterBodyModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		return c.useRulesFor(t, inBody)
	case t.Type == CommentToken:
		c.insertCommentAt(t, c.stackOfOpenElements[0], dom.NoNode)
		return false
	case t.Type == DoctypeToken:
		c.unexpected(t)
		return false
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isEndTag(t, "html"):
		if c.context != dom.NoNode {
			c.unexpected(t)
			return false
		}
		c.switchTo(afterAfterBody)
		return false
	case t.Type == EndOfFileToken:
		return false
	}
	c.unexpected(t)
	c.switchTo(inBody)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-inframeset
func (c *HTMLTreeConstructor) inFramesetModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		c.insertCharacter(t.Data)
	case t.Type == CommentToken:
		c.insertComment(t)
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isStartTag(t, "frameset"):
		c.insertHTMLElementForToken(t)
	case isEndTag(t, "frameset"):
		if c.currentNode() == c.stackOfOpenElements[0] {
			c.unexpected(t)
			return false
		}
		c.stackOfOpenElements.pop()
		if c.context == dom.NoNode && !c.isHTML(c.currentNode(), "frameset") {
			c.switchTo(afterFrameset)
		}
	case isStartTag(t, "frame"):
		c.insertVoidElement(t)
	case isStartTag(t, "noframes"):
		return c.useRulesFor(t, inHead)
	case t.Type == EndOfFileToken:
		if c.currentNode() != c.stackOfOpenElements[0] {
			c.unexpected(t)
		}
	default:
		c.unexpected(t)
	}
	return false
}

// https://html.spec.whatwg.org/#parsing-main-afterframeset
func (c *HTMLTreeConstructor) afterFramesetModeHandler(t *Token) bool {
	switch {
	case isWhitespaceToken(t):
		c.insertCharacter(t.Data)
	case t.Type == CommentToken:
		c.insertComment(t)
	case isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isEndTag(t, "html"):
		c.switchTo(afterAfterFrameset)
	case isStartTag(t, "noframes"):
		return c.useRulesFor(t, inHead)
	case t.Type == EndOfFileToken:
	default:
		c.unexpected(t)
	}
	return false
}

// https://html.spec.whatwg.org/#the-after-after-body-insertion-mode
func (c *HTMLTreeConstructor) afterAfterBodyModeHandler(t *Token) bool {
	switch {
	case t.Type == CommentToken:
		c.insertCommentAt(t, c.doc.Root(), dom.NoNode)
		return false
	case t.Type == DoctypeToken, isWhitespaceToken(t), isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case t.Type == EndOfFileToken:
		return false
	}
	c.unexpected(t)
	c.switchTo(inBody)
	return true
}

// https://html.spec.whatwg.org/#the-after-after-frameset-insertion-mode
func (c *HTMLTreeConstructor) afterAfterFramesetModeHandler(t *Token) bool {
	switch {
	case t.Type == CommentToken:
		c.insertCommentAt(t, c.doc.Root(), dom.NoNode)
	case t.Type == DoctypeToken, isWhitespaceToken(t), isStartTag(t, "html"):
		return c.useRulesFor(t, inBody)
	case isStartTag(t, "noframes"):
		return c.useRulesFor(t, inHead)
	case t.Type == EndOfFileToken:
	default:
		c.unexpected(t)
	}
	return false
}
