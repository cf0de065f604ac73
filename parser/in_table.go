package parser

import (
	"strings"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

// clearStackBackTo pops elements until the current node is an HTML element
// with one of names. html and template always stop it.
// https://html.spec.whatwg.org/#clear-the-stack-back-to-a-table-context
func (c *HTMLTreeConstructor) clearStackBackTo(names ...string) {
	for len(c.stackOfOpenElements) > 1 {
		cur := c.currentNode()
		if c.isHTML(cur, "html", "template") || c.isHTML(cur, names...) {
			return
		}
		c.stackOfOpenElements.pop()
	}
}

// https://html.spec.whatwg.org/#parsing-main-intable
func (c *HTMLTreeConstructor) inTableModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		if c.isHTML(c.currentNode(), "table", "tbody", "template", "tfoot", "thead", "tr") {
			c.pendingTableCharacters = c.pendingTableCharacters[:0]
			c.originalInsertionMode = c.mode
			c.switchTo(inTableText)
			return true
		}
	case CommentToken:
		c.insertComment(t)
		return false
	case DoctypeToken:
		c.unexpected(t)
		return false
	case StartTagToken:
		switch t.TagName {
		case "caption":
			c.clearStackBackTo("table")
			c.activeFormattingElements.push(scopeMarker)
			c.insertHTMLElementForToken(t)
			c.switchTo(inCaption)
			return false
		case "colgroup":
			c.clearStackBackTo("table")
			c.insertHTMLElementForToken(t)
			c.switchTo(inColumnGroup)
			return false
		case "col":
			c.clearStackBackTo("table")
			c.insertHTMLElementNamed("colgroup")
			c.switchTo(inColumnGroup)
			return true
		case "tbody", "tfoot", "thead":
			c.clearStackBackTo("table")
			c.insertHTMLElementForToken(t)
			c.switchTo(inTableBody)
			return false
		case "td", "th", "tr":
			c.clearStackBackTo("table")
			c.insertHTMLElementNamed("tbody")
			c.switchTo(inTableBody)
			return true
		case "table":
			c.unexpected(t)
			if !c.elementInScope(tableScope, "table") {
				return false
			}
			c.popUntil("table")
			c.resetInsertionMode()
			return true
		case "style", "script", "template":
			return c.useRulesFor(t, inHead)
		case "input":
			if typ, ok := t.Attr("type"); ok && strings.EqualFold(typ, "hidden") {
				c.unexpected(t)
				c.insertVoidElement(t)
				return false
			}
		case "form":
			c.unexpected(t)
			if c.hasTemplateOnStack() || c.formElementPointer != dom.NoNode {
				return false
			}
			c.formElementPointer = c.insertHTMLElementForToken(t)
			c.stackOfOpenElements.pop()
			return false
		}
	case EndTagToken:
		switch t.TagName {
		case "table":
			if !c.elementInScope(tableScope, "table") {
				c.unexpected(t)
				return false
			}
			c.popUntil("table")
			c.resetInsertionMode()
			return false
		case "body", "caption", "col", "colgroup", "html", "tbody", "td", "tfoot", "th", "thead", "tr":
			c.unexpected(t)
			return false
		case "template":
			return c.useRulesFor(t, inHead)
		}
	case EndOfFileToken:
		return c.useRulesFor(t, inBody)
	}
	return c.fosterParent(t)
}

// fosterParent processes t with the in body rules while inserting into the
// parent of the table instead of the table itself.
func (c *HTMLTreeConstructor) fosterParent(t *Token) bool {
	c.parseError(errFosterParentedContent, t)
	c.fosterParenting = true
	reprocess := c.useRulesFor(t, inBody)
	c.fosterParenting = false
	return reprocess
}

// https://html.spec.whatwg.org/#parsing-main-intabletext
func (c *HTMLTreeConstructor) inTableTextModeHandler(t *Token) bool {
	if t.Type == CharacterToken {
		if t.Data == "\x00" {
			c.parseError(errUnexpectedNullCharacter, t)
			return false
		}
		c.pendingTableCharacters = append(c.pendingTableCharacters, t)
		return false
	}

	whitespace := true
	for _, p := range c.pendingTableCharacters {
		if !isWhitespaceToken(p) {
			whitespace = false
			break
		}
	}
	if whitespace {
		var sb strings.Builder
		for _, p := range c.pendingTableCharacters {
			sb.WriteString(p.Data)
		}
		if sb.Len() > 0 {
			c.insertCharacter(sb.String())
		}
	} else {
		for _, p := range c.pendingTableCharacters {
			c.fosterParent(p)
		}
	}
	c.pendingTableCharacters = c.pendingTableCharacters[:0]
	c.switchTo(c.originalInsertionMode)
	return true
}

// closeCaption pops up to the open caption. It reports false when there is
// none in table scope.
func (c *HTMLTreeConstructor) closeCaption(t *Token) bool {
	if !c.elementInScope(tableScope, "caption") {
		c.unexpected(t)
		return false
	}
	c.generateImpliedEndTags()
	if !c.isHTML(c.currentNode(), "caption") {
		c.unexpected(t)
	}
	c.popUntil("caption")
	c.clearActiveFormattingElementsToLastMarker()
	c.switchTo(inTable)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-incaption
func (c *HTMLTreeConstructor) inCaptionModeHandler(t *Token) bool {
	switch {
	case isEndTag(t, "caption"):
		c.closeCaption(t)
		return false
	case isStartTag(t, "caption", "col", "colgroup", "tbody", "td", "tfoot", "th", "thead", "tr"),
		isEndTag(t, "table"):
		return c.closeCaption(t)
	case isEndTag(t, "body", "col", "colgroup", "html", "tbody", "td", "tfoot", "th", "thead", "tr"):
		c.unexpected(t)
		return false
	}
	return c.useRulesFor(t, inBody)
}

// https://html.spec.whatwg.org/#parsing-main-incolgroup
func (c *HTMLTreeConstructor) inColumnGroupModeHandler(t *Token) bool {
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
	case isStartTag(t, "col"):
		c.insertVoidElement(t)
		return false
	case isEndTag(t, "colgroup"):
		if !c.isHTML(c.currentNode(), "colgroup") {
			c.unexpected(t)
			return false
		}
		c.stackOfOpenElements.pop()
		c.switchTo(inTable)
		return false
	case isEndTag(t, "col"):
		c.unexpected(t)
		return false
	case isStartTag(t, "template"), isEndTag(t, "template"):
		return c.useRulesFor(t, inHead)
	case t.Type == EndOfFileToken:
		return c.useRulesFor(t, inBody)
	}
	if !c.isHTML(c.currentNode(), "colgroup") {
		c.unexpected(t)
		return false
	}
	c.stackOfOpenElements.pop()
	c.switchTo(inTable)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-intbody
func (c *HTMLTreeConstructor) inTableBodyModeHandler(t *Token) bool {
	switch {
	case isStartTag(t, "tr"):
		c.clearStackBackTo("tbody", "tfoot", "thead")
		c.insertHTMLElementForToken(t)
		c.switchTo(inRow)
		return false
	case isStartTag(t, "th", "td"):
		c.unexpected(t)
		c.clearStackBackTo("tbody", "tfoot", "thead")
		c.insertHTMLElementNamed("tr")
		c.switchTo(inRow)
		return true
	case isEndTag(t, "tbody", "tfoot", "thead"):
		if !c.elementInScope(tableScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		c.clearStackBackTo("tbody", "tfoot", "thead")
		c.stackOfOpenElements.pop()
		c.switchTo(inTable)
		return false
	case isStartTag(t, "caption", "col", "colgroup", "tbody", "tfoot", "thead"), isEndTag(t, "table"):
		if !c.elementInScope(tableScope, "tbody", "thead", "tfoot") {
			c.unexpected(t)
			return false
		}
		c.clearStackBackTo("tbody", "tfoot", "thead")
		c.stackOfOpenElements.pop()
		c.switchTo(inTable)
		return true
	case isEndTag(t, "body", "caption", "col", "colgroup", "html", "td", "th", "tr"):
		c.unexpected(t)
		return false
	}
	return c.useRulesFor(t, inTable)
}

// closeRow pops up to the open tr. It reports false when there is none in
// table scope.
func (c *HTMLTreeConstructor) closeRow(t *Token) bool {
	if !c.elementInScope(tableScope, "tr") {
		c.unexpected(t)
		return false
	}
	c.clearStackBackTo("tr")
	c.stackOfOpenElements.pop()
	c.switchTo(inTableBody)
	return true
}

// https://html.spec.whatwg.org/#parsing-main-intr
func (c *HTMLTreeConstructor) inRowModeHandler(t *Token) bool {
	switch {
	case isStartTag(t, "th", "td"):
		c.clearStackBackTo("tr")
		c.insertHTMLElementForToken(t)
		c.switchTo(inCell)
		c.activeFormattingElements.push(scopeMarker)
		return false
	case isEndTag(t, "tr"):
		c.closeRow(t)
		return false
	case isStartTag(t, "caption", "col", "colgroup", "tbody", "tfoot", "thead", "tr"), isEndTag(t, "table"):
		return c.closeRow(t)
	case isEndTag(t, "tbody", "tfoot", "thead"):
		if !c.elementInScope(tableScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		if !c.elementInScope(tableScope, "tr") {
			return false
		}
		return c.closeRow(t)
	case isEndTag(t, "body", "caption", "col", "colgroup", "html", "td", "th"):
		c.unexpected(t)
		return false
	}
	return c.useRulesFor(t, inTable)
}

// https://html.spec.whatwg.org/#close-the-cell
func (c *HTMLTreeConstructor) closeCell(t *Token) {
	c.generateImpliedEndTags()
	if !c.isHTML(c.currentNode(), "td", "th") {
		c.unexpected(t)
	}
	c.popUntil("td", "th")
	c.clearActiveFormattingElementsToLastMarker()
	c.switchTo(inRow)
}

// https://html.spec.whatwg.org/#parsing-main-intd
func (c *HTMLTreeConstructor) inCellModeHandler(t *Token) bool {
	switch {
	case isEndTag(t, "td", "th"):
		if !c.elementInScope(tableScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		c.generateImpliedEndTags()
		if !c.isHTML(c.currentNode(), t.TagName) {
			c.unexpected(t)
		}
		c.popUntil(t.TagName)
		c.clearActiveFormattingElementsToLastMarker()
		c.switchTo(inRow)
		return false
	case isStartTag(t, "caption", "col", "colgroup", "tbody", "td", "tfoot", "th", "thead", "tr"):
		if !c.elementInScope(tableScope, "td", "th") {
			c.unexpected(t)
			return false
		}
		c.closeCell(t)
		return true
	case isEndTag(t, "body", "caption", "col", "colgroup", "html"):
		c.unexpected(t)
		return false
	case isEndTag(t, "table", "tbody", "tfoot", "thead", "tr"):
		if !c.elementInScope(tableScope, t.TagName) {
			c.unexpected(t)
			return false
		}
		c.closeCell(t)
		return true
	}
	return c.useRulesFor(t, inBody)
}

// closeSelect pops up to the open select. It reports false when there is
// none in select scope.
func (c *HTMLTreeConstructor) closeSelect() bool {
	if !c.elementInScope(selectScope, "select") {
		return false
	}
	c.popUntil("select")
	c.resetInsertionMode()
	return true
}

// https://html.spec.whatwg.org/#parsing-main-inselect
func (c *HTMLTreeConstructor) inSelectModeHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		if t.Data == "\x00" {
			c.parseError(errUnexpectedNullCharacter, t)
			return false
		}
		c.insertCharacter(t.Data)
		return false
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
		case "option":
			if c.isHTML(c.currentNode(), "option") {
				c.stackOfOpenElements.pop()
			}
			c.insertHTMLElementForToken(t)
			return false
		case "optgroup", "hr":
			if c.isHTML(c.currentNode(), "option") {
				c.stackOfOpenElements.pop()
			}
			if c.isHTML(c.currentNode(), "optgroup") {
				c.stackOfOpenElements.pop()
			}
			if t.TagName == "hr" {
				c.insertVoidElement(t)
			} else {
				c.insertHTMLElementForToken(t)
			}
			return false
		case "select":
			c.unexpected(t)
			c.closeSelect()
			return false
		case "input", "keygen", "textarea":
			c.unexpected(t)
			return c.closeSelect()
		case "script", "template":
			return c.useRulesFor(t, inHead)
		}
	case EndTagToken:
		switch t.TagName {
		case "optgroup":
			n := len(c.stackOfOpenElements)
			if c.isHTML(c.currentNode(), "option") && n > 1 && c.isHTML(c.stackOfOpenElements[n-2], "optgroup") {
				c.stackOfOpenElements.pop()
			}
			if c.isHTML(c.currentNode(), "optgroup") {
				c.stackOfOpenElements.pop()
			} else {
				c.unexpected(t)
			}
			return false
		case "option":
			if c.isHTML(c.currentNode(), "option") {
				c.stackOfOpenElements.pop()
			} else {
				c.unexpected(t)
			}
			return false
		case "select":
			if !c.closeSelect() {
				c.unexpected(t)
			}
			return false
		case "template":
			return c.useRulesFor(t, inHead)
		}
	case EndOfFileToken:
		return c.useRulesFor(t, inBody)
	}
	c.unexpected(t)
	return false
}

// https://html.spec.whatwg.org/#parsing-main-inselectintable
func (c *HTMLTreeConstructor) inSelectInTableModeHandler(t *Token) bool {
	tableTags := []string{"caption", "table", "tbody", "tfoot", "thead", "tr", "td", "th"}
	switch {
	case isStartTag(t, tableTags...):
		c.unexpected(t)
		c.popUntil("select")
		c.resetInsertionMode()
		return true
	case isEndTag(t, tableTags...):
		c.unexpected(t)
		if !c.elementInScope(tableScope, t.TagName) {
			return false
		}
		c.popUntil("select")
		c.resetInsertionMode()
		return true
	}
	return c.useRulesFor(t, inSelect)
}
