package parser

import "github.com/gosub-io/gosub-engine/parser/dom"

// adoptionAgencyAlgorithm handles end tags of formatting elements that are
// misnested with other elements, e.g. "<b><p>x</b>y". It returns true when
// the token has to be treated like any other end tag instead.
// https://html.spec.whatwg.org/#adoption-agency-algorithm
func (c *HTMLTreeConstructor) adoptionAgencyAlgorithm(t *Token) bool {
	subject := t.TagName
	cur := c.currentNode()
	if c.isHTML(cur, subject) && !c.activeFormattingElements.contains(cur) {
		c.stackOfOpenElements.pop()
		return false
	}

	for outer := 0; outer < 8; outer++ {
		formattingElement, afeIndex := c.formattingElementAfterLastMarker(subject)
		if formattingElement == dom.NoNode {
			return true
		}

		stackIndex := c.stackOfOpenElements.index(formattingElement)
		if stackIndex == -1 {
			c.parseError(errMisnestedFormattingElement, t)
			c.activeFormattingElements.removeAt(afeIndex)
			return false
		}
		if !c.nodeInScope(formattingElement) {
			c.parseError(errMisnestedFormattingElement, t)
			return false
		}
		if formattingElement != c.currentNode() {
			c.parseError(errMisnestedFormattingElement, t)
		}

		// The furthest block is the topmost special element below the
		// formatting element.
		furthestBlock, furthestIndex := dom.NoNode, -1
		for i := stackIndex + 1; i < len(c.stackOfOpenElements); i++ {
			if c.isSpecial(c.stackOfOpenElements[i]) {
				furthestBlock, furthestIndex = c.stackOfOpenElements[i], i
				break
			}
		}
		if furthestBlock == dom.NoNode {
			c.popUntilNode(formattingElement)
			c.activeFormattingElements.remove(formattingElement)
			return false
		}

		commonAncestor := c.stackOfOpenElements[stackIndex-1]
		bookmark := afeIndex
		lastNode := furthestBlock
		nodeIndex := furthestIndex
		for inner := 1; ; inner++ {
			// Removed nodes leave the one above them at nodeIndex-1 too.
			nodeIndex--
			node := c.stackOfOpenElements[nodeIndex]
			if node == formattingElement {
				break
			}
			if inner > 3 {
				if i := c.activeFormattingElements.index(node); i != -1 {
					c.activeFormattingElements.removeAt(i)
					if i < bookmark {
						bookmark--
					}
				}
			}
			entry := c.activeFormattingElements.index(node)
			if entry == -1 {
				c.stackOfOpenElements.removeAt(nodeIndex)
				continue
			}

			clone := c.clone(node)
			c.activeFormattingElements[entry] = clone
			c.stackOfOpenElements[nodeIndex] = clone
			if lastNode == furthestBlock {
				bookmark = entry + 1
			}
			c.must(c.doc.AppendChild(clone, lastNode))
			lastNode = clone
		}

		parent, before := c.appropriatePlaceForInsertion(commonAncestor)
		c.must(c.doc.InsertBefore(parent, lastNode, before))

		clone := c.clone(formattingElement)
		c.must(c.doc.ReparentChildren(clone, furthestBlock))
		c.must(c.doc.AppendChild(furthestBlock, clone))

		if i := c.activeFormattingElements.index(formattingElement); i != -1 {
			c.activeFormattingElements.removeAt(i)
			if i < bookmark {
				bookmark--
			}
		}
		c.activeFormattingElements.insert(bookmark, clone)

		c.stackOfOpenElements.remove(formattingElement)
		c.stackOfOpenElements.insert(c.stackOfOpenElements.index(furthestBlock)+1, clone)
	}
	return false
}
