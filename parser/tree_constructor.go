package parser

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/atom"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

type insertionMode uint8

const (
	initial insertionMode = iota
	beforeHTML
	beforeHead
	inHead
	inHeadNoScript
	afterHead
	inBody
	text
	inTable
	inTableText
	inCaption
	inColumnGroup
	inTableBody
	inRow
	inCell
	inSelect
	inSelectInTable
	inTemplate
	afterBody
	inFrameset
	afterFrameset
	afterAfterBody
	afterAfterFrameset
)

var insertionModeNames = [...]string{
	initial:            "initial",
	beforeHTML:         "before html",
	beforeHead:         "before head",
	inHead:             "in head",
	inHeadNoScript:     "in head noscript",
	afterHead:          "after head",
	inBody:             "in body",
	text:               "text",
	inTable:            "in table",
	inTableText:        "in table text",
	inCaption:          "in caption",
	inColumnGroup:      "in column group",
	inTableBody:        "in table body",
	inRow:              "in row",
	inCell:             "in cell",
	inSelect:           "in select",
	inSelectInTable:    "in select in table",
	inTemplate:         "in template",
	afterBody:          "after body",
	inFrameset:         "in frameset",
	afterFrameset:      "after frameset",
	afterAfterBody:     "after after body",
	afterAfterFrameset: "after after frameset",
}

func (m insertionMode) String() string {
	if int(m) < len(insertionModeNames) {
		return insertionModeNames[m]
	}
	return "insertionMode(" + strconv.Itoa(int(m)) + ")"
}

// treeConstructionModeHandler processes a token in one insertion mode and
// reports whether the token has to be reprocessed.
type treeConstructionModeHandler func(t *Token) bool

// HTMLTreeConstructor holds the state for various state of the tree construction phase.
// https://html.spec.whatwg.org/#tree-construction
type HTMLTreeConstructor struct {
	doc    *dom.Document
	errs   *ErrorLog
	logger logrus.FieldLogger
	debug  bool

	mode, originalInsertionMode   insertionMode
	stackOfOpenElements           nodeStack
	activeFormattingElements      nodeStack
	stackOfTemplateInsertionModes []insertionMode
	headElementPointer            dom.NodeID
	formElementPointer            dom.NodeID
	framesetOK                    bool
	fosterParenting               bool
	scriptingEnabled              bool
	iframeSrcdoc                  bool

	// pendingTableCharacters collects character tokens in the in table text
	// insertion mode.
	pendingTableCharacters []*Token
	// context is the context element of the fragment parsing algorithm.
	context dom.NodeID

	selfClosingAcknowledged bool
	ignoreNextLF            bool
	nextTokenizerState      *TokenizerState
	done                    bool
	// err is the first tree mutation that failed.
	err error
}

// NewHTMLTreeConstructor creates a tree constructor building into doc and
// reporting parse errors to errs.
func NewHTMLTreeConstructor(doc *dom.Document, errs *ErrorLog, opts ...Option) *HTMLTreeConstructor {
	o := newOptions(opts)
	if errs == nil {
		errs = NewErrorLog(o.logger)
	}
	return &HTMLTreeConstructor{
		doc:                doc,
		errs:               errs,
		logger:             o.logger,
		debug:              levelEnabled(o.logger, logrus.DebugLevel),
		headElementPointer: dom.NoNode,
		formElementPointer: dom.NoNode,
		framesetOK:         true,
		scriptingEnabled:   o.scripting,
		iframeSrcdoc:       o.iframeSrcdoc,
		context:            dom.NoNode,
	}
}

// Document is the document under construction.
func (c *HTMLTreeConstructor) Document() *dom.Document {
	return c.doc
}

// Done reports whether the end-of-file token was processed.
func (c *HTMLTreeConstructor) Done() bool {
	return c.done
}

// Err returns the first tree mutation that failed. Once it is set no more
// tokens are processed.
func (c *HTMLTreeConstructor) Err() error {
	return c.err
}

func (c *HTMLTreeConstructor) handlerFor(mode insertionMode) treeConstructionModeHandler {
	switch mode {
	case initial:
		return c.initialModeHandler
	case beforeHTML:
		return c.beforeHTMLModeHandler
	case beforeHead:
		return c.beforeHeadModeHandler
	case inHead:
		return c.inHeadModeHandler
	case inHeadNoScript:
		return c.inHeadNoScriptModeHandler
	case afterHead:
		return c.afterHeadModeHandler
	case inBody:
		return c.inBodyModeHandler
	case text:
		return c.textModeHandler
	case inTable:
		return c.inTableModeHandler
	case inTableText:
		return c.inTableTextModeHandler
	case inCaption:
		return c.inCaptionModeHandler
	case inColumnGroup:
		return c.inColumnGroupModeHandler
	case inTableBody:
		return c.inTableBodyModeHandler
	case inRow:
		return c.inRowModeHandler
	case inCell:
		return c.inCellModeHandler
	case inSelect:
		return c.inSelectModeHandler
	case inSelectInTable:
		return c.inSelectInTableModeHandler
	case inTemplate:
		return c.inTemplateModeHandler
	case afterBody:
		return c.afterBodyModeHandler
	case inFrameset:
		return c.inFramesetModeHandler
	case afterFrameset:
		return c.afterFramesetModeHandler
	case afterAfterBody:
		return c.afterAfterBodyModeHandler
	case afterAfterFrameset:
		return c.afterAfterFramesetModeHandler
	}
	panic("tree constructor: unknown insertion mode " + mode.String())
}

// useRulesFor processes t with the rules of mode without switching to it.
func (c *HTMLTreeConstructor) useRulesFor(t *Token, mode insertionMode) bool {
	return c.handlerFor(mode)(t)
}

func (c *HTMLTreeConstructor) switchTo(mode insertionMode) {
	if c.debug && mode != c.mode {
		c.logger.WithFields(logrus.Fields{
			"from": c.mode.String(),
			"mode": mode.String(),
		}).Debug("[TREE] switching insertion mode")
	}
	c.mode = mode
}

func (c *HTMLTreeConstructor) parseError(kind ErrorKind, t *Token) {
	c.errs.Add(TreeConstructionError, kind, t.Location)
}

// must records a failed tree mutation. Mutations never fail because of the
// input, only when the document is misused, e.g. parsed into during a Walk.
func (c *HTMLTreeConstructor) must(err error) {
	if err != nil && c.err == nil {
		c.err = err
		c.logger.WithError(err).Error("[TREE] tree mutation failed")
	}
}

func (c *HTMLTreeConstructor) clone(id dom.NodeID) dom.NodeID {
	n, err := c.doc.CloneNode(id)
	c.must(err)
	return n
}

// switchTokenizer asks the tokenizer to continue in state s.
func (c *HTMLTreeConstructor) switchTokenizer(s TokenizerState) {
	c.nextTokenizerState = &s
}

// adjustedCurrentNode is the context element when parsing a fragment with
// only the root on the stack, the current node otherwise.
// https://html.spec.whatwg.org/#adjusted-current-node
func (c *HTMLTreeConstructor) adjustedCurrentNode() dom.NodeID {
	if c.context != dom.NoNode && len(c.stackOfOpenElements) == 1 {
		return c.context
	}
	return c.stackOfOpenElements.top()
}

// useHTMLRules is the tree construction dispatcher: it decides between the
// current insertion mode and the rules for foreign content.
// https://html.spec.whatwg.org/#tree-construction-dispatcher
func (c *HTMLTreeConstructor) useHTMLRules(t *Token) bool {
	if len(c.stackOfOpenElements) == 0 || t.Type == EndOfFileToken {
		return true
	}
	n := c.adjustedCurrentNode()
	if c.doc.Namespace(n) == dom.Htmlns {
		return true
	}
	if c.isMathMLTextIntegrationPoint(n) {
		if t.Type == CharacterToken {
			return true
		}
		if t.Type == StartTagToken && t.TagName != "mglyph" && t.TagName != "malignmark" {
			return true
		}
	}
	if c.doc.Namespace(n) == dom.Mathmlns && c.doc.Name(n) == "annotation-xml" &&
		t.Type == StartTagToken && t.DataAtom == atom.Svg {
		return true
	}
	if c.isHTMLIntegrationPoint(n) && (t.Type == StartTagToken || t.Type == CharacterToken) {
		return true
	}
	return false
}

func (c *HTMLTreeConstructor) dispatch(t *Token) bool {
	if c.useHTMLRules(t) {
		return c.handlerFor(c.mode)(t)
	}
	return c.foreignContentHandler(t)
}

// ProcessToken runs t through the tree construction stage and returns what
// the tokenizer has to know before it produces the next token.
func (c *HTMLTreeConstructor) ProcessToken(t *Token) *Progress {
	c.nextTokenizerState = nil
	skip := c.ignoreNextLF && t.Type == CharacterToken && t.Data == "\n"
	c.ignoreNextLF = false

	if !skip && !c.done && c.err == nil {
		if c.debug && t.Type != CharacterToken {
			c.logger.WithFields(logrus.Fields{
				"mode":  c.mode.String(),
				"token": t.String(),
			}).Debug("[TREE] processing token")
		}
		c.selfClosingAcknowledged = false
		for c.dispatch(t) && c.err == nil {
		}
		if t.Type == StartTagToken && t.SelfClosing && !c.selfClosingAcknowledged {
			c.parseError(errNonVoidHTMLElementStartTagWithTrailingSolidus, t)
		}
		if t.Type == EndOfFileToken {
			c.stopParsing()
		}
	}

	adjusted := c.adjustedCurrentNode()
	return MakeProgress(c.nextTokenizerState, adjusted != dom.NoNode && c.doc.Namespace(adjusted) != dom.Htmlns)
}

// stopParsing pops everything off the stack of open elements.
// https://html.spec.whatwg.org/#stop-parsing
func (c *HTMLTreeConstructor) stopParsing() {
	c.stackOfOpenElements = c.stackOfOpenElements[:0]
	c.activeFormattingElements = c.activeFormattingElements[:0]
	c.done = true
}
