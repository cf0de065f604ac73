package parser

import "strconv"

// TokenizerState is one of the states of the tokenizer state machine.
// https://html.spec.whatwg.org/#tokenization
type TokenizerState uint8

const (
	dataState TokenizerState = iota
	rcDataState
	rawTextState
	scriptDataState
	plaintextState
	tagOpenState
	endTagOpenState
	tagNameState
	rcDataLessThanSignState
	rcDataEndTagOpenState
	rcDataEndTagNameState
	rawTextLessThanSignState
	rawTextEndTagOpenState
	rawTextEndTagNameState
	scriptDataLessThanSignState
	scriptDataEndTagOpenState
	scriptDataEndTagNameState
	scriptDataEscapeStartState
	scriptDataEscapeStartDashState
	scriptDataEscapedState
	scriptDataEscapedDashState
	scriptDataEscapedDashDashState
	scriptDataEscapedLessThanSignState
	scriptDataEscapedEndTagOpenState
	scriptDataEscapedEndTagNameState
	scriptDataDoubleEscapeStartState
	scriptDataDoubleEscapedState
	scriptDataDoubleEscapedDashState
	scriptDataDoubleEscapedDashDashState
	scriptDataDoubleEscapedLessThanSignState
	scriptDataDoubleEscapeEndState
	beforeAttributeNameState
	attributeNameState
	afterAttributeNameState
	beforeAttributeValueState
	attributeValueDoubleQuotedState
	attributeValueSingleQuotedState
	attributeValueUnquotedState
	afterAttributeValueQuotedState
	selfClosingStartTagState
	bogusCommentState
	markupDeclarationOpenState
	commentStartState
	commentStartDashState
	commentState
	commentLessThanSignState
	commentLessThanSignBangState
	commentLessThanSignBangDashState
	commentLessThanSignBangDashDashState
	commentEndDashState
	commentEndState
	commentEndBangState
	doctypeState
	beforeDoctypeNameState
	doctypeNameState
	afterDoctypeNameState
	afterDoctypePublicKeywordState
	beforeDoctypePublicIdentifierState
	doctypePublicIdentifierDoubleQuotedState
	doctypePublicIdentifierSingleQuotedState
	afterDoctypePublicIdentifierState
	betweenDoctypePublicAndSystemIdentifiersState
	afterDoctypeSystemKeywordState
	beforeDoctypeSystemIdentifierState
	doctypeSystemIdentifierDoubleQuotedState
	doctypeSystemIdentifierSingleQuotedState
	afterDoctypeSystemIdentifierState
	bogusDoctypeState
	cdataSectionState
	cdataSectionBracketState
	cdataSectionEndState
	characterReferenceState
	namedCharacterReferenceState
	ambiguousAmpersandState
	numericCharacterReferenceState
	hexadecimalCharacterReferenceStartState
	decimalCharacterReferenceStartState
	hexadecimalCharacterReferenceState
	decimalCharacterReferenceState
	numericCharacterReferenceEndState
)

// The states the tree constructor switches the tokenizer to, and the start
// states used by fragment parsing and the html5lib tokenizer tests.
const (
	DataState         = dataState
	RCDATAState       = rcDataState
	RawTextState      = rawTextState
	ScriptDataState   = scriptDataState
	PlaintextState    = plaintextState
	CDATASectionState = cdataSectionState
)

var tokenizerStateNames = [...]string{
	dataState:                                     "Data state",
	rcDataState:                                   "RCDATA state",
	rawTextState:                                  "RAWTEXT state",
	scriptDataState:                               "Script data state",
	plaintextState:                                "PLAINTEXT state",
	tagOpenState:                                  "Tag open state",
	endTagOpenState:                               "End tag open state",
	tagNameState:                                  "Tag name state",
	rcDataLessThanSignState:                       "RCDATA less-than sign state",
	rcDataEndTagOpenState:                         "RCDATA end tag open state",
	rcDataEndTagNameState:                         "RCDATA end tag name state",
	rawTextLessThanSignState:                      "RAWTEXT less-than sign state",
	rawTextEndTagOpenState:                        "RAWTEXT end tag open state",
	rawTextEndTagNameState:                        "RAWTEXT end tag name state",
	scriptDataLessThanSignState:                   "Script data less-than sign state",
	scriptDataEndTagOpenState:                     "Script data end tag open state",
	scriptDataEndTagNameState:                     "Script data end tag name state",
	scriptDataEscapeStartState:                    "Script data escape start state",
	scriptDataEscapeStartDashState:                "Script data escape start dash state",
	scriptDataEscapedState:                        "Script data escaped state",
	scriptDataEscapedDashState:                    "Script data escaped dash state",
	scriptDataEscapedDashDashState:                "Script data escaped dash dash state",
	scriptDataEscapedLessThanSignState:            "Script data escaped less-than sign state",
	scriptDataEscapedEndTagOpenState:              "Script data escaped end tag open state",
	scriptDataEscapedEndTagNameState:              "Script data escaped end tag name state",
	scriptDataDoubleEscapeStartState:              "Script data double escape start state",
	scriptDataDoubleEscapedState:                  "Script data double escaped state",
	scriptDataDoubleEscapedDashState:              "Script data double escaped dash state",
	scriptDataDoubleEscapedDashDashState:          "Script data double escaped dash dash state",
	scriptDataDoubleEscapedLessThanSignState:      "Script data double escaped less-than sign state",
	scriptDataDoubleEscapeEndState:                "Script data double escape end state",
	beforeAttributeNameState:                      "Before attribute name state",
	attributeNameState:                            "Attribute name state",
	afterAttributeNameState:                       "After attribute name state",
	beforeAttributeValueState:                     "Before attribute value state",
	attributeValueDoubleQuotedState:               "Attribute value (double-quoted) state",
	attributeValueSingleQuotedState:               "Attribute value (single-quoted) state",
	attributeValueUnquotedState:                   "Attribute value (unquoted) state",
	afterAttributeValueQuotedState:                "After attribute value (quoted) state",
	selfClosingStartTagState:                      "Self-closing start tag state",
	bogusCommentState:                             "Bogus comment state",
	markupDeclarationOpenState:                    "Markup declaration open state",
	commentStartState:                             "Comment start state",
	commentStartDashState:                         "Comment start dash state",
	commentState:                                  "Comment state",
	commentLessThanSignState:                      "Comment less-than sign state",
	commentLessThanSignBangState:                  "Comment less-than sign bang state",
	commentLessThanSignBangDashState:              "Comment less-than sign bang dash state",
	commentLessThanSignBangDashDashState:          "Comment less-than sign bang dash dash state",
	commentEndDashState:                           "Comment end dash state",
	commentEndState:                               "Comment end state",
	commentEndBangState:                           "Comment end bang state",
	doctypeState:                                  "DOCTYPE state",
	beforeDoctypeNameState:                        "Before DOCTYPE name state",
	doctypeNameState:                              "DOCTYPE name state",
	afterDoctypeNameState:                         "After DOCTYPE name state",
	afterDoctypePublicKeywordState:                "After DOCTYPE public keyword state",
	beforeDoctypePublicIdentifierState:            "Before DOCTYPE public identifier state",
	doctypePublicIdentifierDoubleQuotedState:      "DOCTYPE public identifier (double-quoted) state",
	doctypePublicIdentifierSingleQuotedState:      "DOCTYPE public identifier (single-quoted) state",
	afterDoctypePublicIdentifierState:             "After DOCTYPE public identifier state",
	betweenDoctypePublicAndSystemIdentifiersState: "Between DOCTYPE public and system identifiers state",
	afterDoctypeSystemKeywordState:                "After DOCTYPE system keyword state",
	beforeDoctypeSystemIdentifierState:            "Before DOCTYPE system identifier state",
	doctypeSystemIdentifierDoubleQuotedState:      "DOCTYPE system identifier (double-quoted) state",
	doctypeSystemIdentifierSingleQuotedState:      "DOCTYPE system identifier (single-quoted) state",
	afterDoctypeSystemIdentifierState:             "After DOCTYPE system identifier state",
	bogusDoctypeState:                             "Bogus DOCTYPE state",
	cdataSectionState:                             "CDATA section state",
	cdataSectionBracketState:                      "CDATA section bracket state",
	cdataSectionEndState:                          "CDATA section end state",
	characterReferenceState:                       "Character reference state",
	namedCharacterReferenceState:                  "Named character reference state",
	ambiguousAmpersandState:                       "Ambiguous ampersand state",
	numericCharacterReferenceState:                "Numeric character reference state",
	hexadecimalCharacterReferenceStartState:       "Hexadecimal character reference start state",
	decimalCharacterReferenceStartState:           "Decimal character reference start state",
	hexadecimalCharacterReferenceState:            "Hexadecimal character reference state",
	decimalCharacterReferenceState:                "Decimal character reference state",
	numericCharacterReferenceEndState:             "Numeric character reference end state",
}

func (s TokenizerState) String() string {
	if int(s) < len(tokenizerStateNames) {
		return tokenizerStateNames[s]
	}
	return "TokenizerState(" + strconv.Itoa(int(s)) + ")"
}

// parserStateHandler consumes r, or handles the end of the input when eof is
// set. It returns the next state and whether r has to be reconsumed in it.
type parserStateHandler func(r rune, eof bool) (bool, TokenizerState)

func (p *HTMLTokenizer) stateToParser(state TokenizerState) parserStateHandler {
	switch state {
	case dataState:
		return p.dataStateParser
	case rcDataState:
		return p.rcDataStateParser
	case rawTextState:
		return p.rawTextStateParser
	case scriptDataState:
		return p.scriptDataStateParser
	case plaintextState:
		return p.plaintextStateParser
	case tagOpenState:
		return p.tagOpenStateParser
	case endTagOpenState:
		return p.endTagOpenStateParser
	case tagNameState:
		return p.tagNameStateParser
	case rcDataLessThanSignState:
		return p.rcDataLessThanSignStateParser
	case rcDataEndTagOpenState:
		return p.rcDataEndTagOpenStateParser
	case rcDataEndTagNameState:
		return p.rcDataEndTagNameStateParser
	case rawTextLessThanSignState:
		return p.rawTextLessThanSignStateParser
	case rawTextEndTagOpenState:
		return p.rawTextEndTagOpenStateParser
	case rawTextEndTagNameState:
		return p.rawTextEndTagNameStateParser
	case scriptDataLessThanSignState:
		return p.scriptDataLessThanSignStateParser
	case scriptDataEndTagOpenState:
		return p.scriptDataEndTagOpenStateParser
	case scriptDataEndTagNameState:
		return p.scriptDataEndTagNameStateParser
	case scriptDataEscapeStartState:
		return p.scriptDataEscapeStartStateParser
	case scriptDataEscapeStartDashState:
		return p.scriptDataEscapeStartDashStateParser
	case scriptDataEscapedState:
		return p.scriptDataEscapedStateParser
	case scriptDataEscapedDashState:
		return p.scriptDataEscapedDashStateParser
	case scriptDataEscapedDashDashState:
		return p.scriptDataEscapedDashDashStateParser
	case scriptDataEscapedLessThanSignState:
		return p.scriptDataEscapedLessThanSignStateParser
	case scriptDataEscapedEndTagOpenState:
		return p.scriptDataEscapedEndTagOpenStateParser
	case scriptDataEscapedEndTagNameState:
		return p.scriptDataEscapedEndTagNameStateParser
	case scriptDataDoubleEscapeStartState:
		return p.scriptDataDoubleEscapeStartStateParser
	case scriptDataDoubleEscapedState:
		return p.scriptDataDoubleEscapedStateParser
	case scriptDataDoubleEscapedDashState:
		return p.scriptDataDoubleEscapedDashStateParser
	case scriptDataDoubleEscapedDashDashState:
		return p.scriptDataDoubleEscapedDashDashStateParser
	case scriptDataDoubleEscapedLessThanSignState:
		return p.scriptDataDoubleEscapedLessThanSignStateParser
	case scriptDataDoubleEscapeEndState:
		return p.scriptDataDoubleEscapeEndStateParser
	case beforeAttributeNameState:
		return p.beforeAttributeNameStateParser
	case attributeNameState:
		return p.attributeNameStateParser
	case afterAttributeNameState:
		return p.afterAttributeNameStateParser
	case beforeAttributeValueState:
		return p.beforeAttributeValueStateParser
	case attributeValueDoubleQuotedState:
		return p.attributeValueDoubleQuotedStateParser
	case attributeValueSingleQuotedState:
		return p.attributeValueSingleQuotedStateParser
	case attributeValueUnquotedState:
		return p.attributeValueUnquotedStateParser
	case afterAttributeValueQuotedState:
		return p.afterAttributeValueQuotedStateParser
	case selfClosingStartTagState:
		return p.selfClosingStartTagStateParser
	case bogusCommentState:
		return p.bogusCommentStateParser
	case markupDeclarationOpenState:
		return p.markupDeclarationOpenStateParser
	case commentStartState:
		return p.commentStartStateParser
	case commentStartDashState:
		return p.commentStartDashStateParser
	case commentState:
		return p.commentStateParser
	case commentLessThanSignState:
		return p.commentLessThanSignStateParser
	case commentLessThanSignBangState:
		return p.commentLessThanSignBangStateParser
	case commentLessThanSignBangDashState:
		return p.commentLessThanSignBangDashStateParser
	case commentLessThanSignBangDashDashState:
		return p.commentLessThanSignBangDashDashStateParser
	case commentEndDashState:
		return p.commentEndDashStateParser
	case commentEndState:
		return p.commentEndStateParser
	case commentEndBangState:
		return p.commentEndBangStateParser
	case doctypeState:
		return p.doctypeStateParser
	case beforeDoctypeNameState:
		return p.beforeDoctypeNameStateParser
	case doctypeNameState:
		return p.doctypeNameStateParser
	case afterDoctypeNameState:
		return p.afterDoctypeNameStateParser
	case afterDoctypePublicKeywordState:
		return p.afterDoctypePublicKeywordStateParser
	case beforeDoctypePublicIdentifierState:
		return p.beforeDoctypePublicIdentifierStateParser
	case doctypePublicIdentifierDoubleQuotedState:
		return p.doctypePublicIdentifierDoubleQuotedStateParser
	case doctypePublicIdentifierSingleQuotedState:
		return p.doctypePublicIdentifierSingleQuotedStateParser
	case afterDoctypePublicIdentifierState:
		return p.afterDoctypePublicIdentifierStateParser
	case betweenDoctypePublicAndSystemIdentifiersState:
		return p.betweenDoctypePublicAndSystemIdentifiersStateParser
	case afterDoctypeSystemKeywordState:
		return p.afterDoctypeSystemKeywordStateParser
	case beforeDoctypeSystemIdentifierState:
		return p.beforeDoctypeSystemIdentifierStateParser
	case doctypeSystemIdentifierDoubleQuotedState:
		return p.doctypeSystemIdentifierDoubleQuotedStateParser
	case doctypeSystemIdentifierSingleQuotedState:
		return p.doctypeSystemIdentifierSingleQuotedStateParser
	case afterDoctypeSystemIdentifierState:
		return p.afterDoctypeSystemIdentifierStateParser
	case bogusDoctypeState:
		return p.bogusDoctypeStateParser
	case cdataSectionState:
		return p.cdataSectionStateParser
	case cdataSectionBracketState:
		return p.cdataSectionBracketStateParser
	case cdataSectionEndState:
		return p.cdataSectionEndStateParser
	case characterReferenceState:
		return p.characterReferenceStateParser
	case namedCharacterReferenceState:
		return p.namedCharacterReferenceStateParser
	case ambiguousAmpersandState:
		return p.ambiguousAmpersandStateParser
	case numericCharacterReferenceState:
		return p.numericCharacterReferenceStateParser
	case hexadecimalCharacterReferenceStartState:
		return p.hexadecimalCharacterReferenceStartStateParser
	case decimalCharacterReferenceStartState:
		return p.decimalCharacterReferenceStartStateParser
	case hexadecimalCharacterReferenceState:
		return p.hexadecimalCharacterReferenceStateParser
	case decimalCharacterReferenceState:
		return p.decimalCharacterReferenceStateParser
	case numericCharacterReferenceEndState:
		return p.numericCharacterReferenceEndStateParser
	}
	panic("tokenizer: unknown state " + state.String())
}
