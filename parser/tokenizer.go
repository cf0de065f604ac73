package parser

import (
	"github.com/sirupsen/logrus"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
)

// HTMLTokenizer holds state for the various state of the tokenizer.
// https://html.spec.whatwg.org/#tokenization
type HTMLTokenizer struct {
	done                      bool
	returnState, currentState TokenizerState
	stream                    *bytestream.Stream
	errs                      *ErrorLog
	logger                    logrus.FieldLogger
	trace                     bool
	emittedTokens             []Token
	tokenBuilder              *TokenBuilder
	lastEmittedStartTagName   string
	allowCDATA                bool
	// tagStart is where the '<' of the tag being tokenized was read.
	tagStart bytestream.Location
	// needMore is set by a state that has to look further ahead than the
	// buffered input allows.
	needMore bool
}

// NewHTMLTokenizer creates a tokenizer reading from s and reporting parse
// errors to errs.
func NewHTMLTokenizer(s *bytestream.Stream, errs *ErrorLog) *HTMLTokenizer {
	if errs == nil {
		errs = NewErrorLog(nil)
	}
	return &HTMLTokenizer{
		stream:       s,
		errs:         errs,
		logger:       errs.logger,
		trace:        levelEnabled(errs.logger, logrus.TraceLevel),
		tokenBuilder: newTokenBuilder(),
		currentState: dataState,
	}
}

// ForceState switches the tokenizer to s before the next character is read.
// The tree constructor uses it for the content models of elements like
// <title>, <style>, <script> and <plaintext>.
func (p *HTMLTokenizer) ForceState(s TokenizerState) {
	p.currentState = s
}

// SetLastStartTag sets the name an end tag must have to be appropriate.
func (p *HTMLTokenizer) SetLastStartTag(name string) {
	p.lastEmittedStartTagName = name
}

// Done reports whether the end-of-file token was handed out.
func (p *HTMLTokenizer) Done() bool {
	return p.done
}

func isNonCharacter(code int) bool {
	if code >= 0xFDD0 && code <= 0xFDEF {
		return true
	}
	// The last two code points of every plane.
	return code <= 0x10FFFF && code&0xFFFE == 0xFFFE
}

func isC0Control(code int) bool {
	return code >= 0x00 && code <= 0x1F
}

func isControl(code int) bool {
	return isC0Control(code) || (code >= 0x7F && code <= 0x9F)
}

func isASCIIWhitespace(code int) bool {
	switch code {
	case 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	default:
		return false
	}
}

func isSurrogate(code int) bool {
	return code >= 0xD800 && code <= 0xDFFF
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }

func isASCIIAlpha(r rune) bool { return isASCIIUpper(r) || isASCIILower(r) }

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func isASCIIAlphanumeric(r rune) bool { return isASCIIAlpha(r) || isASCIIDigit(r) }

func isASCIIHexDigit(r rune) bool {
	return isASCIIDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func toASCIILower(r rune) rune {
	if isASCIIUpper(r) {
		return r + 0x20
	}
	return r
}

func wasConsumedByAttribute(returnState TokenizerState) bool {
	switch returnState {
	case attributeValueDoubleQuotedState, attributeValueSingleQuotedState, attributeValueUnquotedState:
		return true
	}
	return false
}

func (p *HTMLTokenizer) parseError(kind ErrorKind) {
	p.errs.Add(TokenizerError, kind, p.stream.Location())
}

func (p *HTMLTokenizer) flushCodePointsAsCharacterReference() {
	if wasConsumedByAttribute(p.returnState) {
		p.tokenBuilder.WriteAttributeValueString(p.tokenBuilder.TempBuffer())
		return
	}
	p.emitString(p.tokenBuilder.TempBuffer())
}

func (p *HTMLTokenizer) isApprEndTagToken() bool {
	return p.lastEmittedStartTagName != "" && p.lastEmittedStartTagName == p.tokenBuilder.Name()
}

func (p *HTMLTokenizer) emit(tokens ...Token) {
	for _, token := range tokens {
		switch token.Type {
		case EndTagToken:
			if len(token.Attributes) > 0 {
				p.parseError(errEndTagWithAttributes)
				token.Attributes = nil
			}
			if token.SelfClosing {
				p.parseError(errEndTagWithTrailingSolidus)
				token.SelfClosing = false
			}
		case StartTagToken:
			p.lastEmittedStartTagName = token.TagName
		}
		p.emittedTokens = append(p.emittedTokens, token)
	}
}

func (p *HTMLTokenizer) emitChar(r rune) {
	p.emit(p.tokenBuilder.CharacterToken(r, p.stream.Location()))
}

func (p *HTMLTokenizer) emitString(s string) {
	for _, r := range s {
		p.emitChar(r)
	}
}

func (p *HTMLTokenizer) emitEOF() {
	p.emit(p.tokenBuilder.EndOfFileToken(p.stream.Location()))
}

func (p *HTMLTokenizer) emitCurrentTag() TokenizerState {
	p.emit(p.tokenBuilder.TagToken())
	return dataState
}

func (p *HTMLTokenizer) dataStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '&':
		p.returnState = dataState
		return false, characterReferenceState
	case '<':
		p.tagStart = p.stream.Location()
		return false, tagOpenState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar(r)
		return false, dataState
	default:
		p.emitChar(r)
		return false, dataState
	}
}

func (p *HTMLTokenizer) rcDataStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitEOF()
		return false, rcDataState
	}
	switch r {
	case '&':
		p.returnState = rcDataState
		return false, characterReferenceState
	case '<':
		p.tagStart = p.stream.Location()
		return false, rcDataLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, rcDataState
	default:
		p.emitChar(r)
		return false, rcDataState
	}
}

func (p *HTMLTokenizer) rawTextStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitEOF()
		return false, rawTextState
	}
	switch r {
	case '<':
		p.tagStart = p.stream.Location()
		return false, rawTextLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, rawTextState
	default:
		p.emitChar(r)
		return false, rawTextState
	}
}

func (p *HTMLTokenizer) scriptDataStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitEOF()
		return false, scriptDataState
	}
	switch r {
	case '<':
		p.tagStart = p.stream.Location()
		return false, scriptDataLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, scriptDataState
	default:
		p.emitChar(r)
		return false, scriptDataState
	}
}

func (p *HTMLTokenizer) plaintextStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitEOF()
		return false, plaintextState
	}
	switch r {
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, plaintextState
}

func (p *HTMLTokenizer) tagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFBeforeTagName)
		p.emitChar('<')
		p.emitEOF()
		return false, dataState
	}
	switch {
	case r == '!':
		return false, markupDeclarationOpenState
	case r == '/':
		return false, endTagOpenState
	case isASCIIAlpha(r):
		p.tokenBuilder.NewTag(startTag, p.tagStart)
		return true, tagNameState
	case r == '?':
		p.parseError(errUnexpectedQuestionMarkInsteadOfTagName)
		p.tokenBuilder.NewToken(p.tagStart)
		return true, bogusCommentState
	default:
		p.parseError(errInvalidFirstCharacterOfTagName)
		p.emitChar('<')
		return true, dataState
	}
}

func (p *HTMLTokenizer) endTagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFBeforeTagName)
		p.emitString("</")
		p.emitEOF()
		return false, dataState
	}
	switch {
	case isASCIIAlpha(r):
		p.tokenBuilder.NewTag(endTag, p.tagStart)
		return true, tagNameState
	case r == '>':
		p.parseError(errMissingEndTagName)
		return false, dataState
	default:
		p.parseError(errInvalidFirstCharacterOfTagName)
		p.tokenBuilder.NewToken(p.tagStart)
		return true, bogusCommentState
	}
}

func (p *HTMLTokenizer) tagNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch {
	case r == '\t', r == '\n', r == '\f', r == ' ':
		return false, beforeAttributeNameState
	case r == '/':
		return false, selfClosingStartTagState
	case r == '>':
		return false, p.emitCurrentTag()
	case r == '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
	}
	return false, tagNameState
}

// lessThanSignStateParser is the shared body of the RCDATA and RAWTEXT
// less-than sign states.
func (p *HTMLTokenizer) lessThanSignStateParser(r rune, endTagOpen, content TokenizerState) (bool, TokenizerState) {
	if r == '/' {
		p.tokenBuilder.ResetTempBuffer()
		return false, endTagOpen
	}
	p.emitChar('<')
	return true, content
}

// contentEndTagOpenStateParser is the shared body of the RCDATA, RAWTEXT, script
// data and script data escaped end tag open states.
func (p *HTMLTokenizer) contentEndTagOpenStateParser(r rune, eof bool, endTagName, content TokenizerState) (bool, TokenizerState) {
	if !eof && isASCIIAlpha(r) {
		p.tokenBuilder.NewTag(endTag, p.tagStart)
		return true, endTagName
	}
	p.emitString("</")
	return true, content
}

// contentEndTagNameStateParser is the shared body of the RCDATA, RAWTEXT,
// script data and script data escaped end tag name states.
func (p *HTMLTokenizer) contentEndTagNameStateParser(r rune, eof bool, state, content TokenizerState) (bool, TokenizerState) {
	if !eof {
		switch {
		case r == '\t' || r == '\n' || r == '\f' || r == ' ':
			if p.isApprEndTagToken() {
				return false, beforeAttributeNameState
			}
		case r == '/':
			if p.isApprEndTagToken() {
				return false, selfClosingStartTagState
			}
		case r == '>':
			if p.isApprEndTagToken() {
				return false, p.emitCurrentTag()
			}
		case isASCIIAlpha(r):
			p.tokenBuilder.WriteName(toASCIILower(r))
			p.tokenBuilder.WriteTempBuffer(r)
			return false, state
		}
	}
	p.emitString("</")
	p.emitString(p.tokenBuilder.TempBuffer())
	return true, content
}

func (p *HTMLTokenizer) rcDataLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.lessThanSignStateParser(r, rcDataEndTagOpenState, rcDataState)
}

func (p *HTMLTokenizer) rcDataEndTagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagOpenStateParser(r, eof, rcDataEndTagNameState, rcDataState)
}

func (p *HTMLTokenizer) rcDataEndTagNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagNameStateParser(r, eof, rcDataEndTagNameState, rcDataState)
}

func (p *HTMLTokenizer) rawTextLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.lessThanSignStateParser(r, rawTextEndTagOpenState, rawTextState)
}

func (p *HTMLTokenizer) rawTextEndTagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagOpenStateParser(r, eof, rawTextEndTagNameState, rawTextState)
}

func (p *HTMLTokenizer) rawTextEndTagNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagNameStateParser(r, eof, rawTextEndTagNameState, rawTextState)
}

func (p *HTMLTokenizer) scriptDataLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && r == '/':
		p.tokenBuilder.ResetTempBuffer()
		return false, scriptDataEndTagOpenState
	case !eof && r == '!':
		p.emitString("<!")
		return false, scriptDataEscapeStartState
	}
	p.emitChar('<')
	return true, scriptDataState
}

func (p *HTMLTokenizer) scriptDataEndTagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagOpenStateParser(r, eof, scriptDataEndTagNameState, scriptDataState)
}

func (p *HTMLTokenizer) scriptDataEndTagNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagNameStateParser(r, eof, scriptDataEndTagNameState, scriptDataState)
}

func (p *HTMLTokenizer) scriptDataEscapeStartStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == '-' {
		p.emitChar('-')
		return false, scriptDataEscapeStartDashState
	}
	return true, scriptDataState
}

func (p *HTMLTokenizer) scriptDataEscapeStartDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == '-' {
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	}
	return true, scriptDataState
}

func (p *HTMLTokenizer) scriptDataEscapedStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashState
	case '<':
		p.tagStart = p.stream.Location()
		return false, scriptDataEscapedLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedDashState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	case '<':
		p.tagStart = p.stream.Location()
		return false, scriptDataEscapedLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedDashDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedDashDashState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	case '<':
		p.tagStart = p.stream.Location()
		return false, scriptDataEscapedLessThanSignState
	case '>':
		p.emitChar('>')
		return false, scriptDataState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && r == '/':
		p.tokenBuilder.ResetTempBuffer()
		return false, scriptDataEscapedEndTagOpenState
	case !eof && isASCIIAlpha(r):
		p.tokenBuilder.ResetTempBuffer()
		p.emitChar('<')
		return true, scriptDataDoubleEscapeStartState
	}
	p.emitChar('<')
	return true, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedEndTagOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagOpenStateParser(r, eof, scriptDataEscapedEndTagNameState, scriptDataEscapedState)
}

func (p *HTMLTokenizer) scriptDataEscapedEndTagNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.contentEndTagNameStateParser(r, eof, scriptDataEscapedEndTagNameState, scriptDataEscapedState)
}

// doubleEscapeStateParser is the shared body of the script data double
// escape start and end states, which only differ in where "script" leads.
func (p *HTMLTokenizer) doubleEscapeStateParser(r rune, eof bool, state, onScript, otherwise TokenizerState) (bool, TokenizerState) {
	if !eof {
		switch {
		case r == '\t' || r == '\n' || r == '\f' || r == ' ' || r == '/' || r == '>':
			p.emitChar(r)
			if p.tokenBuilder.TempBuffer() == "script" {
				return false, onScript
			}
			return false, otherwise
		case isASCIIAlpha(r):
			p.tokenBuilder.WriteTempBuffer(toASCIILower(r))
			p.emitChar(r)
			return false, state
		}
	}
	return true, otherwise
}

func (p *HTMLTokenizer) scriptDataDoubleEscapeStartStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doubleEscapeStateParser(r, eof, scriptDataDoubleEscapeStartState, scriptDataDoubleEscapedState, scriptDataEscapedState)
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedDashState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedDashDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedDashDashState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '>':
		p.emitChar('>')
		return false, scriptDataState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == '/' {
		p.tokenBuilder.ResetTempBuffer()
		p.emitChar('/')
		return false, scriptDataDoubleEscapeEndState
	}
	return true, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapeEndStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doubleEscapeStateParser(r, eof, scriptDataDoubleEscapeEndState, scriptDataEscapedState, scriptDataDoubleEscapedState)
}

func (p *HTMLTokenizer) beforeAttributeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return true, afterAttributeNameState
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeAttributeNameState
	case '/', '>':
		return true, afterAttributeNameState
	case '=':
		p.parseError(errUnexpectedEqualsSignBeforeAttributeName)
		p.tokenBuilder.StartAttribute()
		p.tokenBuilder.WriteAttributeName(r)
		return false, attributeNameState
	default:
		p.tokenBuilder.StartAttribute()
		return true, attributeNameState
	}
}

// leaveAttributeName runs the duplicate check due when the attribute name
// state is left.
func (p *HTMLTokenizer) leaveAttributeName() {
	if p.tokenBuilder.RemoveDuplicateAttributeName() {
		p.parseError(errDuplicateAttribute)
	}
}

func (p *HTMLTokenizer) attributeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.leaveAttributeName()
		return true, afterAttributeNameState
	}
	switch r {
	case '\t', '\n', '\f', ' ', '/', '>':
		p.leaveAttributeName()
		return true, afterAttributeNameState
	case '=':
		p.leaveAttributeName()
		return false, beforeAttributeValueState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeName('�')
	case '"', '\'', '<':
		p.parseError(errUnexpectedCharacterInAttributeName)
		p.tokenBuilder.WriteAttributeName(r)
	default:
		p.tokenBuilder.WriteAttributeName(toASCIILower(r))
	}
	return false, attributeNameState
}

func (p *HTMLTokenizer) afterAttributeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, afterAttributeNameState
	case '/':
		return false, selfClosingStartTagState
	case '=':
		return false, beforeAttributeValueState
	case '>':
		return false, p.emitCurrentTag()
	default:
		p.tokenBuilder.StartAttribute()
		return true, attributeNameState
	}
}

func (p *HTMLTokenizer) beforeAttributeValueStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return true, attributeValueUnquotedState
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeAttributeValueState
	case '"':
		return false, attributeValueDoubleQuotedState
	case '\'':
		return false, attributeValueSingleQuotedState
	case '>':
		p.parseError(errMissingAttributeValue)
		return false, p.emitCurrentTag()
	default:
		return true, attributeValueUnquotedState
	}
}

func (p *HTMLTokenizer) quotedAttributeValueStateParser(r rune, eof bool, quote rune, state TokenizerState) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case quote:
		return false, afterAttributeValueQuotedState
	case '&':
		p.returnState = state
		return false, characterReferenceState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeValue('�')
	default:
		p.tokenBuilder.WriteAttributeValue(r)
	}
	return false, state
}

func (p *HTMLTokenizer) attributeValueDoubleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.quotedAttributeValueStateParser(r, eof, '"', attributeValueDoubleQuotedState)
}

func (p *HTMLTokenizer) attributeValueSingleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.quotedAttributeValueStateParser(r, eof, '\'', attributeValueSingleQuotedState)
}

func (p *HTMLTokenizer) attributeValueUnquotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeAttributeNameState
	case '&':
		p.returnState = attributeValueUnquotedState
		return false, characterReferenceState
	case '>':
		return false, p.emitCurrentTag()
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeValue('�')
	case '"', '\'', '<', '=', '`':
		p.parseError(errUnexpectedCharacterInUnquotedAttributeValue)
		p.tokenBuilder.WriteAttributeValue(r)
	default:
		p.tokenBuilder.WriteAttributeValue(r)
	}
	return false, attributeValueUnquotedState
}

func (p *HTMLTokenizer) afterAttributeValueQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeAttributeNameState
	case '/':
		return false, selfClosingStartTagState
	case '>':
		return false, p.emitCurrentTag()
	default:
		p.parseError(errMissingWhitespaceBetweenAttributes)
		return true, beforeAttributeNameState
	}
}

func (p *HTMLTokenizer) selfClosingStartTagStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	if r == '>' {
		p.tokenBuilder.EnableSelfClosing()
		return false, p.emitCurrentTag()
	}
	p.parseError(errUnexpectedSolidusInTag)
	return true, beforeAttributeNameState
}

func (p *HTMLTokenizer) takeEmittedToken() *Token {
	if len(p.emittedTokens) > 0 {
		ret := p.emittedTokens[0]
		p.emittedTokens = p.emittedTokens[1:]
		if ret.Type == EndOfFileToken {
			p.done = true
		}
		return &ret
	}
	return nil
}

// checkpoint is everything a step of the state machine may change before it
// finds out that it has to wait for more input.
type checkpoint struct {
	mark                      bytestream.Mark
	returnState, currentState TokenizerState
	errs                      int
}

func (p *HTMLTokenizer) checkpoint() checkpoint {
	return checkpoint{
		mark:         p.stream.Mark(),
		returnState:  p.returnState,
		currentState: p.currentState,
		errs:         p.errs.Len(),
	}
}

func (p *HTMLTokenizer) rollback(cp checkpoint) {
	p.stream.Reset(cp.mark)
	p.returnState = cp.returnState
	p.currentState = cp.currentState
	p.errs.truncate(cp.errs)
	p.emittedTokens = p.emittedTokens[:0]
	p.needMore = false
}

// Token returns the next token. progress carries the tree constructor's
// instructions from the previous token and may be nil.
//
// When the stream runs out of buffered input before it is closed, Token
// returns ErrNeedMoreInput and can be called again once more bytes were fed.
func (p *HTMLTokenizer) Token(progress *Progress) (*Token, error) {
	if progress != nil {
		if progress.TokenizerState != nil {
			p.ForceState(*progress.TokenizerState)
		}
		p.allowCDATA = progress.AllowCDATA
	}

	// some states emit more than 1 token at a time and sometimes no tokens.
	// loop until at least 1 token is emitted and then take them.
	for {
		if token := p.takeEmittedToken(); token != nil {
			return token, nil
		}
		if p.done {
			eof := p.tokenBuilder.EndOfFileToken(p.stream.Location())
			return &eof, nil
		}

		cp := p.checkpoint()
		ch := p.stream.Read()
		var (
			r   rune
			eof bool
		)
		switch ch.Kind {
		case bytestream.StreamEmpty:
			return nil, ErrNeedMoreInput
		case bytestream.StreamEnd:
			eof = true
		case bytestream.Surrogate:
			p.parseError(errSurrogateInInputStream)
			r = '�'
		default:
			r = ch.Value
			if ch.Malformed {
				p.errs.Add(DecodeError, errInvalidByteSequence, p.stream.Location())
			}
			p.checkInputCharacter(r)
		}

		p.processRune(r, eof)
		if p.needMore {
			p.rollback(cp)
			return nil, ErrNeedMoreInput
		}
	}
}

// checkInputCharacter reports the characters the input stream must not
// contain. https://html.spec.whatwg.org/#preprocessing-the-input-stream
func (p *HTMLTokenizer) checkInputCharacter(r rune) {
	code := int(r)
	switch {
	case isNonCharacter(code):
		p.parseError(errNoncharacterInInputStream)
	case code != 0 && isControl(code) && !isASCIIWhitespace(code):
		p.parseError(errControlCharacterInInputStream)
	}
}

func (p *HTMLTokenizer) processRune(r rune, eof bool) {
	reconsume := true
	for reconsume && !p.needMore {
		prev := p.currentState
		reconsume, p.currentState = p.stateToParser(p.currentState)(r, eof)
		if p.trace && prev != p.currentState {
			p.logger.WithFields(logrus.Fields{
				"rune":  string(r),
				"from":  prev.String(),
				"state": p.currentState.String(),
			}).Trace("[TOKEN]")
		}
	}
}
