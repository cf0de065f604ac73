package parser

import "github.com/gosub-io/gosub-engine/parser/bytestream"

// matchAhead reports whether r followed by the next characters of the stream
// spell word, and consumes them if so. word must be ASCII. It sets needMore
// when the buffered input ends before the answer is known.
func (p *HTMLTokenizer) matchAhead(r rune, word string, foldCase bool) bool {
	for i, w := range word {
		c := r
		if i > 0 {
			ch := p.stream.Peek(i - 1)
			if ch.Kind == bytestream.StreamEmpty {
				p.needMore = true
				return false
			}
			if ch.Kind != bytestream.Scalar {
				return false
			}
			c = ch.Value
		}
		if foldCase {
			c = toASCIILower(c)
		}
		if c != w {
			return false
		}
	}
	for i := 1; i < len(word); i++ {
		p.stream.Read()
	}
	return true
}

func (p *HTMLTokenizer) emitComment() {
	p.emit(p.tokenBuilder.CommentToken())
}

func (p *HTMLTokenizer) emitDoctype() {
	p.emit(p.tokenBuilder.DocTypeToken())
}

// https://html.spec.whatwg.org/#markup-declaration-open-state
func (p *HTMLTokenizer) markupDeclarationOpenStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof {
		switch {
		case r == '-':
			if p.matchAhead(r, "--", false) {
				p.tokenBuilder.NewToken(p.tagStart)
				return false, commentStartState
			}
		case r == 'd' || r == 'D':
			if p.matchAhead(r, "doctype", true) {
				p.tokenBuilder.NewToken(p.tagStart)
				return false, doctypeState
			}
		case r == '[':
			if p.matchAhead(r, "[CDATA[", false) {
				if p.allowCDATA {
					return false, cdataSectionState
				}
				p.parseError(errCDATAInHTMLContent)
				p.tokenBuilder.NewToken(p.tagStart)
				p.tokenBuilder.WriteDataString("[CDATA[")
				return false, bogusCommentState
			}
		}
		if p.needMore {
			return false, markupDeclarationOpenState
		}
	}
	p.parseError(errIncorrectlyOpenedComment)
	p.tokenBuilder.NewToken(p.tagStart)
	return true, bogusCommentState
}

func (p *HTMLTokenizer) bogusCommentStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.emitComment()
		return false, dataState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteData('�')
	default:
		p.tokenBuilder.WriteData(r)
	}
	return false, bogusCommentState
}

func (p *HTMLTokenizer) commentStartStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && r == '-':
		return false, commentStartDashState
	case !eof && r == '>':
		p.parseError(errAbruptClosingOfEmptyComment)
		p.emitComment()
		return false, dataState
	}
	return true, commentState
}

func (p *HTMLTokenizer) eofInComment() (bool, TokenizerState) {
	p.parseError(errEOFInComment)
	p.emitComment()
	p.emitEOF()
	return false, dataState
}

func (p *HTMLTokenizer) commentStartDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInComment()
	}
	switch r {
	case '-':
		return false, commentEndState
	case '>':
		p.parseError(errAbruptClosingOfEmptyComment)
		p.emitComment()
		return false, dataState
	}
	p.tokenBuilder.WriteData('-')
	return true, commentState
}

func (p *HTMLTokenizer) commentStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInComment()
	}
	switch r {
	case '<':
		p.tokenBuilder.WriteData(r)
		return false, commentLessThanSignState
	case '-':
		return false, commentEndDashState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteData('�')
	default:
		p.tokenBuilder.WriteData(r)
	}
	return false, commentState
}

func (p *HTMLTokenizer) commentLessThanSignStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && r == '!':
		p.tokenBuilder.WriteData(r)
		return false, commentLessThanSignBangState
	case !eof && r == '<':
		p.tokenBuilder.WriteData(r)
		return false, commentLessThanSignState
	}
	return true, commentState
}

func (p *HTMLTokenizer) commentLessThanSignBangStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == '-' {
		return false, commentLessThanSignBangDashState
	}
	return true, commentState
}

func (p *HTMLTokenizer) commentLessThanSignBangDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == '-' {
		return false, commentLessThanSignBangDashDashState
	}
	return true, commentEndDashState
}

func (p *HTMLTokenizer) commentLessThanSignBangDashDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r != '>' {
		p.parseError(errNestedComment)
	}
	return true, commentEndState
}

func (p *HTMLTokenizer) commentEndDashStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInComment()
	}
	if r == '-' {
		return false, commentEndState
	}
	p.tokenBuilder.WriteData('-')
	return true, commentState
}

func (p *HTMLTokenizer) commentEndStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInComment()
	}
	switch r {
	case '>':
		p.emitComment()
		return false, dataState
	case '!':
		return false, commentEndBangState
	case '-':
		p.tokenBuilder.WriteData('-')
		return false, commentEndState
	}
	p.tokenBuilder.WriteDataString("--")
	return true, commentState
}

func (p *HTMLTokenizer) commentEndBangStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInComment()
	}
	switch r {
	case '-':
		p.tokenBuilder.WriteDataString("--!")
		return false, commentEndDashState
	case '>':
		p.parseError(errIncorrectlyClosedComment)
		p.emitComment()
		return false, dataState
	}
	p.tokenBuilder.WriteDataString("--!")
	return true, commentState
}

// eofInDoctype handles end of file in every doctype state but the bogus one.
func (p *HTMLTokenizer) eofInDoctype() (bool, TokenizerState) {
	p.parseError(errEOFInDoctype)
	p.tokenBuilder.EnableForceQuirks()
	p.emitDoctype()
	p.emitEOF()
	return false, dataState
}

func (p *HTMLTokenizer) doctypeStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypeNameState
	case '>':
		return true, beforeDoctypeNameState
	}
	p.parseError(errMissingWhitespaceBeforeDoctypeName)
	return true, beforeDoctypeNameState
}

func (p *HTMLTokenizer) beforeDoctypeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypeNameState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
	case '>':
		p.parseError(errMissingDoctypeName)
		p.tokenBuilder.EnableForceQuirks()
		p.emitDoctype()
		return false, dataState
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
	}
	return false, doctypeNameState
}

func (p *HTMLTokenizer) doctypeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, afterDoctypeNameState
	case '>':
		p.emitDoctype()
		return false, dataState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
	}
	return false, doctypeNameState
}

func (p *HTMLTokenizer) afterDoctypeNameStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, afterDoctypeNameState
	case '>':
		p.emitDoctype()
		return false, dataState
	}
	if p.matchAhead(r, "public", true) {
		return false, afterDoctypePublicKeywordState
	}
	if !p.needMore && p.matchAhead(r, "system", true) {
		return false, afterDoctypeSystemKeywordState
	}
	if p.needMore {
		return false, afterDoctypeNameState
	}
	p.parseError(errInvalidCharacterSequenceAfterDoctypeName)
	p.tokenBuilder.EnableForceQuirks()
	return true, bogusDoctypeState
}

// missingQuote is the shared "anything else" branch of the states expecting
// a quoted identifier.
func (p *HTMLTokenizer) missingQuote(kind ErrorKind) (bool, TokenizerState) {
	p.parseError(kind)
	p.tokenBuilder.EnableForceQuirks()
	return true, bogusDoctypeState
}

// missingIdentifier is the shared '>' branch of the states expecting a quoted
// identifier.
func (p *HTMLTokenizer) missingIdentifier(kind ErrorKind) (bool, TokenizerState) {
	p.parseError(kind)
	p.tokenBuilder.EnableForceQuirks()
	p.emitDoctype()
	return false, dataState
}

func (p *HTMLTokenizer) afterDoctypePublicKeywordStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypePublicIdentifierState
	case '"':
		p.parseError(errMissingWhitespaceAfterDoctypePublicKeyword)
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierDoubleQuotedState
	case '\'':
		p.parseError(errMissingWhitespaceAfterDoctypePublicKeyword)
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypePublicIdentifier)
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypePublicIdentifier)
}

func (p *HTMLTokenizer) beforeDoctypePublicIdentifierStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypePublicIdentifierState
	case '"':
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypePublicIdentifier)
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypePublicIdentifier)
}

func (p *HTMLTokenizer) doctypePublicIdentifierQuotedStateParser(r rune, eof bool, quote rune, state TokenizerState) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case quote:
		return false, afterDoctypePublicIdentifierState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WritePublicIdentifier('�')
	case '>':
		return p.missingIdentifier(errAbruptDoctypePublicIdentifier)
	default:
		p.tokenBuilder.WritePublicIdentifier(r)
	}
	return false, state
}

func (p *HTMLTokenizer) doctypePublicIdentifierDoubleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doctypePublicIdentifierQuotedStateParser(r, eof, '"', doctypePublicIdentifierDoubleQuotedState)
}

func (p *HTMLTokenizer) doctypePublicIdentifierSingleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doctypePublicIdentifierQuotedStateParser(r, eof, '\'', doctypePublicIdentifierSingleQuotedState)
}

func (p *HTMLTokenizer) afterDoctypePublicIdentifierStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, betweenDoctypePublicAndSystemIdentifiersState
	case '>':
		p.emitDoctype()
		return false, dataState
	case '"':
		p.parseError(errMissingWhitespaceBetweenDoctypePublicAndSystemIDs)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.parseError(errMissingWhitespaceBetweenDoctypePublicAndSystemIDs)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
}

func (p *HTMLTokenizer) betweenDoctypePublicAndSystemIdentifiersStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, betweenDoctypePublicAndSystemIdentifiersState
	case '>':
		p.emitDoctype()
		return false, dataState
	case '"':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
}

func (p *HTMLTokenizer) afterDoctypeSystemKeywordStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypeSystemIdentifierState
	case '"':
		p.parseError(errMissingWhitespaceAfterDoctypeSystemKeyword)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.parseError(errMissingWhitespaceAfterDoctypeSystemKeyword)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypeSystemIdentifier)
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
}

func (p *HTMLTokenizer) beforeDoctypeSystemIdentifierStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, beforeDoctypeSystemIdentifierState
	case '"':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypeSystemIdentifier)
	}
	return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
}

func (p *HTMLTokenizer) doctypeSystemIdentifierQuotedStateParser(r rune, eof bool, quote rune, state TokenizerState) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case quote:
		return false, afterDoctypeSystemIdentifierState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteSystemIdentifier('�')
	case '>':
		return p.missingIdentifier(errAbruptDoctypeSystemIdentifier)
	default:
		p.tokenBuilder.WriteSystemIdentifier(r)
	}
	return false, state
}

func (p *HTMLTokenizer) doctypeSystemIdentifierDoubleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doctypeSystemIdentifierQuotedStateParser(r, eof, '"', doctypeSystemIdentifierDoubleQuotedState)
}

func (p *HTMLTokenizer) doctypeSystemIdentifierSingleQuotedStateParser(r rune, eof bool) (bool, TokenizerState) {
	return p.doctypeSystemIdentifierQuotedStateParser(r, eof, '\'', doctypeSystemIdentifierSingleQuotedState)
}

func (p *HTMLTokenizer) afterDoctypeSystemIdentifierStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\t', '\n', '\f', ' ':
		return false, afterDoctypeSystemIdentifierState
	case '>':
		p.emitDoctype()
		return false, dataState
	}
	// Unlike the other doctype errors this one does not force quirks mode.
	p.parseError(errUnexpectedCharacterAfterDoctypeSystemIdentifier)
	return true, bogusDoctypeState
}

func (p *HTMLTokenizer) bogusDoctypeStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.emitDoctype()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.emitDoctype()
		return false, dataState
	case '\u0000':
		p.parseError(errUnexpectedNullCharacter)
	}
	return false, bogusDoctypeState
}

func (p *HTMLTokenizer) cdataSectionStateParser(r rune, eof bool) (bool, TokenizerState) {
	if eof {
		p.parseError(errEOFInCDATA)
		p.emitEOF()
		return false, dataState
	}
	if r == ']' {
		return false, cdataSectionBracketState
	}
	p.emitChar(r)
	return false, cdataSectionState
}

func (p *HTMLTokenizer) cdataSectionBracketStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && r == ']' {
		return false, cdataSectionEndState
	}
	p.emitChar(']')
	return true, cdataSectionState
}

func (p *HTMLTokenizer) cdataSectionEndStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && r == ']':
		p.emitChar(']')
		return false, cdataSectionEndState
	case !eof && r == '>':
		return false, dataState
	}
	p.emitString("]]")
	return true, cdataSectionState
}
