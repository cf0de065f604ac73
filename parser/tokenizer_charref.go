package parser

import "github.com/gosub-io/gosub-engine/parser/bytestream"

// numericReplacementTable maps the C1 controls produced by numeric character
// references to the windows-1252 characters they were meant to be.
// https://html.spec.whatwg.org/#numeric-character-reference-end-state
var numericReplacementTable = map[int]rune{
	0x80: 0x20AC,
	0x82: 0x201A,
	0x83: 0x0192,
	0x84: 0x201E,
	0x85: 0x2026,
	0x86: 0x2020,
	0x87: 0x2021,
	0x88: 0x02C6,
	0x89: 0x2030,
	0x8A: 0x0160,
	0x8B: 0x2039,
	0x8C: 0x0152,
	0x8E: 0x017D,
	0x91: 0x2018,
	0x92: 0x2019,
	0x93: 0x201C,
	0x94: 0x201D,
	0x95: 0x2022,
	0x96: 0x2013,
	0x97: 0x2014,
	0x98: 0x02DC,
	0x99: 0x2122,
	0x9A: 0x0161,
	0x9B: 0x203A,
	0x9C: 0x0153,
	0x9E: 0x017E,
	0x9F: 0x0178,
}

func (p *HTMLTokenizer) characterReferenceStateParser(r rune, eof bool) (bool, TokenizerState) {
	p.tokenBuilder.SetTempBuffer("&")
	switch {
	case !eof && isASCIIAlphanumeric(r):
		return true, namedCharacterReferenceState
	case !eof && r == '#':
		p.tokenBuilder.WriteTempBuffer(r)
		return false, numericCharacterReferenceState
	}
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}

// alphanumericRun returns r and the alphanumeric characters following it in
// the stream, plus a trailing ';' if there is one. ok is false when the
// buffered input ends inside the run.
func (p *HTMLTokenizer) alphanumericRun(r rune) (run string, ok bool) {
	buf := []rune{r}
	for i := 0; len(buf) < longestCharRefName; i++ {
		ch := p.stream.Peek(i)
		if ch.Kind == bytestream.StreamEmpty {
			return "", false
		}
		if ch.Kind != bytestream.Scalar {
			break
		}
		if ch.Value == ';' {
			buf = append(buf, ';')
			break
		}
		if !isASCIIAlphanumeric(ch.Value) {
			break
		}
		buf = append(buf, ch.Value)
	}
	return string(buf), true
}

func (p *HTMLTokenizer) namedCharacterReferenceStateParser(r rune, eof bool) (bool, TokenizerState) {
	run, ok := p.alphanumericRun(r)
	if !ok {
		p.needMore = true
		return false, namedCharacterReferenceState
	}

	name, value, found := matchCharRef(run)
	if !found {
		p.flushCodePointsAsCharacterReference()
		return true, ambiguousAmpersandState
	}

	// r is already consumed.
	for i := 1; i < len(name); i++ {
		p.stream.Read()
	}
	p.tokenBuilder.WriteTempBufferString(name)

	if name[len(name)-1] != ';' && wasConsumedByAttribute(p.returnState) {
		next := p.stream.Peek(0)
		if next.Kind == bytestream.StreamEmpty {
			p.needMore = true
			return false, namedCharacterReferenceState
		}
		if next.Kind == bytestream.Scalar && (next.Value == '=' || isASCIIAlphanumeric(next.Value)) {
			p.flushCodePointsAsCharacterReference()
			return false, p.returnState
		}
	}

	if name[len(name)-1] != ';' {
		p.parseError(errMissingSemicolonAfterCharacterReference)
	}
	p.tokenBuilder.SetTempBuffer(value)
	p.flushCodePointsAsCharacterReference()
	return false, p.returnState
}

func (p *HTMLTokenizer) ambiguousAmpersandStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && isASCIIAlphanumeric(r):
		if wasConsumedByAttribute(p.returnState) {
			p.tokenBuilder.WriteAttributeValue(r)
		} else {
			p.emitChar(r)
		}
		return false, ambiguousAmpersandState
	case !eof && r == ';':
		p.parseError(errUnknownNamedCharacterReference)
	}
	return true, p.returnState
}

func (p *HTMLTokenizer) numericCharacterReferenceStateParser(r rune, eof bool) (bool, TokenizerState) {
	p.tokenBuilder.SetCharRef(0)
	if !eof && (r == 'x' || r == 'X') {
		p.tokenBuilder.WriteTempBuffer(r)
		return false, hexadecimalCharacterReferenceStartState
	}
	return true, decimalCharacterReferenceStartState
}

func (p *HTMLTokenizer) absenceOfDigits() (bool, TokenizerState) {
	p.parseError(errAbsenceOfDigitsInNumericCharacterReference)
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}

func (p *HTMLTokenizer) hexadecimalCharacterReferenceStartStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && isASCIIHexDigit(r) {
		return true, hexadecimalCharacterReferenceState
	}
	return p.absenceOfDigits()
}

func (p *HTMLTokenizer) decimalCharacterReferenceStartStateParser(r rune, eof bool) (bool, TokenizerState) {
	if !eof && isASCIIDigit(r) {
		return true, decimalCharacterReferenceState
	}
	return p.absenceOfDigits()
}

func hexValue(r rune) int {
	switch {
	case isASCIIDigit(r):
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}

func (p *HTMLTokenizer) hexadecimalCharacterReferenceStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && isASCIIHexDigit(r):
		p.tokenBuilder.MultByCharRef(16)
		p.tokenBuilder.AddToCharRef(hexValue(r))
		return false, hexadecimalCharacterReferenceState
	case !eof && r == ';':
		return false, numericCharacterReferenceEndState
	}
	p.parseError(errMissingSemicolonAfterCharacterReference)
	return true, numericCharacterReferenceEndState
}

func (p *HTMLTokenizer) decimalCharacterReferenceStateParser(r rune, eof bool) (bool, TokenizerState) {
	switch {
	case !eof && isASCIIDigit(r):
		p.tokenBuilder.MultByCharRef(10)
		p.tokenBuilder.AddToCharRef(int(r - '0'))
		return false, decimalCharacterReferenceState
	case !eof && r == ';':
		return false, numericCharacterReferenceEndState
	}
	p.parseError(errMissingSemicolonAfterCharacterReference)
	return true, numericCharacterReferenceEndState
}

// numericCharacterReferenceEndStateParser consumes nothing: it checks the
// collected code and hands r over to the return state.
func (p *HTMLTokenizer) numericCharacterReferenceEndStateParser(r rune, eof bool) (bool, TokenizerState) {
	code := p.tokenBuilder.GetCharRef()
	switch {
	case code == 0x00:
		p.parseError(errNullCharacterReference)
		code = 0xFFFD
	case code > 0x10FFFF:
		p.parseError(errCharacterReferenceOutsideUnicodeRange)
		code = 0xFFFD
	case isSurrogate(code):
		p.parseError(errSurrogateCharacterReference)
		code = 0xFFFD
	case isNonCharacter(code):
		p.parseError(errNoncharacterCharacterReference)
	case code == 0x0D || (isControl(code) && !isASCIIWhitespace(code)):
		p.parseError(errControlCharacterReference)
		if replacement, ok := numericReplacementTable[code]; ok {
			code = int(replacement)
		}
	}

	p.tokenBuilder.SetTempBuffer(string(rune(code)))
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}
