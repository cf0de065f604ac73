package parser

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
)

var (
	// ErrNeedMoreInput is returned when the stream ran dry before it was
	// closed. Feed more bytes and call again; nothing has been lost.
	ErrNeedMoreInput = errors.New("parser: need more input")
	// ErrParserFinished is returned when a finished parser is run again.
	ErrParserFinished = errors.New("parser: parsing already finished")
	// ErrNoTokenizer is returned when a parser has no tokenizer or document
	// attached.
	ErrNoTokenizer = errors.New("parser: no tokenizer attached")
)

// FatalConfigurationError reports a misuse of the parser API. It is never
// caused by the content of the document.
type FatalConfigurationError struct {
	cause error
}

func fatal(err error, msg string) error {
	return &FatalConfigurationError{cause: errors.Wrap(err, msg)}
}

func (e *FatalConfigurationError) Error() string {
	return "fatal configuration error: " + e.cause.Error()
}

// Cause lets errors.Cause reach the sentinel underneath.
func (e *FatalConfigurationError) Cause() error {
	return errors.Cause(e.cause)
}

func (e *FatalConfigurationError) Unwrap() error {
	return e.cause
}

// IsFatalConfiguration reports whether err is, or wraps, a
// FatalConfigurationError.
func IsFatalConfiguration(err error) bool {
	var fce *FatalConfigurationError
	return errors.As(err, &fce)
}

// ErrorClass tells which stage reported a parse error.
type ErrorClass uint8

const (
	DecodeError ErrorClass = iota
	TokenizerError
	TreeConstructionError
)

func (c ErrorClass) String() string {
	switch c {
	case DecodeError:
		return "decode"
	case TokenizerError:
		return "tokenizer"
	case TreeConstructionError:
		return "tree-construction"
	}
	return "unknown"
}

// ErrorKind is the name of a parse error, as listed at
// https://html.spec.whatwg.org/#parse-errors for tokenizer errors.
type ErrorKind string

// https://html.spec.whatwg.org/#parse-errors
const (
	errAbruptClosingOfEmptyComment                       ErrorKind = "abrupt-closing-of-empty-comment"
	errAbruptDoctypePublicIdentifier                     ErrorKind = "abrupt-doctype-public-identifier"
	errAbruptDoctypeSystemIdentifier                     ErrorKind = "abrupt-doctype-system-identifier"
	errAbsenceOfDigitsInNumericCharacterReference        ErrorKind = "absence-of-digits-in-numeric-character-reference"
	errCDATAInHTMLContent                                ErrorKind = "cdata-in-html-content"
	errCharacterReferenceOutsideUnicodeRange             ErrorKind = "character-reference-outside-unicode-range"
	errControlCharacterInInputStream                     ErrorKind = "control-character-in-input-stream"
	errControlCharacterReference                         ErrorKind = "control-character-reference"
	errDuplicateAttribute                                ErrorKind = "duplicate-attribute"
	errEndTagWithAttributes                              ErrorKind = "end-tag-with-attributes"
	errEndTagWithTrailingSolidus                         ErrorKind = "end-tag-with-trailing-solidus"
	errEOFBeforeTagName                                  ErrorKind = "eof-before-tag-name"
	errEOFInCDATA                                        ErrorKind = "eof-in-cdata"
	errEOFInComment                                      ErrorKind = "eof-in-comment"
	errEOFInDoctype                                      ErrorKind = "eof-in-doctype"
	errEOFInScriptHTMLCommentLikeText                    ErrorKind = "eof-in-script-html-comment-like-text"
	errEOFInTag                                          ErrorKind = "eof-in-tag"
	errIncorrectlyClosedComment                          ErrorKind = "incorrectly-closed-comment"
	errIncorrectlyOpenedComment                          ErrorKind = "incorrectly-opened-comment"
	errInvalidCharacterSequenceAfterDoctypeName          ErrorKind = "invalid-character-sequence-after-doctype-name"
	errInvalidFirstCharacterOfTagName                    ErrorKind = "invalid-first-character-of-tag-name"
	errMissingAttributeValue                             ErrorKind = "missing-attribute-value"
	errMissingDoctypeName                                ErrorKind = "missing-doctype-name"
	errMissingDoctypePublicIdentifier                    ErrorKind = "missing-doctype-public-identifier"
	errMissingDoctypeSystemIdentifier                    ErrorKind = "missing-doctype-system-identifier"
	errMissingEndTagName                                 ErrorKind = "missing-end-tag-name"
	errMissingQuoteBeforeDoctypePublicIdentifier         ErrorKind = "missing-quote-before-doctype-public-identifier"
	errMissingQuoteBeforeDoctypeSystemIdentifier         ErrorKind = "missing-quote-before-doctype-system-identifier"
	errMissingSemicolonAfterCharacterReference           ErrorKind = "missing-semicolon-after-character-reference"
	errMissingWhitespaceAfterDoctypePublicKeyword        ErrorKind = "missing-whitespace-after-doctype-public-keyword"
	errMissingWhitespaceAfterDoctypeSystemKeyword        ErrorKind = "missing-whitespace-after-doctype-system-keyword"
	errMissingWhitespaceBeforeDoctypeName                ErrorKind = "missing-whitespace-before-doctype-name"
	errMissingWhitespaceBetweenAttributes                ErrorKind = "missing-whitespace-between-attributes"
	errMissingWhitespaceBetweenDoctypePublicAndSystemIDs ErrorKind = "missing-whitespace-between-doctype-public-and-system-identifiers"
	errNestedComment                                     ErrorKind = "nested-comment"
	errNoncharacterCharacterReference                    ErrorKind = "noncharacter-character-reference"
	errNoncharacterInInputStream                         ErrorKind = "noncharacter-in-input-stream"
	errNonVoidHTMLElementStartTagWithTrailingSolidus     ErrorKind = "non-void-html-element-start-tag-with-trailing-solidus"
	errNullCharacterReference                            ErrorKind = "null-character-reference"
	errSurrogateCharacterReference                       ErrorKind = "surrogate-character-reference"
	errSurrogateInInputStream                            ErrorKind = "surrogate-in-input-stream"
	errUnexpectedCharacterAfterDoctypeSystemIdentifier   ErrorKind = "unexpected-character-after-doctype-system-identifier"
	errUnexpectedCharacterInAttributeName                ErrorKind = "unexpected-character-in-attribute-name"
	errUnexpectedCharacterInUnquotedAttributeValue       ErrorKind = "unexpected-character-in-unquoted-attribute-value"
	errUnexpectedEqualsSignBeforeAttributeName           ErrorKind = "unexpected-equals-sign-before-attribute-name"
	errUnexpectedNullCharacter                           ErrorKind = "unexpected-null-character"
	errUnexpectedQuestionMarkInsteadOfTagName            ErrorKind = "unexpected-question-mark-instead-of-tag-name"
	errUnexpectedSolidusInTag                            ErrorKind = "unexpected-solidus-in-tag"
	errUnknownNamedCharacterReference                    ErrorKind = "unknown-named-character-reference"

	// Decoder errors.
	errInvalidByteSequence ErrorKind = "invalid-byte-sequence"
)

// Tree construction errors have no standard names, these follow the ones
// used by the html5lib test suite.
const (
	errExpectedDoctypeButGotChars    ErrorKind = "expected-doctype-but-got-chars"
	errExpectedDoctypeButGotStartTag ErrorKind = "expected-doctype-but-got-start-tag"
	errExpectedDoctypeButGotEndTag   ErrorKind = "expected-doctype-but-got-end-tag"
	errExpectedDoctypeButGotEOF      ErrorKind = "expected-doctype-but-got-eof"
	errUnknownDoctype                ErrorKind = "unknown-doctype"
	errUnexpectedDoctype             ErrorKind = "unexpected-doctype"
	errUnexpectedStartTag            ErrorKind = "unexpected-start-tag"
	errUnexpectedEndTag              ErrorKind = "unexpected-end-tag"
	errUnexpectedCharacter           ErrorKind = "unexpected-character"
	errUnexpectedEOF                 ErrorKind = "expected-closing-tag-but-got-eof"
	errEndTagTooEarly                ErrorKind = "end-tag-too-early"
	errMisnestedFormattingElement    ErrorKind = "adoption-agency-misnested-tags"
	errFosterParentedContent         ErrorKind = "foster-parenting-content"
	errNonHTMLEndTag                 ErrorKind = "unexpected-end-tag-in-foreign-content"
	errUnexpectedHTMLInForeign       ErrorKind = "unexpected-html-element-in-foreign-content"
)

// ParseError is one recoverable error found while parsing.
type ParseError struct {
	Class    ErrorClass
	Kind     ErrorKind
	Location bytestream.Location
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s error at %s: %s", e.Class, e.Location, e.Kind)
}

// ErrorLog collects parse errors in the order they were found. Repeated
// errors of the same kind at the same position are kept once.
type ErrorLog struct {
	errs   []ParseError
	logger logrus.FieldLogger
}

// NewErrorLog returns an empty log echoing errors to logger at debug level.
// A nil logger discards.
func NewErrorLog(logger logrus.FieldLogger) *ErrorLog {
	if logger == nil {
		logger = discardLogger()
	}
	return &ErrorLog{logger: logger}
}

// Add records an error.
func (l *ErrorLog) Add(class ErrorClass, kind ErrorKind, loc bytestream.Location) {
	for i := len(l.errs) - 1; i >= 0; i-- {
		e := l.errs[i]
		if e.Location.Offset != loc.Offset {
			break
		}
		if e.Kind == kind && e.Location == loc {
			return
		}
	}
	l.errs = append(l.errs, ParseError{Class: class, Kind: kind, Location: loc})
	l.logger.WithFields(logrus.Fields{
		"class":  class.String(),
		"kind":   string(kind),
		"line":   loc.Line,
		"col":    loc.Column,
		"offset": loc.Offset,
	}).Debug("parse error")
}

// Errors returns a copy of the collected errors.
func (l *ErrorLog) Errors() []ParseError {
	return append([]ParseError(nil), l.errs...)
}

// Len is the number of collected errors.
func (l *ErrorLog) Len() int {
	return len(l.errs)
}

// truncate drops errors recorded after the log had n entries. The tokenizer
// uses it when it rewinds.
func (l *ErrorLog) truncate(n int) {
	if n < len(l.errs) {
		l.errs = l.errs[:n]
	}
}
