package parser

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// TokenType is the kind of a Token.
type TokenType uint8

const (
	CharacterToken TokenType = iota
	StartTagToken
	EndTagToken
	EndOfFileToken
	CommentToken
	DoctypeToken
)

func (t TokenType) String() string {
	switch t {
	case CharacterToken:
		return "Character"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case EndOfFileToken:
		return "EndOfFile"
	case CommentToken:
		return "Comment"
	case DoctypeToken:
		return "DOCTYPE"
	}
	return "TokenType(?)"
}

// Attribute is a name/value pair of a tag token. Names are lowercase.
type Attribute struct {
	Key string
	Val string
}

// Token is a concrete token that is ready to be emitted.
type Token struct {
	Type TokenType
	// TagName is the tag name of a start or end tag, or the doctype name.
	TagName string
	// DataAtom is the atom of TagName, 0 for unknown names.
	DataAtom   atom.Atom
	Attributes []Attribute
	// SelfClosing is the self-closing flag of a tag token.
	SelfClosing bool
	// Data holds the text of a comment, or the single scalar of a character
	// token.
	Data string

	PublicIdentifier    string
	SystemIdentifier    string
	HasPublicIdentifier bool
	HasSystemIdentifier bool
	ForceQuirks         bool
	// HasName is false for a doctype token whose name is missing.
	HasName bool

	Location bytestream.Location
}

// Attr returns the value of the attribute key.
func (t *Token) Attr(key string) (string, bool) {
	for _, a := range t.Attributes {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// domAttributes converts the token's attributes for element creation.
func (t *Token) domAttributes() []dom.Attribute {
	if len(t.Attributes) == 0 {
		return nil
	}
	attrs := make([]dom.Attribute, len(t.Attributes))
	for i, a := range t.Attributes {
		attrs[i] = dom.Attribute{Key: a.Key, Val: a.Val}
	}
	return attrs
}

func (t *Token) String() string {
	var sb strings.Builder
	switch t.Type {
	case StartTagToken:
		sb.WriteString("<" + t.TagName)
		for _, a := range t.Attributes {
			sb.WriteString(" " + a.Key + "=\"" + a.Val + "\"")
		}
		if t.SelfClosing {
			sb.WriteString("/")
		}
		sb.WriteString(">")
	case EndTagToken:
		sb.WriteString("</" + t.TagName + ">")
	case CommentToken:
		sb.WriteString("<!--" + t.Data + "-->")
	case DoctypeToken:
		sb.WriteString("<!DOCTYPE " + t.TagName + ">")
	case CharacterToken:
		sb.WriteString(t.Data)
	case EndOfFileToken:
		sb.WriteString("EOF")
	}
	return sb.String()
}

type tagType uint8

const (
	startTag tagType = iota
	endTag
)

// TokenBuilder builds various tokens up during the tokenization
// phase.
type TokenBuilder struct {
	attributes             []Attribute
	attributeKey           strings.Builder
	attributeValue         strings.Builder
	hasAttribute           bool
	name                   strings.Builder
	hasName                bool
	data                   strings.Builder
	tempBuffer             strings.Builder
	publicID               strings.Builder
	systemID               strings.Builder
	hasPublicID            bool
	hasSystemID            bool
	selfClosing            bool
	forceQuirks            bool
	removeNextAttr         bool
	curTagType             tagType
	characterReferenceCode int
	start                  bytestream.Location
}

func newTokenBuilder() *TokenBuilder {
	return &TokenBuilder{}
}

// NewToken clears all the builders and attributes. The temporary buffer is
// left alone, the states that use it reset it themselves.
func (t *TokenBuilder) NewToken(start bytestream.Location) {
	t.attributes = nil
	t.attributeKey.Reset()
	t.attributeValue.Reset()
	t.hasAttribute = false
	t.publicID.Reset()
	t.systemID.Reset()
	t.hasPublicID = false
	t.hasSystemID = false
	t.data.Reset()
	t.name.Reset()
	t.hasName = false
	t.selfClosing = false
	t.forceQuirks = false
	t.removeNextAttr = false
	t.start = start
}

// NewTag starts a start or end tag token.
func (t *TokenBuilder) NewTag(tt tagType, start bytestream.Location) {
	t.NewToken(start)
	t.curTagType = tt
}

// EnableSelfClosing changes to the self-closing flag to "set".
func (t *TokenBuilder) EnableSelfClosing() {
	t.selfClosing = true
}

// EnableForceQuirks changes to the force-quirks flag to "on".
func (t *TokenBuilder) EnableForceQuirks() {
	t.forceQuirks = true
}

// StartPublicIdentifier sets the public identifier to the empty string, which
// is different from missing.
func (t *TokenBuilder) StartPublicIdentifier() {
	t.publicID.Reset()
	t.hasPublicID = true
}

// StartSystemIdentifier is StartPublicIdentifier for the system identifier.
func (t *TokenBuilder) StartSystemIdentifier() {
	t.systemID.Reset()
	t.hasSystemID = true
}

// WritePublicIdentifier appends a rune to the public identifier buffer.
func (t *TokenBuilder) WritePublicIdentifier(r rune) {
	t.publicID.WriteRune(r)
}

// WriteSystemIdentifier appends a rune to the system identifier buffer.
func (t *TokenBuilder) WriteSystemIdentifier(r rune) {
	t.systemID.WriteRune(r)
}

// StartAttribute commits the attribute under construction, if any, and
// starts a new one.
func (t *TokenBuilder) StartAttribute() {
	t.CommitAttribute()
	t.hasAttribute = true
}

// WriteAttributeName appends a character to the current
// attribute's name.
func (t *TokenBuilder) WriteAttributeName(r rune) {
	t.attributeKey.WriteRune(r)
}

// WriteAttributeValue appends a character to the current
// attribute's value.
func (t *TokenBuilder) WriteAttributeValue(r rune) {
	t.attributeValue.WriteRune(r)
}

// WriteAttributeValueString appends s to the current attribute's value.
func (t *TokenBuilder) WriteAttributeValueString(s string) {
	t.attributeValue.WriteString(s)
}

// RemoveDuplicateAttributeName checks if the current name is already
// in the list of committed attributes. If so, the attribute is dropped when
// it is committed.
func (t *TokenBuilder) RemoveDuplicateAttributeName() bool {
	key := t.attributeKey.String()
	for _, a := range t.attributes {
		if a.Key == key {
			t.removeNextAttr = true
			return true
		}
	}
	return false
}

// CommitAttribute ends the creation of a key/value pair by copying the name
// and value fields into the attribute list and clearing them.
func (t *TokenBuilder) CommitAttribute() {
	if t.hasAttribute && !t.removeNextAttr {
		t.attributes = append(t.attributes, Attribute{
			Key: t.attributeKey.String(),
			Val: t.attributeValue.String(),
		})
	}
	t.attributeKey.Reset()
	t.attributeValue.Reset()
	t.hasAttribute = false
	t.removeNextAttr = false
}

// WriteName appends a character to the current name value.
func (t *TokenBuilder) WriteName(r rune) {
	t.name.WriteRune(r)
	t.hasName = true
}

// Name is the tag name written so far.
func (t *TokenBuilder) Name() string {
	return t.name.String()
}

// WriteData appends a character to the current data section.
func (t *TokenBuilder) WriteData(r rune) {
	t.data.WriteRune(r)
}

// WriteDataString appends s to the current data section.
func (t *TokenBuilder) WriteDataString(s string) {
	t.data.WriteString(s)
}

// WriteTempBuffer appends a character to the temporary buffer of the current
// state.
func (t *TokenBuilder) WriteTempBuffer(r rune) {
	t.tempBuffer.WriteRune(r)
}

// WriteTempBufferString appends s to the temporary buffer.
func (t *TokenBuilder) WriteTempBufferString(s string) {
	t.tempBuffer.WriteString(s)
}

// ResetTempBuffer clears the temporary buffer to be used by some other state.
func (t *TokenBuilder) ResetTempBuffer() {
	t.tempBuffer.Reset()
}

// SetTempBuffer replaces the temporary buffer contents with s.
func (t *TokenBuilder) SetTempBuffer(s string) {
	t.tempBuffer.Reset()
	t.tempBuffer.WriteString(s)
}

// TempBuffer just returns the string version of the current buffer contents.
func (t *TokenBuilder) TempBuffer() string {
	return t.tempBuffer.String()
}

// SetCharRef sets the character reference code.
func (t *TokenBuilder) SetCharRef(i int) {
	t.characterReferenceCode = i
}

// GetCharRef returns the character reference code.
func (t *TokenBuilder) GetCharRef() int {
	return t.characterReferenceCode
}

// maxCharRef is past the last code point. The character reference code stops
// growing there so long digit runs cannot overflow.
const maxCharRef = 0x110000

// AddToCharRef adds a number to the current char ref code.
func (t *TokenBuilder) AddToCharRef(i int) {
	if t.characterReferenceCode < maxCharRef {
		t.characterReferenceCode += i
	}
}

// MultByCharRef multiplies the current char ref code by a number.
func (t *TokenBuilder) MultByCharRef(i int) {
	if t.characterReferenceCode < maxCharRef {
		t.characterReferenceCode *= i
	}
	if t.characterReferenceCode > maxCharRef {
		t.characterReferenceCode = maxCharRef
	}
}

// TagToken creates a start or end tag token from the builder contents.
func (t *TokenBuilder) TagToken() Token {
	t.CommitAttribute()
	name := t.name.String()
	tok := Token{
		Type:        StartTagToken,
		TagName:     name,
		DataAtom:    atom.Lookup([]byte(name)),
		Attributes:  t.attributes,
		SelfClosing: t.selfClosing,
		Location:    t.start,
	}
	if t.curTagType == endTag {
		tok.Type = EndTagToken
	}
	return tok
}

// CharacterToken creates a character token for r.
func (t *TokenBuilder) CharacterToken(r rune, loc bytestream.Location) Token {
	return Token{
		Type:     CharacterToken,
		Data:     string(r),
		Location: loc,
	}
}

// EndOfFileToken create an end of file token.
func (t *TokenBuilder) EndOfFileToken(loc bytestream.Location) Token {
	return Token{
		Type:     EndOfFileToken,
		Location: loc,
	}
}

// CommentToken creates a comment token from the builder contents.
func (t *TokenBuilder) CommentToken() Token {
	return Token{
		Type:     CommentToken,
		Data:     t.data.String(),
		Location: t.start,
	}
}

// DocTypeToken creates a doctype token from the builder contents.
func (t *TokenBuilder) DocTypeToken() Token {
	return Token{
		Type:                DoctypeToken,
		TagName:             t.name.String(),
		HasName:             t.hasName,
		ForceQuirks:         t.forceQuirks,
		PublicIdentifier:    t.publicID.String(),
		SystemIdentifier:    t.systemID.String(),
		HasPublicIdentifier: t.hasPublicID,
		HasSystemIdentifier: t.hasSystemID,
		Location:            t.start,
	}
}
