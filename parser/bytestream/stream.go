// Package bytestream turns fed bytes into the character stream consumed by
// the tokenizer. It knows UTF-8, UTF-16LE, UTF-16BE and ASCII and normalises
// newlines on the way out.
package bytestream

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrStreamClosed is returned when bytes are fed to a stream after Close.
var ErrStreamClosed = errors.New("bytestream: stream is closed")

// CharKind tells what a Character carries.
type CharKind uint8

const (
	// Scalar is a decoded Unicode scalar value.
	Scalar CharKind = iota
	// Surrogate is an unpaired UTF-16 code unit, Value holds the code unit.
	Surrogate
	// StreamEmpty means the buffered input ran out but more may be fed.
	StreamEmpty
	// StreamEnd means the stream is closed and fully consumed.
	StreamEnd
)

func (k CharKind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case Surrogate:
		return "Surrogate"
	case StreamEmpty:
		return "StreamEmpty"
	case StreamEnd:
		return "StreamEnd"
	}
	return "CharKind(?)"
}

// Character is one unit read from the stream.
type Character struct {
	Kind  CharKind
	Value rune
	// Malformed marks a U+FFFD that stands in for an invalid byte sequence.
	Malformed bool
}

// Ch is a convenience constructor for a scalar character.
func Ch(r rune) Character {
	return Character{Kind: Scalar, Value: r}
}

func (c Character) String() string {
	switch c.Kind {
	case Scalar:
		return string(c.Value)
	case Surrogate:
		return fmt.Sprintf("Surrogate(%04X)", c.Value)
	}
	return c.Kind.String()
}

// Config controls newline normalisation and high ASCII handling.
type Config struct {
	// TreatCRLFAsLF collapses a CR LF pair into a single LF.
	TreatCRLFAsLF bool
	// ReplaceLoneCRWithLF turns a CR that is not followed by LF into LF.
	ReplaceLoneCRWithLF bool
	// ReplaceHighASCIIWithReplacementChar makes the ASCII decoder return
	// U+FFFD for bytes above 0x7F instead of passing them through as Latin-1.
	ReplaceHighASCIIWithReplacementChar bool
}

// DefaultConfig is the configuration the HTML parser runs with.
func DefaultConfig() Config {
	return Config{
		TreatCRLFAsLF:       true,
		ReplaceLoneCRWithLF: true,
	}
}

// Mark is a saved read position, see Stream.Mark.
type Mark struct {
	pos  int
	next Location
	last Location
}

// Stream buffers fed bytes and decodes them on demand. A Stream is not safe
// for concurrent use.
type Stream struct {
	buf      []byte
	pos      int
	closed   bool
	encoding Encoding
	config   Config

	// next is the location of the character the next Read returns, last is
	// the location of the character the previous Read returned.
	next Location
	last Location
}

// New returns an open, empty stream decoding enc.
func New(enc Encoding, config Config) *Stream {
	return &Stream{
		encoding: enc,
		config:   config,
		next:     startLocation(),
		last:     startLocation(),
	}
}

// Feed appends b to the buffered input.
func (s *Stream) Feed(b []byte) error {
	if s.closed {
		return errors.Wrapf(ErrStreamClosed, "feeding %d bytes", len(b))
	}
	s.buf = append(s.buf, b...)
	return nil
}

// Close marks the end of the input. Reads past the buffered bytes return
// StreamEnd from now on.
func (s *Stream) Close() {
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	return s.closed
}

// Buffered is the number of bytes fed so far.
func (s *Stream) Buffered() int {
	return len(s.buf)
}

// Encoding returns the active encoding.
func (s *Stream) Encoding() Encoding {
	return s.encoding
}

// SetEncoding switches the decoder. Switching after characters have been read
// does not resynchronise: the remaining bytes are decoded from the current
// byte offset with the new encoding.
func (s *Stream) SetEncoding(e Encoding) {
	s.encoding = e
}

// DetectEncoding sniffs the buffered bytes, see DetectEncoding.
func (s *Stream) DetectEncoding() (Encoding, Confidence) {
	return DetectEncoding(s.buf)
}

// Location returns the location of the character returned by the last Read,
// or the end of input once StreamEnd was read.
func (s *Stream) Location() Location {
	return s.last
}

// Mark saves the read position so that it can be restored with Reset.
func (s *Stream) Mark() Mark {
	return Mark{pos: s.pos, next: s.next, last: s.last}
}

// Reset rewinds the stream to m.
func (s *Stream) Reset(m Mark) {
	s.pos, s.next, s.last = m.pos, m.next, m.last
}

// Read consumes and returns the next character.
func (s *Stream) Read() Character {
	s.skipBOM()
	ch, end := s.readAt(s.pos)
	switch ch.Kind {
	case Scalar, Surrogate:
		s.last = s.next
		s.last.Offset = s.pos
		s.next = s.last.advance(ch, end-s.pos)
		s.pos = end
	case StreamEnd:
		s.last = s.next
		s.last.Offset = s.pos
	}
	return ch
}

// Peek returns the character n positions ahead without consuming anything.
// Peek(0) is the character the next Read returns.
func (s *Stream) Peek(n int) Character {
	s.skipBOM()
	pos := s.pos
	for {
		ch, end := s.readAt(pos)
		if n == 0 || ch.Kind == StreamEmpty || ch.Kind == StreamEnd {
			return ch
		}
		pos = end
		n--
	}
}

// skipBOM steps over a byte order mark that matches the active encoding.
// It only ever looks at the very start of the input.
func (s *Stream) skipBOM() {
	if s.pos != 0 {
		return
	}
	bom := bomFor(s.encoding)
	if len(bom) > 0 && len(s.buf) >= len(bom) && string(s.buf[:len(bom)]) == string(bom) {
		s.pos = len(bom)
		s.next.Offset = s.pos
	}
}

// readAt decodes the character starting at byte pos after newline
// normalisation and returns the offset following it.
func (s *Stream) readAt(pos int) (Character, int) {
	if pos == 0 && !s.closed && s.bomPending() {
		return Character{Kind: StreamEmpty}, pos
	}
	ch, end := s.decodeAt(pos)
	if ch.Kind != Scalar || ch.Value != '\r' {
		return ch, end
	}
	if !s.config.TreatCRLFAsLF && !s.config.ReplaceLoneCRWithLF {
		return ch, end
	}
	following, after := s.decodeAt(end)
	switch {
	case following.Kind == StreamEmpty:
		// Whether this CR starts a CR LF pair is not known yet.
		return following, pos
	case s.config.TreatCRLFAsLF && following.Kind == Scalar && following.Value == '\n':
		return Ch('\n'), after
	case s.config.ReplaceLoneCRWithLF:
		return Ch('\n'), end
	}
	return ch, end
}

// bomPending reports whether the buffered bytes are a strict prefix of the
// active encoding's BOM, in which case reading has to wait for more input.
func (s *Stream) bomPending() bool {
	bom := bomFor(s.encoding)
	return len(bom) > 0 && len(s.buf) < len(bom) && string(bom[:len(s.buf)]) == string(s.buf)
}

func (s *Stream) decodeAt(pos int) (Character, int) {
	if pos >= len(s.buf) {
		if s.closed {
			return Character{Kind: StreamEnd}, pos
		}
		return Character{Kind: StreamEmpty}, pos
	}
	switch s.encoding {
	case UTF16LE, UTF16BE:
		return s.decodeUTF16(pos)
	case ASCII:
		b := s.buf[pos]
		if b > 0x7F && s.config.ReplaceHighASCIIWithReplacementChar {
			return Ch(utf8.RuneError), pos + 1
		}
		return Ch(rune(b)), pos + 1
	default:
		return s.decodeUTF8(pos)
	}
}

func (s *Stream) malformed(end int) (Character, int) {
	return Character{Kind: Scalar, Value: utf8.RuneError, Malformed: true}, end
}

func (s *Stream) decodeUTF8(pos int) (Character, int) {
	b := s.buf[pos:]
	if b[0] < utf8.RuneSelf {
		return Ch(rune(b[0])), pos + 1
	}
	// ED A0..BF xx is a surrogate code point encoded as three bytes.
	if b[0] == 0xED && len(b) >= 2 && b[1] >= 0xA0 && b[1] <= 0xBF {
		if len(b) < 3 {
			if !s.closed {
				return Character{Kind: StreamEmpty}, pos
			}
			return s.malformed(pos + 1)
		}
		if b[2] >= 0x80 && b[2] <= 0xBF {
			unit := rune(0xD000) | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
			return Character{Kind: Surrogate, Value: unit}, pos + 3
		}
		return s.malformed(pos + 1)
	}
	if !utf8.FullRune(b) {
		if !s.closed {
			return Character{Kind: StreamEmpty}, pos
		}
		// The rest of the input is one truncated sequence.
		return s.malformed(len(s.buf))
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return s.malformed(pos + 1)
	}
	return Ch(r), pos + size
}

func (s *Stream) unit(pos int) rune {
	if s.encoding == UTF16BE {
		return rune(s.buf[pos])<<8 | rune(s.buf[pos+1])
	}
	return rune(s.buf[pos+1])<<8 | rune(s.buf[pos])
}

func (s *Stream) decodeUTF16(pos int) (Character, int) {
	if len(s.buf)-pos < 2 {
		if !s.closed {
			return Character{Kind: StreamEmpty}, pos
		}
		return s.malformed(len(s.buf))
	}
	u := s.unit(pos)
	if !utf16.IsSurrogate(u) {
		return Ch(u), pos + 2
	}
	if u >= 0xDC00 {
		return Character{Kind: Surrogate, Value: u}, pos + 2
	}
	if len(s.buf)-pos < 4 {
		if !s.closed {
			return Character{Kind: StreamEmpty}, pos
		}
		return Character{Kind: Surrogate, Value: u}, pos + 2
	}
	low := s.unit(pos + 2)
	if low >= 0xDC00 && low <= 0xDFFF {
		return Ch(utf16.DecodeRune(u, low)), pos + 4
	}
	return Character{Kind: Surrogate, Value: u}, pos + 2
}
