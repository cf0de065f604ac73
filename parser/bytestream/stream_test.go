package bytestream

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(s *Stream) []Character {
	var out []Character
	for {
		ch := s.Read()
		out = append(out, ch)
		if ch.Kind == StreamEnd || ch.Kind == StreamEmpty {
			return out
		}
	}
}

func closedStream(enc Encoding, b []byte) *Stream {
	s := New(enc, DefaultConfig())
	_ = s.Feed(b)
	s.Close()
	return s
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoding
		in   []byte
		want []Character
	}{
		{"ascii", UTF8, []byte("ab"), []Character{Ch('a'), Ch('b'), {Kind: StreamEnd}}},
		{"utf8 bom skipped", UTF8, []byte("\xEF\xBB\xBFx"), []Character{Ch('x'), {Kind: StreamEnd}}},
		{"utf8 multibyte", UTF8, []byte("é€"), []Character{Ch('é'), Ch('€'), {Kind: StreamEnd}}},
		{"utf8 invalid byte", UTF8, []byte{'a', 0xFF, 'b'}, []Character{
			Ch('a'), {Kind: Scalar, Value: 0xFFFD, Malformed: true}, Ch('b'), {Kind: StreamEnd}}},
		{"utf8 truncated at close", UTF8, []byte{0xE2, 0x82}, []Character{
			{Kind: Scalar, Value: 0xFFFD, Malformed: true}, {Kind: StreamEnd}}},
		{"utf8 encoded surrogate", UTF8, []byte{0xED, 0xA0, 0x80}, []Character{
			{Kind: Surrogate, Value: 0xD800}, {Kind: StreamEnd}}},
		{"utf16le", UTF16LE, []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, []Character{Ch('h'), Ch('i'), {Kind: StreamEnd}}},
		{"utf16be pair", UTF16BE, []byte{0xD8, 0x3D, 0xDE, 0x00}, []Character{Ch(0x1F600), {Kind: StreamEnd}}},
		{"utf16le lone high", UTF16LE, []byte{0x00, 0xD8, 'a', 0}, []Character{
			{Kind: Surrogate, Value: 0xD800}, Ch('a'), {Kind: StreamEnd}}},
		{"utf16le lone low", UTF16LE, []byte{0x00, 0xDC}, []Character{
			{Kind: Surrogate, Value: 0xDC00}, {Kind: StreamEnd}}},
		{"crlf", UTF8, []byte("a\r\nb\rc"), []Character{
			Ch('a'), Ch('\n'), Ch('b'), Ch('\n'), Ch('c'), {Kind: StreamEnd}}},
		{"high ascii passes through", ASCII, []byte{0xE9}, []Character{Ch(0xE9), {Kind: StreamEnd}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, readAll(closedStream(tt.enc, tt.in)))
		})
	}
}

func TestHighASCIIReplacement(t *testing.T) {
	config := DefaultConfig()
	config.ReplaceHighASCIIWithReplacementChar = true
	s := New(ASCII, config)
	require.NoError(t, s.Feed([]byte{'a', 0x80}))
	s.Close()
	assert.Equal(t, []Character{Ch('a'), Ch(0xFFFD), {Kind: StreamEnd}}, readAll(s))
}

func TestStreamEmptyThenMore(t *testing.T) {
	s := New(UTF8, DefaultConfig())
	require.NoError(t, s.Feed([]byte{'a', 0xE2, 0x82}))
	assert.Equal(t, Ch('a'), s.Read())
	assert.Equal(t, StreamEmpty, s.Read().Kind)
	assert.Equal(t, StreamEmpty, s.Read().Kind, "an empty read consumes nothing")

	require.NoError(t, s.Feed([]byte{0xAC}))
	assert.Equal(t, Ch('€'), s.Read())
	assert.Equal(t, StreamEmpty, s.Read().Kind)
	s.Close()
	assert.Equal(t, StreamEnd, s.Read().Kind)
	assert.Equal(t, StreamEnd, s.Read().Kind)
}

func TestTrailingCRWaitsForInput(t *testing.T) {
	s := New(UTF8, DefaultConfig())
	require.NoError(t, s.Feed([]byte("a\r")))
	assert.Equal(t, Ch('a'), s.Read())
	assert.Equal(t, StreamEmpty, s.Read().Kind)
	require.NoError(t, s.Feed([]byte("\nb")))
	assert.Equal(t, Ch('\n'), s.Read())
	assert.Equal(t, Ch('b'), s.Read())
}

func TestSplitBOM(t *testing.T) {
	s := New(UTF8, DefaultConfig())
	require.NoError(t, s.Feed([]byte{0xEF, 0xBB}))
	assert.Equal(t, StreamEmpty, s.Read().Kind)
	require.NoError(t, s.Feed([]byte{0xBF, 'z'}))
	assert.Equal(t, Ch('z'), s.Read())
}

func TestFeedAfterClose(t *testing.T) {
	s := New(UTF8, DefaultConfig())
	s.Close()
	err := s.Feed([]byte("x"))
	require.Error(t, err)
	assert.Equal(t, ErrStreamClosed, errors.Cause(err))
}

func TestPeekMarkReset(t *testing.T) {
	s := closedStream(UTF8, []byte("ab\ncd"))
	assert.Equal(t, Ch('a'), s.Peek(0))
	assert.Equal(t, Ch('\n'), s.Peek(2))
	assert.Equal(t, StreamEnd, s.Peek(10).Kind)

	m := s.Mark()
	s.Read()
	s.Read()
	s.Read()
	assert.Equal(t, Ch('c'), s.Read())
	assert.Equal(t, Location{Line: 2, Column: 1, Offset: 3}, s.Location())
	s.Reset(m)
	assert.Equal(t, Ch('a'), s.Read())
	assert.Equal(t, Location{Line: 1, Column: 1, Offset: 0}, s.Location())
}

func TestLocationsAfterBOM(t *testing.T) {
	s := closedStream(UTF8, []byte("\xEF\xBB\xBFa\r\nb"))
	s.Read()
	assert.Equal(t, Location{Line: 1, Column: 1, Offset: 3}, s.Location())
	s.Read()
	assert.Equal(t, Location{Line: 1, Column: 2, Offset: 4}, s.Location())
	s.Read()
	assert.Equal(t, Location{Line: 2, Column: 1, Offset: 6}, s.Location())
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name       string
		in         []byte
		want       Encoding
		confidence Confidence
	}{
		{"utf8 bom", []byte("\xEF\xBB\xBF<p>"), UTF8, Certain},
		{"utf16le bom", []byte{0xFF, 0xFE, '<', 0}, UTF16LE, Certain},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, '<'}, UTF16BE, Certain},
		{"meta charset", []byte(`<html><head><meta charset="utf-8"></head>`), UTF8, Tentative},
		{"meta http-equiv", []byte(`<meta http-equiv="Content-Type" content="text/html; charset=us-ascii">`), ASCII, Tentative},
		{"meta utf-16 means utf-8", []byte(`<meta charset="utf-16">`), UTF8, Tentative},
		{"utf16le without bom", []byte{'<', 0, 'p', 0, '>', 0, 'x', 0}, UTF16LE, Tentative},
		{"utf16be without bom", []byte{0, '<', 0, 'p', 0, '>', 0, 'x'}, UTF16BE, Tentative},
		{"valid utf8", []byte("héllo"), UTF8, Tentative},
		{"latin1 bytes", []byte{'h', 0xE9, 'l'}, ASCII, Tentative},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, confidence := DetectEncoding(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestParseEncoding(t *testing.T) {
	e, ok := ParseEncoding("UTF8")
	assert.True(t, ok)
	assert.Equal(t, UTF8, e)

	_, ok = ParseEncoding("shift_jis")
	assert.False(t, ok)
}
