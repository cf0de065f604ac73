package bytestream

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Encoding is one of the character encodings the stream can decode.
type Encoding uint8

const (
	UnknownEncoding Encoding = iota
	UTF8
	UTF16LE
	UTF16BE
	ASCII
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF16LE:
		return "utf-16le"
	case UTF16BE:
		return "utf-16be"
	case ASCII:
		return "ascii"
	}
	return "unknown"
}

// ParseEncoding maps an encoding label to an Encoding using the WHATWG label
// table. Labels of encodings the stream cannot decode return false.
func ParseEncoding(label string) (Encoding, bool) {
	_, name := charset.Lookup(label)
	switch name {
	case "utf-8":
		return UTF8, true
	case "utf-16le":
		return UTF16LE, true
	case "utf-16be":
		return UTF16BE, true
	case "windows-1252":
		// "ascii", "us-ascii" and "latin1" all resolve here.
		return ASCII, true
	}
	return UnknownEncoding, false
}

// Confidence tells how sure DetectEncoding is about its answer.
type Confidence uint8

const (
	Tentative Confidence = iota
	Certain
)

func (c Confidence) String() string {
	if c == Certain {
		return "certain"
	}
	return "tentative"
}

const maxSniffBytes = 64 * 1024

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

func bomFor(e Encoding) []byte {
	switch e {
	case UTF8:
		return bomUTF8
	case UTF16LE:
		return bomUTF16LE
	case UTF16BE:
		return bomUTF16BE
	}
	return nil
}

// DetectEncoding guesses the encoding of b. A byte order mark wins with
// Certain confidence. Otherwise, looking at no more than the first 64KiB, a
// UTF-16 zero byte heuristic is tried, then a <meta> charset declaration,
// then UTF-8 validity, falling back to ASCII.
func DetectEncoding(b []byte) (Encoding, Confidence) {
	switch {
	case bytes.HasPrefix(b, bomUTF8):
		return UTF8, Certain
	case bytes.HasPrefix(b, bomUTF16LE):
		return UTF16LE, Certain
	case bytes.HasPrefix(b, bomUTF16BE):
		return UTF16BE, Certain
	}
	if len(b) > maxSniffBytes {
		b = b[:maxSniffBytes]
	}
	if e, ok := utf16Heuristic(b); ok {
		return e, Tentative
	}
	if e, ok := metaCharset(b); ok {
		return e, Tentative
	}
	if utf8.Valid(trimIncompleteRune(b)) {
		return UTF8, Tentative
	}
	return ASCII, Tentative
}

// metaCharset runs a tokenizer over b looking for the first <meta> element
// that declares a supported encoding.
func metaCharset(b []byte) (Encoding, bool) {
	z := html.NewTokenizer(bytes.NewReader(b))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return UnknownEncoding, false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr || atom.Lookup(name) != atom.Meta {
				continue
			}
			var label, httpEquiv, content string
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "charset":
					label = string(val)
				case "http-equiv":
					httpEquiv = strings.ToLower(string(val))
				case "content":
					content = string(val)
				}
			}
			if label == "" && httpEquiv == "content-type" {
				label = charsetFromContentType(content)
			}
			if label == "" {
				continue
			}
			e, ok := ParseEncoding(label)
			if !ok {
				continue
			}
			if e == UTF16LE || e == UTF16BE {
				// A document that can declare itself in ASCII is not UTF-16.
				e = UTF8
			}
			return e, true
		}
	}
}

func charsetFromContentType(content string) string {
	_, params, err := mime.ParseMediaType(content)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// utf16Heuristic looks at where the zero bytes are: ASCII text encoded as
// UTF-16 has one in every code unit, on the odd side for little endian.
func utf16Heuristic(b []byte) (Encoding, bool) {
	if len(b) > 1024 {
		b = b[:1024]
	}
	units := len(b) / 2
	if units < 2 {
		return UnknownEncoding, false
	}
	var even, odd int
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 {
			even++
		}
		if b[i+1] == 0 {
			odd++
		}
	}
	switch {
	case odd*10 >= units*4 && even*20 < units:
		return UTF16LE, true
	case even*10 >= units*4 && odd*20 < units:
		return UTF16BE, true
	}
	return UnknownEncoding, false
}

// trimIncompleteRune drops a multi-byte sequence cut off at the end of b.
func trimIncompleteRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}
