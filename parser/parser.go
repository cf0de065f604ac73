// Package parser turns HTML bytes into a document tree following the WHATWG
// parsing algorithm: https://html.spec.whatwg.org/#parsing
package parser

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// sniffBytes is how much input the parser waits for before it guesses the
// encoding of an open stream.
const sniffBytes = 1024

type options struct {
	logger       logrus.FieldLogger
	scripting    bool
	iframeSrcdoc bool
	encoding     bytestream.Encoding
	streamConfig bytestream.Config
}

// Option configures a Parser, see NewParser.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{streamConfig: bytestream.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	return o
}

// WithEncoding skips encoding detection and decodes the input as e.
func WithEncoding(e bytestream.Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

// WithScripting sets the scripting flag. It only changes how <noscript> is
// parsed; scripts never run.
func WithScripting(enabled bool) Option {
	return func(o *options) {
		o.scripting = enabled
	}
}

// WithLogger sets the logger parse errors, tokenizer states and insertion
// mode changes are reported to. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStreamConfig sets the newline and high ASCII handling of the input
// stream.
func WithStreamConfig(c bytestream.Config) Option {
	return func(o *options) {
		o.streamConfig = c
	}
}

// WithIframeSrcdoc parses the input as an iframe srcdoc document, which is
// never in quirks mode.
func WithIframeSrcdoc(srcdoc bool) Option {
	return func(o *options) {
		o.iframeSrcdoc = srcdoc
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// levelEnabled reports whether l would log at level, so that hot paths can
// skip building fields.
func levelEnabled(l logrus.FieldLogger, level logrus.Level) bool {
	switch l := l.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(level)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(level)
	}
	return false
}

// Progress is what the tree constructor tells the tokenizer after each
// token.
type Progress struct {
	// TokenizerState, when set, is the state the tokenizer continues in.
	TokenizerState *TokenizerState
	// AllowCDATA is set when the adjusted current node is a foreign element,
	// the only place CDATA sections are recognised.
	AllowCDATA bool
}

func MakeProgress(state *TokenizerState, allowCDATA bool) *Progress {
	return &Progress{
		TokenizerState: state,
		AllowCDATA:     allowCDATA,
	}
}

// Result is a parsed document with the errors found on the way.
type Result struct {
	Document *dom.Document
	// Root is the document node, or the html element holding the nodes of
	// a fragment.
	Root     dom.NodeID
	Errors   []ParseError
	Encoding bytestream.Encoding
}

// Parser drives the pipeline: the tree constructor pulls tokens from the
// tokenizer, which pulls characters from the stream. A Parser handles one
// document and is not safe for concurrent use.
type Parser struct {
	Stream          *bytestream.Stream
	Tokenizer       *HTMLTokenizer
	TreeConstructor *HTMLTreeConstructor

	errs        *ErrorLog
	logger      logrus.FieldLogger
	progress    *Progress
	root        dom.NodeID
	encodingSet bool
	finished    bool
}

// NewParser creates a parser with an empty, open stream. Feed it bytes and
// call Run.
func NewParser(opts ...Option) *Parser {
	o := newOptions(opts)
	errs := NewErrorLog(o.logger)
	stream := bytestream.New(o.encoding, o.streamConfig)
	doc := dom.NewDocument()
	return &Parser{
		Stream:          stream,
		Tokenizer:       NewHTMLTokenizer(stream, errs),
		TreeConstructor: NewHTMLTreeConstructor(doc, errs, opts...),
		errs:            errs,
		logger:          o.logger,
		root:            doc.Root(),
		encodingSet:     o.encoding != bytestream.UnknownEncoding,
	}
}

// Feed appends input bytes.
func (p *Parser) Feed(b []byte) error {
	if p.finished {
		return fatal(ErrParserFinished, "feed")
	}
	if err := p.Stream.Feed(b); err != nil {
		return fatal(err, "feed")
	}
	return nil
}

// Close marks the end of the input.
func (p *Parser) Close() {
	p.Stream.Close()
}

// sniff settles the encoding once enough input is buffered.
func (p *Parser) sniff() bool {
	if p.encodingSet {
		return true
	}
	if !p.Stream.Closed() && p.Stream.Buffered() < sniffBytes {
		return false
	}
	enc, confidence := p.Stream.DetectEncoding()
	p.Stream.SetEncoding(enc)
	p.encodingSet = true
	p.logger.WithFields(logrus.Fields{
		"encoding":   enc.String(),
		"confidence": confidence.String(),
	}).Debug("detected encoding")
	return true
}

// Run parses as far as the buffered input allows. It returns
// ErrNeedMoreInput when the stream is open and drained, and nil once the
// whole document has been built.
func (p *Parser) Run() error {
	if p.finished {
		return fatal(ErrParserFinished, "run")
	}
	if p.Tokenizer == nil || p.TreeConstructor == nil || p.TreeConstructor.Document() == nil {
		return fatal(ErrNoTokenizer, "run")
	}
	if !p.sniff() {
		return ErrNeedMoreInput
	}

	for {
		t, err := p.Tokenizer.Token(p.progress)
		// The tokenizer has applied the instructions, a retry must not
		// apply them again.
		p.progress = nil
		if err != nil {
			return err
		}
		p.progress = p.TreeConstructor.ProcessToken(t)
		if err := p.TreeConstructor.Err(); err != nil {
			p.finished = true
			return fatal(err, "tree construction")
		}
		if t.Type == EndOfFileToken {
			p.finished = true
			return nil
		}
	}
}

// Stop aborts parsing: the stream is closed and the tree constructor gets an
// end-of-file token, so the document is left in a consistent state.
func (p *Parser) Stop() {
	if p.finished {
		return
	}
	p.Stream.Close()
	eof := &Token{Type: EndOfFileToken, Location: p.Stream.Location()}
	p.TreeConstructor.ProcessToken(eof)
	p.finished = true
}

// Finished reports whether the document is complete.
func (p *Parser) Finished() bool {
	return p.finished
}

// Result returns the document, with the errors found so far.
func (p *Parser) Result() *Result {
	return &Result{
		Document: p.TreeConstructor.Document(),
		Root:     p.root,
		Errors:   p.errs.Errors(),
		Encoding: p.Stream.Encoding(),
	}
}

const readChunk = 32 * 1024

// Parse reads r to the end and parses it.
func Parse(r io.Reader, opts ...Option) (*Result, error) {
	p := NewParser(opts...)
	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := p.Feed(buf[:n]); ferr != nil {
				return nil, ferr
			}
			if rerr := p.Run(); rerr != nil && rerr != ErrNeedMoreInput {
				return nil, rerr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading input")
		}
	}
	p.Close()
	if err := p.Run(); err != nil {
		return nil, err
	}
	return p.Result(), nil
}

// ParseString parses s. Without WithEncoding the input is taken as UTF-8.
func ParseString(s string, opts ...Option) (*Result, error) {
	p := NewParser(append([]Option{WithEncoding(bytestream.UTF8)}, opts...)...)
	if err := p.Feed([]byte(s)); err != nil {
		return nil, err
	}
	p.Close()
	if err := p.Run(); err != nil {
		return nil, err
	}
	return p.Result(), nil
}
