package main

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gosub-io/gosub-engine/parser"
	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

// Config is the optional TOML configuration file. Command line flags that
// are set explicitly win over it.
type Config struct {
	Parser ParserConfig `toml:"parser"`
	Stream StreamConfig `toml:"stream"`
	Log    LogConfig    `toml:"log"`
	Output OutputConfig `toml:"output"`
}

type ParserConfig struct {
	// Encoding is a WHATWG encoding label. Empty means detect.
	Encoding     string `toml:"encoding"`
	Scripting    bool   `toml:"scripting"`
	IframeSrcdoc bool   `toml:"iframe_srcdoc"`
	// Fragment is a context element such as "td" or "svg path". When set
	// the input is parsed as a fragment.
	Fragment string `toml:"fragment"`
}

type StreamConfig struct {
	TreatCRLFAsLF       bool `toml:"treat_crlf_as_lf"`
	ReplaceLoneCRWithLF bool `toml:"replace_lone_cr_with_lf"`
	ReplaceHighASCII    bool `toml:"replace_high_ascii"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type OutputConfig struct {
	// Format is "dump", "html", "text" or "yaml".
	Format string `toml:"format"`
	// Find, when set, prints the nodes matching this selector instead of
	// the whole tree. Only the first match unless FindAll is set.
	Find    string `toml:"find"`
	FindAll bool   `toml:"find_all"`
}

func defaultConfig() Config {
	sc := bytestream.DefaultConfig()
	return Config{
		Stream: StreamConfig{
			TreatCRLFAsLF:       sc.TreatCRLFAsLF,
			ReplaceLoneCRWithLF: sc.ReplaceLoneCRWithLF,
			ReplaceHighASCII:    sc.ReplaceHighASCIIWithReplacementChar,
		},
		Log:    LogConfig{Level: "warn"},
		Output: OutputConfig{Format: "dump"},
	}
}

// loadConfig reads the TOML file at path over the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// options turns the configuration into parser options.
func (c Config) options(logger logrus.FieldLogger) ([]parser.Option, error) {
	opts := []parser.Option{
		parser.WithLogger(logger),
		parser.WithScripting(c.Parser.Scripting),
		parser.WithIframeSrcdoc(c.Parser.IframeSrcdoc),
		parser.WithStreamConfig(bytestream.Config{
			TreatCRLFAsLF:                       c.Stream.TreatCRLFAsLF,
			ReplaceLoneCRWithLF:                 c.Stream.ReplaceLoneCRWithLF,
			ReplaceHighASCIIWithReplacementChar: c.Stream.ReplaceHighASCII,
		}),
	}
	if c.Parser.Encoding != "" {
		enc, ok := bytestream.ParseEncoding(c.Parser.Encoding)
		if !ok {
			return nil, errors.Errorf("unsupported encoding %q", c.Parser.Encoding)
		}
		opts = append(opts, parser.WithEncoding(enc))
	}
	return opts, nil
}

// fragmentContext parses a context element description like "td",
// "svg path" or "math mi".
func (c Config) fragmentContext() (parser.FragmentContext, bool) {
	if c.Parser.Fragment == "" {
		return parser.FragmentContext{}, false
	}
	ctx := parser.FragmentContext{Name: c.Parser.Fragment, Namespace: dom.Htmlns}
	if ns, name, ok := strings.Cut(c.Parser.Fragment, " "); ok {
		ctx.Name = name
		switch ns {
		case "svg":
			ctx.Namespace = dom.Svgns
		case "math":
			ctx.Namespace = dom.Mathmlns
		}
	}
	return ctx, true
}

// report is the YAML form of a parse result.
type report struct {
	Encoding   string        `yaml:"encoding"`
	QuirksMode string        `yaml:"quirks_mode"`
	Nodes      int           `yaml:"nodes"`
	Errors     []reportError `yaml:"errors"`
	Tree       string        `yaml:"tree,omitempty"`
}

type reportError struct {
	Class  string `yaml:"class"`
	Kind   string `yaml:"kind"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
	Offset int    `yaml:"offset"`
}

func newReport(res *parser.Result) report {
	r := report{
		Encoding:   res.Encoding.String(),
		QuirksMode: res.Document.QuirksMode().String(),
		Nodes:      res.Document.Len(),
		Errors:     make([]reportError, 0, len(res.Errors)),
		Tree:       res.Document.Dump(res.Root),
	}
	for _, e := range res.Errors {
		r.Errors = append(r.Errors, reportError{
			Class:  e.Class.String(),
			Kind:   string(e.Kind),
			Line:   e.Location.Line,
			Column: e.Location.Column,
			Offset: e.Location.Offset,
		})
	}
	return r
}

func writeYAML(w io.Writer, r report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encoding report")
	}
	return enc.Close()
}
