package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gosub-io/gosub-engine/parser"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

var (
	cfgFile   string
	encoding  string
	scripting bool
	fragment  string
	format    string
	logLevel  string
	strict    bool
	find      string
	findAll   bool
)

var rootCmd = &cobra.Command{
	Use:   "gosub-parse [file]",
	Short: "Parse an HTML document and print its tree",
	Long: `gosub-parse runs the HTML5 parser over a file, or standard input when no
file is given, and prints the resulting tree.

Formats:
  dump  - html5lib test format
  html  - serialised HTML
  text  - text content
  yaml  - encoding, quirks mode, parse errors and the tree

With --find only the matching nodes are printed, as HTML.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "TOML config file")
	flags.StringVarP(&encoding, "encoding", "e", "", "input encoding label (default: detect)")
	flags.BoolVar(&scripting, "scripting", false, "parse with the scripting flag set")
	flags.StringVar(&fragment, "fragment", "", `parse as a fragment in this context element, e.g. "td" or "svg path"`)
	flags.StringVarP(&format, "format", "f", "dump", "output format: dump, html, text or yaml")
	flags.StringVar(&logLevel, "log-level", "warn", "log level; debug shows parse errors, trace every tokenizer state")
	flags.BoolVar(&strict, "strict", false, "exit with an error when the document has parse errors")
	flags.StringVar(&find, "find", "", `print the first node matching a selector such as "ul > li.done[title]:has(a)"`)
	flags.BoolVar(&findAll, "all", false, "with --find, print every match")
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("encoding") {
		cfg.Parser.Encoding = encoding
	}
	if flags.Changed("scripting") {
		cfg.Parser.Scripting = scripting
	}
	if flags.Changed("fragment") {
		cfg.Parser.Fragment = fragment
	}
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("find") {
		cfg.Output.Find = find
	}
	if flags.Changed("all") {
		cfg.Output.FindAll = findAll
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

func openInput(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", errors.Wrap(err, "opening input")
	}
	return f, args[0], nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	opts, err := cfg.options(logger)
	if err != nil {
		return err
	}
	var query *dom.Query
	if cfg.Output.Find != "" {
		if query, err = parseFind(cfg.Output.Find, cfg.Output.FindAll); err != nil {
			return err
		}
	}

	in, name, err := openInput(args)
	if err != nil {
		return err
	}
	defer in.Close()

	var res *parser.Result
	if ctx, ok := cfg.fragmentContext(); ok {
		src, err := io.ReadAll(in)
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		res, err = parser.ParseFragment(ctx, string(src), opts...)
		if err != nil {
			return err
		}
	} else {
		res, err = parser.Parse(in, opts...)
		if err != nil {
			return err
		}
	}
	logger.WithFields(logrus.Fields{
		"input":    name,
		"encoding": res.Encoding.String(),
		"errors":   len(res.Errors),
		"nodes":    res.Document.Len(),
	}).Info("parsed")

	out := bufio.NewWriter(cmd.OutOrStdout())
	if query != nil {
		n, err := writeMatches(out, res, query)
		if err != nil {
			return err
		}
		logger.WithField("matches", n).Info("query")
	} else if err := write(out, cfg.Output.Format, res); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(err, "writing output")
	}

	if strict && len(res.Errors) > 0 {
		return errors.Errorf("%s: %d parse errors, first: %s", name, len(res.Errors), res.Errors[0])
	}
	return nil
}

func write(w io.Writer, format string, res *parser.Result) error {
	doc := res.Document
	switch format {
	case "dump":
		_, err := fmt.Fprintln(w, doc.Dump(res.Root))
		return err
	case "html":
		if err := doc.Render(w, res.Root); err != nil {
			return errors.Wrap(err, "rendering")
		}
		_, err := fmt.Fprintln(w)
		return err
	case "text":
		_, err := fmt.Fprintln(w, doc.TextContent(res.Root))
		return err
	case "yaml":
		return writeYAML(w, newReport(res))
	}
	return errors.Errorf("unknown format %q", format)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gosub-parse: %v\n", err)
		os.Exit(1)
	}
}
