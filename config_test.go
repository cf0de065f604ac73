package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gosub-io/gosub-engine/parser"
	"github.com/gosub-io/gosub-engine/parser/bytestream"
	"github.com/gosub-io/gosub-engine/parser/dom"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gosub.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "dump", cfg.Output.Format)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.True(t, cfg.Stream.TreatCRLFAsLF)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
[parser]
encoding = "windows-1252"
scripting = true
fragment = "svg path"

[log]
level = "debug"

[output]
format = "yaml"
find = "ul > li.done"
find_all = true
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "windows-1252", cfg.Parser.Encoding)
		assert.True(t, cfg.Parser.Scripting)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "yaml", cfg.Output.Format)
		assert.Equal(t, "ul > li.done", cfg.Output.Find)
		assert.True(t, cfg.Output.FindAll)
		// Keys not in the file keep their defaults.
		assert.True(t, cfg.Stream.ReplaceLoneCRWithLF)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "[parser]\nscript = true\n")
		_, err := loadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parser.script")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Parser.Encoding = "latin1"
	opts, err := cfg.options(logrus.New())
	require.NoError(t, err)

	res, err := parser.Parse(bytes.NewReader([]byte("<p>caf\xe9")), opts...)
	require.NoError(t, err)
	assert.Equal(t, bytestream.ASCII, res.Encoding)
	assert.Equal(t, "café", res.Document.TextContent(res.Document.DocumentElement()))

	cfg.Parser.Encoding = "klingon"
	_, err = cfg.options(logrus.New())
	assert.Error(t, err)
}

func TestFragmentContextFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fragment string
		want     parser.FragmentContext
		ok       bool
	}{
		{"", parser.FragmentContext{}, false},
		{"td", parser.FragmentContext{Name: "td", Namespace: dom.Htmlns}, true},
		{"svg path", parser.FragmentContext{Name: "path", Namespace: dom.Svgns}, true},
		{"math mi", parser.FragmentContext{Name: "mi", Namespace: dom.Mathmlns}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.fragment, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			cfg.Parser.Fragment = tt.fragment
			got, ok := cfg.fragmentContext()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteFormats(t *testing.T) {
	t.Parallel()

	res, err := parser.ParseString("<!DOCTYPE html><title>T</title><p>a<b>b")
	require.NoError(t, err)

	tests := []struct {
		format string
		want   string
	}{
		{"dump", "| <!DOCTYPE html>\n| <html>\n|   <head>\n|     <title>\n|       \"T\"\n|   <body>\n|     <p>\n|       \"a\"\n|       <b>\n|         \"b\"\n"},
		{"html", "<!DOCTYPE html><html><head><title>T</title></head><body><p>a<b>b</b></p></body></html>\n"},
		{"text", "Tab\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, write(&buf, tt.format, res))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, write(&buf, "yaml", res))
		var got report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "no-quirks", got.QuirksMode)
		assert.Equal(t, res.Document.Dump(res.Root), got.Tree)
		assert.Len(t, got.Errors, len(res.Errors))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, write(&bytes.Buffer{}, "pdf", res))
	})
}
