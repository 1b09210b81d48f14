package textblock

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config wires an Engine. Nil fields take their defaults.
type Config struct {
	// Registry holds registered formats and enhancements. Engines that
	// share a Registry see the same extensions.
	Registry *Registry

	// Sanitizer cleans html blocks. Default: DefaultPolicy().
	Sanitizer Sanitizer

	// Markdown renders markdown blocks. Default: NewGoldmark with
	// DefaultOptions().Markdown, sanitized by Sanitizer.
	Markdown MarkdownRenderer

	// Stripper reduces HTML to text for ExtractText. Default: StripTags.
	Stripper Stripper

	// Codec encodes placeholders. Default: MarkerCodec{DefaultMarker}.
	Codec Codec

	// Logger receives debug events. Default: slog.Default().
	Logger *slog.Logger

	// Concurrency bounds each section or placeholder fan-out. Zero means
	// unlimited.
	Concurrency int
}

// DefaultConfig returns the configuration produced by DefaultOptions.
func DefaultConfig() *Config {
	cfg, err := DefaultOptions().Config()
	if err != nil {
		// DefaultOptions carries no user rules that could fail to compile.
		panic(err)
	}
	return cfg
}

// Options is the declarative, file-loadable form of Config.
type Options struct {
	Markdown    MarkdownOptions  `yaml:"markdown"`
	Sanitizer   SanitizerOptions `yaml:"sanitizer"`
	Marker      string           `yaml:"marker"` // must contain '-'
	Concurrency int              `yaml:"concurrency"`
}

// MarkdownOptions toggles goldmark features.
type MarkdownOptions struct {
	GFM         bool `yaml:"gfm"`         // tables, strikethrough, linkify, task lists
	HardWraps   bool `yaml:"hard_wraps"`  // newlines become <br>
	XHTML       bool `yaml:"xhtml"`       // self-closing void elements
	Typographer bool `yaml:"typographer"` // smart quotes and dashes
	HeadingIDs  bool `yaml:"heading_ids"` // auto-generated id attributes
}

// SanitizerOptions extends the UGC policy.
type SanitizerOptions struct {
	AllowDataAttributes bool       `yaml:"allow_data_attributes"`
	AllowAttrs          []AttrRule `yaml:"allow_attrs"`
	TargetBlank         bool       `yaml:"target_blank"`
}

// AttrRule allows Attrs on Elements (on every element when Elements is
// empty), optionally only when the value matches the Matching regexp.
type AttrRule struct {
	Attrs    []string `yaml:"attrs"`
	Elements []string `yaml:"elements"`
	Matching string   `yaml:"matching"`
}

// DefaultOptions returns GFM markdown, the plain UGC policy and the default
// marker.
func DefaultOptions() *Options {
	return &Options{
		Markdown: MarkdownOptions{GFM: true},
		Marker:   DefaultMarker,
	}
}

// LoadOptions reads YAML options on top of DefaultOptions. Unknown keys
// are rejected.
func LoadOptions(r io.Reader) (*Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("textblock: load options: %w", err)
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("textblock: load options: concurrency must not be negative")
	}
	if !strings.Contains(opts.Marker, "-") {
		return nil, fmt.Errorf("textblock: load options: marker %q must contain '-'", opts.Marker)
	}
	return opts, nil
}

// Config builds the runtime configuration described by o.
func (o *Options) Config() (*Config, error) {
	policy, err := NewPolicy(o.Sanitizer)
	if err != nil {
		return nil, fmt.Errorf("textblock: %w", err)
	}
	return &Config{
		Registry:    NewRegistry(),
		Sanitizer:   policy,
		Markdown:    NewGoldmark(o.Markdown, policy),
		Stripper:    StripperFunc(stripTags),
		Codec:       MarkerCodec{Marker: o.Marker},
		Logger:      slog.Default(),
		Concurrency: o.Concurrency,
	}, nil
}
