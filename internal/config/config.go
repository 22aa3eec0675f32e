// Package config loads the optional YAML configuration file.
//
// The file is checked against an embedded CUE schema before it is decoded,
// so unknown keys, wrong types and out-of-range values are all reported with
// their path.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Config is the resolved configuration.
type Config struct {
	DB          string     `yaml:"db" json:"db"`
	BaseURL     string     `yaml:"base_url" json:"base_url"`
	Theme       string     `yaml:"theme" json:"theme"`
	PrefersDark bool       `yaml:"prefers_dark" json:"prefers_dark"`
	HTTP        HTTPConfig `yaml:"http" json:"http"`
	TaskLimit   int        `yaml:"task_limit" json:"task_limit"`
}

// HTTPConfig configures the base HTTP client.
type HTTPConfig struct {
	TimeoutMs    int  `yaml:"timeout_ms" json:"timeout_ms"`
	DisableHTTP2 bool `yaml:"disable_http2" json:"disable_http2"`
}

// Timeout returns the configured request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutMs) * time.Millisecond
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DB:        "cprum.db",
		BaseURL:   "http://localhost:8080",
		Theme:     "system",
		HTTP:      HTTPConfig{TimeoutMs: 30000},
		TaskLimit: 64,
	}
}

// ValidationError reports every schema violation of a config file.
type ValidationError struct {
	Path    string
	Details string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s:\n%s", e.Path, e.Details)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a schema violation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Load reads path over Default. An empty path returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
		}
		return cfg, err
	}
	return cfg, nil
}

// Parse validates data against the schema and decodes it onto cfg. Fields
// absent from data keep their value in cfg.
func Parse(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(raw); err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Validate checks a decoded document against the #Config schema.
func Validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	if raw == nil {
		raw = map[string]any{}
	}
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{
			Path:    "<input>",
			Details: strings.TrimSpace(cueerrors.Details(err, nil)),
			Err:     err,
		}
	}
	return nil
}
