package config

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/invopop/jsonschema"

	"github.com/cpcf/scaffold/variant"
)

// Failure modes accepted in FailureMode.
const (
	FailFast   = "fail-fast"
	FailAtEnd  = "fail-at-end"
	BestEffort = "best-effort"
)

var crateNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Scaffold describes one project generation. It can be loaded from YAML or
// TOML; flags of the CLI override individual fields.
type Scaffold struct {
	Backend        string `yaml:"backend" toml:"backend" json:"backend" jsonschema:"enum=axum,enum=actix-web,enum=tide,enum=wasm-target,description=Server adapter of the generated project"`
	CrateName      string `yaml:"crate_name" toml:"crate_name" json:"crate_name" jsonschema:"pattern=^[A-Za-z][A-Za-z0-9_-]*$"`
	Authors        string `yaml:"authors" toml:"authors" json:"authors"`
	UseLocal       bool   `yaml:"use_local" toml:"use_local" json:"use_local,omitempty" jsonschema:"description=Depend on the hashira crates of a local checkout"`
	HashiraVersion string `yaml:"hashira_version" toml:"hashira_version" json:"hashira_version,omitempty"`
	Output         string `yaml:"output" toml:"output" json:"output,omitempty" jsonschema:"description=Directory the project is generated into"`
	Templates      string `yaml:"templates" toml:"templates" json:"templates,omitempty" jsonschema:"description=Directory overriding the built-in templates"`
	Workers        int    `yaml:"workers" toml:"workers" json:"workers,omitempty" jsonschema:"minimum=0"`
	FailureMode    string `yaml:"failure_mode" toml:"failure_mode" json:"failure_mode,omitempty" jsonschema:"enum=fail-fast,enum=fail-at-end,enum=best-effort"`
	Manifest       bool   `yaml:"manifest" toml:"manifest" json:"manifest,omitempty"`
}

// Default returns a Scaffold with every optional field set.
func Default() Scaffold {
	return Scaffold{
		HashiraVersion: variant.DefaultHashiraVersion,
		Output:         ".",
		FailureMode:    FailFast,
	}
}

// Validate implements Validator.
func (s *Scaffold) Validate() error {
	if _, err := variant.ParseBackend(s.Backend); err != nil {
		return err
	}
	if s.CrateName == "" {
		return fmt.Errorf("crate_name is required")
	}
	if !crateNamePattern.MatchString(s.CrateName) {
		return fmt.Errorf("crate_name %q must start with a letter and contain only letters, digits, '_' or '-'", s.CrateName)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	switch s.FailureMode {
	case "", FailFast, FailAtEnd, BestEffort:
	default:
		return fmt.Errorf("unknown failure_mode %q", s.FailureMode)
	}
	return nil
}

// Inputs returns the values the template context is built from.
func (s *Scaffold) Inputs() variant.Inputs {
	return variant.Inputs{
		CrateName:      s.CrateName,
		Authors:        s.Authors,
		UseLocal:       s.UseLocal,
		HashiraVersion: s.HashiraVersion,
	}
}

// Schema returns the JSON Schema of the Scaffold configuration file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Scaffold{})
	schema.Title = "scaffold configuration"
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return out, nil
}
