// Package processors provides built-in post-processors for generated
// project files.
package processors

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// TOMLCheck rejects rendered .toml files that are not valid TOML.
type TOMLCheck struct {
	// Require lists top-level tables that must be present, e.g. "package".
	Require []string
}

// NewTOMLCheck creates a TOML check requiring a [package] table in
// Cargo.toml files.
func NewTOMLCheck() *TOMLCheck {
	return &TOMLCheck{Require: []string{"package"}}
}

// ProcessContent implements the postprocess.Processor interface.
func (c *TOMLCheck) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !hasExt(filePath, ".toml") {
		return content, nil
	}

	var doc map[string]any
	if _, err := toml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	if filepath.Base(filePath) == "Cargo.toml" {
		for _, table := range c.Require {
			if _, ok := doc[table].(map[string]any); !ok {
				return nil, fmt.Errorf("missing [%s] table", table)
			}
		}
	}
	return content, nil
}

// YAMLCheck rejects rendered .yml and .yaml files that do not parse.
type YAMLCheck struct{}

func NewYAMLCheck() *YAMLCheck {
	return &YAMLCheck{}
}

// ProcessContent implements the postprocess.Processor interface.
func (c *YAMLCheck) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !hasExt(filePath, ".yml", ".yaml") {
		return content, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return content, nil
}

func hasExt(filePath string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
