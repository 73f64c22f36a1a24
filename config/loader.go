// Package config loads scaffold configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Validator defines an interface that configuration types can implement
// to provide custom validation logic
type Validator interface {
	Validate() error
}

// Load reads a configuration file, choosing the decoder by extension:
// .toml for TOML, .yaml/.yml for YAML. If the target implements the
// Validator interface, validation will be called.
func Load[T any](path string, target *T) error {
	if err := Decode(path, target); err != nil {
		return err
	}
	return validate(target)
}

// Decode reads a configuration file like Load but skips validation. Use it
// when the decoded values are merged with other sources before they are
// complete.
func Decode[T any](path string, target *T) error {
	var decode func([]byte, *T) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decode = decodeTOML[T]
	case ".yaml", ".yml":
		decode = decodeYAML[T]
	default:
		return fmt.Errorf("unsupported configuration format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}

	data, err := readConfig(path)
	if err != nil {
		return err
	}
	return decode(data, target)
}

// LoadYAML loads any YAML configuration into the provided target struct.
// The target must be a pointer to the struct you want to unmarshal into.
// If the target implements the Validator interface, validation will be called.
func LoadYAML[T any](path string, target *T) error {
	data, err := readConfig(path)
	if err != nil {
		return err
	}
	return LoadYAMLFromString(string(data), target)
}

// LoadYAMLFromString loads YAML configuration from a string instead of a file.
func LoadYAMLFromString[T any](yamlContent string, target *T) error {
	if err := decodeYAML([]byte(yamlContent), target); err != nil {
		return err
	}
	return validate(target)
}

// LoadTOML loads TOML configuration into target, with the same validation
// rules as LoadYAML.
func LoadTOML[T any](path string, target *T) error {
	data, err := readConfig(path)
	if err != nil {
		return err
	}
	return LoadTOMLFromString(string(data), target)
}

// LoadTOMLFromString loads TOML configuration from a string.
func LoadTOMLFromString[T any](tomlContent string, target *T) error {
	if err := decodeTOML([]byte(tomlContent), target); err != nil {
		return err
	}
	return validate(target)
}

func decodeYAML[T any](data []byte, target *T) error {
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return nil
}

func decodeTOML[T any](data []byte, target *T) error {
	md, err := toml.Decode(string(data), target)
	if err != nil {
		return fmt.Errorf("failed to parse TOML configuration: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown configuration key %q", undecoded[0].String())
	}
	return nil
}

func readConfig(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", absPath, err)
	}
	return data, nil
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return nil
}
