// Package variant maps a backend selection and user inputs to the set of
// templates and the template context used to generate a project.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Backend identifies one server adapter target for the generated project.
type Backend string

const (
	Axum       Backend = "axum"
	ActixWeb   Backend = "actix-web"
	Tide       Backend = "tide"
	WasmTarget Backend = "wasm-target"
)

var backends = []Backend{Axum, ActixWeb, Tide, WasmTarget}

// Backends returns every supported backend in a fixed order.
func Backends() []Backend {
	out := make([]Backend, len(backends))
	copy(out, backends)
	return out
}

// BackendNames returns the identifiers of Backends as strings.
func BackendNames() []string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	return names
}

func (b Backend) String() string {
	return string(b)
}

// ErrUnknownBackend is matched by every *ConfigError.
var ErrUnknownBackend = errors.New("unknown backend")

// ConfigError reports a backend identifier outside the supported set.
type ConfigError struct {
	Backend string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unknown backend %q (valid backends: %s)", e.Backend, strings.Join(BackendNames(), ", "))
}

func (e *ConfigError) Unwrap() error {
	return ErrUnknownBackend
}

// ParseBackend validates a backend identifier. Matching is exact.
func ParseBackend(id string) (Backend, error) {
	for _, b := range backends {
		if string(b) == id {
			return b, nil
		}
	}
	return "", &ConfigError{Backend: id}
}
