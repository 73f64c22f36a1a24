package variant

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/cpcf/scaffold/template"
)

// DefaultHashiraVersion is the published hashira version referenced when
// local packages are not used.
const DefaultHashiraVersion = "0.0.2"

// Context variable names defined by BuildContext.
const (
	VarCrateName      = "crate_name"
	VarCrateIdent     = "crate_ident"
	VarAuthors        = "authors"
	VarUseLocal       = "use_local"
	VarHashiraVersion = "hashira_version"
)

//go:embed templates
var embedded embed.FS

// FS returns the built-in template tree. Paths in TemplatePath.Source are
// relative to its root.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatePath pairs a template source path with the project-relative path
// of the file it renders to.
type TemplatePath struct {
	Source string
	Output string
}

// Variant is the set of templates generating a project for one backend.
type Variant struct {
	Backend   Backend
	Templates []TemplatePath
}

var common = []TemplatePath{
	{Source: "common/README.md.tmpl", Output: "README.md"},
	{Source: "common/gitignore.tmpl", Output: ".gitignore"},
	{Source: "common/ci.yml.tmpl", Output: ".github/workflows/ci.yml"},
}

var server = []TemplatePath{
	{Source: "common/src/lib.rs.tmpl", Output: "src/lib.rs"},
	{Source: "common/src/components.rs.tmpl", Output: "src/components.rs"},
}

var templateSets = map[Backend][]TemplatePath{
	Axum: {
		{Source: "axum/Cargo.toml.tmpl", Output: "Cargo.toml"},
		{Source: "axum/src/main.rs.tmpl", Output: "src/main.rs"},
	},
	ActixWeb: {
		{Source: "actix-web/Cargo.toml.tmpl", Output: "Cargo.toml"},
		{Source: "actix-web/src/main.rs.tmpl", Output: "src/main.rs"},
	},
	Tide: {
		{Source: "tide/Cargo.toml.tmpl", Output: "Cargo.toml"},
		{Source: "tide/src/main.rs.tmpl", Output: "src/main.rs"},
	},
	WasmTarget: {
		{Source: "wasm-target/Cargo.toml.tmpl", Output: "Cargo.toml"},
		{Source: "wasm-target/src/lib.rs.tmpl", Output: "src/lib.rs"},
	},
}

// SelectVariant returns the templates for backendID. Server backends also
// get the shared application sources; every backend gets the common
// project files.
func SelectVariant(backendID string) (Variant, error) {
	b, err := ParseBackend(backendID)
	if err != nil {
		return Variant{}, err
	}

	var paths []TemplatePath
	paths = append(paths, templateSets[b]...)
	if b != WasmTarget {
		paths = append(paths, server...)
	}
	paths = append(paths, common...)

	return Variant{Backend: b, Templates: paths}, nil
}

// Inputs are the user-supplied values for one generated project.
type Inputs struct {
	CrateName      string
	Authors        string
	UseLocal       bool
	HashiraVersion string // DefaultHashiraVersion when empty
}

// BuildContext returns the template context for in.
func BuildContext(in Inputs) template.Context {
	version := in.HashiraVersion
	if version == "" {
		version = DefaultHashiraVersion
	}
	return template.NewContext(map[string]template.Value{
		VarCrateName:      template.StringValue(in.CrateName),
		VarCrateIdent:     template.StringValue(CrateIdent(in.CrateName)),
		VarAuthors:        template.StringValue(in.Authors),
		VarUseLocal:       template.BoolValue(in.UseLocal),
		VarHashiraVersion: template.StringValue(version),
	})
}

// BuildContextForVariant validates backendID and builds the context for
// the given values.
func BuildContextForVariant(backendID, crateName, authors string, useLocal bool) (template.Context, error) {
	if _, err := ParseBackend(backendID); err != nil {
		return template.Context{}, err
	}
	return BuildContext(Inputs{
		CrateName: crateName,
		Authors:   authors,
		UseLocal:  useLocal,
	}), nil
}

// CrateIdent converts a crate name into the identifier Rust code uses to
// refer to it.
func CrateIdent(crateName string) string {
	return strings.ReplaceAll(crateName, "-", "_")
}
