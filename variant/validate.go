package variant

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cpcf/scaffold/template"
)

// Validate parses every template of v from fsys and checks it against ctx
// for both values of use_local, so a template referencing a variable the
// context does not define fails here rather than during generation.
// Condition variables bound to strings are reported as well, even on paths
// not reachable with ctx.
func Validate(fsys fs.FS, v Variant, ctx template.Context) error {
	var errs []error
	for _, tp := range v.Templates {
		if err := validateTemplate(fsys, tp, ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Backend, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateAll runs Validate for every backend with the context BuildContext
// returns for in.
func ValidateAll(fsys fs.FS, in Inputs) error {
	ctx := BuildContext(in)
	var errs []error
	for _, b := range backends {
		v, err := SelectVariant(string(b))
		if err != nil {
			return err
		}
		if err := Validate(fsys, v, ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateTemplate(fsys fs.FS, tp TemplatePath, ctx template.Context) error {
	src, err := fs.ReadFile(fsys, tp.Source)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := template.ParseNamed(tp.Source, string(src))
	if err != nil {
		return err
	}

	for _, name := range tmpl.Conditions() {
		v, ok := ctx.Lookup(name)
		if !ok {
			continue
		}
		if _, isBool := v.Bool(); !isBool {
			return &template.Error{
				Kind:     template.NonBooleanCondition,
				Template: tp.Source,
				Name:     name,
				Detail:   fmt.Sprintf("condition variables must be booleans, got %s", v.Kind()),
			}
		}
	}

	for _, useLocal := range []bool{true, false} {
		if err := tmpl.Check(ctx.With(VarUseLocal, template.BoolValue(useLocal))); err != nil {
			return fmt.Errorf("use_local=%t: %w", useLocal, err)
		}
	}
	return nil
}
