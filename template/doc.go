// Package template implements the small template language used for
// scaffold files.
//
// # Syntax
//
// Variables are interpolated with double braces:
//
//	name = "{{ crate_name }}"
//
// Conditionals select between two branches; the else branch is optional:
//
//	{% if use_local -%}
//	hashira = { path = "../../packages/hashira" }
//	{% else -%}
//	hashira = "0.0.2"
//	{% endif -%}
//
// A condition is a variable name or "not" followed by a variable name. The
// variable must be bound to a boolean. A condition on a string fails when
// rendering with NonBooleanCondition, which errors.Is reports as both
// ErrRender and ErrParse.
//
// A "-" directly inside a delimiter trims whitespace on that side of the
// tag: "{%-" and "{{-" remove trailing spaces and tabs of the preceding text
// and then at most one line break; "-%}" and "-}}" do the same for the text
// that follows. Trimming happens once, at parse time.
//
// There are no loops, filters or expressions beyond the above.
//
// # Usage
//
//	tmpl, err := template.ParseNamed("Cargo.toml", src)
//	if err != nil {
//		return err
//	}
//	out, err := tmpl.Render(template.NewContext(map[string]template.Value{
//		"crate_name": template.StringValue("my_app"),
//		"use_local":  template.BoolValue(true),
//	}))
//
// Templates are immutable after parsing and may be rendered concurrently.
package template
