// Package lexicon implements runtime validation of arbitrary data against
// JSON-Schema-like ATProto type definitions.
package lexicon

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Schema is a single lexicon type definition node. Only the fields
// relevant to validation are modelled; unknown fields in a loaded
// document are ignored.
type Schema struct {
	Type         string             `json:"type"`
	Const        any                `json:"const,omitempty"`
	HasConst     bool               `json:"-"`
	Minimum      *float64           `json:"minimum,omitempty"`
	Maximum      *float64           `json:"maximum,omitempty"`
	MinLength    *int               `json:"minLength,omitempty"`
	MaxLength    *int               `json:"maxLength,omitempty"`
	MaxGraphemes *int               `json:"maxGraphemes,omitempty"`
	Enum         []any              `json:"enum,omitempty"`
	Required     []string           `json:"required,omitempty"`
	Properties   map[string]*Schema `json:"properties,omitempty"`
	Items        *Schema            `json:"items,omitempty"`
}

// Document is a full lexicon: {lexicon, id, defs: {main, ...}}.
type Document struct {
	Lexicon int                `json:"lexicon"`
	ID      string             `json:"id"`
	Defs    map[string]*Schema `json:"defs"`
}

// MainSchema returns the document's top-level ("main") schema.
func (d Document) MainSchema() (*Schema, error) {
	s, ok := d.Defs["main"]
	if !ok {
		return nil, fmt.Errorf("lexicon: document %q has no main definition", d.ID)
	}
	return s, nil
}

// Error is a single validation failure, anchored to a path within the
// value being validated.
type Error struct {
	Path    []string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", formatPath(e.Path), e.Message)
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

// Validate checks value against schema, returning every violation found
// (never short-circuiting within a single level).
func Validate(schema *Schema, value any) []Error {
	return validateAt(schema, value, nil)
}

func validateAt(schema *Schema, value any, path []string) []Error {
	if schema == nil {
		return []Error{{Path: path, Message: "nil schema"}}
	}

	switch schema.Type {
	case "null":
		if value != nil {
			return []Error{{Path: path, Message: "expected null"}}
		}
		return nil

	case "boolean":
		if _, ok := value.(bool); !ok {
			return []Error{{Path: path, Message: fmt.Sprintf("expected boolean, got %T", value)}}
		}
		return nil

	case "integer":
		n, ok := asFloat(value)
		if !ok {
			return []Error{{Path: path, Message: fmt.Sprintf("expected integer, got %T", value)}}
		}
		var errs []Error
		if schema.Minimum != nil && n < *schema.Minimum {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("must be >= %v", *schema.Minimum)})
		}
		if schema.Maximum != nil && n > *schema.Maximum {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("must be <= %v", *schema.Maximum)})
		}
		if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
			errs = append(errs, Error{Path: path, Message: "not in enum"})
		}
		return errs

	case "string":
		s, ok := value.(string)
		if !ok {
			return []Error{{Path: path, Message: fmt.Sprintf("expected string, got %T", value)}}
		}
		var errs []Error
		length := utf8.RuneCountInString(s)
		if schema.MinLength != nil && length < *schema.MinLength {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("length %d below minLength %d", length, *schema.MinLength)})
		}
		if schema.MaxLength != nil && length > *schema.MaxLength {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("length %d exceeds maxLength %d", length, *schema.MaxLength)})
		}
		if schema.MaxGraphemes != nil && length > *schema.MaxGraphemes {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("grapheme count %d exceeds maxGraphemes %d", length, *schema.MaxGraphemes)})
		}
		if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
			errs = append(errs, Error{Path: path, Message: "not in enum"})
		}
		return errs

	case "object":
		m, ok := value.(map[string]any)
		if !ok {
			return []Error{{Path: path, Message: fmt.Sprintf("expected object, got %T", value)}}
		}
		var errs []Error
		for _, req := range schema.Required {
			if _, present := m[req]; !present {
				errs = append(errs, Error{Path: appendPath(path, req), Message: "required property missing"})
			}
		}
		for name, propSchema := range schema.Properties {
			v, present := m[name]
			if !present {
				continue
			}
			propPath := appendPath(path, name)
			if sub := validateAt(propSchema, v, propPath); len(sub) > 0 {
				errs = append(errs, collapseSubErrors(propPath, sub))
			}
		}
		return errs

	case "array":
		items, ok := value.([]any)
		if !ok {
			return []Error{{Path: path, Message: fmt.Sprintf("expected array, got %T", value)}}
		}
		var errs []Error
		if schema.MinLength != nil && len(items) < *schema.MinLength {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("length %d below minLength %d", len(items), *schema.MinLength)})
		}
		if schema.MaxLength != nil && len(items) > *schema.MaxLength {
			errs = append(errs, Error{Path: path, Message: fmt.Sprintf("length %d exceeds maxLength %d", len(items), *schema.MaxLength)})
		}
		if schema.Items != nil {
			for i, item := range items {
				itemPath := appendPath(path, fmt.Sprintf("[%d]", i))
				if sub := validateAt(schema.Items, item, itemPath); len(sub) > 0 {
					errs = append(errs, collapseSubErrors(itemPath, sub))
				}
			}
		}
		return errs

	case "unknown", "bytes", "cid-link", "blob":
		return nil

	case "":
		if schema.HasConst {
			return nil
		}
		return []Error{{Path: path, Message: "schema missing type"}}

	default:
		return []Error{{Path: path, Message: fmt.Sprintf("unrecognized schema type %q", schema.Type)}}
	}
}

// collapseSubErrors folds a property's or array item's own sub-errors
// into a single record. A lone sub-error is returned unchanged, keeping
// its full path; several are anchored at basePath with their messages
// joined (prefixed with their path relative to basePath when they go
// deeper than one level) rather than spliced flat into the parent.
func collapseSubErrors(basePath []string, sub []Error) Error {
	if len(sub) == 1 {
		return sub[0]
	}
	msgs := make([]string, 0, len(sub))
	for _, e := range sub {
		if len(e.Path) > len(basePath) {
			msgs = append(msgs, formatPath(e.Path[len(basePath):])+": "+e.Message)
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	return Error{Path: basePath, Message: strings.Join(msgs, "; ")}
}

func appendPath(path []string, seg string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	out = append(out, seg)
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
