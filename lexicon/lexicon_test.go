package lexicon

import (
	"strings"
	"testing"
)

func ptrInt(n int) *int { return &n }

func TestValidatePostLikeSchema(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"text":      {Type: "string", MaxLength: ptrInt(300)},
			"createdAt": {Type: "string"},
		},
		Required: []string{"text", "createdAt"},
	}
	value := map[string]any{
		"text":      "Hello, ATProto!",
		"createdAt": "2024-01-15T12:00:00Z",
	}
	if errs := Validate(schema, value); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateMissingRequiredAccumulates(t *testing.T) {
	schema := &Schema{
		Type:     "object",
		Required: []string{"name", "age"},
		Properties: map[string]*Schema{
			"name": {Type: "string"},
			"age":  {Type: "integer"},
		},
	}
	errs := Validate(schema, map[string]any{})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	paths := map[string]bool{}
	for _, e := range errs {
		paths[formatPath(e.Path)] = true
	}
	if !paths["name"] || !paths["age"] {
		t.Errorf("missing expected paths: %v", paths)
	}
}

func TestValidateNestedRequiredSingleError(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"profile": {
				Type:     "object",
				Required: []string{"email"},
				Properties: map[string]*Schema{
					"email": {Type: "string"},
				},
			},
		},
	}
	value := map[string]any{"profile": map[string]any{}}
	errs := Validate(schema, value)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if formatPath(errs[0].Path) != "profile.email" {
		t.Errorf("path = %q, want profile.email", formatPath(errs[0].Path))
	}
}

func TestValidateNestedMultipleViolationsCollapseToOneRecord(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"profile": {
				Type:     "object",
				Required: []string{"email", "phone"},
				Properties: map[string]*Schema{
					"email": {Type: "string"},
					"phone": {Type: "string"},
				},
			},
		},
	}
	value := map[string]any{"profile": map[string]any{}}
	errs := Validate(schema, value)
	if len(errs) != 1 {
		t.Fatalf("expected 1 collapsed error, got %d: %v", len(errs), errs)
	}
	if formatPath(errs[0].Path) != "profile" {
		t.Errorf("path = %q, want profile", formatPath(errs[0].Path))
	}
	if !strings.Contains(errs[0].Message, "email") || !strings.Contains(errs[0].Message, "phone") {
		t.Errorf("message = %q, want mentions of both email and phone", errs[0].Message)
	}
}

func TestValidateArrayItemWithMultipleViolationsCollapses(t *testing.T) {
	schema := &Schema{
		Type: "array",
		Items: &Schema{
			Type:      "string",
			MinLength: ptrInt(5),
			Enum:      []any{"allowed"},
		},
	}
	value := []any{"bad"}
	errs := Validate(schema, value)
	if len(errs) != 1 {
		t.Fatalf("expected 1 collapsed error, got %d: %v", len(errs), errs)
	}
	if formatPath(errs[0].Path) != "[0]" {
		t.Errorf("path = %q, want [0]", formatPath(errs[0].Path))
	}
}

func TestValidateArrayItemsRecordIndex(t *testing.T) {
	schema := &Schema{
		Type:  "array",
		Items: &Schema{Type: "integer", Minimum: float64Ptr(0)},
	}
	value := []any{float64(1), float64(-1), float64(2)}
	errs := Validate(schema, value)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if formatPath(errs[0].Path) != "[1]" {
		t.Errorf("path = %q, want [1]", formatPath(errs[0].Path))
	}
}

func float64Ptr(f float64) *float64 { return &f }

func TestValidateUnknownTypesAcceptAnything(t *testing.T) {
	for _, typ := range []string{"unknown", "bytes", "cid-link", "blob"} {
		schema := &Schema{Type: typ}
		if errs := Validate(schema, "anything goes"); len(errs) != 0 {
			t.Errorf("type %q: unexpected errors %v", typ, errs)
		}
	}
}

func TestValidateConstAcceptsAnyValue(t *testing.T) {
	schema := &Schema{HasConst: true, Const: "fixed"}
	if errs := Validate(schema, "fixed"); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateStringEnum(t *testing.T) {
	schema := &Schema{Type: "string", Enum: []any{"a", "b", "c"}}
	if errs := Validate(schema, "z"); len(errs) != 1 {
		t.Errorf("expected 1 enum violation, got %d", len(errs))
	}
	if errs := Validate(schema, "b"); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}
