package tools

import (
	"context"
	"sort"
	"testing"

	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/schema"
)

func echoTool(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "echo",
		Schema:      schema.Schema{{Name: "text", Kind: schema.KindString, Required: true}},
		Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
			return p.String("text"), nil
		},
		Format: func(p schema.Params, result interface{}) (string, error) {
			return result.(string), nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("RegisterValidTools", func(t *testing.T) {
		registry, err := NewRegistry(echoTool("b"), echoTool("a"))
		if err != nil {
			t.Fatalf("NewRegistry() failed: %v", err)
		}
		if registry.Len() != 2 {
			t.Errorf("Expected 2 tools, got %d", registry.Len())
		}
		if _, ok := registry.Get("a"); !ok {
			t.Error("Expected tool 'a' to be registered")
		}
		names := registry.Names()
		if names[0] != "a" || names[1] != "b" {
			t.Errorf("Expected sorted names, got %v", names)
		}
	})

	t.Run("RejectDuplicateTool", func(t *testing.T) {
		_, err := NewRegistry(echoTool("dup"), echoTool("dup"))
		if err == nil {
			t.Fatal("Expected error when registering duplicate tool")
		}
		if !errors.Is(err, errors.ErrCodeInitializationFailed) {
			t.Errorf("Expected initialization error, got %v", err)
		}
	})

	t.Run("RejectMalformedTools", func(t *testing.T) {
		noName := echoTool("")
		noMethod := echoTool("x")
		noMethod.Method = nil
		noFormat := echoTool("y")
		noFormat.Format = nil
		badSchema := echoTool("z")
		badSchema.Schema = schema.Schema{{Name: "a", Kind: schema.KindString}, {Name: "a", Kind: schema.KindString}}

		for _, def := range []ToolDefinition{noName, noMethod, noFormat, badSchema} {
			if _, err := NewRegistry(def); err == nil {
				t.Errorf("Expected definition %q to be rejected", def.Name)
			}
		}
	})

	t.Run("ListDoesNotExposeInternals", func(t *testing.T) {
		registry, _ := NewRegistry(echoTool("a"))
		names := registry.Names()
		names[0] = "mutated"
		if _, ok := registry.Get("a"); !ok || registry.Names()[0] != "a" {
			t.Error("Expected registry to be unaffected by caller mutation")
		}
	})
}

func TestCatalogNamesAreUnique(t *testing.T) {
	registry := newTestCatalog(&countingSource{}, false)

	expected := []string{
		ToolCreateDomainAudit,
		ToolDomainKeywords,
		ToolDomainLocations,
		ToolDomainRankings,
		ToolGetDomainAudit,
		ToolKeywordSearchVolume,
		ToolKeywordsSearchVolume,
		ToolLocationRankings,
	}
	sort.Strings(expected)

	seen := make(map[string]bool)
	for _, def := range registry.List() {
		if seen[def.Name] {
			t.Errorf("Duplicate tool name %s", def.Name)
		}
		seen[def.Name] = true
		if def.Description == "" {
			t.Errorf("Tool %s has no description", def.Name)
		}
		if def.InputSchema()["type"] != "object" {
			t.Errorf("Tool %s has no object input schema", def.Name)
		}
	}

	names := registry.Names()
	if len(names) != len(expected) {
		t.Fatalf("Expected %d tools, got %d: %v", len(expected), len(names), names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected tool %s at %d, got %s", expected[i], i, names[i])
		}
	}
}

func TestNewCatalogRequiresBackends(t *testing.T) {
	if _, err := NewCatalog(Backends{}); err == nil {
		t.Error("Expected catalog without upstream to be rejected")
	}
	if _, err := NewCatalog(Backends{Upstream: &countingSource{}}); err == nil {
		t.Error("Expected catalog without mock source to be rejected")
	}
}
