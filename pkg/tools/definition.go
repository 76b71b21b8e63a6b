package tools

import (
	"context"
	"fmt"
	"strings"

	"seo-analytics-mcp/pkg/schema"
)

// Method runs a tool against validated parameters and returns its domain result
type Method func(ctx context.Context, params schema.Params) (interface{}, error)

// Formatter renders a tool result as display text. It must be pure.
type Formatter func(params schema.Params, result interface{}) (string, error)

// ToolDefinition bundles everything needed to expose and run one tool
type ToolDefinition struct {
	Name        string
	Description string
	Schema      schema.Schema
	Method      Method
	Format      Formatter
}

// InputSchema returns the JSON schema advertised for the tool
func (d ToolDefinition) InputSchema() map[string]interface{} {
	return d.Schema.JSONSchema()
}

// Check reports definition errors that would make the tool unusable
func (d ToolDefinition) Check() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if d.Method == nil {
		return fmt.Errorf("tool %s has no method", d.Name)
	}
	if d.Format == nil {
		return fmt.Errorf("tool %s has no formatter", d.Name)
	}
	if err := d.Schema.Check(); err != nil {
		return fmt.Errorf("tool %s has an invalid schema: %w", d.Name, err)
	}
	return nil
}
