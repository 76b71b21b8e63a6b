package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"seo-analytics-mcp/pkg/errors"
)

var auditSchema = Schema{
	{Name: "domain", Kind: KindString, Required: true, MinLength: 1, Description: "Domain to audit"},
	{Name: "keywords", Kind: KindStringArray, Required: true, MinItems: 1, MinLength: 1},
	{Name: "locations", Kind: KindStringArray},
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{"valid schema", auditSchema, false},
		{"empty schema", Schema{}, false},
		{"duplicate field", Schema{{Name: "domain", Kind: KindString}, {Name: "domain", Kind: KindString}}, true},
		{"empty name", Schema{{Name: " ", Kind: KindString}}, true},
		{"unknown kind", Schema{{Name: "x", Kind: Kind("object")}}, true},
		{"min items on string", Schema{{Name: "x", Kind: KindString, MinItems: 1}}, true},
		{"default of wrong kind", Schema{{Name: "x", Kind: KindNumber, Default: "ten"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]interface{}
		wantField string
	}{
		{"missing domain", map[string]interface{}{"keywords": []interface{}{"a"}}, "domain"},
		{"null domain", map[string]interface{}{"domain": nil, "keywords": []interface{}{"a"}}, "domain"},
		{"blank domain", map[string]interface{}{"domain": "   ", "keywords": []interface{}{"a"}}, "domain"},
		{"domain wrong type", map[string]interface{}{"domain": 42.0, "keywords": []interface{}{"a"}}, "domain"},
		{"missing keywords", map[string]interface{}{"domain": "example.com"}, "keywords"},
		{"empty keywords", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{}}, "keywords"},
		{"keywords not array", map[string]interface{}{"domain": "example.com", "keywords": "plumber"}, "keywords"},
		{"keyword not string", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{"a", 3.0}}, "keywords"},
		{"empty keyword item", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{""}}, "keywords"},
		{"locations wrong type", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{"a"}, "locations": true}, "locations"},
		{"nil arguments", nil, "domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auditSchema.Validate(tt.args)
			require.Error(t, err)

			se, ok := errors.AsStructured(err)
			require.True(t, ok, "expected structured error")
			assert.Equal(t, errors.ErrCodeInvalidArguments, se.Code)
			assert.Equal(t, tt.wantField, se.Field())
		})
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	params, err := auditSchema.Validate(map[string]interface{}{
		"domain":   "example.com",
		"keywords": []interface{}{"plumber", "roofer"},
	})
	require.NoError(t, err)

	assert.Equal(t, "example.com", params.String("domain"))
	assert.Equal(t, []string{"plumber", "roofer"}, params.Strings("keywords"))
	assert.True(t, params.Has("locations"))
	assert.NotNil(t, params.Strings("locations"))
	assert.Empty(t, params.Strings("locations"))
}

func TestValidateExplicitDefault(t *testing.T) {
	s := Schema{
		{Name: "limit", Kind: KindNumber, Default: 10},
		{Name: "tag", Kind: KindString},
	}

	params, err := s.Validate(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, float64(10), params.Number("limit"))
	assert.False(t, params.Has("tag"))
	assert.Equal(t, "", params.String("tag"))

	params, err = s.Validate(map[string]interface{}{"limit": json.Number("25")})
	require.NoError(t, err)
	assert.Equal(t, float64(25), params.Number("limit"))
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	keywords := []interface{}{"plumber"}
	raw := map[string]interface{}{
		"domain":   "example.com",
		"keywords": keywords,
		"extra":    "ignored",
	}

	params, err := auditSchema.Validate(raw)
	require.NoError(t, err)

	assert.Len(t, raw, 3)
	assert.NotContains(t, raw, "locations")
	assert.False(t, params.Has("extra"))

	got := params.Strings("keywords")
	got[0] = "changed"
	assert.Equal(t, "plumber", keywords[0])
	assert.Equal(t, "plumber", params.Strings("keywords")[0])
}

func TestJSONSchemaRendering(t *testing.T) {
	rendered := auditSchema.JSONSchema()

	assert.Equal(t, "object", rendered["type"])
	assert.Equal(t, []string{"domain", "keywords"}, rendered["required"])

	props, ok := rendered["properties"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, props, 3)

	keywords := props["keywords"].(map[string]interface{})
	assert.Equal(t, "array", keywords["type"])
	assert.Equal(t, 1, keywords["minItems"])

	domain := props["domain"].(map[string]interface{})
	assert.Equal(t, "Domain to audit", domain["description"])
}

func TestJSONSchemaAgreesWithValidator(t *testing.T) {
	loader := gojsonschema.NewGoLoader(auditSchema.JSONSchema())
	compiled, err := gojsonschema.NewSchema(loader)
	require.NoError(t, err)

	docs := []struct {
		name string
		doc  map[string]interface{}
	}{
		{"valid", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{"plumber"}}},
		{"with locations", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{"plumber"}, "locations": []interface{}{"Chicago"}}},
		{"empty keywords", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{}}},
		{"missing domain", map[string]interface{}{"keywords": []interface{}{"plumber"}}},
		{"numeric keyword", map[string]interface{}{"domain": "example.com", "keywords": []interface{}{1}}},
	}

	for _, tt := range docs {
		t.Run(tt.name, func(t *testing.T) {
			result, err := compiled.Validate(gojsonschema.NewGoLoader(tt.doc))
			require.NoError(t, err)

			_, validateErr := auditSchema.Validate(tt.doc)
			assert.Equal(t, validateErr == nil, result.Valid(),
				"JSON Schema and validator disagree: %v", result.Errors())
		})
	}
}
