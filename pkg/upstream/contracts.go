package upstream

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Response contracts for each upstream endpoint. A body that does not match
// its contract is reported as a malformed response before decoding.
var (
	findLocationsContract = mustCompile(`{
		"type": "array",
		"items": {"type": "string"}
	}`)

	domainIndustryContract = mustCompile(`{
		"type": "object",
		"required": ["keywords", "industry"],
		"properties": {
			"keywords":   {"type": "array", "items": {"type": "string"}},
			"confidence": {"type": "number"},
			"industry":   {"type": "string"}
		}
	}`)

	searchVolumeContract = mustCompile(`{
		"type": "object",
		"additionalProperties": {"type": ["integer", "null"]}
	}`)

	// Audit results are rendered verbatim; only require a JSON value that
	// carries something.
	auditContract = mustCompile(`{
		"type": ["object", "array", "string"]
	}`)
)

func mustCompile(contract string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(contract))
	if err != nil {
		panic(fmt.Sprintf("invalid response contract: %v", err))
	}
	return schema
}

// checkContract validates body against contract and returns a readable
// summary of the violations.
func checkContract(contract *gojsonschema.Schema, body []byte) error {
	result, err := contract.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("response violates contract: %s", strings.Join(violations, "; "))
}
