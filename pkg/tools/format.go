package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/schema"
)

// prettyJSON renders v with two-space indentation. Struct fields keep their
// declaration order and map keys are sorted, so output is deterministic.
// HTML characters are left as is so report URLs stay usable.
func prettyJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func formatSearchVolume(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Search volume data for \"%s\" in %s:\n%s",
		strings.Join(params.Strings("keywords"), ","), params.String("location_name"), body), nil
}

func formatKeywordSearchVolume(params schema.Params, result interface{}) (string, error) {
	volume, ok := result.(models.KeywordSearchVolume)
	if !ok {
		return "", fmt.Errorf("unexpected result type %T", result)
	}
	return fmt.Sprintf("Search volume for \"%s\" in %s: %d",
		volume.Keyword, params.String("location_name"), volume.MonthlySearchVolume), nil
}

func formatDomainKeywords(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Keywords for \"%s\":\n%s", params.String("domain"), body), nil
}

func formatDomainLocations(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Locations for \"%s\":\n%s", params.String("domain"), body), nil
}

func formatCreatedAudit(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Audit for \"%s\":\n%s will be available in a few moments. Check the URL in a few minutes.",
		params.String("domain"), body), nil
}

func formatAudit(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Audit for \"%s\" is available here:\n%s", params.String("domain"), body), nil
}

func formatLocationRankings(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Rankings for location \"%s\" in %s:\n%s",
		params.String("location"), params.String("dma"), body), nil
}

func formatDomainRankings(params schema.Params, result interface{}) (string, error) {
	body, err := prettyJSON(result)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Rankings for \"%s\":\n%s", params.String("domain"), body), nil
}
