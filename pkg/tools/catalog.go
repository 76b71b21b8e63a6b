package tools

import (
	"context"
	"fmt"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/schema"
)

// Tool names
const (
	ToolKeywordsSearchVolume = "get_keywords_search_volume"
	ToolKeywordSearchVolume  = "get_keyword_search_volume"
	ToolDomainKeywords       = "get_domain_keywords"
	ToolDomainLocations      = "get_domain_locations"
	ToolCreateDomainAudit    = "create_domain_audit"
	ToolGetDomainAudit       = "get_domain_audit"
	ToolLocationRankings     = "get_location_rankings"
	ToolDomainRankings       = "get_domain_rankings"
)

// DataSource is the live upstream collaborator. *upstream.Client satisfies it.
type DataSource interface {
	FindLocations(ctx context.Context, domain string) ([]string, error)
	CreateAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error)
	GetAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error)
	GetDomainIndustryKeywords(ctx context.Context, domain string) (*models.DomainKeywords, error)
	GetKeywordsSearchVolume(ctx context.Context, keywords []string, locationName string) (map[string]int64, error)
	GetKeywordSearchVolume(ctx context.Context, keyword, locationName string) (models.KeywordSearchVolume, error)
}

// MockSource generates placeholder records. *mockdata.Provider satisfies it.
type MockSource interface {
	DomainLocations(domain string) []models.DomainLocation
	DomainRankings(domain string) models.DomainRanking
	LocationRankings(location, dma string) models.LocationKeywordRanking
}

// Backends are the collaborators the catalog tools call into
type Backends struct {
	Upstream DataSource
	Mock     MockSource

	// MockLocations serves get_domain_locations from Mock instead of Upstream
	MockLocations bool
}

var (
	domainField = schema.Field{
		Name: "domain", Kind: schema.KindString, Required: true, MinLength: 1,
		Description: "Domain name, e.g. example.com",
	}
	auditSchema = schema.Schema{
		domainField,
		{Name: "keywords", Kind: schema.KindStringArray, Required: true, MinItems: 1, MinLength: 1,
			Description: "Keywords to audit the domain for"},
		{Name: "locations", Kind: schema.KindStringArray, Default: []string{},
			Description: "Locations to audit the domain in"},
	}
)

// NewCatalog builds the registry of SEO tools over the given backends
func NewCatalog(b Backends) (*Registry, error) {
	if b.Upstream == nil {
		return nil, fmt.Errorf("catalog requires an upstream data source")
	}
	if b.Mock == nil {
		return nil, fmt.Errorf("catalog requires a mock data source")
	}

	return NewRegistry(
		ToolDefinition{
			Name:        ToolKeywordsSearchVolume,
			Description: "Get search volume of given keywords in a given location_name",
			Schema: schema.Schema{
				{Name: "keywords", Kind: schema.KindStringArray, Required: true, MinItems: 1, MinLength: 1,
					Description: "Keywords to get search volume for"},
				{Name: "location_name", Kind: schema.KindString, Required: true, MinLength: 1,
					Description: "Location name to check search volume in"},
			},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Upstream.GetKeywordsSearchVolume(ctx, p.Strings("keywords"), p.String("location_name"))
			},
			Format: formatSearchVolume,
		},
		ToolDefinition{
			Name:        ToolKeywordSearchVolume,
			Description: "Get monthly search volume of a single keyword in a given location_name",
			Schema: schema.Schema{
				{Name: "keyword", Kind: schema.KindString, Required: true, MinLength: 1,
					Description: "Keyword to get search volume for"},
				{Name: "location_name", Kind: schema.KindString, Required: true, MinLength: 1,
					Description: "Location name to check search volume in"},
			},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Upstream.GetKeywordSearchVolume(ctx, p.String("keyword"), p.String("location_name"))
			},
			Format: formatKeywordSearchVolume,
		},
		ToolDefinition{
			Name:        ToolDomainKeywords,
			Description: "Get keywords for a given domain",
			Schema:      schema.Schema{domainField},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Upstream.GetDomainIndustryKeywords(ctx, p.String("domain"))
			},
			Format: formatDomainKeywords,
		},
		ToolDefinition{
			Name:        ToolDomainLocations,
			Description: "Get all locations of a given domain",
			Schema:      schema.Schema{domainField},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				if b.MockLocations {
					return b.Mock.DomainLocations(p.String("domain")), nil
				}
				return b.Upstream.FindLocations(ctx, p.String("domain"))
			},
			Format: formatDomainLocations,
		},
		ToolDefinition{
			Name:        ToolCreateDomainAudit,
			Description: "Create an audit for a given domain name, keywords, and locations",
			Schema:      auditSchema,
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Upstream.CreateAudit(ctx, p.String("domain"), p.Strings("keywords"), p.Strings("locations"))
			},
			Format: formatCreatedAudit,
		},
		ToolDefinition{
			Name:        ToolGetDomainAudit,
			Description: "Get audit of a given domain name",
			Schema:      auditSchema,
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Upstream.GetAudit(ctx, p.String("domain"), p.Strings("keywords"), p.Strings("locations"))
			},
			Format: formatAudit,
		},
		ToolDefinition{
			Name:        ToolLocationRankings,
			Description: "Get rankings of a given location (all keywords for a given DMA)",
			Schema: schema.Schema{
				{Name: "location", Kind: schema.KindString, Required: true, MinLength: 1, Description: "Location name"},
				{Name: "dma", Kind: schema.KindString, Required: true, MinLength: 1, Description: "DMA (Designated Market Area)"},
			},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Mock.LocationRankings(p.String("location"), p.String("dma")), nil
			},
			Format: formatLocationRankings,
		},
		ToolDefinition{
			Name:        ToolDomainRankings,
			Description: "Get organic, paid and local rankings of a given domain",
			Schema:      schema.Schema{domainField},
			Method: func(ctx context.Context, p schema.Params) (interface{}, error) {
				return b.Mock.DomainRankings(p.String("domain")), nil
			},
			Format: formatDomainRankings,
		},
	)
}
