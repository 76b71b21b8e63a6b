package tools

import (
	"context"
	"sync/atomic"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/mockdata"
)

// countingSource is a DataSource stand-in that counts every call
type countingSource struct {
	calls int32

	volumes   map[string]int64
	locations []string
	keywords  *models.DomainKeywords
	audit     models.AuditResult
	err       error
}

func (s *countingSource) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func (s *countingSource) hit() error {
	atomic.AddInt32(&s.calls, 1)
	return s.err
}

func (s *countingSource) FindLocations(ctx context.Context, domain string) ([]string, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.locations, nil
}

func (s *countingSource) CreateAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.audit, nil
}

func (s *countingSource) GetAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.audit, nil
}

func (s *countingSource) GetDomainIndustryKeywords(ctx context.Context, domain string) (*models.DomainKeywords, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.keywords, nil
}

func (s *countingSource) GetKeywordsSearchVolume(ctx context.Context, keywords []string, locationName string) (map[string]int64, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.volumes, nil
}

func (s *countingSource) GetKeywordSearchVolume(ctx context.Context, keyword, locationName string) (models.KeywordSearchVolume, error) {
	if err := s.hit(); err != nil {
		return models.KeywordSearchVolume{}, err
	}
	volume, ok := s.volumes[keyword]
	if !ok {
		return models.KeywordSearchVolume{}, errors.NewKeywordNotFoundError(keyword)
	}
	return models.KeywordSearchVolume{Keyword: keyword, City: locationName, MonthlySearchVolume: volume}, nil
}

func newTestCatalog(source *countingSource, mockLocations bool) *Registry {
	registry, err := NewCatalog(Backends{
		Upstream:      source,
		Mock:          mockdata.NewProvider(1),
		MockLocations: mockLocations,
	})
	if err != nil {
		panic(err)
	}
	return registry
}
