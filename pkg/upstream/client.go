// Package upstream is the client for the SEO data platform. Every operation
// is a single POST-and-parse round trip; failures are normalized into the
// UPSTREAM_ERROR kind and nothing is retried.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/logging"
)

const (
	DefaultBaseURL      = "https://growtha-platform-g159.onrender.com"
	DefaultAPIKeyHeader = "locai-user-api-key"
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "seo-analytics-mcp"

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 10 << 20
)

// Endpoint paths
const (
	PathFindLocations  = "/api/v1/mcp/find-locations"
	PathAudit          = "/api/v1/mcp/audit"
	PathDomainIndustry = "/api/v1/mcp/get-domain-industry"
	PathSearchVolume   = "/api/v1/mcp/search-volume-of-keywords"
)

// Config holds the connection settings of one client
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	UserAgent    string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to the upstream SEO data platform
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logging.StructuredLogger
}

// NewClient creates a client. Zero-valued config fields fall back to the
// package defaults.
func NewClient(cfg Config, logger *logging.StructuredLogger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger.WithContext("upstream", cfg.BaseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAPIKey returns a copy of the client that sends a different API key.
// The HTTP client is shared.
func (c *Client) WithAPIKey(apiKey string) *Client {
	clone := *c
	clone.cfg.APIKey = apiKey
	return &clone
}

// BaseURL returns the normalized upstream base address
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// FindLocations lists the location identifiers attached to a domain
func (c *Client) FindLocations(ctx context.Context, domain string) ([]string, error) {
	if err := requireText("domain", domain); err != nil {
		return nil, err
	}

	var locations []string
	body := map[string]interface{}{"domain": domain}
	if err := c.post(ctx, PathFindLocations, body, findLocationsContract, &locations); err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []string{}
	}
	return locations, nil
}

// CreateAudit starts an audit of the domain. The upstream processes it in
// a worker, so the result is usually a handle or report URL.
func (c *Client) CreateAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error) {
	return c.audit(ctx, domain, keywords, locations)
}

// GetAudit fetches the audit of the domain. The wire request is identical
// to CreateAudit; only caller intent differs.
func (c *Client) GetAudit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error) {
	return c.audit(ctx, domain, keywords, locations)
}

func (c *Client) audit(ctx context.Context, domain string, keywords, locations []string) (models.AuditResult, error) {
	if err := requireText("domain", domain); err != nil {
		return nil, err
	}
	if err := requireItems("keywords", keywords); err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []string{}
	}

	req := models.AuditRequest{
		Domain:    domain,
		Keywords:  keywords,
		Locations: locations,
		InWorker:  true,
	}

	var result interface{}
	if err := c.post(ctx, PathAudit, req, auditContract, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetDomainIndustryKeywords classifies the domain and returns its keywords
func (c *Client) GetDomainIndustryKeywords(ctx context.Context, domain string) (*models.DomainKeywords, error) {
	if err := requireText("domain", domain); err != nil {
		return nil, err
	}

	var keywords models.DomainKeywords
	body := map[string]interface{}{"domain": domain}
	if err := c.post(ctx, PathDomainIndustry, body, domainIndustryContract, &keywords); err != nil {
		return nil, err
	}
	if keywords.Keywords == nil {
		keywords.Keywords = []string{}
	}
	return &keywords, nil
}

// GetKeywordsSearchVolume returns the monthly search volume of each keyword
// in the named location. Keywords the upstream has no figure for are
// absent from the mapping.
func (c *Client) GetKeywordsSearchVolume(ctx context.Context, keywords []string, locationName string) (map[string]int64, error) {
	if err := requireItems("keywords", keywords); err != nil {
		return nil, err
	}
	if err := requireText("location_name", locationName); err != nil {
		return nil, err
	}

	var raw map[string]*int64
	body := map[string]interface{}{
		"keywords":      keywords,
		"location_name": locationName,
	}
	if err := c.post(ctx, PathSearchVolume, body, searchVolumeContract, &raw); err != nil {
		return nil, err
	}

	volumes := make(map[string]int64, len(raw))
	for keyword, volume := range raw {
		if volume != nil {
			volumes[keyword] = *volume
		}
	}
	return volumes, nil
}

// GetKeywordSearchVolume looks up a single keyword. A mapping that omits
// the keyword yields KEYWORD_NOT_FOUND rather than an upstream error.
func (c *Client) GetKeywordSearchVolume(ctx context.Context, keyword, locationName string) (models.KeywordSearchVolume, error) {
	if err := requireText("keyword", keyword); err != nil {
		return models.KeywordSearchVolume{}, err
	}

	volumes, err := c.GetKeywordsSearchVolume(ctx, []string{keyword}, locationName)
	if err != nil {
		return models.KeywordSearchVolume{}, err
	}

	volume, ok := volumes[keyword]
	if !ok {
		return models.KeywordSearchVolume{}, errors.NewKeywordNotFoundError(keyword)
	}

	return models.KeywordSearchVolume{
		Keyword:             keyword,
		City:                locationName,
		MonthlySearchVolume: volume,
	}, nil
}

// post performs one request/response cycle and decodes the body into out
func (c *Client) post(ctx context.Context, path string, payload interface{}, contract *gojsonschema.Schema, out interface{}) error {
	requestID := uuid.NewString()
	start := time.Now()

	encoded, err := json.Marshal(payload)
	if err != nil {
		return errors.NewUpstreamError(0, fmt.Sprintf("failed to encode request for %s", path), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return errors.NewUpstreamError(0, fmt.Sprintf("failed to build request for %s", path), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.APIKey != "" {
		req.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
	}

	details := map[string]interface{}{
		"request_id":    requestID,
		"authenticated": c.cfg.APIKey != "",
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).LogUpstreamRequest(path, 0, time.Since(start), details)
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewUpstreamError(0,
				fmt.Sprintf("request to %s timed out after %s", path, c.cfg.Timeout), err)
		}
		return errors.NewUpstreamError(0, fmt.Sprintf("request to %s failed: %v", path, err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.logger.LogUpstreamRequest(path, resp.StatusCode, time.Since(start), details)
	if err != nil {
		return errors.NewUpstreamError(resp.StatusCode, fmt.Sprintf("failed to read response: %v", err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewUpstreamError(resp.StatusCode, errorDetail(resp.StatusCode, body), nil)
	}

	if err := checkContract(contract, body); err != nil {
		return errors.NewUpstreamError(resp.StatusCode, fmt.Sprintf("malformed response from %s", path), err).
			WithDetails(err.Error())
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewUpstreamError(resp.StatusCode, fmt.Sprintf("malformed response from %s", path), err).
			WithDetails(err.Error())
	}

	return nil
}

// errorDetail extracts the human-readable message of an error response.
// The platform reports {"detail": "..."} or a validation list of
// {"msg": "..."} entries; anything else falls back to the status text.
func errorDetail(status int, body []byte) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = "unexpected status"
	}
	if !gjson.ValidBytes(body) {
		return fallback
	}

	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		if text := strings.TrimSpace(detail.String()); text != "" {
			return text
		}
	case detail.IsArray():
		var msgs []string
		for _, msg := range detail.Get("#.msg").Array() {
			if text := strings.TrimSpace(msg.String()); text != "" {
				msgs = append(msgs, text)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fallback
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewInvalidArgumentsError(field, "must not be empty")
	}
	return nil
}

func requireItems(field string, values []string) error {
	if len(values) == 0 {
		return errors.NewInvalidArgumentsError(field, "must contain at least 1 item(s)")
	}
	return nil
}
