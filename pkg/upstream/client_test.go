package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/logging"
)

// stubUpstream records the last request and replies with a fixed status and body
type stubUpstream struct {
	status   int
	body     string
	calls    int32
	lastPath string
	lastBody map[string]interface{}
	lastHdr  http.Header
}

func (s *stubUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.calls, 1)
	s.lastPath = r.URL.Path
	s.lastHdr = r.Header.Clone()

	raw, _ := io.ReadAll(r.Body)
	s.lastBody = nil
	_ = json.Unmarshal(raw, &s.lastBody)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = io.WriteString(w, s.body)
}

func newStubClient(t *testing.T, stub *stubUpstream, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL + "/", APIKey: apiKey}, logging.NewNopLogger(),
		WithHTTPClient(srv.Client()))
}

func requireKind(t *testing.T, err error, code string) *errors.StructuredError {
	t.Helper()
	require.Error(t, err)
	se, ok := errors.AsStructured(err)
	require.True(t, ok, "expected structured error, got %v", err)
	require.Equal(t, code, se.Code, "unexpected error: %v", err)
	return se
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, nil)

	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultAPIKeyHeader, c.cfg.APIKeyHeader)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, DefaultUserAgent, c.cfg.UserAgent)
}

func TestRequestShape(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `["loc-1","loc-2"]`}
	client := newStubClient(t, stub, "secret-key")

	locations, err := client.FindLocations(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"loc-1", "loc-2"}, locations)
	assert.Equal(t, PathFindLocations, stub.lastPath)
	assert.Equal(t, "example.com", stub.lastBody["domain"])
	assert.Equal(t, "application/json", stub.lastHdr.Get("Content-Type"))
	assert.Equal(t, "secret-key", stub.lastHdr.Get(DefaultAPIKeyHeader))
	assert.NotEmpty(t, stub.lastHdr.Get("X-Request-ID"))
}

func TestAPIKeyOmittedWhenEmpty(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `[]`}
	client := newStubClient(t, stub, "")

	locations, err := client.FindLocations(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Empty(t, locations)
	assert.NotNil(t, locations)
	_, present := stub.lastHdr[http.CanonicalHeaderKey(DefaultAPIKeyHeader)]
	assert.False(t, present)
}

func TestWithAPIKeyDoesNotAffectOriginal(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `[]`}
	client := newStubClient(t, stub, "base-key")
	session := client.WithAPIKey("session-key")

	_, err := session.FindLocations(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "session-key", stub.lastHdr.Get(DefaultAPIKeyHeader))

	_, err = client.FindLocations(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "base-key", stub.lastHdr.Get(DefaultAPIKeyHeader))
}

func TestAuditPayload(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `{"url":"https://reports.example/abc"}`}
	client := newStubClient(t, stub, "k")

	result, err := client.CreateAudit(context.Background(), "example.com", []string{"plumber"}, nil)
	require.NoError(t, err)

	assert.Equal(t, PathAudit, stub.lastPath)
	assert.Equal(t, true, stub.lastBody["in_worker"])
	assert.Equal(t, []interface{}{}, stub.lastBody["locations"])
	assert.Equal(t, map[string]interface{}{"url": "https://reports.example/abc"}, result)

	_, err = client.GetAudit(context.Background(), "example.com", []string{"plumber"}, []string{"Chicago"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Chicago"}, stub.lastBody["locations"])
}

func TestGetDomainIndustryKeywords(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK,
		body: `{"keywords":["plumbing","drain cleaning"],"confidence":0.87,"industry":"Home Services"}`}
	client := newStubClient(t, stub, "k")

	keywords, err := client.GetDomainIndustryKeywords(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, PathDomainIndustry, stub.lastPath)
	assert.Equal(t, []string{"plumbing", "drain cleaning"}, keywords.Keywords)
	assert.InDelta(t, 0.87, keywords.Confidence, 1e-9)
	assert.Equal(t, "Home Services", keywords.Industry)
}

func TestGetKeywordsSearchVolume(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `{"plumber": 1200, "roofer": null}`}
	client := newStubClient(t, stub, "k")

	volumes, err := client.GetKeywordsSearchVolume(context.Background(), []string{"plumber", "roofer"}, "Chicago")
	require.NoError(t, err)

	assert.Equal(t, PathSearchVolume, stub.lastPath)
	assert.Equal(t, "Chicago", stub.lastBody["location_name"])
	assert.Equal(t, map[string]int64{"plumber": 1200}, volumes)
}

func TestGetKeywordSearchVolume(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		stub := &stubUpstream{status: http.StatusOK, body: `{"plumber": 1200}`}
		client := newStubClient(t, stub, "k")

		volume, err := client.GetKeywordSearchVolume(context.Background(), "plumber", "Chicago")
		require.NoError(t, err)
		assert.Equal(t, int64(1200), volume.MonthlySearchVolume)
		assert.Equal(t, "Chicago", volume.City)
	})

	t.Run("missing keyword is not an upstream error", func(t *testing.T) {
		stub := &stubUpstream{status: http.StatusOK, body: `{"electrician": 900}`}
		client := newStubClient(t, stub, "k")

		_, err := client.GetKeywordSearchVolume(context.Background(), "plumber", "Chicago")
		se := requireKind(t, err, errors.ErrCodeKeywordNotFound)
		assert.Equal(t, "plumber", se.Keyword())
	})
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"500 with string detail", 500, `{"detail":"database unavailable"}`, 500, "API error (status 500): database unavailable"},
		{"500 without body", 500, ``, 500, "API error (status 500): Internal Server Error"},
		{"401 plain text", 401, `unauthorized`, 401, "API error (status 401): Unauthorized"},
		{"422 validation list", 422, `{"detail":[{"loc":["body","domain"],"msg":"field required"}]}`, 422, "API error (status 422): field required"},
		{"200 violating contract", 200, `{"plumber":"lots"}`, 200, "API error (status 200): malformed response from " + PathSearchVolume},
		{"200 not json", 200, `<html>`, 200, "API error (status 200): malformed response from " + PathSearchVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubUpstream{status: tt.status, body: tt.body}
			client := newStubClient(t, stub, "k")

			_, err := client.GetKeywordsSearchVolume(context.Background(), []string{"plumber"}, "Chicago")
			se := requireKind(t, err, errors.ErrCodeUpstreamError)
			assert.Equal(t, tt.wantStatus, se.Status())
			assert.Equal(t, tt.wantMessage, se.Message)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url}, logging.NewNopLogger())
	_, err := client.FindLocations(context.Background(), "example.com")

	se := requireKind(t, err, errors.ErrCodeUpstreamError)
	assert.Equal(t, 0, se.Status())
	assert.Contains(t, se.Message, PathFindLocations)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logging.NewNopLogger())
	_, err := client.FindLocations(context.Background(), "example.com")

	se := requireKind(t, err, errors.ErrCodeUpstreamError)
	assert.Contains(t, se.Message, "timed out")
}

func TestPreconditionsSkipNetwork(t *testing.T) {
	stub := &stubUpstream{status: http.StatusOK, body: `{}`}
	client := newStubClient(t, stub, "k")
	ctx := context.Background()

	_, err := client.GetKeywordsSearchVolume(ctx, nil, "Chicago")
	assert.Equal(t, "keywords", requireKind(t, err, errors.ErrCodeInvalidArguments).Field())

	_, err = client.CreateAudit(ctx, "example.com", []string{}, nil)
	assert.Equal(t, "keywords", requireKind(t, err, errors.ErrCodeInvalidArguments).Field())

	_, err = client.GetDomainIndustryKeywords(ctx, " ")
	assert.Equal(t, "domain", requireKind(t, err, errors.ErrCodeInvalidArguments).Field())

	assert.Equal(t, int32(0), atomic.LoadInt32(&stub.calls))
}
