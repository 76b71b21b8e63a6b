package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and stdin, returning stdout and stderr
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func newPlatform(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "Loc AI SEO Analytics 1.0.0 (MCP 2024-11-05)\n", out)
}

func TestInvalidLogLevelFails(t *testing.T) {
	_, _, err := runCLI(t, "", "--log-level", "verbose", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestMissingConfigFileFails(t *testing.T) {
	_, _, err := runCLI(t, "", "--config", "/nonexistent/seo-mcp.yaml", "version")
	require.Error(t, err)
}

func TestToolsList(t *testing.T) {
	out, _, err := runCLI(t, "", "--log-level", "error", "tools", "list")
	require.NoError(t, err)

	for _, name := range []string{
		"create_domain_audit",
		"get_domain_audit",
		"get_domain_keywords",
		"get_domain_locations",
		"get_domain_rankings",
		"get_keyword_search_volume",
		"get_keywords_search_volume",
		"get_location_rankings",
	} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "location_name")
	assert.Contains(t, out, "required")
}

func TestToolsCall(t *testing.T) {
	t.Run("success prints the text result", func(t *testing.T) {
		platform := newPlatform(t, http.StatusOK, `{"keywords":["plumbing"],"confidence":0.9,"industry":"Home Services"}`)

		out, _, err := runCLI(t, "", "--upstream-url", platform.URL, "--log-level", "error",
			"tools", "call", "get_domain_keywords", "--args", `{"domain":"example.com"}`)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Keywords for \"example.com\":\n{"), out)
		assert.Contains(t, out, `"industry": "Home Services"`)
	})

	t.Run("tool error exits non-zero", func(t *testing.T) {
		platform := newPlatform(t, http.StatusInternalServerError, `{"detail":"boom"}`)

		out, _, err := runCLI(t, "", "--upstream-url", platform.URL, "--log-level", "error",
			"tools", "call", "get_domain_keywords", "--args", `{"domain":"example.com"}`)
		require.Error(t, err)
		assert.Contains(t, out, "Error: API error (status 500): boom")
	})

	t.Run("mock tools need no upstream", func(t *testing.T) {
		out, _, err := runCLI(t, "", "--log-level", "error",
			"tools", "call", "get_location_rankings", "-a", `{"location":"Chicago","dma":"Chicago DMA"}`)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Rankings for location \"Chicago\" in Chicago DMA:\n"), out)
	})

	t.Run("arguments must be a JSON object", func(t *testing.T) {
		_, _, err := runCLI(t, "", "tools", "call", "get_domain_keywords", "--args", `["example.com"]`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--args")
	})

	t.Run("debug dumps the call result", func(t *testing.T) {
		_, stderr, err := runCLI(t, "", "--debug",
			"tools", "call", "get_domain_rankings", "--args", `{"domain":"example.com"}`)
		require.NoError(t, err)
		assert.Contains(t, stderr, "InvocationID")
	})
}

func TestServeStdio(t *testing.T) {
	platform := newPlatform(t, http.StatusOK, `["Chicago"]`)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"cli-test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_domain_locations","arguments":{"domain":"example.com"}}}`,
	}, "\n") + "\n"

	out, _, err := runCLI(t, input, "--upstream-url", platform.URL, "--log-level", "error", "serve")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, out)
	assert.Contains(t, lines[0], `"name":"Loc AI SEO Analytics"`)
	assert.Contains(t, lines[1], `Locations for \"example.com\"`)
}
