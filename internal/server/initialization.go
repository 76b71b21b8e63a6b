package server

import (
	"net/http"
	"strings"

	"seo-analytics-mcp/pkg/config"
	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/mockdata"
	"seo-analytics-mcp/pkg/monitor"
	"seo-analytics-mcp/pkg/tools"
	"seo-analytics-mcp/pkg/upstream"
)

// initializeTools builds the upstream client, the mock provider and the
// host tool registry from the configuration
func (s *MCPServer) initializeTools(httpClient *http.Client) error {
	var clientOpts []upstream.Option
	if httpClient != nil {
		clientOpts = append(clientOpts, upstream.WithHTTPClient(httpClient))
	}

	s.upstream = upstream.NewClient(upstream.Config{
		BaseURL:      s.cfg.Upstream.BaseURL,
		APIKey:       s.cfg.Upstream.APIKey,
		APIKeyHeader: s.cfg.Upstream.APIKeyHeader,
		Timeout:      s.cfg.Upstream.Timeout,
		UserAgent:    upstream.DefaultUserAgent + "/" + s.cfg.Server.Version,
	}, s.loggingManager.GetLogger("upstream"), clientOpts...)
	s.mock = mockdata.NewProvider(s.cfg.Tools.MockSeed)

	registry, err := s.buildRegistry(s.upstream)
	if err != nil {
		return err
	}

	s.toolManager = tools.NewToolManager(registry, s.cfg.Tools.Timeout, s.loggingManager.GetLogger("tools"))
	s.logger.WithContext("tools", registry.Names()).
		WithContext("authenticated", s.cfg.Upstream.APIKey != "").
		Info("Tool registry initialized")
	return nil
}

// buildRegistry creates the tool catalog over the given upstream client
func (s *MCPServer) buildRegistry(client *upstream.Client) (*tools.Registry, error) {
	registry, err := tools.NewCatalog(tools.Backends{
		Upstream:      client,
		Mock:          s.mock,
		MockLocations: s.cfg.Tools.MockLocations,
	})
	if err != nil {
		if se, ok := errors.AsStructured(err); ok {
			return nil, se
		}
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed, "failed to build tool registry", err)
	}
	return registry, nil
}

// sessionTools returns the tool manager for a caller presenting apiKey.
// Sessions without a key use the host registry.
func (s *MCPServer) sessionTools(apiKey string) (*tools.ToolManager, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return s.toolManager, nil
	}

	registry, err := s.buildRegistry(s.upstream.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return s.toolManager.ForRegistry(registry), nil
}

// setupConfigMonitoring watches the config file and applies reloadable settings
func (s *MCPServer) setupConfigMonitoring() error {
	s.mu.RLock()
	running := s.monitor != nil
	s.mu.RUnlock()
	if !s.enableMonitor || running {
		return nil
	}

	mon, err := monitor.NewConfigMonitor(s.cfg.File, s.loggingManager.GetLogger("monitor"))
	if err != nil {
		return err
	}
	mon.OnChange(s.handleConfigChange)

	if err := mon.Start(); err != nil {
		_ = mon.Stop()
		return err
	}

	s.mu.Lock()
	s.monitor = mon
	s.mu.Unlock()
	return nil
}

// handleConfigChange re-reads the config file. Only log.level is applied
// live; other changed settings are reported and take effect on restart.
func (s *MCPServer) handleConfigChange(event monitor.FileEvent) {
	if event.Type == "delete" {
		s.logger.WithContext("config_path", event.Path).Warn("Config file removed; keeping current settings")
		return
	}

	next, err := config.Load(config.NewViper(), s.cfg.File)
	if err != nil {
		s.loggingManager.LogConfigReload(s.cfg.File, nil, err)
		return
	}

	s.mu.Lock()
	changes := diffConfig(s.cfg, next)
	if _, ok := changes[config.KeyLogLevel]; ok {
		s.cfg.Log.Level = next.Log.Level
	}
	s.mu.Unlock()

	if _, ok := changes[config.KeyLogLevel]; ok {
		s.loggingManager.SetLogLevel(next.Log.Level)
	}
	s.loggingManager.LogConfigReload(s.cfg.File, changes, nil)
}

// diffConfig lists settings that differ between two configurations
func diffConfig(current, next *config.Config) map[string]interface{} {
	changes := make(map[string]interface{})
	if !strings.EqualFold(current.Log.Level, next.Log.Level) {
		changes[config.KeyLogLevel] = next.Log.Level
	}
	if current.Upstream.BaseURL != next.Upstream.BaseURL {
		changes[config.KeyUpstreamBaseURL] = "restart required"
	}
	if current.Upstream.APIKey != next.Upstream.APIKey {
		changes[config.KeyUpstreamAPIKey] = "restart required"
	}
	if current.Upstream.Timeout != next.Upstream.Timeout {
		changes[config.KeyUpstreamTimeout] = "restart required"
	}
	if current.Tools.Timeout != next.Tools.Timeout {
		changes[config.KeyToolsTimeout] = "restart required"
	}
	if current.Tools.MockLocations != next.Tools.MockLocations {
		changes[config.KeyToolsMockLocations] = "restart required"
	}
	return changes
}
