package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/config"
	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/logging"
	"seo-analytics-mcp/pkg/mockdata"
	"seo-analytics-mcp/pkg/monitor"
	"seo-analytics-mcp/pkg/tools"
	"seo-analytics-mcp/pkg/upstream"
)

// ProtocolVersion is the MCP revision the server speaks
const ProtocolVersion = "2024-11-05"

// maxMessageBytes bounds a single newline-delimited JSON-RPC message
const maxMessageBytes = 4 << 20

// MCPServer represents the main MCP server
type MCPServer struct {
	cfg          *config.Config
	serverInfo   models.MCPServerInfo
	capabilities models.MCPCapabilities
	initialized  bool

	// Tool collaborators. The upstream client carries the configured API
	// key; HTTP sessions derive their own copy per request.
	upstream    *upstream.Client
	mock        *mockdata.Provider
	toolManager *tools.ToolManager

	monitor       *monitor.ConfigMonitor
	enableMonitor bool

	// Logging
	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger

	shutdownOnce sync.Once

	// Synchronization
	mu sync.RWMutex
}

// Option customizes server construction
type Option func(*options)

type options struct {
	logOutput     io.Writer
	httpClient    *http.Client
	enableMonitor bool
}

// WithLogOutput sends logs to w instead of stderr
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithHTTPClient sets the HTTP client used for upstream requests
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithoutConfigMonitor disables watching the config file
func WithoutConfigMonitor() Option {
	return func(o *options) {
		o.enableMonitor = false
	}
}

// NewMCPServer creates a new MCP server from cfg
func NewMCPServer(cfg *config.Config, opts ...Option) (*MCPServer, error) {
	if cfg == nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed, "configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed, "invalid configuration", err).
			WithDetails(err.Error())
	}

	o := options{logOutput: os.Stderr, enableMonitor: true}
	for _, opt := range opts {
		opt(&o)
	}

	// Initialize logging system
	loggingManager := logging.NewLoggingManagerWithWriter(o.logOutput)
	loggingManager.SetLogLevel(cfg.Log.Level)
	loggingManager.SetGlobalContext("service", cfg.Server.Name)
	loggingManager.SetGlobalContext("version", cfg.Server.Version)

	s := &MCPServer{
		cfg: cfg,
		serverInfo: models.MCPServerInfo{
			Name:    cfg.Server.Name,
			Version: cfg.Server.Version,
		},
		capabilities: models.MCPCapabilities{
			Tools: &models.MCPToolCapabilities{ListChanged: false},
		},
		enableMonitor:  o.enableMonitor && cfg.File != "",
		loggingManager: loggingManager,
		logger:         loggingManager.GetLogger("server"),
	}

	if err := s.initializeTools(o.httpClient); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the MCP server operation on stdin/stdout
func (s *MCPServer) Start(ctx context.Context) error {
	return s.ServeStdio(ctx, os.Stdin, os.Stdout)
}

// ServeStdio processes newline-delimited JSON-RPC messages from in until
// in is exhausted or ctx is cancelled
func (s *MCPServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := s.startBackground(); err != nil {
		return err
	}

	s.logger.WithContext("transport", "stdio").Info("SEO analytics MCP server started")

	// The read loop blocks on in, so cancellation is observed here
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.processMessages(ctx, in, out)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// ToolManager returns the host tool manager
func (s *MCPServer) ToolManager() *tools.ToolManager {
	return s.toolManager
}

// startBackground logs the startup sequence and starts the config monitor
func (s *MCPServer) startBackground() error {
	startTime := time.Now()

	s.loggingManager.LogStartupSequence("server_start", map[string]interface{}{
		"phase":          "initialization",
		"tools":          s.toolManager.ListTools(),
		"upstream":       s.upstream.BaseURL(),
		"mock_locations": s.cfg.Tools.MockLocations,
	}, 0, true)

	monitorStart := time.Now()
	if err := s.setupConfigMonitoring(); err != nil {
		// A missing watcher only disables live reload
		s.loggingManager.LogStartupSequence("config_monitor", map[string]interface{}{
			"error": err.Error(),
		}, time.Since(monitorStart), false)
		s.logger.WithError(err).Warn("Failed to start configuration monitor")
	} else if s.enableMonitor {
		s.loggingManager.LogStartupSequence("config_monitor", map[string]interface{}{},
			time.Since(monitorStart), true)
	}

	s.loggingManager.LogStartupSequence("server_ready", map[string]interface{}{
		"total_startup_time_ms": time.Since(startTime).Milliseconds(),
	}, time.Since(startTime), true)
	return nil
}

// Shutdown gracefully shuts down the MCP server
func (s *MCPServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		shutdownStart := time.Now()
		s.loggingManager.LogShutdownSequence("shutdown_start", map[string]interface{}{}, 0, true)

		s.mu.Lock()
		mon := s.monitor
		s.monitor = nil
		s.mu.Unlock()

		if mon != nil {
			monitorStop := time.Now()
			if err := mon.Stop(); err != nil {
				shutdownErr = fmt.Errorf("stop config monitor: %w", err)
				s.loggingManager.LogShutdownSequence("monitor_stop", map[string]interface{}{
					"error": err.Error(),
				}, time.Since(monitorStop), false)
			} else {
				s.loggingManager.LogShutdownSequence("monitor_stop", map[string]interface{}{},
					time.Since(monitorStop), true)
			}
		}

		s.loggingManager.LogShutdownSequence("shutdown_complete", map[string]interface{}{
			"total_shutdown_time_ms": time.Since(shutdownStart).Milliseconds(),
			"tool_metrics":           s.toolManager.GetPerformanceMetrics(),
		}, time.Since(shutdownStart), shutdownErr == nil)

		s.logger.Info("SEO analytics MCP server shutdown completed")
	})

	return shutdownErr
}

// processMessages handles the newline-delimited JSON-RPC loop
func (s *MCPServer) processMessages(ctx context.Context, reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	encoder := json.NewEncoder(writer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var response *models.MCPMessage
		var message models.MCPMessage
		if err := json.Unmarshal(line, &message); err != nil {
			s.logger.WithError(err).Warn("Error decoding message")
			response = s.createStructuredErrorResponse(nil,
				errors.NewMCPError(errors.ErrCodeParseError, "Parse error", err))
		} else {
			response = s.handleMessage(ctx, &message, s.toolManager)
		}

		if response != nil {
			if err := encoder.Encode(response); err != nil {
				s.logger.WithError(err).Error("Error encoding response")
				return fmt.Errorf("write response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read messages: %w", err)
	}
	return nil
}

// HandleMessage processes individual MCP messages (exported for testing)
func (s *MCPServer) HandleMessage(message *models.MCPMessage) *models.MCPMessage {
	return s.handleMessage(context.Background(), message, s.toolManager)
}

// handleMessage processes one message against the given session tools.
// A panic while handling is answered with an internal error.
func (s *MCPServer) handleMessage(ctx context.Context, message *models.MCPMessage, session *tools.ToolManager) (response *models.MCPMessage) {
	startTime := time.Now()
	success := true
	var errorMsg string

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithContext("mcp_method", message.Method).
				WithContext("panic", fmt.Sprint(r)).
				WithContext("stack", string(debug.Stack())).
				Error("Recovered panic while handling message")
			response = s.createStructuredErrorResponse(message.ID,
				errors.NewSystemError(errors.ErrCodeUnexpectedPanic, "Internal error", nil))
		}

		if response != nil && response.Error != nil {
			success = false
			errorMsg = response.Error.Message
		}
		s.loggingManager.LogMCPRequest(message.Method, message.ID, time.Since(startTime), success, errorMsg)
	}()

	if message.JSONRPC != "2.0" {
		return s.createStructuredErrorResponse(message.ID,
			errors.NewMCPError(errors.ErrCodeInvalidRequest, "Invalid request: jsonrpc must be \"2.0\"", nil))
	}

	// Only notifications may omit the id, and they never get a response
	if message.ID == nil && !strings.HasPrefix(message.Method, "notifications/") {
		s.logger.WithContext("mcp_method", message.Method).Warn("Ignoring request without id")
		return nil
	}

	switch message.Method {
	case "initialize":
		response = s.handleInitialize(message)
	case "notifications/initialized":
		response = s.handleInitialized(message)
	case "ping":
		response = s.handlePing(message)
	case "tools/list":
		response = s.handleToolsList(message, session)
	case "tools/call":
		response = s.handleToolsCall(ctx, message, session)
	case "server/performance":
		response = s.handlePerformanceMetrics(message)
	default:
		if message.ID == nil {
			// Unknown notifications are ignored
			return nil
		}
		response = s.createStructuredErrorResponse(message.ID,
			errors.NewMCPError(errors.ErrCodeMethodNotFound, "Method not found", nil).
				WithContext("method", message.Method))
	}

	return response
}
