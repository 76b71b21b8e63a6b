package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"seo-analytics-mcp/pkg/errors"
)

// LogContext represents contextual information for log entries
type LogContext map[string]interface{}

// StructuredLogger provides structured logging capabilities
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	context   LogContext
	manager   *LoggingManager
}

// NewStructuredLogger creates a new structured logger writing JSON to stderr.
// Stdout is reserved for the MCP stdio channel.
func NewStructuredLogger(component string) *StructuredLogger {
	return NewStructuredLoggerWithWriter(component, os.Stderr)
}

// NewStructuredLoggerWithWriter creates a structured logger writing JSON to w
func NewStructuredLoggerWithWriter(component string, w io.Writer) *StructuredLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano)),
				}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "level", Value: a.Value}
			}
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			return a
		},
	}

	return &StructuredLogger{
		logger:    slog.New(slog.NewJSONHandler(w, opts)),
		component: component,
		context:   make(LogContext),
	}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *StructuredLogger {
	return NewStructuredLoggerWithWriter("nop", io.Discard)
}

// WithContext adds context to the logger (returns a new logger instance)
func (sl *StructuredLogger) WithContext(key string, value interface{}) *StructuredLogger {
	newLogger := &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   make(LogContext, len(sl.context)+1),
		manager:   sl.manager,
	}

	for k, v := range sl.context {
		newLogger.context[k] = v
	}

	newLogger.context[key] = value
	return newLogger
}

// WithError adds error information to the logger context
func (sl *StructuredLogger) WithError(err error) *StructuredLogger {
	if err == nil {
		return sl
	}

	newLogger := sl.WithContext("error", err.Error())

	if structuredErr, ok := errors.AsStructured(err); ok {
		newLogger = newLogger.
			WithContext("error_category", structuredErr.Category).
			WithContext("error_code", structuredErr.Code).
			WithContext("error_severity", structuredErr.Severity).
			WithContext("error_recoverable", structuredErr.IsRecoverable())

		for k, v := range structuredErr.Context {
			newLogger = newLogger.WithContext(fmt.Sprintf("error_ctx_%s", k), v)
		}
	}

	return newLogger
}

// buildLogAttributes creates slog attributes from context
func (sl *StructuredLogger) buildLogAttributes() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("component", sl.component),
	}

	for key, value := range sl.context {
		attrs = append(attrs, slog.Any(key, value))
	}

	return attrs
}

func (sl *StructuredLogger) log(level Level, slogLevel slog.Level, message string) {
	if sl.manager != nil {
		if !sl.manager.shouldLog(level) {
			return
		}
		sl.manager.updateStats(sl.component, level.String())
	}
	sl.logger.LogAttrs(context.Background(), slogLevel, message, sl.buildLogAttributes()...)
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(message string) {
	sl.log(LevelDebug, slog.LevelDebug, message)
}

// Info logs an info message
func (sl *StructuredLogger) Info(message string) {
	sl.log(LevelInfo, slog.LevelInfo, message)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(message string) {
	sl.log(LevelWarn, slog.LevelWarn, message)
}

// Error logs an error message
func (sl *StructuredLogger) Error(message string) {
	sl.log(LevelError, slog.LevelError, message)
}

// LogMCPMessage logs an MCP protocol message with timing information
func (sl *StructuredLogger) LogMCPMessage(method string, requestID interface{}, duration time.Duration, success bool) {
	logger := sl.WithContext("mcp_method", method).
		WithContext("request_id", requestID).
		WithContext("duration_ms", duration.Milliseconds()).
		WithContext("success", success)

	if success {
		logger.Info("MCP message processed successfully")
	} else {
		logger.Warn("MCP message processing failed")
	}
}

// LogStartup logs application startup events
func (sl *StructuredLogger) LogStartup(event string, details map[string]interface{}) {
	logger := sl.WithContext("startup_event", event)
	for k, v := range details {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application startup event")
}

// LogShutdown logs application shutdown events
func (sl *StructuredLogger) LogShutdown(event string, details map[string]interface{}) {
	logger := sl.WithContext("shutdown_event", event)
	for k, v := range details {
		logger = logger.WithContext(k, v)
	}
	logger.Info("Application shutdown event")
}

// LogToolInvocation logs the outcome of one dispatched tool call
func (sl *StructuredLogger) LogToolInvocation(tool, invocationID, state string, duration time.Duration, err error) {
	logger := sl.WithContext("tool", tool).
		WithContext("invocation_id", invocationID).
		WithContext("final_state", state).
		WithContext("duration_ms", duration.Milliseconds())

	if err != nil {
		logger.WithError(err).Warn("Tool invocation failed")
		return
	}
	logger.Info("Tool invocation completed")
}

// LogUpstreamRequest logs one request/response cycle against the upstream service.
// Details are sanitized so credentials never reach the log.
func (sl *StructuredLogger) LogUpstreamRequest(path string, status int, duration time.Duration, details map[string]interface{}) {
	logger := sl.WithContext("upstream_path", path).
		WithContext("upstream_status", status).
		WithContext("duration_ms", duration.Milliseconds())

	for k, v := range sanitizeLogData(details) {
		logger = logger.WithContext(k, v)
	}

	if status >= 200 && status < 300 {
		logger.Debug("Upstream request completed")
	} else {
		logger.Warn("Upstream request failed")
	}
}

// LogPerformanceMetric logs performance-related metrics
func (sl *StructuredLogger) LogPerformanceMetric(metric string, value interface{}, unit string) {
	sl.WithContext("metric_name", metric).
		WithContext("metric_value", value).
		WithContext("metric_unit", unit).
		Debug("Performance metric recorded")
}

// LogSecurityEvent logs security-related events (without sensitive data)
func (sl *StructuredLogger) LogSecurityEvent(eventType string, details map[string]interface{}) {
	logger := sl.WithContext("security_event", eventType)

	for k, v := range sanitizeLogData(details) {
		logger = logger.WithContext(k, v)
	}

	logger.Warn("Security event detected")
}

// sanitizeLogData removes or masks sensitive information from log data
func sanitizeLogData(data map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(data))

	sensitiveKeys := []string{
		"password", "token", "secret", "key", "auth", "credential",
		"private", "confidential", "sensitive",
	}

	for k, v := range data {
		keyLower := strings.ToLower(k)
		isSensitive := false

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(keyLower, sensitiveKey) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized[k] = "[REDACTED]"
		} else if str, ok := v.(string); ok {
			sanitized[k] = sanitizeStringValue(str)
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// sanitizeStringValue masks values that look like tokens or keys
func sanitizeStringValue(value string) interface{} {
	if len(value) > 20 && isTokenLike(value) {
		return fmt.Sprintf("[MASKED:%d_chars]", len(value))
	}
	return value
}

// isTokenLike checks if a string only contains characters typical of API keys
func isTokenLike(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
