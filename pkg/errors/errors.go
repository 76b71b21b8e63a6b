package errors

import (
	stderrors "errors"
	"fmt"
	"time"

	"seo-analytics-mcp/internal/models"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	// Argument and tool-name validation errors, detected before any remote call
	ErrorCategoryValidation ErrorCategory = "validation"
	// Upstream service errors (transport, HTTP status, malformed body)
	ErrorCategoryUpstream ErrorCategory = "upstream"
	// Lookups that completed but did not contain the requested entry
	ErrorCategoryNotFound ErrorCategory = "not_found"
	// MCP protocol related errors
	ErrorCategoryMCP ErrorCategory = "mcp"
	// System/internal errors
	ErrorCategorySystem ErrorCategory = "system"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// StructuredError represents a structured error with additional context
type StructuredError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Recoverable bool                   `json:"recoverable"`
	Cause       error                  `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (se *StructuredError) Error() string {
	if se.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", se.Category, se.Code, se.Message, se.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", se.Category, se.Code, se.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (se *StructuredError) Unwrap() error {
	return se.Cause
}

// ToMCPError converts a StructuredError to an MCP protocol error
func (se *StructuredError) ToMCPError() *models.MCPError {
	var mcpCode int
	switch se.Category {
	case ErrorCategoryValidation:
		mcpCode = models.JSONRPCInvalidParams
	case ErrorCategoryMCP:
		switch se.Code {
		case ErrCodeMethodNotFound:
			mcpCode = models.JSONRPCMethodNotFound
		case ErrCodeParseError:
			mcpCode = models.JSONRPCParseError
		case ErrCodeInvalidParams:
			mcpCode = models.JSONRPCInvalidParams
		default:
			mcpCode = models.JSONRPCInvalidRequest
		}
	default:
		mcpCode = models.JSONRPCInternalError
	}

	return &models.MCPError{
		Code:    mcpCode,
		Message: se.Message,
		Data: map[string]interface{}{
			"category":  se.Category,
			"code":      se.Code,
			"severity":  se.Severity,
			"timestamp": se.Timestamp,
			"context":   se.Context,
		},
	}
}

// NewStructuredError creates a new structured error
func NewStructuredError(category ErrorCategory, severity ErrorSeverity, code, message string) *StructuredError {
	return &StructuredError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		Recoverable: severity != ErrorSeverityCritical,
		Context:     make(map[string]interface{}),
	}
}

// WithDetails adds details to the error
func (se *StructuredError) WithDetails(details string) *StructuredError {
	se.Details = details
	return se
}

// WithContext adds context information to the error
func (se *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if se.Context == nil {
		se.Context = make(map[string]interface{})
	}
	se.Context[key] = value
	return se
}

// WithCause sets the underlying cause error
func (se *StructuredError) WithCause(err error) *StructuredError {
	se.Cause = err
	return se
}

// IsRecoverable returns whether the error is recoverable
func (se *StructuredError) IsRecoverable() bool {
	return se.Recoverable
}

// SetRecoverable sets the recoverable flag
func (se *StructuredError) SetRecoverable(recoverable bool) *StructuredError {
	se.Recoverable = recoverable
	return se
}

// Field returns the offending argument name of an INVALID_ARGUMENTS error
func (se *StructuredError) Field() string {
	field, _ := se.Context[ContextKeyField].(string)
	return field
}

// Status returns the upstream HTTP status of an UPSTREAM_ERROR, 0 for transport faults
func (se *StructuredError) Status() int {
	status, _ := se.Context[ContextKeyStatus].(int)
	return status
}

// Keyword returns the missing keyword of a KEYWORD_NOT_FOUND error
func (se *StructuredError) Keyword() string {
	keyword, _ := se.Context[ContextKeyKeyword].(string)
	return keyword
}

// Taxonomy constructors

// NewUnknownToolError reports a tool name absent from the registry
func NewUnknownToolError(name string) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, ErrCodeUnknownTool,
		fmt.Sprintf("unknown tool: %s", name)).
		WithContext(ContextKeyTool, name)
}

// NewInvalidArgumentsError reports an argument that failed schema validation
func NewInvalidArgumentsError(field, reason string) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, ErrCodeInvalidArguments,
		fmt.Sprintf("invalid argument %q: %s", field, reason)).
		WithContext(ContextKeyField, field).
		WithContext(ContextKeyReason, reason)
}

// NewUpstreamError reports a failed upstream call. status is 0 when the
// request never produced an HTTP response.
func NewUpstreamError(status int, message string, cause error) *StructuredError {
	text := message
	if status > 0 {
		text = fmt.Sprintf("API error (status %d): %s", status, message)
	} else if text == "" {
		text = "API error"
	}
	return NewStructuredError(ErrorCategoryUpstream, ErrorSeverityMedium, ErrCodeUpstreamError, text).
		WithContext(ContextKeyStatus, status).
		WithCause(cause)
}

// NewKeywordNotFoundError reports a keyword missing from an upstream volume mapping
func NewKeywordNotFoundError(keyword string) *StructuredError {
	return NewStructuredError(ErrorCategoryNotFound, ErrorSeverityLow, ErrCodeKeywordNotFound,
		fmt.Sprintf("keyword not found: %s", keyword)).
		WithContext(ContextKeyKeyword, keyword)
}

// NewMCPError creates an MCP protocol related error
func NewMCPError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryMCP, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewSystemError creates a system/internal error
func NewSystemError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategorySystem, ErrorSeverityCritical, code, message).WithCause(err)
}

// AsStructured extracts a StructuredError from an error chain
func AsStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Kind returns the taxonomy code of err, or "" when err is not structured
func Kind(err error) string {
	if se, ok := AsStructured(err); ok {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given taxonomy code
func Is(err error, code string) bool {
	return err != nil && Kind(err) == code
}

// Context keys used by the taxonomy constructors
const (
	ContextKeyTool    = "tool_name"
	ContextKeyField   = "field"
	ContextKeyReason  = "reason"
	ContextKeyStatus  = "status"
	ContextKeyKeyword = "keyword"
)

// Common error codes
const (
	// Tool call taxonomy
	ErrCodeUnknownTool      = "UNKNOWN_TOOL"
	ErrCodeInvalidArguments = "INVALID_ARGUMENTS"
	ErrCodeUpstreamError    = "UPSTREAM_ERROR"
	ErrCodeKeywordNotFound  = "KEYWORD_NOT_FOUND"

	// MCP protocol error codes
	ErrCodeParseError     = "PARSE_ERROR"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeMethodNotFound = "METHOD_NOT_FOUND"
	ErrCodeInvalidParams  = "INVALID_PARAMS"

	// System error codes
	ErrCodeInitializationFailed = "INITIALIZATION_FAILED"
	ErrCodeUnexpectedPanic      = "UNEXPECTED_PANIC"
)
