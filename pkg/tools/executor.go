// Package tools holds the SEO tool catalog and the dispatch path that turns
// a tool name plus raw arguments into display text.
//
// Dispatch guarantees:
// - Unknown tools and invalid arguments are rejected before any method runs
// - Every method invocation is bounded by a timeout
// - Errors and panics from methods or formatters become error results
// - Arguments are sanitized before they are logged
//
// No failure escapes Dispatch; callers always receive a CallResult.
package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/logging"
	"seo-analytics-mcp/pkg/schema"
)

const (
	// DefaultToolTimeout bounds a single method invocation
	DefaultToolTimeout = 30 * time.Second

	// MaxToolTimeout is the largest timeout a dispatcher accepts
	MaxToolTimeout = 5 * time.Minute
)

// State is a step of the dispatch state machine
type State string

const (
	StateIdle       State = "Idle"
	StateValidating State = "Validating"
	StateInvoking   State = "Invoking"
	StateFormatting State = "Formatting"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

// CallResult is the outcome of one dispatched call. Text is always set;
// on failure it reads "Error: <message>" and Err carries the classified error.
type CallResult struct {
	Tool         string
	InvocationID string
	Text         string
	IsError      bool
	Err          *errors.StructuredError
	State        State
	// FailedIn is the state the call was in when it failed
	FailedIn State
	TimedOut bool
	Duration time.Duration
}

// Dispatcher runs calls against a registry
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	logger   *logging.StructuredLogger
}

// NewDispatcher creates a dispatcher. A non-positive timeout selects
// DefaultToolTimeout; larger than MaxToolTimeout is clamped.
func NewDispatcher(registry *Registry, timeout time.Duration, logger *logging.StructuredLogger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	if timeout > MaxToolTimeout {
		timeout = MaxToolTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Dispatcher{registry: registry, timeout: timeout, logger: logger}
}

// Timeout returns the per-invocation timeout
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Dispatch validates, invokes and formats one tool call
func (d *Dispatcher) Dispatch(ctx context.Context, name string, arguments map[string]interface{}) (result CallResult) {
	start := time.Now()
	result = CallResult{
		Tool:         name,
		InvocationID: uuid.NewString(),
		State:        StateIdle,
	}
	logger := d.logger.WithContext("tool", name).WithContext("invocation_id", result.InvocationID)

	defer func() {
		if r := recover(); r != nil {
			logger.WithContext("panic", fmt.Sprint(r)).
				WithContext("stack", string(debug.Stack())).
				Error("Recovered panic during dispatch")
			fail(&result, errors.NewUpstreamError(0, fmt.Sprintf("internal failure: %v", r), nil).
				WithContext("panic", true))
		}
		result.Duration = time.Since(start)
		var err error
		if result.Err != nil {
			err = result.Err
		}
		logger.LogToolInvocation(name, result.InvocationID, string(result.State), result.Duration, err)
	}()

	result.State = StateValidating
	def, ok := d.registry.Get(name)
	if !ok {
		fail(&result, errors.NewUnknownToolError(name))
		return result
	}

	params, err := def.Schema.Validate(arguments)
	if err != nil {
		fail(&result, classify(err))
		return result
	}

	sanitized := sanitizeArguments(params.Raw())
	argLogger := logger
	for k, v := range sanitized {
		argLogger = argLogger.WithContext(fmt.Sprintf("arg_%s", k), v)
	}
	argLogger.Debug("Invoking tool")

	result.State = StateInvoking
	value, err := d.invoke(ctx, def, params)
	if err != nil {
		se := classify(err)
		if se.Context["timeout"] == true {
			result.TimedOut = true
		}
		fail(&result, se)
		return result
	}

	result.State = StateFormatting
	text, err := format(def, params, value)
	if err != nil {
		fail(&result, classify(err))
		return result
	}

	result.Text = text
	result.State = StateDone
	return result
}

type invocation struct {
	value interface{}
	err   error
}

// invoke runs the method under the dispatcher timeout. The method runs in
// its own goroutine so a method that ignores its context cannot hold the
// call past the deadline.
func (d *Dispatcher) invoke(ctx context.Context, def ToolDefinition, params schema.Params) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithContext("tool", def.Name).
					WithContext("panic", fmt.Sprint(r)).
					WithContext("stack", string(debug.Stack())).
					Error("Recovered panic in tool method")
				done <- invocation{err: errors.NewUpstreamError(0,
					fmt.Sprintf("tool %s failed unexpectedly: %v", def.Name, r), nil).
					WithContext("panic", true)}
			}
		}()
		value, err := def.Method(ctx, params)
		done <- invocation{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() == context.DeadlineExceeded {
			return nil, timeoutError(def.Name, d.timeout, out.err)
		}
		return out.value, out.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, timeoutError(def.Name, d.timeout, ctx.Err())
		}
		return nil, errors.NewUpstreamError(0, fmt.Sprintf("tool %s cancelled", def.Name), ctx.Err())
	}
}

func timeoutError(tool string, timeout time.Duration, cause error) *errors.StructuredError {
	return errors.NewUpstreamError(0,
		fmt.Sprintf("tool %s timed out after %s", tool, timeout), cause).
		WithContext("timeout", true)
}

// format applies the formatter, converting a panic into an error
func format(def ToolDefinition, params schema.Params, value interface{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatting %s result failed: %v", def.Name, r)
		}
	}()
	return def.Format(params, value)
}

// classify maps any error onto the call taxonomy. Structured errors keep
// their kind; anything else is reported as an upstream failure carrying the
// original message.
func classify(err error) *errors.StructuredError {
	if se, ok := errors.AsStructured(err); ok {
		return se
	}
	return errors.NewUpstreamError(0, err.Error(), err)
}

func fail(result *CallResult, err *errors.StructuredError) {
	result.FailedIn = result.State
	result.State = StateFailed
	result.IsError = true
	result.Err = err
	result.Text = "Error: " + err.Message
}

// sanitizeArguments truncates long values before they are logged
func sanitizeArguments(arguments map[string]interface{}) map[string]interface{} {
	const maxLogLength = 100

	sanitized := make(map[string]interface{}, len(arguments))
	for key, value := range arguments {
		if strValue, ok := value.(string); ok && len(strValue) > maxLogLength {
			sanitized[key] = fmt.Sprintf("%s... [%d chars]", strValue[:maxLogLength], len(strValue))
		} else {
			sanitized[key] = value
		}
	}
	return sanitized
}
