package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seo-analytics-mcp/pkg/logging"
)

// UnregisteredToolBucket is the metrics key for calls naming unknown tools
const UnregisteredToolBucket = "unknown"

// ToolManager exposes a registry to the server and keeps invocation metrics
type ToolManager struct {
	registry   *Registry
	dispatcher *Dispatcher
	logger     *logging.StructuredLogger

	// Performance metrics, shared by managers derived with ForRegistry
	stats *ToolStats
}

// ToolStats tracks performance metrics for tool invocations
type ToolStats struct {
	TotalInvocations     int64
	FailedInvocations    int64
	InvocationsByName    map[string]int64
	FailuresByKind       map[string]int64
	TotalExecutionTimeMs int64
	ExecutionTimeByName  map[string]int64
	TimeoutCount         int64
	mu                   sync.RWMutex
}

// NewToolManager creates a ToolManager over registry
func NewToolManager(registry *Registry, timeout time.Duration, logger *logging.StructuredLogger) *ToolManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ToolManager{
		registry:   registry,
		dispatcher: NewDispatcher(registry, timeout, logger),
		logger:     logger,
		stats: &ToolStats{
			InvocationsByName:   make(map[string]int64),
			FailuresByKind:      make(map[string]int64),
			ExecutionTimeByName: make(map[string]int64),
		},
	}
}

// ForRegistry returns a manager for another registry (for example one built
// with a per-session API key) that records into the same metrics.
func (tm *ToolManager) ForRegistry(registry *Registry) *ToolManager {
	return &ToolManager{
		registry:   registry,
		dispatcher: NewDispatcher(registry, tm.dispatcher.Timeout(), tm.logger),
		logger:     tm.logger,
		stats:      tm.stats,
	}
}

// GetTool retrieves a tool definition by name
func (tm *ToolManager) GetTool(name string) (ToolDefinition, error) {
	def, ok := tm.registry.Get(name)
	if !ok {
		return ToolDefinition{}, fmt.Errorf("tool not found: %s", name)
	}
	return def, nil
}

// ListTools returns all tool definitions sorted by name
func (tm *ToolManager) ListTools() []ToolDefinition {
	return tm.registry.List()
}

// CallTool dispatches a call and records its outcome
func (tm *ToolManager) CallTool(ctx context.Context, name string, arguments map[string]interface{}) CallResult {
	result := tm.dispatcher.Dispatch(ctx, name, arguments)
	tm.record(result)
	tm.logger.WithContext("final_state", string(result.State)).
		LogPerformanceMetric("tool_execution_time", result.Duration.Milliseconds(), "ms")
	return result
}

// GetPerformanceMetrics returns current performance metrics
func (tm *ToolManager) GetPerformanceMetrics() map[string]interface{} {
	tm.stats.mu.RLock()
	defer tm.stats.mu.RUnlock()

	invocationsByName := make(map[string]int64, len(tm.stats.InvocationsByName))
	for name, count := range tm.stats.InvocationsByName {
		invocationsByName[name] = count
	}

	executionTimeByName := make(map[string]int64, len(tm.stats.ExecutionTimeByName))
	for name, ms := range tm.stats.ExecutionTimeByName {
		executionTimeByName[name] = ms
	}

	failuresByKind := make(map[string]int64, len(tm.stats.FailuresByKind))
	for kind, count := range tm.stats.FailuresByKind {
		failuresByKind[kind] = count
	}

	return map[string]interface{}{
		"registered_tools":        tm.registry.Len(),
		"total_invocations":       tm.stats.TotalInvocations,
		"failed_invocations":      tm.stats.FailedInvocations,
		"invocations_by_name":     invocationsByName,
		"failures_by_kind":        failuresByKind,
		"total_execution_time_ms": tm.stats.TotalExecutionTimeMs,
		"execution_time_by_name":  executionTimeByName,
		"timeout_count":           tm.stats.TimeoutCount,
	}
}

// record updates the metrics. Names outside the registry share one
// bucket so callers cannot grow the per-name maps.
func (tm *ToolManager) record(result CallResult) {
	name := result.Tool
	if _, ok := tm.registry.Get(name); !ok {
		name = UnregisteredToolBucket
	}

	tm.stats.mu.Lock()
	defer tm.stats.mu.Unlock()

	ms := result.Duration.Milliseconds()
	tm.stats.TotalInvocations++
	tm.stats.InvocationsByName[name]++
	tm.stats.TotalExecutionTimeMs += ms
	tm.stats.ExecutionTimeByName[name] += ms

	if result.IsError {
		tm.stats.FailedInvocations++
		if result.Err != nil {
			tm.stats.FailuresByKind[result.Err.Code]++
		}
	}
	if result.TimedOut {
		tm.stats.TimeoutCount++
	}
}
