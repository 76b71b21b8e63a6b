package server

import (
	"context"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/errors"
	"seo-analytics-mcp/pkg/tools"
)

// handleToolsList handles the tools/list method
func (s *MCPServer) handleToolsList(message *models.MCPMessage, session *tools.ToolManager) *models.MCPMessage {
	defs := session.ListTools()

	mcpTools := make([]models.MCPTool, 0, len(defs))
	for _, def := range defs {
		mcpTools = append(mcpTools, models.MCPTool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema(),
		})
	}

	return &models.MCPMessage{
		JSONRPC: "2.0",
		ID:      message.ID,
		Result:  models.MCPToolsListResult{Tools: mcpTools},
	}
}

// handleToolsCall handles the tools/call method. Every tool failure comes
// back as an isError result; only unusable params become a protocol error.
func (s *MCPServer) handleToolsCall(ctx context.Context, message *models.MCPMessage, session *tools.ToolManager) *models.MCPMessage {
	if message.Params == nil {
		return s.createStructuredErrorResponse(message.ID,
			errors.NewMCPError(errors.ErrCodeInvalidParams, "Missing tools/call parameters", nil))
	}

	var params models.MCPToolsCallParams
	if err := decodeParams(message.Params, &params); err != nil {
		return s.createStructuredErrorResponse(message.ID,
			errors.NewMCPError(errors.ErrCodeInvalidParams, "Invalid tools/call parameters", err).
				WithDetails(err.Error()))
	}
	if params.Name == "" {
		return s.createStructuredErrorResponse(message.ID,
			errors.NewMCPError(errors.ErrCodeInvalidParams, "Tool name is required", nil))
	}

	result := session.CallTool(ctx, params.Name, params.Arguments)

	logger := s.logger.WithContext("tool_name", params.Name).
		WithContext("invocation_id", result.InvocationID).
		WithContext("final_state", string(result.State))
	if result.IsError {
		logger.WithError(result.Err).Debug("Tool call returned an error result")
	} else {
		logger.Debug("Tool call completed")
	}

	return &models.MCPMessage{
		JSONRPC: "2.0",
		ID:      message.ID,
		Result:  models.NewTextToolResult(result.Text, result.IsError),
	}
}
