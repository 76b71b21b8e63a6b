package server

import (
	"encoding/json"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/errors"
)

const serverInstructions = "SEO analytics tools backed by the Loc AI data platform. " +
	"Use get_domain_keywords to classify a domain, get_keywords_search_volume for keyword demand in a location, " +
	"and create_domain_audit / get_domain_audit to run audits. Tool failures are returned as text with isError set."

// handleInitialize handles the MCP initialize method
func (s *MCPServer) handleInitialize(message *models.MCPMessage) *models.MCPMessage {
	var params models.MCPInitializeParams
	if message.Params != nil {
		if err := decodeParams(message.Params, &params); err != nil {
			return s.createStructuredErrorResponse(message.ID,
				errors.NewMCPError(errors.ErrCodeInvalidParams, "Invalid initialize parameters", err))
		}
	}

	s.logger.WithContext("client_name", params.ClientInfo.Name).
		WithContext("client_version", params.ClientInfo.Version).
		WithContext("client_protocol", params.ProtocolVersion).
		Debug("Client initializing")

	result := models.MCPInitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    s.capabilities,
		ServerInfo:      s.serverInfo,
		Instructions:    serverInstructions,
	}

	return &models.MCPMessage{
		JSONRPC: "2.0",
		ID:      message.ID,
		Result:  result,
	}
}

// handleInitialized handles the notifications/initialized method
func (s *MCPServer) handleInitialized(message *models.MCPMessage) *models.MCPMessage {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("MCP server initialized successfully")
	return nil // No response for notifications
}

// handlePing answers a liveness check with an empty result
func (s *MCPServer) handlePing(message *models.MCPMessage) *models.MCPMessage {
	if message.ID == nil {
		return nil
	}
	return &models.MCPMessage{
		JSONRPC: "2.0",
		ID:      message.ID,
		Result:  map[string]interface{}{},
	}
}

// decodeParams converts loosely typed params into target
func decodeParams(params interface{}, target interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
