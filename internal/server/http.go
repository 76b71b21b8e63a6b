package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"seo-analytics-mcp/internal/models"
	"seo-analytics-mcp/pkg/errors"
)

const (
	// MCPPath is the streamable HTTP endpoint
	MCPPath    = "/mcp"
	HealthPath = "/healthz"

	shutdownTimeout = 10 * time.Second
)

// Handler returns the HTTP transport. Each POST to MCPPath carries one
// JSON-RPC message; a bearer token is used as the caller's upstream API key.
func (s *MCPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+MCPPath, s.handleHTTPMessage)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
	return mux
}

// ListenAndServe serves the HTTP transport on addr until ctx is cancelled
func (s *MCPServer) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves the HTTP transport on listener until ctx is cancelled
func (s *MCPServer) Serve(ctx context.Context, listener net.Listener) error {
	if err := s.startBackground(); err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.WithContext("transport", "http").
		WithContext("addr", listener.Addr().String()).
		Info("SEO analytics MCP server started")

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func (s *MCPServer) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)

	var message models.MCPMessage
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.logRejectedBody(r, http.StatusRequestEntityTooLarge, "body too large")
			writeJSON(w, http.StatusRequestEntityTooLarge,
				s.createErrorResponse(nil, models.JSONRPCInvalidRequest, "Request body too large"))
			return
		}
		if stderrors.Is(err, io.EOF) {
			s.logRejectedBody(r, http.StatusBadRequest, "empty body")
			writeJSON(w, http.StatusBadRequest,
				s.createErrorResponse(nil, models.JSONRPCInvalidRequest, "Empty request body"))
			return
		}
		s.logRejectedBody(r, http.StatusBadRequest, "invalid json")
		writeJSON(w, http.StatusBadRequest, s.createStructuredErrorResponse(nil,
			errors.NewMCPError(errors.ErrCodeParseError, "Parse error", err)))
		return
	}

	session, err := s.sessionTools(bearerToken(r))
	if err != nil {
		s.loggingManager.LogError("http", err, "Failed to build session tools", map[string]interface{}{
			"remote_addr": r.RemoteAddr,
		})
		writeJSON(w, http.StatusInternalServerError, s.createStructuredErrorResponse(message.ID,
			errors.NewSystemError(errors.ErrCodeInitializationFailed, "Internal error", err)))
		return
	}

	response := s.handleMessage(r.Context(), &message, session)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *MCPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"name":    s.serverInfo.Name,
		"version": s.serverInfo.Version,
		"tools":   len(s.toolManager.ListTools()),
	})
}

// logRejectedBody records a request refused before it reached the handler
func (s *MCPServer) logRejectedBody(r *http.Request, status int, reason string) {
	s.logger.LogSecurityEvent("rejected_request_body", map[string]interface{}{
		"reason":         reason,
		"http_status":    status,
		"remote_addr":    r.RemoteAddr,
		"content_length": r.ContentLength,
		"bearer_present": bearerToken(r) != "",
	})
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
