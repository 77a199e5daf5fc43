package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joinrollin/rollin-mcp/safeunmarshal"
	"github.com/joinrollin/rollin-mcp/tools"
)

// AuthHeaderType selects where HTTP clients present their token.
type AuthHeaderType string

const (
	AuthHeaderBearer AuthHeaderType = "bearer"  // Authorization: Bearer <token>
	AuthHeaderAPIKey AuthHeaderType = "api-key" // X-API-Key: <token>
)

const (
	maxRequestBodySize = 10 * 1024 * 1024
	shutdownTimeout    = 10 * time.Second
)

// HTTPTransport serves the MCP JSON-RPC endpoint plus a few REST helpers.
type HTTPTransport struct {
	server         *Server
	router         *http.ServeMux
	logger         *slog.Logger
	apiKey         APIKeyValidator
	jsonrpcHandler *JSONRPCHandler
	authHeaderType AuthHeaderType
	started        time.Time
}

// NewHTTPTransport creates an HTTP transport. Every route except /mcp/health
// requires a token accepted by apiKeyValidator, read from the Authorization
// header unless WithAuthHeaderType says otherwise.
func NewHTTPTransport(server *Server, logger *slog.Logger, apiKeyValidator APIKeyValidator) *HTTPTransport {
	if logger == nil {
		logger = server.logger
	}

	t := &HTTPTransport{
		server:         server,
		router:         http.NewServeMux(),
		logger:         logger.With("transport", "http"),
		apiKey:         apiKeyValidator,
		jsonrpcHandler: NewJSONRPCHandler(server),
		authHeaderType: AuthHeaderBearer,
		started:        time.Now(),
	}

	t.router.HandleFunc("/mcp", t.requireAuth(t.handleMCP))
	t.router.HandleFunc("/mcp/tools/list", t.requireAuth(t.handleListTools))
	t.router.HandleFunc("/mcp/tools/call", t.requireAuth(t.handleCallTool))
	t.router.HandleFunc("/mcp/health", t.handleHealth)

	return t
}

// WithAuthHeaderType sets the authentication header type (bearer or api-key)
func (t *HTTPTransport) WithAuthHeaderType(headerType AuthHeaderType) *HTTPTransport {
	t.authHeaderType = headerType
	return t
}

// credential extracts the presented token, or "" when there is none.
func (t *HTTPTransport) credential(r *http.Request) string {
	if t.authHeaderType == AuthHeaderAPIKey {
		return r.Header.Get("X-API-Key")
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func (t *HTTPTransport) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := t.credential(r)
		if !t.apiKey.Validate(r.Context(), key) {
			t.logger.Warn("unauthorized request",
				"path", r.URL.Path,
				"auth_type", t.authHeaderType,
				"has_key", key != "",
				"remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// handleMCP accepts a single JSON-RPC message or a batch. Batch entries are
// dispatched concurrently; responses keep the order of their requests and
// notifications are dropped. A request yielding no responses gets 202.
func (t *HTTPTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed, use POST for JSON-RPC requests", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		t.logger.Error("failed to read request body", "error", err)
		http.Error(w, fmt.Sprintf("failed to read request: %v", err), http.StatusBadRequest)
		return
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil || len(batch) == 0 {
		resp := t.dispatch(r.Context(), body)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	slots := make([]*JSONRPCResponse, len(batch))
	g, ctx := errgroup.WithContext(r.Context())
	for i, msg := range batch {
		g.Go(func() error {
			slots[i] = t.dispatch(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	responses := make([]*JSONRPCResponse, 0, len(slots))
	for _, resp := range slots {
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// dispatch runs one message through the JSON-RPC handler. It returns nil for
// notifications.
func (t *HTTPTransport) dispatch(ctx context.Context, msg []byte) *JSONRPCResponse {
	resp, err := t.jsonrpcHandler.HandleMessage(ctx, msg)
	if err != nil {
		t.logger.Error("error handling JSON-RPC message", "error", err)
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    InternalError,
				Message: "Internal server error",
				Data:    err.Error(),
			},
		}
	}
	return resp
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"name":      t.server.Name(),
		"version":   t.server.Version(),
		"tools":     len(t.server.GetTools()),
		"uptime":    time.Since(t.started).Round(time.Second).String(),
		"timestamp": time.Now().Unix(),
	})
}

func (t *HTTPTransport) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, _ := t.jsonrpcHandler.handleToolsList(r.Context(), nil)
	writeJSON(w, http.StatusOK, result)
}

// CallToolRequest is the body of POST /mcp/tools/call.
type CallToolRequest struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"arguments"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handleCallTool executes one tool outside the JSON-RPC envelope. Invalid
// arguments map to 400 and unknown tools to 404; tool failures are still 200
// with isError set, as on the JSON-RPC path.
func (t *HTTPTransport) handleCallTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request: %v", err), http.StatusBadRequest)
		return
	}
	req, err := safeunmarshal.To[CallToolRequest](body)
	if err != nil {
		t.logger.Warn("invalid tool call request", "error", err)
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	log := t.logger.With("tool", req.Name)
	log.Info("executing tool")

	target := t.server.findTool(req.Name)
	if target == nil {
		log.Warn("tool not found")
		http.Error(w, fmt.Sprintf("tool not found: %s", req.Name), http.StatusNotFound)
		return
	}

	result, err := target.Execute(r.Context(), req.Params)
	if err != nil {
		var toolErr *tools.Error
		if errors.As(err, &toolErr) && toolErr.Code == tools.CodeInvalidParams {
			http.Error(w, toolErr.Message, http.StatusBadRequest)
			return
		}
		log.Error("tool execution failed", "error", err, "error_type", fmt.Sprintf("%T", err))
		result = tools.Failure(fmt.Sprintf("Error executing tool: %v", err))
	}
	if result == nil {
		http.Error(w, fmt.Sprintf("tool %s returned no result", req.Name), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toolsCallResult(result))
}

// ServeHTTP implements http.Handler
func (t *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.router.ServeHTTP(w, r)
}

// Start listens on port and serves until ctx is cancelled, then shuts down
// gracefully. A listen failure is returned immediately.
func (t *HTTPTransport) Start(ctx context.Context, port string) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", port, err)
	}
	return t.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (t *HTTPTransport) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      t,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		t.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.logger.Error("HTTP server stopped", "error", err)
		return err
	}
	t.logger.Info("HTTP server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
