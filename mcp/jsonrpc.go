package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joinrollin/rollin-mcp/tools"
)

// JSON-RPC 2.0 message structures
// See: https://www.jsonrpc.org/specification

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"` // Can be string, number, or null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// JSONRPCNotification represents a JSON-RPC 2.0 notification (no ID, no response expected)
type JSONRPCNotification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	// ResourceNotFound is the MCP-specific code for an unknown resource URI
	ResourceNotFound = -32002
)

// MCP-specific method names
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
)

// LatestProtocolVersion is returned to clients that request a version we do not know
const LatestProtocolVersion = "2025-06-18"

var supportedProtocolVersions = []string{
	LatestProtocolVersion,
	"2025-03-26",
	"2024-11-05",
}

// InitializeParams represents MCP initialize request parameters
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
	ClientInfo      ClientInfo             `json:"clientInfo"`
}

// ClientInfo represents information about the MCP client
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult represents MCP initialize response
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ServerCapabilities describes what the server supports
type ServerCapabilities struct {
	Tools     map[string]interface{} `json:"tools,omitempty"`
	Resources map[string]interface{} `json:"resources,omitempty"`
}

// ServerInfo represents information about the MCP server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsListResult represents the response for tools/list
type ToolsListResult struct {
	Tools []ToolDescription `json:"tools"`
}

// ToolDescription represents a tool in MCP format
type ToolDescription struct {
	Name        string                 `json:"name"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Annotations *tools.Annotations     `json:"annotations,omitempty"`
}

// ToolsCallParams represents parameters for tools/call
type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolsCallResult represents the response for tools/call
type ToolsCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ResourcesListResult represents the response for resources/list
type ResourcesListResult struct {
	Resources []ResourceDescription `json:"resources"`
}

// ResourceDescription represents a resource in MCP format
type ResourceDescription struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// ResourcesReadParams represents parameters for resources/read
type ResourcesReadParams struct {
	URI string `json:"uri"`
}

// ResourcesReadResult represents the response for resources/read
type ResourcesReadResult struct {
	Contents []ResourceContents `json:"contents"`
}

// ResourceContents is the text body of a resource
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// JSONRPCHandler handles JSON-RPC 2.0 messages for MCP protocol
type JSONRPCHandler struct {
	server *Server
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler(server *Server) *JSONRPCHandler {
	return &JSONRPCHandler{
		server: server,
	}
}

// HandleMessage processes a JSON-RPC message and returns a response
// Returns nil if the message is a notification (no response expected)
func (h *JSONRPCHandler) HandleMessage(ctx context.Context, data []byte) (*JSONRPCResponse, error) {
	// First, try to parse as a request (has ID)
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    ParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}, nil
	}

	// Check if it's a notification (no ID field)
	if req.ID == nil {
		// It's a notification, no response needed
		h.server.logger.Info("received notification", "method", req.Method)
		return nil, nil
	}

	// Validate JSON-RPC version
	if req.JSONRPC != "2.0" {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    InvalidRequest,
				Message: "Invalid JSON-RPC version",
			},
		}, nil
	}

	// Route to appropriate method handler
	var result interface{}
	var rpcErr *RPCError

	switch req.Method {
	case MethodInitialize:
		result, rpcErr = h.handleInitialize(ctx, req.Params)
	case MethodPing:
		result = struct{}{}
	case MethodToolsList:
		result, rpcErr = h.handleToolsList(ctx, req.Params)
	case MethodToolsCall:
		result, rpcErr = h.handleToolsCall(ctx, req.Params)
	case MethodResourcesList:
		result, rpcErr = h.handleResourcesList(ctx, req.Params)
	case MethodResourcesRead:
		result, rpcErr = h.handleResourcesRead(ctx, req.Params)
	default:
		rpcErr = &RPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	}, nil
}

// handleInitialize processes the initialize request
func (h *JSONRPCHandler) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, *RPCError) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &RPCError{
				Code:    InvalidParams,
				Message: "Invalid initialize parameters",
				Data:    err.Error(),
			}
		}
	}

	protocolVersion := negotiateProtocolVersion(initParams.ProtocolVersion)

	h.server.logger.Info("MCP client connected",
		"client", initParams.ClientInfo.Name,
		"version", initParams.ClientInfo.Version,
		"protocol_version", protocolVersion)

	capabilities := ServerCapabilities{
		Tools: map[string]interface{}{
			"listChanged": false,
		},
	}
	if len(h.server.resources) > 0 {
		capabilities.Resources = map[string]interface{}{
			"listChanged": false,
			"subscribe":   false,
		}
	}

	return InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    capabilities,
		ServerInfo: ServerInfo{
			Name:    h.server.name,
			Version: h.server.version,
		},
	}, nil
}

// negotiateProtocolVersion echoes the client's version when supported and
// otherwise offers the latest one
func negotiateProtocolVersion(requested string) string {
	for _, v := range supportedProtocolVersions {
		if v == requested {
			return v
		}
	}
	return LatestProtocolVersion
}

// handleToolsList processes the tools/list request
func (h *JSONRPCHandler) handleToolsList(ctx context.Context, params json.RawMessage) (interface{}, *RPCError) {
	toolList := make([]ToolDescription, 0, len(h.server.tools))
	for _, tool := range h.server.tools {
		spec := tool.Spec()

		// Normalize the input schema to ensure "required" is always an array, not null
		// This is required by JSON Schema spec and some MCP clients reject null values
		inputSchema := normalizeJSONSchema(spec.Parameters)

		toolList = append(toolList, ToolDescription{
			Name:        spec.Name,
			Title:       spec.Title,
			Description: spec.Description,
			InputSchema: inputSchema,
			Annotations: spec.Annotations,
		})
	}

	return ToolsListResult{
		Tools: toolList,
	}, nil
}

// normalizeJSONSchema ensures the schema conforms to JSON Schema spec
// Specifically, it ensures "required" is an empty array instead of null
func normalizeJSONSchema(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return schema
	}

	// Marshal and unmarshal to get a deep copy, then fix the required field
	data, err := json.Marshal(schema)
	if err != nil {
		return schema
	}

	var normalized map[string]interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return schema
	}

	// Fix the "required" field if it's null or doesn't exist
	if required, exists := normalized["required"]; !exists || required == nil {
		normalized["required"] = []string{}
	}

	// Parameterless tools still advertise an (empty) properties object
	if normalized["type"] == "object" && normalized["properties"] == nil {
		normalized["properties"] = map[string]interface{}{}
	}

	return normalized
}

// handleToolsCall processes the tools/call request
func (h *JSONRPCHandler) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, *RPCError) {
	var callParams ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: "Invalid tools/call parameters",
			Data:    err.Error(),
		}
	}

	targetTool := h.server.findTool(callParams.Name)
	if targetTool == nil {
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: fmt.Sprintf("Tool not found: %s", callParams.Name),
		}
	}

	h.server.logger.Info("executing tool via JSON-RPC",
		"tool", callParams.Name,
		"verb", targetTool.Spec().UI.Verb)

	result, err := targetTool.Execute(ctx, callParams.Arguments)
	if err != nil {
		// Codes in the reserved JSON-RPC range (-32768 to -32000) are protocol-level
		// errors, e.g. InvalidParams from schema validation.
		var toolErr *tools.Error
		if errors.As(err, &toolErr) && toolErr.IsProtocolError() {
			return nil, &RPCError{
				Code:    toolErr.Code,
				Message: toolErr.Message,
				Data:    toolErr.Data,
			}
		}

		h.server.logger.Error("MCP JSON-RPC tool execution failed",
			"tool", callParams.Name,
			"error", err.Error(),
			"errorType", fmt.Sprintf("%T", err),
			"context", "mcp_jsonrpc_handler")

		return toolsCallResult(tools.Failure(fmt.Sprintf("Error executing tool: %v", err))), nil
	}

	if result == nil {
		return nil, &RPCError{
			Code:    InternalError,
			Message: fmt.Sprintf("Tool %s returned no result", callParams.Name),
		}
	}

	if result.IsError {
		h.server.logger.Warn("tool returned error result",
			"tool", callParams.Name,
			"message", result.Text)
	}

	return toolsCallResult(result), nil
}

// toolsCallResult converts a tool result to the MCP tools/call response shape
func toolsCallResult(r *tools.ToolResult) ToolsCallResult {
	return ToolsCallResult{
		Content: []ContentBlock{
			{
				Type: "text",
				Text: r.Text,
			},
		},
		IsError: r.IsError,
	}
}

// handleResourcesList processes the resources/list request
func (h *JSONRPCHandler) handleResourcesList(ctx context.Context, params json.RawMessage) (interface{}, *RPCError) {
	list := make([]ResourceDescription, 0, len(h.server.resources))
	for _, r := range h.server.resources {
		list = append(list, ResourceDescription{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}
	return ResourcesListResult{Resources: list}, nil
}

// handleResourcesRead processes the resources/read request
func (h *JSONRPCHandler) handleResourcesRead(ctx context.Context, params json.RawMessage) (interface{}, *RPCError) {
	var readParams ResourcesReadParams
	if err := json.Unmarshal(params, &readParams); err != nil || readParams.URI == "" {
		data := "missing uri"
		if err != nil {
			data = err.Error()
		}
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: "Invalid resources/read parameters",
			Data:    data,
		}
	}

	resource, ok := h.server.findResource(readParams.URI)
	if !ok {
		return nil, &RPCError{
			Code:    ResourceNotFound,
			Message: "Resource not found",
			Data:    map[string]string{"uri": readParams.URI},
		}
	}

	text, err := resource.Read(ctx)
	if err != nil {
		h.server.logger.Error("resource read failed", "uri", readParams.URI, "error", err)
		return nil, &RPCError{
			Code:    InternalError,
			Message: fmt.Sprintf("Failed to read resource: %v", err),
		}
	}

	return ResourcesReadResult{
		Contents: []ResourceContents{
			{
				URI:      resource.URI,
				MIMEType: resource.MIMEType,
				Text:     text,
			},
		},
	}, nil
}
