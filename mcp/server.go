package mcp

import (
	"fmt"
	"log/slog"

	"github.com/joinrollin/rollin-mcp/tools"
)

// Server represents an MCP server that exposes tools and resources
type Server struct {
	name      string
	version   string
	tools     []tools.Tool
	resources []Resource
	logger    *slog.Logger
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Name      string
	Version   string
	Tools     []tools.Tool
	Resources []Resource
	Logger    *slog.Logger
}

// NewServer creates a new MCP server with the provided tools and resources
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	server := &Server{
		name:      cfg.Name,
		version:   cfg.Version,
		tools:     cfg.Tools,
		resources: cfg.Resources,
		logger:    cfg.Logger,
	}

	server.logger.Info("initialized MCP server",
		"name", cfg.Name,
		"version", cfg.Version,
		"tool_count", len(cfg.Tools),
		"resource_count", len(cfg.Resources))

	return server
}

// Validate checks every registered tool with tools.Validate and rejects
// duplicate tool names or resource URIs. Call it before serving.
func (s *Server) Validate() error {
	names := make(map[string]bool, len(s.tools))
	for i, tool := range s.tools {
		if err := tools.Validate(tool); err != nil {
			return fmt.Errorf("tool %d: %w", i, err)
		}
		name := tool.Spec().Name
		if names[name] {
			return fmt.Errorf("duplicate tool name %q", name)
		}
		names[name] = true
	}

	uris := make(map[string]bool, len(s.resources))
	for _, r := range s.resources {
		if r.URI == "" || r.Read == nil {
			return fmt.Errorf("resource %q: uri and read func are required", r.Name)
		}
		if uris[r.URI] {
			return fmt.Errorf("duplicate resource uri %q", r.URI)
		}
		uris[r.URI] = true
	}
	return nil
}

// GetTools returns all registered tools
func (s *Server) GetTools() []tools.Tool {
	return s.tools
}

// GetResources returns all registered resources
func (s *Server) GetResources() []Resource {
	return s.resources
}

// findTool returns the tool registered under name, or nil
func (s *Server) findTool(name string) tools.Tool {
	for _, tool := range s.tools {
		if tool.Spec().Name == name {
			return tool
		}
	}
	return nil
}

// findResource returns the resource registered under uri
func (s *Server) findResource(uri string) (Resource, bool) {
	for _, r := range s.resources {
		if r.URI == uri {
			return r, true
		}
	}
	return Resource{}, false
}

// Name returns the server name
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version
func (s *Server) Version() string {
	return s.version
}
