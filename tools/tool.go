// Package tools provides interfaces and utilities for creating MCP tools.
//
// This package defines the core Tool interface and provides TypedTool, a
// type-safe abstraction for creating tools with automatic schema generation
// and safe JSON unmarshalling.
//
// # Basic Usage
//
// Create a typed tool using NewTool:
//
//	type DetailsRequest struct {
//	    ID string `json:"id" jsonschema:"Location ID"`
//	}
//
//	func getDetails(ctx context.Context, req DetailsRequest) (json.RawMessage, error) {
//	    return client.LocationDetails(ctx, req.ID)
//	}
//
//	tool := tools.NewTool(
//	    "get_location_details",
//	    "Get full accessibility details for a location",
//	    getDetails,
//	    tools.WithFailurePrefix("Failed to get location details"),
//	)
//
// # Manual Tool Implementation
//
// For more control, implement the Tool interface directly:
//
//	type MyTool struct{}
//
//	func (t *MyTool) Spec() *tools.ToolSpec {
//	    return &tools.ToolSpec{
//	        Name:        "my_tool",
//	        Description: "Does something useful",
//	        Parameters:  map[string]interface{}{ /* JSON schema */ },
//	    }
//	}
//
//	func (t *MyTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
//	    // implementation
//	}
//
// # Tool Options
//
// Customize tool behavior with functional options:
//
//	tool := tools.NewTool(
//	    "search_locations",
//	    "Description",
//	    handler,
//	    tools.WithTitle("Search Accessible Locations"),
//	    tools.WithProperty("radius", infer.Range(0.1, 25), infer.Default(5)),
//	    tools.WithAnnotations(tools.Annotations{ReadOnlyHint: true}),
//	)
//
// Arguments are validated against the resolved input schema before the handler
// runs; violations surface as CodeInvalidParams errors.
//
// # Error Handling
//
// WithFailurePrefix turns handler errors, panics and result serialization
// failures into error results whose text is "<prefix>: <cause>". Errors carrying
// a JSON-RPC reserved code still propagate to the transport.
//
// NewTool panics on schema generation errors (fail-fast at initialization).
// Use NewToolWithError for explicit error handling:
//
//	tool, err := tools.NewToolWithError(name, description, handler)
//	if err != nil {
//	    // handle error
//	}
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/joinrollin/rollin-mcp/infer"
)

// Tool defines the interface that all tools must implement
type Tool interface {
	// Spec returns the tool's specification, including name, description, parameters, and UI hints.
	Spec() *ToolSpec

	// Execute runs the tool with given parameters
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolSpec is what a tool advertises in tools/list.
type ToolSpec struct {
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Parameters is the rendered input schema sent to clients
	Parameters map[string]interface{} `json:"parameters,omitempty"`

	UI UI `json:"ui,omitempty"`

	// Annotations are behavioral hints advertised to MCP clients
	Annotations *Annotations `json:"annotations,omitempty"`

	// InputSchema is the schema Parameters was rendered from, nil for custom schemas
	InputSchema *jsonschema.Schema `json:"-"`

	failurePrefix string
	properties    []propertyRule
}

// Annotations mirror the MCP tool annotations.
type Annotations struct {
	ReadOnlyHint    bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool `json:"destructiveHint,omitempty"`
	IdempotentHint  bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool `json:"openWorldHint,omitempty"`
}

type propertyRule struct {
	name string
	opts []infer.PropertyOption
}

type UI struct {
	// Verb is a present progressive phrase shown while the tool runs, e.g. "Searching locations"
	Verb string `json:"verb,omitempty"`
}

const maxToolNameLength = 64

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks that t can be registered: a name of at most 64 characters
// drawn from [A-Za-z0-9_-], a description and a parameter schema.
func Validate(t Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}
	spec := t.Spec()
	if spec == nil {
		return errors.New("tool spec cannot be nil")
	}
	return validation.ValidateStruct(spec,
		validation.Field(&spec.Name,
			validation.Required,
			validation.RuneLength(1, maxToolNameLength),
			validation.Match(toolNamePattern).Error("must contain only alphanumeric characters, underscores, or hyphens")),
		validation.Field(&spec.Description, validation.Required),
		validation.Field(&spec.Parameters, validation.NotNil),
	)
}
