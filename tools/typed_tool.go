package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/joinrollin/rollin-mcp/infer"
	"github.com/joinrollin/rollin-mcp/safeunmarshal"
)

type TypedTool[In, Out any] struct {
	spec     *ToolSpec
	handler  func(context.Context, In) (Out, error)
	resolved *jsonschema.Resolved
}

func (t *TypedTool[In, Out]) Spec() *ToolSpec {
	return t.spec
}

// Execute validates params against the input schema, decodes them into In and
// runs the handler. Validation failures return CodeInvalidParams errors before
// the handler is called.
func (t *TypedTool[In, Out]) Execute(ctx context.Context, params json.RawMessage) (result *ToolResult, err error) {
	input, err := t.decode(params)
	if err != nil {
		return nil, err
	}

	if t.spec.failurePrefix != "" {
		defer func() {
			if r := recover(); r != nil {
				result, err = t.failure(fmt.Errorf("panic: %v", r)), nil
			}
		}()
	}

	output, err := t.handler(ctx, input)
	if err != nil {
		var toolErr *Error
		if t.spec.failurePrefix == "" || (errors.As(err, &toolErr) && toolErr.IsProtocolError()) {
			return nil, err
		}
		return t.failure(err), nil
	}

	result, err = Success(output)
	if err != nil {
		if t.spec.failurePrefix == "" {
			return nil, err
		}
		return t.failure(err), nil
	}
	return result, nil
}

func (t *TypedTool[In, Out]) decode(params json.RawMessage) (In, error) {
	var input In

	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	if t.resolved != nil {
		args, err := safeunmarshal.To[map[string]any](trimmed)
		if err != nil {
			return input, NewInvalidParamsError("failed to parse parameters: %w", err)
		}
		if err := t.resolved.Validate(args); err != nil {
			return input, NewInvalidParamsError("invalid parameters: %w", err)
		}
	}

	input, err := safeunmarshal.To[In](trimmed)
	if err != nil {
		return input, NewInvalidParamsError("failed to parse parameters: %w", err)
	}
	return input, nil
}

func (t *TypedTool[In, Out]) failure(err error) *ToolResult {
	return Failure(fmt.Sprintf("%s: %v", t.spec.failurePrefix, err))
}

// ToolOption for functional configuration
type ToolOption func(*ToolSpec)

func WithTitle(title string) ToolOption {
	return func(spec *ToolSpec) {
		spec.Title = title
	}
}

func WithVerb(verb string) ToolOption {
	return func(spec *ToolSpec) {
		spec.UI.Verb = verb
	}
}

func WithAnnotations(a Annotations) ToolOption {
	return func(spec *ToolSpec) {
		spec.Annotations = &a
	}
}

// WithCustomSchema replaces the inferred input schema. Arguments are then only
// checked by decoding into the handler's input type.
func WithCustomSchema(schema map[string]interface{}) ToolOption {
	return func(spec *ToolSpec) {
		spec.Parameters = schema
		spec.InputSchema = nil
	}
}

// WithProperty tightens the inferred schema of one input property.
func WithProperty(name string, opts ...infer.PropertyOption) ToolOption {
	return func(spec *ToolSpec) {
		spec.properties = append(spec.properties, propertyRule{name: name, opts: opts})
	}
}

// WithFailurePrefix makes the tool report handler failures as error results
// with text "<prefix>: <cause>" instead of returning them to the transport.
func WithFailurePrefix(prefix string) ToolOption {
	return func(spec *ToolSpec) {
		spec.failurePrefix = prefix
	}
}

// NewTool creates a new TypedTool with automatic schema generation and safe unmarshalling.
// It panics if schema generation fails, following the principle of failing fast at initialization time.
// For more control over error handling, use NewToolWithError.
//
// Example:
//
//	tool := tools.NewTool(
//	    "list_regions",
//	    "List all regions where accessibility data is available",
//	    handleRegions,
//	    tools.WithFailurePrefix("Failed to list regions"),
//	)
func NewTool[In, Out any](
	name,
	description string,
	handler func(context.Context, In) (Out, error),
	opts ...ToolOption,
) Tool {
	tool, err := NewToolWithError[In, Out](name, description, handler, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create tool %q: %v", name, err))
	}
	return tool
}

// NewToolWithError creates a new TypedTool with automatic schema generation and safe unmarshalling,
// returning an error instead of panicking on failure.
func NewToolWithError[In, Out any](
	name,
	description string,
	handler func(context.Context, In) (Out, error),
	opts ...ToolOption,
) (Tool, error) {

	inputSchema, err := infer.FromFuncInput(handler)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema from handler function: %w", err)
	}

	spec := &ToolSpec{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}

	for _, opt := range opts {
		opt(spec)
	}

	tool := &TypedTool[In, Out]{
		spec:    spec,
		handler: handler,
	}

	if spec.InputSchema == nil {
		return tool, nil
	}

	for _, rule := range spec.properties {
		if err := infer.Constrain(spec.InputSchema, rule.name, rule.opts...); err != nil {
			return nil, fmt.Errorf("failed to constrain input schema: %w", err)
		}
	}

	inputSchemaMap, err := infer.ToMap(spec.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to convert input schema to map: %w", err)
	}
	spec.Parameters = inputSchemaMap

	if spec.InputSchema.Type == "object" {
		resolved, err := spec.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve input schema: %w", err)
		}
		tool.resolved = resolved
	}

	return tool, nil
}
