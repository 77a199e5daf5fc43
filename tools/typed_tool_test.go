package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/joinrollin/rollin-mcp/infer"
	"github.com/joinrollin/rollin-mcp/safeunmarshal"
)

// Test types
type TestInput struct {
	Name   string   `json:"name"`
	Radius *float64 `json:"radius,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

type TestOutput struct {
	Result  string `json:"result"`
	Success bool   `json:"success"`
}

// Test handler function
func testHandler(ctx context.Context, input TestInput) (TestOutput, error) {
	return TestOutput{
		Result:  "processed: " + input.Name,
		Success: true,
	}, nil
}

func errorHandler(ctx context.Context, input TestInput) (TestOutput, error) {
	return TestOutput{}, errors.New("handler error")
}

func decodeOutput(t *testing.T, result *ToolResult) TestOutput {
	t.Helper()
	if result == nil {
		t.Fatal("Execute returned nil result")
	}
	if result.IsError {
		t.Fatalf("Expected success result, got error %q", result.Text)
	}
	var output TestOutput
	if err := json.Unmarshal([]byte(result.Text), &output); err != nil {
		t.Fatalf("Result text is not valid JSON: %v\n%s", err, result.Text)
	}
	return output
}

func TestNewTool_Success(t *testing.T) {
	tool := NewTool(
		"test_tool",
		"A test tool",
		testHandler,
	)

	if tool == nil {
		t.Fatal("NewTool returned nil")
	}

	spec := tool.Spec()
	if spec.Name != "test_tool" {
		t.Errorf("Expected name 'test_tool', got %q", spec.Name)
	}

	if spec.Description != "A test tool" {
		t.Errorf("Expected description 'A test tool', got %q", spec.Description)
	}

	if spec.Parameters == nil {
		t.Error("Parameters should not be nil")
	}

	if err := Validate(tool); err != nil {
		t.Errorf("Validate() returned error: %v", err)
	}
}

func TestNewTool_WithOptions(t *testing.T) {
	tool := NewTool(
		"test_tool",
		"A test tool",
		testHandler,
		WithVerb("Testing"),
		WithTitle("Test Tool"),
		WithAnnotations(Annotations{ReadOnlyHint: true}),
	)

	spec := tool.Spec()
	if spec.UI.Verb != "Testing" {
		t.Errorf("Expected verb 'Testing', got %q", spec.UI.Verb)
	}

	if spec.Title != "Test Tool" {
		t.Errorf("Expected title 'Test Tool', got %q", spec.Title)
	}

	if spec.Annotations == nil || !spec.Annotations.ReadOnlyHint {
		t.Error("Expected read-only annotation")
	}
}

func TestNewToolWithError_UnknownProperty(t *testing.T) {
	_, err := NewToolWithError(
		"test_tool",
		"A test tool",
		testHandler,
		WithProperty("missing", infer.Range(0, 1)),
	)
	if err == nil {
		t.Fatal("Expected error for constraint on unknown property")
	}
}

func TestTypedTool_Execute_Success(t *testing.T) {
	tool := NewTool(
		"test_tool",
		"A test tool",
		testHandler,
	)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"test"}`))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	output := decodeOutput(t, result)
	if output.Result != "processed: test" {
		t.Errorf("Expected result 'processed: test', got %q", output.Result)
	}

	if !output.Success {
		t.Error("Expected Success to be true")
	}

	if !strings.Contains(result.Text, "\n  \"result\"") {
		t.Errorf("Expected two-space indented JSON, got %q", result.Text)
	}
}

func TestTypedTool_Execute_HandlerError(t *testing.T) {
	tool := NewTool(
		"error_tool",
		"A tool that errors",
		errorHandler,
	)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"test"}`))
	if err == nil {
		t.Fatal("Expected error from handler, got nil")
	}

	if err.Error() != "handler error" {
		t.Errorf("Expected error 'handler error', got %q", err.Error())
	}
}

func TestTypedTool_Execute_FailurePrefix(t *testing.T) {
	tool := NewTool(
		"error_tool",
		"A tool that errors",
		errorHandler,
		WithFailurePrefix("Failed to search locations"),
	)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"test"}`))
	if err != nil {
		t.Fatalf("Expected error result, got error: %v", err)
	}

	if !result.IsError {
		t.Error("Expected IsError to be true")
	}

	if result.Text != "Failed to search locations: handler error" {
		t.Errorf("Unexpected error text %q", result.Text)
	}
}

func TestTypedTool_Execute_FailurePrefixRecoversPanic(t *testing.T) {
	tool := NewTool(
		"panic_tool",
		"A tool that panics",
		func(ctx context.Context, input TestInput) (TestOutput, error) {
			panic("boom")
		},
		WithFailurePrefix("Failed to list regions"),
	)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("Expected error result, got error: %v", err)
	}

	if !result.IsError || !strings.HasPrefix(result.Text, "Failed to list regions: panic: boom") {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestTypedTool_Execute_FailurePrefixSerializationError(t *testing.T) {
	tool := NewTool(
		"nan_tool",
		"A tool that returns an unencodable value",
		func(ctx context.Context, input TestInput) (float64, error) {
			return math.NaN(), nil
		},
		WithFailurePrefix("Failed to get location details"),
	)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("Expected error result, got error: %v", err)
	}

	if !result.IsError || !strings.HasPrefix(result.Text, "Failed to get location details: serializing result") {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestTypedTool_Execute_ProtocolErrorPassesThroughPrefix(t *testing.T) {
	tool := NewTool(
		"protocol_tool",
		"A tool that returns a reserved error code",
		func(ctx context.Context, input TestInput) (TestOutput, error) {
			return TestOutput{}, NewError(-32001, "custom protocol error")
		},
		WithFailurePrefix("Failed"),
	)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"x"}`))
	var toolErr *Error
	if !errors.As(err, &toolErr) || toolErr.Code != -32001 {
		t.Fatalf("Expected protocol error to propagate, got %v", err)
	}
}

func TestTypedTool_Execute_InvalidJSON(t *testing.T) {
	tool := NewTool(
		"test_tool",
		"A test tool",
		testHandler,
	)

	tests := []struct {
		name   string
		params string
	}{
		{name: "type mismatch", params: `{"name": 42}`},
		{name: "text before json", params: `Some text before {"name": "test"}`},
		{name: "missing required", params: `{}`},
		{name: "unknown property", params: `{"name": "test", "extra": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Execute(context.Background(), json.RawMessage(tt.params))
			var toolErr *Error
			if !errors.As(err, &toolErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if toolErr.Code != CodeInvalidParams {
				t.Errorf("Expected code %d, got %d", CodeInvalidParams, toolErr.Code)
			}
		})
	}
}

func TestTypedTool_Execute_PropertyConstraints(t *testing.T) {
	called := false
	tool := NewTool(
		"constrained_tool",
		"A tool with constrained input",
		func(ctx context.Context, input TestInput) (TestOutput, error) {
			called = true
			return TestOutput{Success: true}, nil
		},
		WithProperty("radius", infer.Range(0.1, 25), infer.Default(5)),
		WithProperty("kind", infer.Enum("accurate", "inaccurate", "correction")),
		WithFailurePrefix("Failed"),
	)

	props := tool.Spec().Parameters["properties"].(map[string]interface{})
	radius := props["radius"].(map[string]interface{})
	if radius["maximum"] != 25.0 || radius["default"] != 5.0 {
		t.Errorf("Expected advertised constraints on radius, got %v", radius)
	}

	tests := []struct {
		name    string
		params  string
		wantErr bool
	}{
		{name: "radius at maximum", params: `{"name":"a","radius":25}`},
		{name: "radius above maximum", params: `{"name":"a","radius":25.0001}`, wantErr: true},
		{name: "radius 30", params: `{"name":"a","radius":30}`, wantErr: true},
		{name: "radius null", params: `{"name":"a","radius":null}`},
		{name: "kind in enum", params: `{"name":"a","kind":"correction"}`},
		{name: "kind outside enum", params: `{"name":"a","kind":"maybe"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			result, err := tool.Execute(context.Background(), json.RawMessage(tt.params))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected validation error, got result %+v", result)
				}
				if called {
					t.Error("Handler must not run when validation fails")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !called {
				t.Error("Expected handler to run")
			}
		})
	}
}

func TestTypedTool_Execute_EmptyInput(t *testing.T) {
	emptyHandler := func(ctx context.Context, input struct{}) (TestOutput, error) {
		return TestOutput{Result: "empty input ok", Success: true}, nil
	}

	tool := NewTool(
		"empty_tool",
		"A tool with empty input",
		emptyHandler,
	)

	for _, params := range []json.RawMessage{{}, json.RawMessage(`null`), json.RawMessage(`{}`)} {
		result, err := tool.Execute(context.Background(), params)
		if err != nil {
			t.Fatalf("Execute with %q returned error: %v", params, err)
		}

		output := decodeOutput(t, result)
		if output.Result != "empty input ok" {
			t.Errorf("Expected result 'empty input ok', got %q", output.Result)
		}
	}
}

func TestWithCustomSchema(t *testing.T) {
	customSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"custom_field": map[string]interface{}{
				"type": "string",
			},
		},
	}

	tool := NewTool(
		"test_tool",
		"A test tool",
		testHandler,
		WithCustomSchema(customSchema),
	)

	spec := tool.Spec()
	if spec.InputSchema != nil {
		t.Error("InputSchema should be cleared by a custom schema")
	}

	props, ok := spec.Parameters["properties"]
	if !ok {
		t.Fatal("Parameters should have 'properties' field")
	}

	propsMap, ok := props.(map[string]interface{})
	if !ok {
		t.Fatal("Properties should be a map")
	}

	if _, ok := propsMap["custom_field"]; !ok {
		t.Error("Custom schema should include 'custom_field'")
	}
}

func TestResultEnvelope(t *testing.T) {
	payload := json.RawMessage(`{"status":"ok","checks":[1,2],"note":"a<b"}`)

	result, err := Success(payload)
	if err != nil {
		t.Fatalf("Success returned error: %v", err)
	}
	if result.IsError {
		t.Error("Success result must not be flagged as error")
	}

	var got, want any
	if err := json.Unmarshal([]byte(result.Text), &got); err != nil {
		t.Fatalf("Success text is not JSON: %v", err)
	}
	_ = json.Unmarshal(payload, &want)
	gotBytes, _ := json.Marshal(got)
	wantBytes, _ := json.Marshal(want)
	if string(gotBytes) != string(wantBytes) {
		t.Errorf("round trip mismatch: got %s want %s", gotBytes, wantBytes)
	}
	if !strings.Contains(result.Text, "a<b") {
		t.Errorf("HTML characters should not be escaped: %s", result.Text)
	}

	failure := Failure("API 500: boom")
	if !failure.IsError || failure.Text != "API 500: boom" {
		t.Errorf("unexpected failure envelope %+v", failure)
	}
}

type specTool struct{ spec *ToolSpec }

func (s specTool) Spec() *ToolSpec { return s.spec }

func (s specTool) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
	return Success("ok")
}

func TestValidate(t *testing.T) {
	params := map[string]interface{}{"type": "object"}

	tests := []struct {
		name    string
		spec    *ToolSpec
		wantErr bool
	}{
		{"valid", &ToolSpec{Name: "search_locations", Description: "d", Parameters: params}, false},
		{"hyphenated", &ToolSpec{Name: "check-health", Description: "d", Parameters: params}, false},
		{"empty name", &ToolSpec{Description: "d", Parameters: params}, true},
		{"name with space", &ToolSpec{Name: "list regions", Description: "d", Parameters: params}, true},
		{"name too long", &ToolSpec{Name: strings.Repeat("a", 65), Description: "d", Parameters: params}, true},
		{"missing description", &ToolSpec{Name: "t", Parameters: params}, true},
		{"nil parameters", &ToolSpec{Name: "t", Description: "d"}, true},
		{"nil spec", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(specTool{spec: tt.spec})
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("expected error for nil tool")
	}
}

func TestTypedTool_Execute_InvalidParamsCause(t *testing.T) {
	tool := NewTool("test_tool", "A test tool", testHandler)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"name":"a"} {"name":"b"}`))

	var toolErr *Error
	if !errors.As(err, &toolErr) || toolErr.Code != CodeInvalidParams {
		t.Fatalf("Expected invalid params error, got %v", err)
	}
	if !errors.Is(err, safeunmarshal.ErrTrailingData) {
		t.Errorf("Expected cause %v, got %v", safeunmarshal.ErrTrailingData, toolErr.Cause)
	}
	if !strings.HasPrefix(toolErr.Message, "failed to parse parameters: ") {
		t.Errorf("unexpected message %q", toolErr.Message)
	}
}
