package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ToolResult is the envelope every tool execution produces: a single block of
// text, flagged as an error or not.
type ToolResult struct {
	Text    string
	IsError bool
}

// Success renders v as two-space indented JSON and wraps it as a successful result.
func Success(v any) (*ToolResult, error) {
	text, err := MarshalOutput(v)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Text: text}, nil
}

// Failure wraps message, verbatim, as an error result.
func Failure(message string) *ToolResult {
	return &ToolResult{Text: message, IsError: true}
}

// MarshalOutput converts v to indented JSON text. json.RawMessage payloads are
// re-indented; HTML characters are left unescaped.
func MarshalOutput(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("serializing result: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
