// Package safeunmarshal provides utilities for safely unmarshalling JSON data
// that arrives from outside the process: tool arguments sent by MCP clients and
// payloads returned by the remote API.
//
// Decoding is strict. Input must be exactly one well-formed JSON value, may not
// exceed a size ceiling, and array targets must receive a JSON array.
package safeunmarshal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

const (
	// DefaultMaxInputSize is the default maximum size for JSON input (10MB)
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// UnmarshalOptions configures the behavior of JSON unmarshalling.
type UnmarshalOptions struct {
	// MaxInputSize is the maximum allowed size for input JSON in bytes.
	// Set to 0 for no limit. Default is 10MB.
	MaxInputSize int

	// DisallowUnknownFields rejects object keys that do not map to a struct field.
	DisallowUnknownFields bool

	// UseNumber decodes numbers into json.Number instead of float64 when the
	// target is an interface value.
	UseNumber bool
}

// DefaultOptions returns the default unmarshalling options.
func DefaultOptions() UnmarshalOptions {
	return UnmarshalOptions{
		MaxInputSize: DefaultMaxInputSize,
	}
}

// To unmarshals a JSON byte slice into a value of type T using DefaultOptions.
//
// Usage:
//
//	type MyStruct struct {
//	    Field string `json:"field"`
//	}
//	result, err := safeunmarshal.To[MyStruct]([]byte(`{"field": "value"}`))
//	if err != nil {
//	    if errors.Is(err, safeunmarshal.ErrExpectedJSONArray) {
//	        // Handle case where array was expected but not received
//	    }
//	}
func To[T any](raw []byte) (T, error) {
	return ToWithOptions[T](raw, DefaultOptions())
}

// ToWithOptions unmarshals a JSON byte slice into a value of type T with custom options.
//
// Usage:
//
//	opts := safeunmarshal.UnmarshalOptions{
//	    MaxInputSize:          1024 * 1024,
//	    DisallowUnknownFields: true,
//	}
//	result, err := safeunmarshal.ToWithOptions[MyStruct](jsonData, opts)
func ToWithOptions[T any](raw []byte, opts UnmarshalOptions) (T, error) {
	var zero T

	if opts.MaxInputSize > 0 && len(raw) > opts.MaxInputSize {
		return zero, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(raw), opts.MaxInputSize)
	}

	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return zero, ErrEmptyInput
	}

	valueType := reflect.TypeOf((*T)(nil)).Elem()
	isArray := valueType.Kind() == reflect.Array || valueType.Kind() == reflect.Slice
	// json.RawMessage is a byte slice but accepts any JSON value.
	if isArray && valueType.Elem().Kind() != reflect.Uint8 && !isJSONArray(data) {
		return zero, fmt.Errorf("%w: got %s", ErrExpectedJSONArray, truncate(data, 64))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if opts.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if opts.UseNumber {
		dec.UseNumber()
	}

	var response T
	if err := dec.Decode(&response); err != nil {
		return zero, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return zero, ErrTrailingData
	}

	return response, nil
}

// isJSONArray checks if the input byte slice represents a JSON array.
//
// Only the first non-whitespace character is inspected; the rest of the
// structure is left to the decoder.
func isJSONArray(data []byte) bool {
	for _, b := range data {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b == '['
	}
	return false
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
