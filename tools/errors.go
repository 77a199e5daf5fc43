package tools

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 codes produced by tools.
const (
	CodeInvalidParams = -32602
)

// Error is a tool failure that carries a JSON-RPC code. Codes in the reserved
// range reach the client as JSON-RPC errors; any other code is reported as an
// error result like a plain error.
type Error struct {
	Code    int
	Message string
	Data    interface{}
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code: %d)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsProtocolError reports whether the code falls in the range JSON-RPC reserves
// for protocol errors (-32768 to -32000).
func (e *Error) IsProtocolError() bool {
	return e.Code >= -32768 && e.Code <= -32000
}

// NewError creates a new tool error
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewInvalidParamsError formats a CodeInvalidParams error. An error wrapped
// with %w becomes its Cause.
func NewInvalidParamsError(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Code:    CodeInvalidParams,
		Message: err.Error(),
		Cause:   errors.Unwrap(err),
	}
}
