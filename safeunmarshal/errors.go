package safeunmarshal

import "errors"

var (
	// ErrExpectedJSONArray is returned when the target is an array or slice type but the input is not a JSON array
	ErrExpectedJSONArray = errors.New("expected JSON array for array type")

	// ErrEmptyInput is returned when the input holds nothing but whitespace
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLarge is returned when the input exceeds UnmarshalOptions.MaxInputSize
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

	// ErrTrailingData is returned when a complete JSON value is followed by more non-whitespace input
	ErrTrailingData = errors.New("unexpected data after top-level JSON value")
)
