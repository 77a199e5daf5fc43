package mcp

import (
	"context"
	"crypto/subtle"
)

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) bool
}

// StaticKeyValidator accepts exactly one pre-shared token.
type StaticKeyValidator struct {
	key []byte
}

// NewStaticKeyValidator returns a validator for key. An empty key rejects every request.
func NewStaticKeyValidator(key string) *StaticKeyValidator {
	return &StaticKeyValidator{key: []byte(key)}
}

func (v *StaticKeyValidator) Validate(ctx context.Context, apiKey string) bool {
	if len(v.key) == 0 || apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare(v.key, []byte(apiKey)) == 1
}
