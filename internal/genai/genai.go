// Package genai sends single-turn instructions to a text-generation backend
// and returns the raw response text.
package genai

import (
	"context"

	"github.com/metcalfc/simplyread/internal/errors"
)

var (
	// ErrEmptyResponse marks a well-formed response that carried no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrStatus marks a non-2xx response from the backend.
	ErrStatus = errors.New("unexpected status from model backend")
)

// Generator turns one instruction into one response.
type Generator interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, instruction string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, instruction string) (string, error) {
	return f(ctx, instruction)
}

// KeyFunc supplies the API key for a request. It is called per request so
// the key can be fetched lazily.
type KeyFunc func(ctx context.Context) (string, error)
