// Package oracle provides clients for the LLM judgment oracle.
package oracle

import "context"

// Oracle is a text-in/text-out completion backend. The response is expected
// to be the raw model output; callers own all parsing and validation.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
