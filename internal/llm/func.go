package llm

import (
	"context"
	"fmt"
	"strings"
)

// FuncClient adapts a function to the Client interface
type FuncClient func(ctx context.Context, prompt string, tier ModelTier) (string, error)

// GenerateContent calls f
func (f FuncClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return f(ctx, prompt, tier)
}

// Close is a no-op
func (f FuncClient) Close() error {
	return nil
}

// Echo is an offline client that answers every prompt with a short canned
// markdown response quoting the first line of the prompt. Useful for dry runs.
var Echo = FuncClient(func(ctx context.Context, prompt string, _ ModelTier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	first := strings.TrimSpace(prompt)
	if idx := strings.Index(first, "\n"); idx >= 0 {
		first = first[:idx]
	}
	return fmt.Sprintf("- Offline response for: %s", first), nil
})
