// Package llm provides the model endpoint behind every generation stage.
// One client serves the whole pipeline; stages share it read-only.
package llm

import "context"

// Client is the minimal completion contract the stages depend on.
type Client interface {
	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
