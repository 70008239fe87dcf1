package agents

import "context"

// Generator port: one LLM completion per call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream delivers partial output through onChunk as it arrives and
	// returns the full accumulated text.
	Stream(ctx context.Context, prompt string, onChunk func(chunk string)) (string, error)
}
