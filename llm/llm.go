// Package llm wraps the chat-completion providers used for tool
// selection. The engine treats every provider response as untrusted:
// callers validate names and arguments before acting on them.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema for the arguments object
}

// RawToolCall is one tool invocation as returned by the model, before
// any validation. Arguments stay raw until checked against the tool's
// schema.
type RawToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// Provider asks a model which tools to call for a query. A response
// with zero tool calls is valid.
type Provider interface {
	SelectToolCalls(ctx context.Context, system, user string, history []schema.Turn, tools []ToolSpec) ([]RawToolCall, error)
}

// New builds a provider from configuration.
func New(cfg config.DeciderConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
