package knowrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/companionkit/knowrouter/schema"
)

// NewServer exposes the engine over MCP. route-query is the primary
// operation; engine-stats reports the active configuration for
// debugging.
func NewServer(engine *Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"knowrouter",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Routes companion queries to the right knowledge stores and returns an enriched context block"),
	)

	s.AddTool(
		mcp.NewToolWithRawSchema("route-query", "Classify a user message, retrieve matching background knowledge and return the fused context with routing metadata", GetRouteQuerySchema()),
		HandleRouteQuery(engine),
	)
	s.AddTool(
		mcp.NewToolWithRawSchema("engine-stats", "Report the engine's active routing configuration", GetEngineStatsSchema()),
		HandleEngineStats(engine),
	)
	return s
}

func GetRouteQuerySchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {
				"type": "string",
				"minLength": 1,
				"description": "The user's message"
			},
			"namespace": {
				"type": "string",
				"minLength": 1,
				"description": "Persona namespace isolating this companion's knowledge"
			},
			"user_id": {
				"type": "string",
				"description": "Identifier of the conversational partner"
			},
			"conversation_id": {
				"type": "string",
				"description": "Identifier of the ongoing conversation"
			},
			"history": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"role": {"type": "string", "enum": ["user", "assistant"]},
						"content": {"type": "string"}
					},
					"required": ["role", "content"]
				},
				"description": "Recent conversation turns, oldest first"
			}
		},
		"required": ["text", "namespace"]
	}`)
}

func GetEngineStatsSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {}
	}`)
}

// HandleRouteQuery routes one message and returns the outcome as JSON.
func HandleRouteQuery(engine *Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		q := schema.Query{
			Text:           stringArg(args, "text"),
			Namespace:      stringArg(args, "namespace"),
			UserID:         stringArg(args, "user_id"),
			ConversationID: stringArg(args, "conversation_id"),
			History:        historyArg(args),
		}
		if q.Text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		if q.Namespace == "" {
			return mcp.NewToolResultError("namespace is required"), nil
		}

		outcome := engine.Route(ctx, q)
		payload, err := json.Marshal(outcome)
		if err != nil {
			return nil, fmt.Errorf("marshal routing outcome: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// HandleEngineStats reports the active configuration snapshot.
func HandleEngineStats(engine *Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := engine.Config()
		stats := map[string]any{
			"version":              Version,
			"complexity_threshold": snap.Router.ComplexityThreshold,
			"timeouts_ms": map[string]int{
				"per_call":   snap.Router.PerCallTimeoutMs,
				"dispatch":   snap.Router.DispatchTimeoutMs,
				"whole_path": snap.Router.WholePathTimeoutMs,
				"fast_path":  snap.Router.FastPathTimeoutMs,
			},
			"max_concurrent_tools": snap.Router.MaxConcurrentTools,
			"decider_provider":     snap.Decider.Provider,
			"decider_model":        snap.Decider.Model,
			"fuser_char_budget":    snap.Fuser.CharBudget,
		}
		payload, err := json.Marshal(stats)
		if err != nil {
			return nil, fmt.Errorf("marshal engine stats: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func historyArg(args map[string]any) []schema.Turn {
	raw, ok := args["history"].([]any)
	if !ok {
		return nil
	}
	turns := make([]schema.Turn, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		if role == "" || content == "" {
			continue
		}
		turns = append(turns, schema.Turn{Role: role, Content: content})
	}
	return turns
}
