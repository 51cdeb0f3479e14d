package schema

// Turn is a single message in the recent conversation window.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Query is the immutable per-message input to the routing engine.
// It is created for one inbound message and discarded after the
// response cycle; nothing in the engine mutates it.
type Query struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id"`
	// Namespace is the persona isolation boundary. Every store lookup
	// issued for this query must carry it.
	Namespace string `json:"namespace"`
	History   []Turn `json:"history,omitempty"`
}

// Intent is the coarse intent label produced by the classifier.
type Intent string

const (
	IntentTemporal         Intent = "temporal"
	IntentMetaRelationship Intent = "meta-relationship"
	IntentFactualLookup    Intent = "factual-lookup"
	IntentBackstory        Intent = "backstory"
	IntentConversational   Intent = "conversational"
)

// Classification is the deterministic result of scoring a query.
// It is recomputed on every call and never cached across turns.
type Classification struct {
	Complexity  float64  `json:"complexity"` // [0, 1]
	Intent      Intent   `json:"intent"`
	FeatureTags []string `json:"feature_tags,omitempty"`
	DataSources []string `json:"data_sources,omitempty"`
}

// Status communicates the outcome of one store/tool invocation.
// Adapters never raise for "not found"; they return StatusEmpty.
type Status string

const (
	StatusOK      Status = "ok"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// ToolCall is a tool invocation requested by the decision-maker.
// Arguments are untrusted until validated against the tool's schema.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of one executed (or rejected) ToolCall.
type ToolResult struct {
	Tool      string `json:"tool"`
	Status    Status `json:"status"`
	Payload   any    `json:"payload,omitempty"`
	Reason    string `json:"reason,omitempty"` // populated for error/timeout
	LatencyMs int64  `json:"latency_ms"`
}

// Path identifies which routing branch produced the outcome.
type Path string

const (
	PathFast        Path = "fast"
	PathIntelligent Path = "intelligent"
	PathFallback    Path = "fallback"
)

// EnrichedContext is the fused, size-bounded text block handed to the
// generation step.
type EnrichedContext struct {
	Text      string   `json:"text"`
	Sections  []string `json:"sections,omitempty"` // section labels in emitted order
	Truncated bool     `json:"truncated"`
	Chars     int      `json:"chars"`
	Tokens    int      `json:"tokens,omitempty"`
}

// RoutingOutcome is returned to the caller for every routed query.
// The engine never persists it.
type RoutingOutcome struct {
	RequestID      string          `json:"request_id"`
	Path           Path            `json:"path"`
	Classification Classification  `json:"classification"`
	ToolResults    []ToolResult    `json:"tool_results,omitempty"`
	Context        EnrichedContext `json:"context"`
	Warnings       []string        `json:"warnings,omitempty"`
	ToolsAttempted int             `json:"tools_attempted"`
	ToolsSucceeded int             `json:"tools_succeeded"`
	TotalLatencyMs int64           `json:"total_latency_ms"`
	Degraded       bool            `json:"degraded"`
}
