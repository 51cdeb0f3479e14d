package schema

import "time"

// FactRecord is a structured attribute about a conversational partner,
// as stored in the relational fact store.
type FactRecord struct {
	Namespace string    `json:"namespace"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemorySnippet is one ranked hit from the persona's vector memory.
type MemorySnippet struct {
	Namespace string    `json:"namespace"`
	Content   string    `json:"content"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ProfileRecord holds static persona/background attributes.
type ProfileRecord struct {
	Namespace  string            `json:"namespace"`
	Section    string            `json:"section"`
	Attributes map[string]string `json:"attributes"`
}

// TrendDirection summarizes movement of a quality metric over a window.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendDeclining        TrendDirection = "declining"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient-data"
)

// TrendReport is the aggregated answer to a trend query.
type TrendReport struct {
	Namespace   string         `json:"namespace"`
	Metric      string         `json:"metric"`
	Direction   TrendDirection `json:"direction"`
	SampleCount int            `json:"sample_count"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	FirstMean   float64        `json:"first_mean,omitempty"`
	LastMean    float64        `json:"last_mean,omitempty"`
}

// RelationshipSummary is the composed fact + memory payload produced by
// the relationship-summary tool.
type RelationshipSummary struct {
	Namespace string          `json:"namespace"`
	Facts     []FactRecord    `json:"facts,omitempty"`
	Memories  []MemorySnippet `json:"memories,omitempty"`
	Merged    []RankedItem    `json:"merged,omitempty"`
}

// RankedItem is a source-agnostic scored text item used when merging
// heterogeneous ranked lists.
type RankedItem struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
