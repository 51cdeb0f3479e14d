package catalog

import "encoding/json"

// Tool names form a closed set. The decision-maker can only pick from
// these; anything else is rejected before dispatch.
const (
	ToolFactLookup          = "fact-lookup"
	ToolSemanticRecall      = "semantic-recall"
	ToolProfileLookup       = "profile-lookup"
	ToolRelationshipSummary = "relationship-summary"
	ToolTrendQuery          = "trend-query"
)

func GetFactLookupSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"category": {
				"type": "string",
				"description": "Optional fact category filter, e.g. preference, biography, event"
			},
			"limit": {
				"type": "integer",
				"minimum": 1,
				"maximum": 50,
				"description": "Maximum number of facts to return"
			}
		},
		"additionalProperties": false
	}`)
}

func GetSemanticRecallSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Search text; defaults to the user's message when omitted"
			},
			"top_k": {
				"type": "integer",
				"minimum": 1,
				"maximum": 50,
				"description": "Maximum number of memory snippets to return"
			},
			"window_hours": {
				"type": "integer",
				"minimum": 1,
				"description": "Only recall memories newer than this many hours"
			}
		},
		"additionalProperties": false
	}`)
}

func GetProfileLookupSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"section": {
				"type": "string",
				"description": "Profile section to fetch, e.g. backstory, preferences; all sections when omitted"
			}
		},
		"additionalProperties": false
	}`)
}

func GetRelationshipSummarySchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {
				"type": "integer",
				"minimum": 1,
				"maximum": 50,
				"description": "Maximum merged items to return"
			}
		},
		"additionalProperties": false
	}`)
}

func GetTrendQuerySchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"metric": {
				"type": "string",
				"enum": ["sentiment", "engagement", "responsiveness"],
				"description": "Quality metric to aggregate"
			},
			"window_days": {
				"type": "integer",
				"minimum": 1,
				"maximum": 365,
				"description": "Trailing window in days; defaults to 7"
			}
		},
		"required": ["metric"],
		"additionalProperties": false
	}`)
}
