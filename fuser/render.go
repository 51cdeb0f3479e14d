package fuser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/companionkit/knowrouter/schema"
)

// renderPayload flattens one tool payload into section body text.
// Unknown payload shapes render empty and the section is skipped.
func renderPayload(res schema.ToolResult) string {
	switch p := res.Payload.(type) {
	case []schema.FactRecord:
		return renderFacts(p)
	case []schema.MemorySnippet:
		return renderMemories(p)
	case []schema.ProfileRecord:
		return renderProfiles(p)
	case schema.RelationshipSummary:
		return renderSummary(p)
	case schema.TrendReport:
		return renderTrend(p)
	default:
		return ""
	}
}

func renderFacts(facts []schema.FactRecord) string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		if f.Category != "" {
			lines = append(lines, fmt.Sprintf("- %s (%s): %s", f.Key, f.Category, f.Value))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.Key, f.Value))
		}
	}
	return strings.Join(lines, "\n")
}

func renderMemories(snippets []schema.MemorySnippet) string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		lines = append(lines, "- "+s.Content)
	}
	return strings.Join(lines, "\n")
}

func renderProfiles(recs []schema.ProfileRecord) string {
	var b strings.Builder
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n", r.Section)
		keys := make([]string, 0, len(r.Attributes))
		for k := range r.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, r.Attributes[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSummary(s schema.RelationshipSummary) string {
	lines := make([]string, 0, len(s.Merged))
	for _, item := range s.Merged {
		lines = append(lines, "- "+item.Content)
	}
	return strings.Join(lines, "\n")
}

func renderTrend(r schema.TrendReport) string {
	if r.Direction == schema.TrendInsufficientData {
		return fmt.Sprintf("%s: not enough recent data to judge a trend (%d samples).", r.Metric, r.SampleCount)
	}
	return fmt.Sprintf("%s has been %s over the window (%d samples, %.2f -> %.2f).",
		r.Metric, r.Direction, r.SampleCount, r.FirstMean, r.LastMean)
}
