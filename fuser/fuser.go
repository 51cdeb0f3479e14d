// Package fuser assembles tool results into one bounded context block
// for the generation step. Sections are ordered by source priority and
// the character budget is enforced from the bottom up: lower-priority
// sections are dropped or cut before higher-priority ones lose a
// single character.
package fuser

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/companionkit/knowrouter/catalog"
	"github.com/companionkit/knowrouter/common/logger"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/metrics"
	"github.com/companionkit/knowrouter/schema"
)

const truncationMarker = "\n[context truncated]"

// sectionPriority orders sources by trustworthiness: structured facts
// beat composed summaries beat fuzzy recall beat static profile beat
// aggregate trends.
var sectionPriority = map[string]int{
	catalog.ToolFactLookup:          0,
	catalog.ToolRelationshipSummary: 1,
	catalog.ToolSemanticRecall:      2,
	catalog.ToolProfileLookup:       3,
	catalog.ToolTrendQuery:          4,
}

var sectionLabel = map[string]string{
	catalog.ToolFactLookup:          "Known facts",
	catalog.ToolRelationshipSummary: "Relationship summary",
	catalog.ToolSemanticRecall:      "Recalled memories",
	catalog.ToolProfileLookup:       "Persona profile",
	catalog.ToolTrendQuery:          "Conversation trends",
}

// Fuser renders tool results into a prioritized, size-bounded text
// block. It is safe for concurrent use.
type Fuser struct {
	budget   int
	encoding string

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

func New(cfg config.FuserConfig) *Fuser {
	budget := cfg.CharBudget
	if budget <= 0 {
		budget = 4000
	}
	return &Fuser{budget: budget, encoding: cfg.TokenEncoding}
}

type section struct {
	label    string
	priority int
	order    int
	text     string
}

// Fuse builds the enriched context from successful results. Empty,
// errored and timed-out results contribute nothing; a fully empty
// input yields an empty, non-truncated context.
func (f *Fuser) Fuse(q schema.Query, results []schema.ToolResult) schema.EnrichedContext {
	sections := make([]section, 0, len(results))
	for i, res := range results {
		if res.Status != schema.StatusOK {
			continue
		}
		body := renderPayload(res)
		if body == "" {
			continue
		}
		label := sectionLabel[res.Tool]
		prio, ok := sectionPriority[res.Tool]
		if !ok {
			prio = len(sectionPriority)
		}
		sections = append(sections, section{
			label:    label,
			priority: prio,
			order:    i,
			text:     fmt.Sprintf("## %s\n%s", label, body),
		})
	}
	if len(sections) == 0 {
		return schema.EnrichedContext{}
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].priority != sections[j].priority {
			return sections[i].priority < sections[j].priority
		}
		return sections[i].order < sections[j].order
	})

	text, kept, truncated := f.assemble(sections)

	out := schema.EnrichedContext{
		Text:      text,
		Sections:  kept,
		Truncated: truncated,
		Chars:     len(text),
		Tokens:    f.countTokens(text),
	}
	metrics.ObserveContext(out.Chars)
	return out
}

// assemble joins sections under the budget. When over budget it first
// tries to cut the lowest-priority section at a sentence boundary; if
// nothing of it can stay it drops the section and retries with the
// next one up.
func (f *Fuser) assemble(sections []section) (string, []string, bool) {
	truncated := false
	for len(sections) > 0 {
		full := joinSections(sections)
		if len(full) <= f.budget {
			return full, labelsOf(sections), truncated
		}

		truncated = true
		head := joinSections(sections[:len(sections)-1])
		avail := f.budget - len(truncationMarker)
		if head != "" {
			avail -= len(head) + len("\n\n")
		}

		last := sections[len(sections)-1]
		if cut := cutAtSentence(last.text, avail); cut != "" {
			parts := make([]section, len(sections))
			copy(parts, sections)
			parts[len(parts)-1].text = cut + truncationMarker
			return joinSections(parts), labelsOf(parts), true
		}
		sections = sections[:len(sections)-1]
	}
	return "", nil, true
}

func joinSections(sections []section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.text
	}
	return strings.Join(parts, "\n\n")
}

func labelsOf(sections []section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.label
	}
	return out
}

// cutAtSentence returns the longest prefix of text that fits in limit
// and ends at a sentence or line boundary. It returns "" when no
// complete first sentence fits.
func cutAtSentence(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	window := text[:limit]
	best := -1
	for _, boundary := range []string{". ", "! ", "? ", ".\n", "\n"} {
		if idx := strings.LastIndex(window, boundary); idx >= 0 {
			end := idx + len(boundary)
			if end > best {
				best = end
			}
		}
	}
	if best <= 0 {
		return ""
	}
	cut := strings.TrimRight(window[:best], " \n")
	// a bare header with no content is not worth keeping
	if strings.HasPrefix(cut, "## ") && !strings.Contains(cut, "\n") {
		return ""
	}
	return cut
}

func (f *Fuser) countTokens(text string) int {
	if f.encoding == "" || text == "" {
		return 0
	}
	f.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(f.encoding)
		if err != nil {
			logger.Warnf("fuser: token encoding %s unavailable: %v", f.encoding, err)
			return
		}
		f.enc = enc
	})
	if f.enc == nil {
		return 0
	}
	return len(f.enc.Encode(text, nil, nil))
}
