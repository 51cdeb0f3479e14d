package classifier

import (
	"strings"
	"unicode"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

// Classifier scores query complexity and assigns a coarse intent label.
// It is pure and deterministic: no I/O, no state, recomputed per call.
type Classifier struct {
	cfg config.ClassifierConfig
}

// New creates a classifier with the given weights.
func New(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

var temporalKeywords = []string{
	"changed", "change over", "trend", "over time", "compared", "compare",
	"lately", "recently", "last week", "last month", "these days",
	"improving", "getting better", "getting worse", "history of",
}

var metaKeywords = []string{
	"know about me", "what do you know", "summarize our", "our history",
	"our relationship", "remember about me", "tell me about us",
	"what have we talked", "everything about me",
}

var factualKeywords = []string{
	"what is my", "what's my", "when is my", "where do i", "do you remember",
	"did i tell you", "my favorite", "my birthday", "how old am i",
}

var backstoryKeywords = []string{
	"tell me about yourself", "who are you", "where are you from",
	"your past", "your story", "your family", "what do you like",
}

var questionWords = []string{"what", "when", "where", "who", "why", "how", "which"}

// Classify maps a query to a complexity score in [0,1] plus an intent
// label. Malformed (empty) input scores 0.0 and takes the fast path.
func (c *Classifier) Classify(q schema.Query) schema.Classification {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return schema.Classification{Intent: schema.IntentConversational}
	}

	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)

	score := 0.0
	var tags []string

	if hasConjunction(lower) {
		score += c.cfg.ConjunctionWeight
		tags = append(tags, "multi-part")
	}
	temporal := containsAny(lower, temporalKeywords)
	if temporal {
		score += c.cfg.TemporalWeight
		tags = append(tags, "temporal")
	}
	meta := containsAny(lower, metaKeywords)
	if meta {
		score += c.cfg.MetaWeight
		tags = append(tags, "meta-relationship")
	}
	if countEntities(text) >= 1 {
		score += c.cfg.EntityWeight
		tags = append(tags, "named-entity")
	}
	if extra := countQuestionWords(tokens) - 1; extra > 0 {
		add := float64(extra) * c.cfg.ExtraQuestionWeight
		if c.cfg.ExtraQuestionCap > 0 && add > c.cfg.ExtraQuestionCap {
			add = c.cfg.ExtraQuestionCap
		}
		score += add
		tags = append(tags, "multi-question")
	}
	if c.cfg.LongQueryTokens > 0 && len(tokens) > c.cfg.LongQueryTokens {
		score += c.cfg.LongQueryWeight
		tags = append(tags, "long-query")
	}

	if score > 1.0 {
		score = 1.0
	}

	intent := pickIntent(lower, temporal, meta)

	return schema.Classification{
		Complexity:  score,
		Intent:      intent,
		FeatureTags: tags,
		DataSources: sourcesFor(intent),
	}
}

// pickIntent applies the fixed precedence list: temporal >
// meta-relationship > factual-lookup > backstory > conversational.
func pickIntent(lower string, temporal, meta bool) schema.Intent {
	switch {
	case temporal:
		return schema.IntentTemporal
	case meta:
		return schema.IntentMetaRelationship
	case containsAny(lower, factualKeywords):
		return schema.IntentFactualLookup
	case containsAny(lower, backstoryKeywords):
		return schema.IntentBackstory
	default:
		return schema.IntentConversational
	}
}

func sourcesFor(intent schema.Intent) []string {
	switch intent {
	case schema.IntentTemporal:
		return []string{"timeseries"}
	case schema.IntentMetaRelationship:
		return []string{"facts", "vector"}
	case schema.IntentFactualLookup:
		return []string{"facts"}
	case schema.IntentBackstory:
		return []string{"profile"}
	default:
		return []string{"profile"}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasConjunction(lower string) bool {
	if strings.Contains(lower, ", ") {
		return true
	}
	// " and " joining clauses, not "and" inside a word
	return strings.Contains(lower, " and ") || strings.Contains(lower, " as well as ")
}

// countEntities is a lightweight NER stand-in: capitalized words past
// the first token count as entity mentions. Good enough for scoring;
// precision is not required here.
func countEntities(text string) int {
	words := strings.Fields(text)
	count := 0
	for i, w := range words {
		if i == 0 {
			continue
		}
		r := []rune(strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }))
		if len(r) > 1 && unicode.IsUpper(r[0]) {
			count++
		}
	}
	return count
}

func countQuestionWords(tokens []string) int {
	seen := map[string]bool{}
	for _, tok := range tokens {
		tok = strings.Trim(tok, "?,.!")
		for _, qw := range questionWords {
			if tok == qw && !seen[qw] {
				seen[qw] = true
			}
		}
	}
	return len(seen)
}
