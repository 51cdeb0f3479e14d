package fuser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companionkit/knowrouter/catalog"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

func newTestFuser(budget int) *Fuser {
	return New(config.FuserConfig{CharBudget: budget})
}

func okFacts(facts ...schema.FactRecord) schema.ToolResult {
	return schema.ToolResult{Tool: catalog.ToolFactLookup, Status: schema.StatusOK, Payload: facts}
}

func okMemories(contents ...string) schema.ToolResult {
	snippets := make([]schema.MemorySnippet, len(contents))
	for i, c := range contents {
		snippets[i] = schema.MemorySnippet{Content: c}
	}
	return schema.ToolResult{Tool: catalog.ToolSemanticRecall, Status: schema.StatusOK, Payload: snippets}
}

func okProfile() schema.ToolResult {
	return schema.ToolResult{Tool: catalog.ToolProfileLookup, Status: schema.StatusOK, Payload: []schema.ProfileRecord{
		{Section: "backstory", Attributes: map[string]string{"hometown": "a coastal town"}},
	}}
}

func TestFuse_PriorityOrder(t *testing.T) {
	f := newTestFuser(4000)

	// deliver results in reverse priority order; fusion must reorder
	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{
		okProfile(),
		okMemories("we talked about sailing"),
		okFacts(schema.FactRecord{Key: "color", Value: "teal"}),
	})

	require.Equal(t, []string{"Known facts", "Recalled memories", "Persona profile"}, ctx.Sections)
	factsAt := strings.Index(ctx.Text, "Known facts")
	memoriesAt := strings.Index(ctx.Text, "Recalled memories")
	profileAt := strings.Index(ctx.Text, "Persona profile")
	assert.Less(t, factsAt, memoriesAt)
	assert.Less(t, memoriesAt, profileAt)
	assert.False(t, ctx.Truncated)
	assert.Equal(t, len(ctx.Text), ctx.Chars)
}

func TestFuse_SkipsNonOKResults(t *testing.T) {
	f := newTestFuser(4000)

	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{
		{Tool: catalog.ToolFactLookup, Status: schema.StatusEmpty},
		{Tool: catalog.ToolSemanticRecall, Status: schema.StatusTimeout, Reason: "deadline"},
		{Tool: catalog.ToolTrendQuery, Status: schema.StatusError, Reason: "down"},
		okProfile(),
	})

	assert.Equal(t, []string{"Persona profile"}, ctx.Sections)
	assert.NotContains(t, ctx.Text, "Known facts")
}

func TestFuse_EmptyInput(t *testing.T) {
	f := newTestFuser(4000)

	ctx := f.Fuse(schema.Query{}, nil)

	assert.Empty(t, ctx.Text)
	assert.Empty(t, ctx.Sections)
	assert.False(t, ctx.Truncated)
	assert.Zero(t, ctx.Chars)
}

func TestFuse_DropsLowestPrioritySectionFirst(t *testing.T) {
	facts := okFacts(schema.FactRecord{Key: "color", Value: "teal"})
	memories := okMemories(strings.Repeat("a long memory about the sea. ", 20))

	// budget fits facts but not facts+memories
	f := newTestFuser(80)
	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{facts, memories})

	assert.True(t, ctx.Truncated)
	assert.Contains(t, ctx.Text, "color: teal")
	assert.LessOrEqual(t, ctx.Chars, 80)
}

func TestFuse_TruncatesLowestSectionAtSentenceBoundary(t *testing.T) {
	facts := okFacts(schema.FactRecord{Key: "color", Value: "teal"})
	memories := okMemories(
		"First memory about the lighthouse. Second memory about the storm. Third memory about the harbor.",
	)

	f := newTestFuser(140)
	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{facts, memories})

	require.True(t, ctx.Truncated)
	assert.LessOrEqual(t, ctx.Chars, 140)
	// the higher-priority facts section is intact
	assert.Contains(t, ctx.Text, "color: teal")
	assert.Contains(t, ctx.Text, "[context truncated]")
	// whatever survived of the memories ends at a sentence boundary
	body := strings.TrimSuffix(ctx.Text, truncationMarker)
	assert.True(t, strings.HasSuffix(strings.TrimRight(body, "\n "), "."),
		"truncated section should end at a sentence boundary, got: %q", body)
}

func TestFuse_NeverCutsHigherPrioritySections(t *testing.T) {
	facts := okFacts(
		schema.FactRecord{Key: "color", Value: "teal"},
		schema.FactRecord{Key: "birthday", Value: "march 3"},
	)
	memories := okMemories(strings.Repeat("filler sentence here. ", 50))

	f := newTestFuser(120)
	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{memories, facts})

	assert.Contains(t, ctx.Text, "color: teal")
	assert.Contains(t, ctx.Text, "birthday: march 3")
}

func TestFuse_TrendRendering(t *testing.T) {
	f := newTestFuser(4000)

	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{{
		Tool:   catalog.ToolTrendQuery,
		Status: schema.StatusOK,
		Payload: schema.TrendReport{
			Metric: "sentiment", Direction: schema.TrendImproving,
			SampleCount: 8, FirstMean: 0.4, LastMean: 0.7,
		},
	}})

	assert.Contains(t, ctx.Text, "sentiment has been improving")
	assert.Equal(t, []string{"Conversation trends"}, ctx.Sections)
}

func TestFuse_RelationshipSummaryUsesMergedRanking(t *testing.T) {
	f := newTestFuser(4000)

	ctx := f.Fuse(schema.Query{}, []schema.ToolResult{{
		Tool:   catalog.ToolRelationshipSummary,
		Status: schema.StatusOK,
		Payload: schema.RelationshipSummary{
			Merged: []schema.RankedItem{
				{ID: "a", Content: "color: teal"},
				{ID: "b", Content: "we talked about the sea"},
			},
		},
	}})

	assert.Contains(t, ctx.Text, "Relationship summary")
	assert.Contains(t, ctx.Text, "- color: teal")
	assert.Contains(t, ctx.Text, "- we talked about the sea")
}

func TestCutAtSentence(t *testing.T) {
	text := "## Label\nOne sentence here. Another one follows. And a third."

	cut := cutAtSentence(text, len(text))
	assert.Equal(t, text, cut)

	cut = cutAtSentence(text, 35)
	assert.Equal(t, "## Label\nOne sentence here.", cut)

	// no complete sentence fits
	assert.Equal(t, "", cutAtSentence("## Label\nNoBoundaryAtAllHere", 12))
	assert.Equal(t, "", cutAtSentence(text, 0))
}
