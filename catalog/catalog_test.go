package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

type mockFacts struct {
	fn func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error)
}

func (m *mockFacts) LookupFacts(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
	return m.fn(ctx, namespace, userID, category, limit)
}

type mockMemory struct {
	fn func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error)
}

func (m *mockMemory) SearchMemory(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
	return m.fn(ctx, namespace, query, topK, window)
}

type mockProfiles struct {
	fn func(ctx context.Context, namespace, section string) ([]schema.ProfileRecord, error)
}

func (m *mockProfiles) LookupProfile(ctx context.Context, namespace, section string) ([]schema.ProfileRecord, error) {
	return m.fn(ctx, namespace, section)
}

type mockTrends struct {
	fn func(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error)
}

func (m *mockTrends) QueryTrend(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error) {
	return m.fn(ctx, namespace, metric, window)
}

func noFacts(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
	return nil, nil
}

func noMemories(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
	return nil, nil
}

func testCatalog(t *testing.T, a Adapters) *Catalog {
	t.Helper()
	if a.Facts == nil {
		a.Facts = &mockFacts{fn: noFacts}
	}
	if a.Memory == nil {
		a.Memory = &mockMemory{fn: noMemories}
	}
	if a.Profiles == nil {
		a.Profiles = &mockProfiles{fn: func(ctx context.Context, namespace, section string) ([]schema.ProfileRecord, error) {
			return nil, nil
		}}
	}
	if a.Trends == nil {
		a.Trends = &mockTrends{fn: func(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error) {
			return schema.TrendReport{Direction: schema.TrendInsufficientData}, nil
		}}
	}
	c, err := New(a, config.Default().Router)
	require.NoError(t, err)
	return c
}

func testQuery() schema.Query {
	return schema.Query{Text: "what is my favorite color?", UserID: "u1", Namespace: "luna"}
}

func TestDispatch_UnknownToolRejectedWithoutAdapterCall(t *testing.T) {
	called := false
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			called = true
			return nil, nil
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: "drop-tables"})

	assert.Equal(t, schema.StatusError, res.Status)
	assert.Contains(t, res.Reason, "unknown tool")
	assert.False(t, called)
}

func TestDispatch_InvalidArgumentsRejectedWithoutAdapterCall(t *testing.T) {
	called := false
	c := testCatalog(t, Adapters{
		Trends: &mockTrends{fn: func(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error) {
			called = true
			return schema.TrendReport{}, nil
		}},
	})

	// trend-query requires "metric"
	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolTrendQuery})

	assert.Equal(t, schema.StatusError, res.Status)
	assert.False(t, called)
}

func TestDispatch_UnsupportedMetricRejectedWithoutAdapterCall(t *testing.T) {
	called := false
	c := testCatalog(t, Adapters{
		Trends: &mockTrends{fn: func(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error) {
			called = true
			return schema.TrendReport{}, nil
		}},
	})

	// the metric set is closed; fabricated names never reach the store
	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{
		Name:      ToolTrendQuery,
		Arguments: map[string]any{"metric": "totally-made-up"},
	})
	assert.Equal(t, schema.StatusError, res.Status)
	assert.False(t, called)

	ok := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{
		Name:      ToolTrendQuery,
		Arguments: map[string]any{"metric": "engagement"},
	})
	assert.True(t, called)
	assert.NotEqual(t, schema.StatusError, ok.Status)
}

func TestDispatch_FactLookupOKAndEmpty(t *testing.T) {
	facts := []schema.FactRecord{{Namespace: "luna", UserID: "u1", Key: "color", Value: "teal"}}
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			if category == "preference" {
				return facts, nil
			}
			return nil, nil
		}},
	})
	q := testQuery()

	ok := c.Dispatch(context.Background(), q, schema.ToolCall{
		Name:      ToolFactLookup,
		Arguments: map[string]any{"category": "preference"},
	})
	assert.Equal(t, schema.StatusOK, ok.Status)
	assert.Equal(t, facts, ok.Payload)

	empty := c.Dispatch(context.Background(), q, schema.ToolCall{
		Name:      ToolFactLookup,
		Arguments: map[string]any{"category": "biography"},
	})
	assert.Equal(t, schema.StatusEmpty, empty.Status)
	assert.Nil(t, empty.Payload)
	assert.Empty(t, empty.Reason)
}

func TestDispatch_NamespacePropagation(t *testing.T) {
	var gotNS string
	c := testCatalog(t, Adapters{
		Memory: &mockMemory{fn: func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
			gotNS = namespace
			return []schema.MemorySnippet{{Namespace: namespace, Content: "memory"}}, nil
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolSemanticRecall})

	assert.Equal(t, schema.StatusOK, res.Status)
	assert.Equal(t, "luna", gotNS)
}

func TestDispatch_SemanticRecallDefaultsToQueryText(t *testing.T) {
	var gotQuery string
	c := testCatalog(t, Adapters{
		Memory: &mockMemory{fn: func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
			gotQuery = query
			return nil, nil
		}},
	})

	c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolSemanticRecall})

	assert.Equal(t, "what is my favorite color?", gotQuery)
}

func TestDispatch_PerCallTimeoutBecomesStatusTimeout(t *testing.T) {
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolFactLookup})

	assert.Equal(t, schema.StatusTimeout, res.Status)
	assert.NotEmpty(t, res.Reason)
}

func TestDispatch_AdapterErrorBecomesStatusError(t *testing.T) {
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			return nil, errors.New("connection refused")
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolFactLookup})

	assert.Equal(t, schema.StatusError, res.Status)
	assert.Contains(t, res.Reason, "connection refused")
}

func TestDispatch_RelationshipSummaryMergesBothSources(t *testing.T) {
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			return []schema.FactRecord{{Namespace: namespace, Key: "color", Value: "teal"}}, nil
		}},
		Memory: &mockMemory{fn: func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
			return []schema.MemorySnippet{{Namespace: namespace, Content: "we talked about the sea", Score: 0.8}}, nil
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolRelationshipSummary})

	require.Equal(t, schema.StatusOK, res.Status)
	summary, ok := res.Payload.(schema.RelationshipSummary)
	require.True(t, ok)
	assert.Len(t, summary.Facts, 1)
	assert.Len(t, summary.Memories, 1)
	assert.Len(t, summary.Merged, 2)
}

func TestDispatch_RelationshipSummarySurvivesOneFailedSource(t *testing.T) {
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			return nil, errors.New("facts store down")
		}},
		Memory: &mockMemory{fn: func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
			return []schema.MemorySnippet{{Namespace: namespace, Content: "a memory", Score: 0.5}}, nil
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolRelationshipSummary})

	require.Equal(t, schema.StatusOK, res.Status)
	summary := res.Payload.(schema.RelationshipSummary)
	assert.Empty(t, summary.Facts)
	assert.Len(t, summary.Merged, 1)
}

func TestDispatch_RelationshipSummaryFailsWhenBothSourcesFail(t *testing.T) {
	c := testCatalog(t, Adapters{
		Facts: &mockFacts{fn: func(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
			return nil, errors.New("facts down")
		}},
		Memory: &mockMemory{fn: func(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
			return nil, errors.New("vector down")
		}},
	})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{Name: ToolRelationshipSummary})

	assert.Equal(t, schema.StatusError, res.Status)
}

func TestDispatch_TrendInsufficientDataIsOK(t *testing.T) {
	c := testCatalog(t, Adapters{})

	res := c.Dispatch(context.Background(), testQuery(), schema.ToolCall{
		Name:      ToolTrendQuery,
		Arguments: map[string]any{"metric": "sentiment"},
	})

	require.Equal(t, schema.StatusOK, res.Status)
	report := res.Payload.(schema.TrendReport)
	assert.Equal(t, schema.TrendInsufficientData, report.Direction)
}

func TestSpecs_CoversEveryTool(t *testing.T) {
	c := testCatalog(t, Adapters{})

	specs := c.Specs()
	require.Len(t, specs, 5)
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
		assert.NotEmpty(t, s.Description)
		assert.Equal(t, "object", s.Parameters["type"])
	}
	assert.Equal(t, []string{
		ToolFactLookup, ToolSemanticRecall, ToolProfileLookup,
		ToolRelationshipSummary, ToolTrendQuery,
	}, names)
}
