package decider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/llm"
	"github.com/companionkit/knowrouter/schema"
)

type mockProvider struct {
	calls int
	fn    func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error)
}

func (m *mockProvider) SelectToolCalls(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
	m.calls++
	return m.fn(ctx, system, user, history, tools)
}

func testDecider(p llm.Provider) *Decider {
	return New(p, config.Default().Decider)
}

func testSpecs() []llm.ToolSpec {
	return []llm.ToolSpec{{Name: "fact-lookup"}, {Name: "semantic-recall"}}
}

func TestSelect_ParsesToolCalls(t *testing.T) {
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		return []llm.RawToolCall{
			{Name: "fact-lookup", Arguments: json.RawMessage(`{"category":"preference"}`)},
			{Name: "semantic-recall", Arguments: nil},
		}, nil
	}}

	calls, warnings := testDecider(p).Select(context.Background(), schema.Query{Text: "hi"}, schema.Classification{}, testSpecs())

	require.Len(t, calls, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, "fact-lookup", calls[0].Name)
	assert.Equal(t, "preference", calls[0].Arguments["category"])
	assert.NotNil(t, calls[1].Arguments)
}

func TestSelect_ZeroToolsIsValid(t *testing.T) {
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		return nil, nil
	}}

	calls, warnings := testDecider(p).Select(context.Background(), schema.Query{Text: "nice day"}, schema.Classification{}, testSpecs())

	assert.Empty(t, calls)
	assert.Empty(t, warnings)
}

func TestSelect_ProviderFailureYieldsZeroToolsWithoutRetry(t *testing.T) {
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		return nil, errors.New("upstream 503")
	}}

	calls, warnings := testDecider(p).Select(context.Background(), schema.Query{Text: "hi"}, schema.Classification{}, testSpecs())

	assert.Empty(t, calls)
	assert.Contains(t, warnings, WarnSelectionFailed)
	assert.Equal(t, 1, p.calls)
}

func TestSelect_MalformedArgumentsDropOnlyThatCall(t *testing.T) {
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		return []llm.RawToolCall{
			{Name: "fact-lookup", Arguments: json.RawMessage(`{not json`)},
			{Name: "semantic-recall", Arguments: json.RawMessage(`{}`)},
		}, nil
	}}

	calls, warnings := testDecider(p).Select(context.Background(), schema.Query{Text: "hi"}, schema.Classification{}, testSpecs())

	require.Len(t, calls, 1)
	assert.Equal(t, "semantic-recall", calls[0].Name)
	assert.Contains(t, warnings, WarnMalformedArguments)
}

func TestSelect_CapsSelectionAtMaxTools(t *testing.T) {
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		raw := make([]llm.RawToolCall, 6)
		for i := range raw {
			raw[i] = llm.RawToolCall{Name: "fact-lookup", Arguments: json.RawMessage(`{}`)}
		}
		return raw, nil
	}}

	cfg := config.Default().Decider
	cfg.MaxTools = 3
	calls, warnings := New(p, cfg).Select(context.Background(), schema.Query{Text: "hi"}, schema.Classification{}, testSpecs())

	assert.Len(t, calls, 3)
	assert.Contains(t, warnings, WarnToolLimitExceeded)
}

func TestSelect_TrimsHistoryWindow(t *testing.T) {
	var gotHistory []schema.Turn
	p := &mockProvider{fn: func(ctx context.Context, system, user string, history []schema.Turn, tools []llm.ToolSpec) ([]llm.RawToolCall, error) {
		gotHistory = history
		return nil, nil
	}}

	history := make([]schema.Turn, 10)
	for i := range history {
		history[i] = schema.Turn{Role: "user", Content: "turn"}
	}
	cfg := config.Default().Decider
	cfg.HistoryTurns = 4
	New(p, cfg).Select(context.Background(), schema.Query{Text: "hi", History: history}, schema.Classification{}, testSpecs())

	assert.Len(t, gotHistory, 4)
}

func TestSelect_NilProvider(t *testing.T) {
	calls, warnings := testDecider(nil).Select(context.Background(), schema.Query{Text: "hi"}, schema.Classification{}, testSpecs())

	assert.Empty(t, calls)
	assert.Contains(t, warnings, WarnSelectionFailed)
}
