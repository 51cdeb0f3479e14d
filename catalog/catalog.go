// Package catalog is the closed registry of knowledge tools. Each tool
// pairs an argument schema with an executor over the store adapters.
// Dispatch never returns a Go error: every outcome, including rejected
// and timed-out calls, is a ToolResult with an explicit status.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/fusion"
	"github.com/companionkit/knowrouter/llm"
	"github.com/companionkit/knowrouter/metrics"
	"github.com/companionkit/knowrouter/schema"
	"github.com/companionkit/knowrouter/store"
)

// tool binds a name to its argument schema and description.
type tool struct {
	name        string
	description string
	rawSchema   json.RawMessage
	validator   *jsonschema.Schema
}

// Catalog dispatches validated tool calls against the store adapters.
type Catalog struct {
	facts    store.FactReader
	memory   store.MemorySearcher
	profiles store.ProfileReader
	trends   store.TrendReader
	merge    fusion.Strategy

	tools map[string]*tool
	order []string

	perCall  time.Duration
	dispatch time.Duration
}

// Adapters groups the four store backends behind their read interfaces
// so tests can swap in fakes.
type Adapters struct {
	Facts    store.FactReader
	Memory   store.MemorySearcher
	Profiles store.ProfileReader
	Trends   store.TrendReader
}

// New compiles every tool schema up front so a malformed schema fails
// at startup, not per request.
func New(a Adapters, cfg config.RouterConfig) (*Catalog, error) {
	c := &Catalog{
		facts:    a.Facts,
		memory:   a.Memory,
		profiles: a.Profiles,
		trends:   a.Trends,
		merge:    fusion.NewRRF(0),
		tools:    map[string]*tool{},
		perCall:  time.Duration(cfg.PerCallTimeoutMs) * time.Millisecond,
		dispatch: time.Duration(cfg.DispatchTimeoutMs) * time.Millisecond,
	}
	if c.perCall <= 0 {
		c.perCall = 200 * time.Millisecond
	}
	if c.dispatch <= 0 {
		c.dispatch = 400 * time.Millisecond
	}

	defs := []struct {
		name, desc string
		raw        json.RawMessage
	}{
		{ToolFactLookup, "Look up structured facts about the user, such as preferences, biography details and shared events", GetFactLookupSchema()},
		{ToolSemanticRecall, "Search past conversation memories by meaning, optionally restricted to a recent time window", GetSemanticRecallSchema()},
		{ToolProfileLookup, "Fetch the persona's static backstory and profile attributes", GetProfileLookupSchema()},
		{ToolRelationshipSummary, "Compose a summary of the relationship from stored facts and conversation memories", GetRelationshipSummarySchema()},
		{ToolTrendQuery, "Aggregate a conversation quality metric over a trailing window into a trend direction", GetTrendQuerySchema()},
	}
	compiler := jsonschema.NewCompiler()
	for _, d := range defs {
		validator, err := compiler.Compile(d.raw)
		if err != nil {
			return nil, fmt.Errorf("catalog: compile schema for %s: %w", d.name, err)
		}
		c.tools[d.name] = &tool{name: d.name, description: d.desc, rawSchema: d.raw, validator: validator}
		c.order = append(c.order, d.name)
	}
	return c, nil
}

// Specs lists every tool in registration order, shaped for the
// decision-maker's tool-calling API.
func (c *Catalog) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, 0, len(c.order))
	for _, name := range c.order {
		t := c.tools[name]
		var params map[string]any
		_ = json.Unmarshal(t.rawSchema, &params)
		out = append(out, llm.ToolSpec{Name: t.name, Description: t.description, Parameters: params})
	}
	return out
}

// ValidateCall rejects unknown tool names and arguments that fail the
// tool's schema. Rejected calls never reach a store adapter.
func (c *Catalog) ValidateCall(call schema.ToolCall) error {
	t, ok := c.tools[call.Name]
	if !ok {
		return fmt.Errorf("catalog: unknown tool %q", call.Name)
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if res := t.validator.Validate(args); !res.Valid {
		return fmt.Errorf("catalog: invalid arguments for %s: %v", call.Name, res.Errors)
	}
	return nil
}

// Dispatch executes one validated tool call. The whole dispatch is
// bounded by the dispatch timeout; each adapter call inside is bounded
// by the tighter per-call timeout. An empty result is StatusEmpty, a
// deadline is StatusTimeout, anything else that fails is StatusError.
func (c *Catalog) Dispatch(ctx context.Context, q schema.Query, call schema.ToolCall) schema.ToolResult {
	start := time.Now()

	if err := c.ValidateCall(call); err != nil {
		res := schema.ToolResult{Tool: call.Name, Status: schema.StatusError, Reason: err.Error()}
		res.LatencyMs = time.Since(start).Milliseconds()
		metrics.ObserveTool(call.Name, start, string(res.Status))
		return res
	}

	dctx, cancel := context.WithTimeout(ctx, c.dispatch)
	defer cancel()

	payload, empty, err := c.execute(dctx, q, call)

	res := schema.ToolResult{Tool: call.Name, LatencyMs: time.Since(start).Milliseconds()}
	switch {
	case err != nil && isTimeout(err):
		res.Status = schema.StatusTimeout
		res.Reason = err.Error()
	case err != nil:
		res.Status = schema.StatusError
		res.Reason = err.Error()
	case empty:
		res.Status = schema.StatusEmpty
	default:
		res.Status = schema.StatusOK
		res.Payload = payload
	}
	metrics.ObserveTool(call.Name, start, string(res.Status))
	return res
}

func (c *Catalog) execute(ctx context.Context, q schema.Query, call schema.ToolCall) (any, bool, error) {
	switch call.Name {
	case ToolFactLookup:
		return c.runFactLookup(ctx, q, call.Arguments)
	case ToolSemanticRecall:
		return c.runSemanticRecall(ctx, q, call.Arguments)
	case ToolProfileLookup:
		return c.runProfileLookup(ctx, q, call.Arguments)
	case ToolRelationshipSummary:
		return c.runRelationshipSummary(ctx, q, call.Arguments)
	case ToolTrendQuery:
		return c.runTrendQuery(ctx, q, call.Arguments)
	default:
		return nil, false, fmt.Errorf("catalog: unknown tool %q", call.Name)
	}
}

func (c *Catalog) runFactLookup(ctx context.Context, q schema.Query, args map[string]any) (any, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, c.perCall)
	defer cancel()

	facts, err := c.facts.LookupFacts(cctx, q.Namespace, q.UserID, argString(args, "category"), argInt(args, "limit"))
	if err != nil {
		return nil, false, err
	}
	return facts, len(facts) == 0, nil
}

func (c *Catalog) runSemanticRecall(ctx context.Context, q schema.Query, args map[string]any) (any, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, c.perCall)
	defer cancel()

	text := argString(args, "query")
	if text == "" {
		text = q.Text
	}
	window := time.Duration(argInt(args, "window_hours")) * time.Hour

	snippets, err := c.memory.SearchMemory(cctx, q.Namespace, text, argInt(args, "top_k"), window)
	if err != nil {
		return nil, false, err
	}
	return snippets, len(snippets) == 0, nil
}

func (c *Catalog) runProfileLookup(ctx context.Context, q schema.Query, args map[string]any) (any, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, c.perCall)
	defer cancel()

	recs, err := c.profiles.LookupProfile(cctx, q.Namespace, argString(args, "section"))
	if err != nil {
		return nil, false, err
	}
	return recs, len(recs) == 0, nil
}

// runRelationshipSummary fans out to the fact and vector stores in
// parallel, then rank-merges whatever came back. One failing source
// degrades the summary to the other; both failing fails the tool.
func (c *Catalog) runRelationshipSummary(ctx context.Context, q schema.Query, args map[string]any) (any, bool, error) {
	limit := argInt(args, "limit")

	var (
		wg       sync.WaitGroup
		facts    []schema.FactRecord
		snippets []schema.MemorySnippet
		factErr  error
		memErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, c.perCall)
		defer cancel()
		facts, factErr = c.facts.LookupFacts(cctx, q.Namespace, q.UserID, "", limit)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, c.perCall)
		defer cancel()
		snippets, memErr = c.memory.SearchMemory(cctx, q.Namespace, q.Text, limit, 0)
	}()
	wg.Wait()

	if factErr != nil && memErr != nil {
		return nil, false, errors.Join(factErr, memErr)
	}

	summary := schema.RelationshipSummary{
		Namespace: q.Namespace,
		Facts:     facts,
		Memories:  snippets,
	}
	summary.Merged = c.merge.Fuse([][]schema.RankedItem{
		factItems(facts),
		memoryItems(snippets),
	})
	if limit > 0 && len(summary.Merged) > limit {
		summary.Merged = summary.Merged[:limit]
	}
	return summary, len(summary.Merged) == 0, nil
}

func (c *Catalog) runTrendQuery(ctx context.Context, q schema.Query, args map[string]any) (any, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, c.perCall)
	defer cancel()

	days := argInt(args, "window_days")
	if days <= 0 {
		days = 7
	}
	report, err := c.trends.QueryTrend(cctx, q.Namespace, argString(args, "metric"), time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, false, err
	}
	// insufficient data is still a meaningful answer, not an empty one
	return report, false, nil
}

func factItems(facts []schema.FactRecord) []schema.RankedItem {
	out := make([]schema.RankedItem, 0, len(facts))
	for _, f := range facts {
		out = append(out, schema.RankedItem{
			ID:      "fact:" + f.Category + ":" + f.Key,
			Source:  "facts",
			Content: f.Key + ": " + f.Value,
		})
	}
	return out
}

func memoryItems(snippets []schema.MemorySnippet) []schema.RankedItem {
	out := make([]schema.RankedItem, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, schema.RankedItem{
			ID:      "memory:" + s.Content,
			Source:  "memories",
			Content: s.Content,
			Score:   s.Score,
		})
	}
	return out
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt tolerates both float64 (JSON decoding) and int (direct calls).
func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
