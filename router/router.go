// Package router picks the retrieval strategy for each query and
// executes it. Route never returns an error to the caller: every
// failure mode inside the engine resolves to an outcome, degrading to
// the deterministic fast path when the intelligent path cannot finish.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/companionkit/knowrouter/catalog"
	"github.com/companionkit/knowrouter/classifier"
	"github.com/companionkit/knowrouter/common/logger"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/llm"
	"github.com/companionkit/knowrouter/metrics"
	"github.com/companionkit/knowrouter/schema"
)

// Warning tags the router attaches to outcomes.
const (
	WarnInvalidToolCall = "invalid-tool-call"
	WarnGlobalTimeout   = "global-timeout"
	WarnInternalPanic   = "internal-panic"
)

// Dispatcher executes validated tool calls. Satisfied by
// *catalog.Catalog.
type Dispatcher interface {
	Dispatch(ctx context.Context, q schema.Query, call schema.ToolCall) schema.ToolResult
	ValidateCall(call schema.ToolCall) error
	Specs() []llm.ToolSpec
}

// Selector proposes tool calls for the intelligent path. Satisfied by
// *decider.Decider.
type Selector interface {
	Select(ctx context.Context, q schema.Query, cls schema.Classification, specs []llm.ToolSpec) ([]schema.ToolCall, []string)
}

// Fuser assembles tool results into the bounded context block.
type Fuser interface {
	Fuse(q schema.Query, results []schema.ToolResult) schema.EnrichedContext
}

// Router routes one query at a time; instances are safe for concurrent
// use. Configuration is snapshotted once per request so hot reloads
// never change behavior mid-flight.
type Router struct {
	cfg      *config.Store
	classify *classifier.Classifier
	dispatch Dispatcher
	selector Selector
	fuser    Fuser
}

func New(cfg *config.Store, cls *classifier.Classifier, d Dispatcher, s Selector, f Fuser) *Router {
	return &Router{cfg: cfg, classify: cls, dispatch: d, selector: s, fuser: f}
}

// Route classifies the query, runs the matching path and returns the
// outcome. A panic anywhere inside resolves to a degraded fallback
// outcome rather than crossing the API boundary.
func (r *Router) Route(ctx context.Context, q schema.Query) (outcome schema.RoutingOutcome) {
	start := time.Now()
	snap := r.cfg.Snapshot()
	cls := r.classify.Classify(q)
	metrics.ObserveComplexity(cls.Complexity)

	outcome = schema.RoutingOutcome{
		RequestID:      uuid.NewString(),
		Classification: cls,
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("router: recovered panic for request %s: %v", outcome.RequestID, rec)
			outcome.Warnings = append(outcome.Warnings, WarnInternalPanic)
			r.fallback(ctx, q, cls, snap, &outcome)
		}
		outcome.TotalLatencyMs = time.Since(start).Milliseconds()
		metrics.IncPath(string(outcome.Path))
	}()

	if cls.Complexity < snap.Router.ComplexityThreshold {
		r.fastPath(ctx, q, cls, snap, &outcome)
		return outcome
	}
	r.intelligentPath(ctx, q, cls, snap, &outcome)
	return outcome
}

// fastPath performs exactly one deterministic store lookup chosen by
// intent. Its result is returned as-is; a failed lookup is reported in
// the tool results, not escalated.
func (r *Router) fastPath(ctx context.Context, q schema.Query, cls schema.Classification, snap *config.Config, outcome *schema.RoutingOutcome) {
	outcome.Path = schema.PathFast

	timeout := time.Duration(snap.Router.FastPathTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := r.dispatch.Dispatch(fctx, q, fastPathCall(cls.Intent))
	outcome.ToolResults = append(outcome.ToolResults, res)
	outcome.ToolsAttempted++
	if res.Status == schema.StatusOK {
		outcome.ToolsSucceeded++
	}
	outcome.Context = r.fuser.Fuse(q, outcome.ToolResults)
}

// intelligentPath asks the decision-maker which tools to run, executes
// the valid ones concurrently under the whole-path deadline, and fuses
// whatever completed. Exceeding the whole-path deadline degrades to
// the fallback.
func (r *Router) intelligentPath(ctx context.Context, q schema.Query, cls schema.Classification, snap *config.Config, outcome *schema.RoutingOutcome) {
	outcome.Path = schema.PathIntelligent

	whole := time.Duration(snap.Router.WholePathTimeoutMs) * time.Millisecond
	if whole <= 0 {
		whole = 2500 * time.Millisecond
	}
	pctx, cancel := context.WithTimeout(ctx, whole)
	defer cancel()

	calls, warnings := r.selector.Select(pctx, q, cls, r.dispatch.Specs())
	outcome.Warnings = append(outcome.Warnings, warnings...)

	if pctx.Err() != nil {
		logger.Warnf("router: whole-path deadline hit during selection for request %s", outcome.RequestID)
		outcome.Warnings = append(outcome.Warnings, WarnGlobalTimeout)
		r.fallback(ctx, q, cls, snap, outcome)
		return
	}

	// one invalid sibling never blocks the rest
	valid := make([]schema.ToolCall, 0, len(calls))
	for _, call := range calls {
		if err := r.dispatch.ValidateCall(call); err != nil {
			logger.Warnf("router: dropping tool call for request %s: %v", outcome.RequestID, err)
			metrics.IncDropped("invalid-tool-call")
			outcome.Warnings = append(outcome.Warnings, WarnInvalidToolCall)
			continue
		}
		valid = append(valid, call)
	}

	outcome.ToolsAttempted = len(valid)
	outcome.ToolResults = r.runTools(pctx, q, valid, snap.Router.MaxConcurrentTools)
	for _, res := range outcome.ToolResults {
		if res.Status == schema.StatusOK {
			outcome.ToolsSucceeded++
		}
	}

	if pctx.Err() != nil {
		logger.Warnf("router: whole-path deadline hit during dispatch for request %s", outcome.RequestID)
		outcome.Warnings = append(outcome.Warnings, WarnGlobalTimeout)
		r.fallback(ctx, q, cls, snap, outcome)
		return
	}

	// zero selected tools is a valid, non-degraded outcome
	outcome.Context = r.fuser.Fuse(q, outcome.ToolResults)
}

// runTools dispatches calls concurrently with bounded parallelism,
// preserving call order in the results.
func (r *Router) runTools(ctx context.Context, q schema.Query, calls []schema.ToolCall, maxConcurrent int) []schema.ToolResult {
	if len(calls) == 0 {
		return nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	results := make([]schema.ToolResult, len(calls))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call schema.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.dispatch.Dispatch(ctx, q, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// fallback resolves the request with the deterministic fast-path
// lookup and marks the outcome degraded. Tool results collected before
// the failure stay on the outcome for observability; the context comes
// from the fallback lookup alone.
func (r *Router) fallback(ctx context.Context, q schema.Query, cls schema.Classification, snap *config.Config, outcome *schema.RoutingOutcome) {
	outcome.Path = schema.PathFallback
	outcome.Degraded = true
	metrics.IncDegraded()

	timeout := time.Duration(snap.Router.FastPathTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	// detached from the (possibly expired) path context
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	res := r.dispatch.Dispatch(fctx, q, fastPathCall(cls.Intent))
	outcome.ToolResults = append(outcome.ToolResults, res)
	outcome.ToolsAttempted++
	if res.Status == schema.StatusOK {
		outcome.ToolsSucceeded++
	}
	outcome.Context = r.fuser.Fuse(q, []schema.ToolResult{res})
}

// fastPathCall maps an intent to its single deterministic lookup.
func fastPathCall(intent schema.Intent) schema.ToolCall {
	switch intent {
	case schema.IntentTemporal:
		return schema.ToolCall{Name: catalog.ToolTrendQuery, Arguments: map[string]any{"metric": "sentiment"}}
	case schema.IntentMetaRelationship, schema.IntentFactualLookup:
		return schema.ToolCall{Name: catalog.ToolFactLookup, Arguments: map[string]any{}}
	default: // backstory and conversational
		return schema.ToolCall{Name: catalog.ToolProfileLookup, Arguments: map[string]any{}}
	}
}
