// Package decider wraps the tool-selection model call. The model's
// output is advisory and untrusted: selections are parsed defensively,
// capped, and validated downstream before anything executes. A failed
// or malformed selection yields zero tools and is never retried.
package decider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/companionkit/knowrouter/common/logger"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/llm"
	"github.com/companionkit/knowrouter/metrics"
	"github.com/companionkit/knowrouter/schema"
)

const systemPrompt = `You select knowledge tools for a conversational companion.
Given the user's message, decide which of the available tools would surface
useful background knowledge before answering. Select only tools that clearly
help; selecting no tools is a valid answer for small talk. Never answer the
user directly.`

// Warning tags attached to the routing outcome when selections are
// altered or lost.
const (
	WarnSelectionFailed    = "decider-selection-failed"
	WarnMalformedArguments = "decider-malformed-arguments"
	WarnToolLimitExceeded  = "decider-tool-limit-exceeded"
)

// Decider asks the model which tools to run for a query.
type Decider struct {
	provider llm.Provider
	timeout  time.Duration
	maxTools int
	history  int
}

// New binds a provider to the selection policy in cfg.
func New(provider llm.Provider, cfg config.DeciderConfig) *Decider {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 1500 * time.Millisecond
	}
	maxTools := cfg.MaxTools
	if maxTools <= 0 {
		maxTools = 4
	}
	history := cfg.HistoryTurns
	if history <= 0 {
		history = 6
	}
	return &Decider{provider: provider, timeout: timeout, maxTools: maxTools, history: history}
}

// Select returns the model's tool picks plus warning tags for anything
// dropped along the way. It never returns an error: when the model
// call fails or times out, the selection is simply empty.
func (d *Decider) Select(ctx context.Context, q schema.Query, cls schema.Classification, specs []llm.ToolSpec) ([]schema.ToolCall, []string) {
	if d.provider == nil {
		return nil, []string{WarnSelectionFailed}
	}

	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.provider.SelectToolCalls(sctx, systemPrompt, userPrompt(q, cls), trimHistory(q.History, d.history), specs)
	metrics.ObserveDecider(start)
	if err != nil {
		logger.Warnf("decider: selection failed for intent %s: %v", cls.Intent, err)
		return nil, []string{WarnSelectionFailed}
	}

	var warnings []string
	calls := make([]schema.ToolCall, 0, len(raw))
	for _, rc := range raw {
		args := map[string]any{}
		if len(rc.Arguments) > 0 {
			if err := json.Unmarshal(rc.Arguments, &args); err != nil {
				logger.Warnf("decider: dropping %s: malformed arguments: %v", rc.Name, err)
				metrics.IncDropped("malformed-arguments")
				warnings = append(warnings, WarnMalformedArguments)
				continue
			}
		}
		calls = append(calls, schema.ToolCall{Name: rc.Name, Arguments: args})
	}

	if len(calls) > d.maxTools {
		for _, dropped := range calls[d.maxTools:] {
			logger.Warnf("decider: dropping %s: selection exceeds limit of %d", dropped.Name, d.maxTools)
			metrics.IncDropped("tool-limit-exceeded")
		}
		calls = calls[:d.maxTools]
		warnings = append(warnings, WarnToolLimitExceeded)
	}
	return calls, warnings
}

func userPrompt(q schema.Query, cls schema.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User message: %s\n", q.Text)
	fmt.Fprintf(&b, "Detected intent: %s\n", cls.Intent)
	if len(cls.FeatureTags) > 0 {
		fmt.Fprintf(&b, "Query features: %s\n", strings.Join(cls.FeatureTags, ", "))
	}
	return b.String()
}

func trimHistory(history []schema.Turn, max int) []schema.Turn {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
