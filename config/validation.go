package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values that would make the
// engine misbehave at runtime. It is called on load and on every hot
// reload; a reload that fails validation is rejected and the previous
// snapshot stays active.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil configuration")
	}
	if err := c.Router.validate(); err != nil {
		return err
	}
	if err := c.Classifier.validate(); err != nil {
		return err
	}
	if err := c.Decider.validate(); err != nil {
		return err
	}
	if err := c.Stores.validate(); err != nil {
		return err
	}
	if err := c.Fuser.validate(); err != nil {
		return err
	}
	return nil
}

func (r RouterConfig) validate() error {
	if r.ComplexityThreshold < 0 || r.ComplexityThreshold > 1 {
		return fmt.Errorf("config: router.complexity_threshold must be in [0,1], got %v", r.ComplexityThreshold)
	}
	if r.PerCallTimeoutMs < 0 || r.DispatchTimeoutMs < 0 || r.WholePathTimeoutMs < 0 || r.FastPathTimeoutMs < 0 {
		return errors.New("config: router timeouts must be non-negative")
	}
	if r.DispatchTimeoutMs > 0 && r.PerCallTimeoutMs > r.DispatchTimeoutMs {
		return fmt.Errorf("config: router.per_call_timeout_ms (%d) exceeds dispatch_timeout_ms (%d)", r.PerCallTimeoutMs, r.DispatchTimeoutMs)
	}
	if r.WholePathTimeoutMs > 0 && r.DispatchTimeoutMs > r.WholePathTimeoutMs {
		return fmt.Errorf("config: router.dispatch_timeout_ms (%d) exceeds whole_path_timeout_ms (%d)", r.DispatchTimeoutMs, r.WholePathTimeoutMs)
	}
	if r.MaxConcurrentTools < 0 {
		return errors.New("config: router.max_concurrent_tools must be non-negative")
	}
	return nil
}

func (c ClassifierConfig) validate() error {
	weights := []struct {
		name string
		v    float64
	}{
		{"conjunction_weight", c.ConjunctionWeight},
		{"temporal_weight", c.TemporalWeight},
		{"meta_weight", c.MetaWeight},
		{"entity_weight", c.EntityWeight},
		{"extra_question_weight", c.ExtraQuestionWeight},
		{"extra_question_cap", c.ExtraQuestionCap},
		{"long_query_weight", c.LongQueryWeight},
	}
	for _, w := range weights {
		if w.v < 0 || w.v > 1 {
			return fmt.Errorf("config: classifier.%s must be in [0,1], got %v", w.name, w.v)
		}
	}
	if c.LongQueryTokens < 0 {
		return errors.New("config: classifier.long_query_tokens must be non-negative")
	}
	return nil
}

func (d DeciderConfig) validate() error {
	if d.Provider == "" {
		return nil // decider disabled; intelligent path degrades to zero tools
	}
	if d.Provider != "openai" {
		return fmt.Errorf("config: decider.provider %q not supported", d.Provider)
	}
	if d.Model == "" {
		return errors.New("config: decider.model is required when a provider is set")
	}
	if d.Temperature < 0 || d.Temperature > 2 {
		return fmt.Errorf("config: decider.temperature must be in [0,2], got %v", d.Temperature)
	}
	if d.MaxTools < 0 {
		return errors.New("config: decider.max_tools must be non-negative")
	}
	return nil
}

func (s StoresConfig) validate() error {
	if s.Facts.MaxResults < 0 {
		return errors.New("config: stores.facts.max_results must be non-negative")
	}
	if s.Vector.TopK < 0 {
		return errors.New("config: stores.vector.top_k must be non-negative")
	}
	if s.Timeseries.MinSamples < 0 {
		return errors.New("config: stores.timeseries.min_samples must be non-negative")
	}
	if s.Timeseries.StableBand < 0 || s.Timeseries.StableBand > 1 {
		return fmt.Errorf("config: stores.timeseries.stable_band must be in [0,1], got %v", s.Timeseries.StableBand)
	}
	return nil
}

func (f FuserConfig) validate() error {
	if f.CharBudget < 0 {
		return errors.New("config: fuser.char_budget must be non-negative")
	}
	return nil
}
