package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

func testClassifier() *Classifier {
	return New(config.Default().Classifier)
}

func TestClassify_Greeting(t *testing.T) {
	c := testClassifier()
	got := c.Classify(schema.Query{Text: "Hi!"})

	assert.Equal(t, 0.0, got.Complexity)
	assert.Equal(t, schema.IntentConversational, got.Intent)
	assert.Equal(t, []string{"profile"}, got.DataSources)
}

func TestClassify_TemporalAndMeta(t *testing.T) {
	c := testClassifier()
	got := c.Classify(schema.Query{
		Text: "How have my preferences changed over the last month, and what do you know about me overall?",
	})

	// temporal + meta keywords push this over the default 0.3 threshold
	assert.GreaterOrEqual(t, got.Complexity, 0.3)
	// temporal wins the precedence list even when meta matched too
	assert.Equal(t, schema.IntentTemporal, got.Intent)
	assert.Contains(t, got.FeatureTags, "temporal")
	assert.Contains(t, got.FeatureTags, "meta-relationship")
}

func TestClassify_IntentPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want schema.Intent
	}{
		{"temporal beats meta", "has what you know about me changed over time?", schema.IntentTemporal},
		{"meta beats factual", "what do you know about me?", schema.IntentMetaRelationship},
		{"factual lookup", "what is my favorite color?", schema.IntentFactualLookup},
		{"backstory", "tell me about yourself", schema.IntentBackstory},
		{"default", "nice weather today", schema.IntentConversational},
	}

	c := testClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(schema.Query{Text: tt.text})
			assert.Equal(t, tt.want, got.Intent)
		})
	}
}

func TestClassify_ScoreAccumulation(t *testing.T) {
	c := testClassifier()

	simple := c.Classify(schema.Query{Text: "ok"})
	complex := c.Classify(schema.Query{
		Text: "What changed in my mood trend, and why does Alice think it compared badly to before, and how should I read it?",
	})

	assert.Less(t, simple.Complexity, 0.3)
	assert.Greater(t, complex.Complexity, simple.Complexity)
	assert.LessOrEqual(t, complex.Complexity, 1.0)
}

func TestClassify_MalformedInput(t *testing.T) {
	c := testClassifier()

	for _, text := range []string{"", "   ", "\n\t"} {
		got := c.Classify(schema.Query{Text: text})
		assert.Equal(t, 0.0, got.Complexity)
		assert.Equal(t, schema.IntentConversational, got.Intent)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := testClassifier()
	q := schema.Query{Text: "what do you know about me and my friend Bob?"}

	first := c.Classify(q)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(q))
	}
}
