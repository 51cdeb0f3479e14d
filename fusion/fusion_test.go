package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/companionkit/knowrouter/schema"
)

func items(source string, ids ...string) []schema.RankedItem {
	out := make([]schema.RankedItem, len(ids))
	for i, id := range ids {
		out[i] = schema.RankedItem{ID: id, Source: source, Content: "text-" + id}
	}
	return out
}

func TestRRF_SharedItemRisesToTop(t *testing.T) {
	s := NewRRF(60)

	merged := s.Fuse([][]schema.RankedItem{
		items("facts", "a", "b", "c"),
		items("memories", "c", "d"),
	})

	assert.Len(t, merged, 4)
	// "c" appears in both lists so it accumulates two RRF contributions
	assert.Equal(t, "c", merged[0].ID)
}

func TestRRF_EmptyAndSingleList(t *testing.T) {
	s := NewRRF(0) // 0 falls back to the default k

	assert.Empty(t, s.Fuse(nil))
	assert.Empty(t, s.Fuse([][]schema.RankedItem{{}, {}}))

	merged := s.Fuse([][]schema.RankedItem{items("facts", "a", "b")})
	assert.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].ID)
	assert.Greater(t, merged[0].Score, merged[1].Score)
}

func TestRRF_SkipsEmptyIDs(t *testing.T) {
	s := NewRRF(60)

	merged := s.Fuse([][]schema.RankedItem{{
		{ID: "", Source: "facts", Content: "anonymous"},
		{ID: "x", Source: "facts", Content: "keyed"},
	}})

	assert.Len(t, merged, 1)
	assert.Equal(t, "x", merged[0].ID)
}

func TestWeighted_SourceWeightDominates(t *testing.T) {
	s := NewWeighted(map[string]float64{"facts": 2.0, "memories": 0.5})

	merged := s.Fuse([][]schema.RankedItem{
		{{ID: "f", Source: "facts", Score: 0.5}},
		{{ID: "m", Source: "memories", Score: 0.9}},
	})

	assert.Len(t, merged, 2)
	assert.Equal(t, "f", merged[0].ID) // 0.5*2.0 > 0.9*0.5
}
