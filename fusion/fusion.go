// Package fusion merges ranked lists from heterogeneous sources. The
// relationship-summary tool uses it to interleave relational facts and
// vector memories into one ranking.
package fusion

import (
	"sort"

	"github.com/companionkit/knowrouter/schema"
)

// Strategy merges multiple ranked lists into a single ranked list.
type Strategy interface {
	Fuse(lists [][]schema.RankedItem) []schema.RankedItem
	Name() string
}

// RRF implements Reciprocal Rank Fusion: items are scored 1/(k+rank)
// per list and summed, so items ranked well by several sources rise.
// Raw source scores are ignored, which makes relational facts (no
// similarity score) and vector hits directly comparable.
type RRF struct {
	K int
}

// NewRRF creates an RRF strategy. k dampens the influence of top
// ranks; 60 is the conventional default.
func NewRRF(k int) *RRF {
	if k <= 0 {
		k = 60
	}
	return &RRF{K: k}
}

func (s *RRF) Name() string { return "rrf" }

func (s *RRF) Fuse(lists [][]schema.RankedItem) []schema.RankedItem {
	type agg struct {
		item  schema.RankedItem
		score float64
		order int
	}
	merged := map[string]*agg{}
	next := 0

	for _, list := range lists {
		for rank, item := range list {
			if item.ID == "" {
				continue
			}
			a, ok := merged[item.ID]
			if !ok {
				a = &agg{item: item, order: next}
				next++
				merged[item.ID] = a
			}
			a.score += 1.0 / float64(s.K+rank+1)
		}
	}

	out := make([]schema.RankedItem, 0, len(merged))
	for _, a := range merged {
		a.item.Score = a.score
		out = append(out, a.item)
	}
	// ties broken by first appearance for deterministic output
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return merged[out[i].ID].order < merged[out[j].ID].order
	})
	return out
}

// Weighted sums source-weighted raw scores instead of ranks. Used when
// one source should dominate regardless of rank interleaving.
type Weighted struct {
	Weights map[string]float64 // by RankedItem.Source; absent means 1.0
}

func NewWeighted(weights map[string]float64) *Weighted {
	if weights == nil {
		weights = map[string]float64{}
	}
	return &Weighted{Weights: weights}
}

func (s *Weighted) Name() string { return "weighted" }

func (s *Weighted) Fuse(lists [][]schema.RankedItem) []schema.RankedItem {
	type agg struct {
		item  schema.RankedItem
		score float64
		order int
	}
	merged := map[string]*agg{}
	next := 0

	for _, list := range lists {
		for _, item := range list {
			if item.ID == "" {
				continue
			}
			w, ok := s.Weights[item.Source]
			if !ok {
				w = 1.0
			}
			a, ok := merged[item.ID]
			if !ok {
				a = &agg{item: item, order: next}
				next++
				merged[item.ID] = a
			}
			a.score += item.Score * w
		}
	}

	out := make([]*agg, 0, len(merged))
	for _, a := range merged {
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].order < out[j].order
	})

	items := make([]schema.RankedItem, len(out))
	for i, a := range out {
		a.item.Score = a.score
		items[i] = a.item
	}
	return items
}
