package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/embedding"
	"github.com/companionkit/knowrouter/schema"
)

// VectorStore performs semantic recall against a qdrant collection of
// persona memories. Every query carries a namespace filter so one
// persona can never surface another's memories.
type VectorStore struct {
	client     *qdrant.Client
	embed      embedding.Provider
	collection string
	topK       int
}

// NewVectorStore connects to qdrant and binds the embedding provider
// used to vectorize incoming queries.
func NewVectorStore(cfg config.VectorStoreConfig, embed embedding.Provider) (*VectorStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vector: connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 8
	}
	return &VectorStore{
		client:     client,
		embed:      embed,
		collection: cfg.Collection,
		topK:       topK,
	}, nil
}

// SearchMemory embeds the query and returns the top-K memory snippets
// for the namespace. A non-zero window additionally restricts results
// to memories newer than now-window; that cut happens here because the
// timestamp lives in the payload, not in an indexed range field.
func (s *VectorStore) SearchMemory(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error) {
	if namespace == "" {
		return nil, errors.New("vector: namespace is required")
	}
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vector: embed query: %w", err)
	}

	limit := uint64(topK)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("namespace", namespace),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vector: query %s: %w", s.collection, err)
	}

	var cutoff time.Time
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}

	out := make([]schema.MemorySnippet, 0, len(hits))
	for _, hit := range hits {
		snip, ok := snippetFromHit(hit, namespace)
		if !ok {
			continue
		}
		if !cutoff.IsZero() && !snip.Timestamp.IsZero() && snip.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, snip)
	}
	return out, nil
}

func snippetFromHit(hit *qdrant.ScoredPoint, namespace string) (schema.MemorySnippet, bool) {
	payload := hit.GetPayload()
	if payload == nil {
		return schema.MemorySnippet{}, false
	}
	content := ""
	if val, ok := payload["content"]; ok {
		content = val.GetStringValue()
	}
	if content == "" {
		return schema.MemorySnippet{}, false
	}
	snip := schema.MemorySnippet{
		Namespace: namespace,
		Content:   content,
		Score:     float64(hit.GetScore()),
	}
	if val, ok := payload["timestamp"]; ok {
		if unix := val.GetIntegerValue(); unix > 0 {
			snip.Timestamp = time.Unix(unix, 0)
		} else if raw := val.GetStringValue(); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				snip.Timestamp = ts
			}
		}
	}
	return snip, true
}

// Close tears down the grpc connection.
func (s *VectorStore) Close() error {
	return s.client.Close()
}
