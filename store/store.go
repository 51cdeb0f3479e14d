// Package store holds the four knowledge store adapters. Adapters
// translate backend responses into engine records and never let a
// backend failure escape as a panic: callers get an explicit error and
// decide how to degrade. An empty result is a normal outcome, not an
// error.
package store

import (
	"context"
	"time"

	"github.com/companionkit/knowrouter/schema"
)

// FactReader looks up structured facts in the relational store.
// Every call is scoped to a persona namespace.
type FactReader interface {
	LookupFacts(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error)
}

// MemorySearcher performs semantic recall over the persona's vector
// memory. A zero window means no time restriction.
type MemorySearcher interface {
	SearchMemory(ctx context.Context, namespace, query string, topK int, window time.Duration) ([]schema.MemorySnippet, error)
}

// ProfileReader returns static persona/backstory attributes.
type ProfileReader interface {
	LookupProfile(ctx context.Context, namespace, section string) ([]schema.ProfileRecord, error)
}

// TrendReader aggregates a quality metric over a trailing window.
type TrendReader interface {
	QueryTrend(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error)
}
