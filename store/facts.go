package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

// factRow is the relational shape of one stored fact.
type factRow struct {
	ID        uint   `gorm:"primaryKey"`
	Namespace string `gorm:"size:128;index:idx_fact_scope,priority:1;uniqueIndex:uniq_fact,priority:1"`
	UserID    string `gorm:"size:128;index:idx_fact_scope,priority:2;uniqueIndex:uniq_fact,priority:2"`
	Category  string `gorm:"size:64;uniqueIndex:uniq_fact,priority:3"`
	Key       string `gorm:"size:128;uniqueIndex:uniq_fact,priority:4"`
	Value     string
	UpdatedAt time.Time
}

func (factRow) TableName() string { return "facts" }

// FactStore serves deterministic keyed lookups over sqlite.
type FactStore struct {
	db         *gorm.DB
	maxResults int
}

// NewFactStore opens (and migrates) the fact database.
func NewFactStore(cfg config.FactStoreConfig) (*FactStore, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("facts: open %s: %w", cfg.Path, err)
	}
	if err := db.AutoMigrate(&factRow{}); err != nil {
		return nil, fmt.Errorf("facts: migrate: %w", err)
	}
	max := cfg.MaxResults
	if max <= 0 {
		max = 20
	}
	return &FactStore{db: db, maxResults: max}, nil
}

// LookupFacts returns facts for the user within the persona namespace,
// newest first. An unknown user or category yields an empty slice.
func (s *FactStore) LookupFacts(ctx context.Context, namespace, userID, category string, limit int) ([]schema.FactRecord, error) {
	if namespace == "" {
		return nil, errors.New("facts: namespace is required")
	}
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	q := s.db.WithContext(ctx).
		Where("namespace = ? AND user_id = ?", namespace, userID)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var rows []factRow
	if err := q.Order("updated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("facts: lookup: %w", err)
	}

	out := make([]schema.FactRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, schema.FactRecord{
			Namespace: r.Namespace,
			UserID:    r.UserID,
			Category:  r.Category,
			Key:       r.Key,
			Value:     r.Value,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// UpsertFact writes or replaces one fact. Used by ingestion, not by
// the routing paths.
func (s *FactStore) UpsertFact(ctx context.Context, f schema.FactRecord) error {
	if f.Namespace == "" {
		return errors.New("facts: namespace is required")
	}
	row := factRow{
		Namespace: f.Namespace,
		UserID:    f.UserID,
		Category:  f.Category,
		Key:       f.Key,
		Value:     f.Value,
		UpdatedAt: time.Now(),
	}
	res := s.db.WithContext(ctx).
		Where("namespace = ? AND user_id = ? AND category = ? AND key = ?",
			f.Namespace, f.UserID, f.Category, f.Key).
		Assign(map[string]any{"value": f.Value, "updated_at": row.UpdatedAt}).
		FirstOrCreate(&row)
	if res.Error != nil {
		return fmt.Errorf("facts: upsert: %w", res.Error)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *FactStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
