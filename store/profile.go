package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/companionkit/knowrouter/cache"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

// profileFile is the on-disk shape: namespace -> section -> attributes.
type profileFile struct {
	Personas map[string]map[string]map[string]string `yaml:"personas"`
}

// ProfileStore serves static persona/backstory attributes from a YAML
// file. Lookups are cached; the TTL bounds how stale a served profile
// can be after an edit to the file.
type ProfileStore struct {
	path  string
	cache *cache.LRU[[]schema.ProfileRecord]
}

// NewProfileStore validates that the profile file is readable and
// parseable before the engine starts taking traffic.
func NewProfileStore(cfg config.ProfileStoreConfig) (*ProfileStore, error) {
	s := &ProfileStore{
		path:  cfg.Path,
		cache: cache.NewLRU[[]schema.ProfileRecord](cfg.CacheEntries, time.Duration(cfg.CacheTTLSec)*time.Second),
	}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// LookupProfile returns the persona's sections, all of them when
// section is empty. An unknown namespace or section yields an empty
// slice.
func (s *ProfileStore) LookupProfile(ctx context.Context, namespace, section string) ([]schema.ProfileRecord, error) {
	if namespace == "" {
		return nil, errors.New("profile: namespace is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := namespace + ":" + section
	if recs, ok := s.cache.Get(key); ok {
		return recs, nil
	}

	pf, err := s.load()
	if err != nil {
		return nil, err
	}

	sections, ok := pf.Personas[namespace]
	if !ok {
		s.cache.Set(key, nil)
		return nil, nil
	}

	var recs []schema.ProfileRecord
	if section != "" {
		if attrs, ok := sections[section]; ok {
			recs = append(recs, schema.ProfileRecord{Namespace: namespace, Section: section, Attributes: attrs})
		}
	} else {
		names := make([]string, 0, len(sections))
		for name := range sections {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			recs = append(recs, schema.ProfileRecord{Namespace: namespace, Section: name, Attributes: sections[name]})
		}
	}

	s.cache.Set(key, recs)
	return recs, nil
}

func (s *ProfileStore) load() (*profileFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", s.path, err)
	}
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", s.path, err)
	}
	return &pf, nil
}

// Invalidate drops cached lookups, forcing the next read back to disk.
func (s *ProfileStore) Invalidate() {
	s.cache.Purge()
}
