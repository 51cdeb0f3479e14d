package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/companionkit/knowrouter/common/logger"
)

// Store holds the active configuration snapshot. Readers take the
// snapshot once at the start of a request and keep it for the whole
// request, so hot reloads never change behavior mid-flight.
type Store struct {
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates a Store seeded with cfg (Default() when nil).
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = Default()
	}
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Snapshot returns the active configuration. The returned value must be
// treated as read-only.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// Swap atomically replaces the active configuration after validating
// it. Invalid configurations are rejected and the old snapshot stays.
func (s *Store) Swap(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

// Load reads a YAML configuration file, layering it over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch reloads the file into the store whenever it changes. A reload
// that fails to parse or validate is logged and skipped.
func (s *Store) Watch(path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return fmt.Errorf("config watcher: %w", err)
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warnf("config: reload of %s rejected: %v", path, err)
					continue
				}
				s.current.Store(cfg)
				logger.Infof("config: reloaded %s", path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("config: watcher error: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher, if any.
func (s *Store) Close() error {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
