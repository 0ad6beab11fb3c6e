// Package app wires together configuration, the feed client and the local
// store into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/derickschaefer/hws/internal/config"
	"github.com/derickschaefer/hws/internal/feed"
	"github.com/derickschaefer/hws/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store is nil until RequireStore succeeds.
type Deps struct {
	Config *config.Config
	Client *feed.Client
	Store  *store.Store
}

// New builds a Deps from resolved config. The store is opened lazily.
func New(cfg *config.Config) *Deps {
	client := feed.NewClient(
		cfg.FeedURL,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	return &Deps{
		Config: cfg,
		Client: client,
	}
}

// RequireStore opens the bbolt database at Config.DBPath, creating its
// directory if needed. Calling it again is a no-op.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return fmt.Errorf("no database path: use --db, %s or \"db_path\" in config.json", config.EnvDBPath)
	}
	if err := os.MkdirAll(filepath.Dir(d.Config.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	d.Store = s
	return nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}
