package app_test

import (
	"path/filepath"
	"testing"

	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/config"
)

func TestRequireStoreCreatesDirectory(t *testing.T) {
	cfg := &config.Config{
		FeedURL: "http://localhost/",
		DBPath:  filepath.Join(t.TempDir(), "nested", "hws.db"),
		Rate:    1,
	}
	deps := app.New(cfg)
	if deps.Store != nil {
		t.Fatal("store should open lazily")
	}
	if err := deps.RequireStore(); err != nil {
		t.Fatalf("RequireStore: %v", err)
	}
	first := deps.Store
	if err := deps.RequireStore(); err != nil || deps.Store != first {
		t.Fatal("second RequireStore should reuse the open store")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if deps.Store != nil {
		t.Error("Close should drop the store")
	}
	if err := deps.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRequireStoreWithoutPath(t *testing.T) {
	deps := app.New(&config.Config{FeedURL: "http://localhost/", Rate: 1})
	if err := deps.RequireStore(); err == nil {
		t.Fatal("expected error without a database path")
	}
}
