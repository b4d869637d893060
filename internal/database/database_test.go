package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() returned unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pending, err := HasPending(ctx, db)
	if err != nil {
		t.Fatalf("HasPending() returned unexpected error: %v", err)
	}
	if !pending {
		t.Error("Expected pending migrations on a fresh database")
	}

	applied, err := Migrate(ctx, db)
	if err != nil {
		t.Fatalf("Migrate() returned unexpected error: %v", err)
	}
	if applied != 2 {
		t.Errorf("Expected 2 migrations applied, got %d", applied)
	}

	version, err := SchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("SchemaVersion() returned unexpected error: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected schema version 2, got %d", version)
	}

	t.Run("migrate is idempotent", func(t *testing.T) {
		applied, err := Migrate(ctx, db)
		if err != nil {
			t.Fatalf("Migrate() returned unexpected error: %v", err)
		}
		if applied != 0 {
			t.Errorf("Expected 0 migrations applied, got %d", applied)
		}
	})

	t.Run("tables exist", func(t *testing.T) {
		for _, table := range []string{"users", "sessions", "holdings"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("Expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("health check", func(t *testing.T) {
		if err := HealthCheck(db); err != nil {
			t.Errorf("HealthCheck() returned unexpected error: %v", err)
		}
	})
}
