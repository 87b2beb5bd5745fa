package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("parseMigrationName", func(t *testing.T) {
		tc := []struct {
			name    string
			version int
			up      bool
			ok      bool
		}{
			{name: "0000_create_purchases_up.sql", version: 0, up: true, ok: true},
			{name: "0012_add_index_down.sql", version: 12, up: false, ok: true},
			{name: "notes.txt", ok: false},
			{name: "abc_create_up.sql", ok: false},
			{name: "0001_sideways.sql", ok: false},
		}

		for _, tt := range tc {
			version, up, ok := parseMigrationName(tt.name)
			if ok != tt.ok || (ok && (version != tt.version || up != tt.up)) {
				t.Errorf("parseMigrationName(%q) = (%d, %v, %v), want (%d, %v, %v)", tt.name, version, up, ok, tt.version, tt.up, tt.ok)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM purchases LIMIT 1"); err != nil {
			t.Errorf("purchases table should exist after migrations: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("running migrations twice should be a no-op: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM purchases LIMIT 1"); err == nil {
			t.Error("purchases table should be gone after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("stripComments", func(t *testing.T) {
		got := stripComments("-- header\nCREATE TABLE x (id INTEGER) -- trailing\n\n")
		if got != "CREATE TABLE x (id INTEGER)" {
			t.Errorf("unexpected result %q", got)
		}
	})
}
