package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestPurchaseRepository(t *testing.T) {
	t.Run("Record and Purchased", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))

		ok, err := repo.Purchased("album001")
		if err != nil || ok {
			t.Fatalf("expected no purchase, got %v (%v)", ok, err)
		}

		if err := repo.Record("album001", "purchased-1"); err != nil {
			t.Fatalf("failed to record purchase: %v", err)
		}

		ok, err = repo.Purchased("album001")
		if err != nil || !ok {
			t.Errorf("expected purchase, got %v (%v)", ok, err)
		}
	})

	t.Run("Record twice keeps one truthy row", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		repo.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

		if err := repo.Record("album001", "purchased-1"); err != nil {
			t.Fatalf("first record failed: %v", err)
		}
		if err := repo.Record("album001", "purchased-2"); err != nil {
			t.Fatalf("second record failed: %v", err)
		}

		purchases, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list purchases: %v", err)
		}
		if len(purchases) != 1 {
			t.Fatalf("expected 1 purchase, got %d", len(purchases))
		}

		p := purchases[0]
		if p.Token != "purchased-2" || p.Key != "albumPurchaseToken-album001" {
			t.Errorf("unexpected record %+v", p)
		}
		if !p.UpdatedAt.After(p.CreatedAt) {
			t.Errorf("expected updated_at to move forward: %v -> %v", p.CreatedAt, p.UpdatedAt)
		}
	})

	t.Run("empty token is not a purchase", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		if err := repo.Record("album001", ""); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if ok, _ := repo.Purchased("album001"); ok {
			t.Error("empty token must not count")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		_ = repo.Record("album001", "purchased-1")
		_ = repo.Record("album002", "purchased-2")

		if err := repo.Clear("album001"); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if err := repo.Clear("missing"); err != nil {
			t.Errorf("clearing a missing record should succeed: %v", err)
		}

		if ok, _ := repo.Purchased("album001"); ok {
			t.Error("expected album001 cleared")
		}
		if ok, _ := repo.Purchased("album002"); !ok {
			t.Error("expected album002 kept")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		_ = repo.Record("album004", "purchased-4")

		p, err := repo.Get("album004")
		if err != nil {
			t.Fatalf("failed to get purchase: %v", err)
		}
		if p.AlbumID != "album004" || !p.Valid() {
			t.Errorf("unexpected purchase %+v", p)
		}

		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("List orders oldest first", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		repo.now = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

		for _, id := range []string{"album003", "album001", "album002"} {
			if err := repo.Record(id, "t"); err != nil {
				t.Fatalf("failed to record %s: %v", id, err)
			}
		}

		purchases, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		var ids []string
		for _, p := range purchases {
			ids = append(ids, p.AlbumID)
		}
		if len(ids) != 3 || ids[0] != "album003" || ids[2] != "album002" {
			t.Errorf("unexpected order %v", ids)
		}
	})

	t.Run("Record requires an album id", func(t *testing.T) {
		repo := NewPurchaseRepository(setupTestDB(t))
		if err := repo.Record("", "x"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("closed database surfaces errors", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPurchaseRepository(db)
		db.Close()

		if _, err := repo.Purchased("album001"); err == nil {
			t.Error("expected query error on closed database")
		}
		if err := repo.Record("album001", "x"); err == nil {
			t.Error("expected exec error on closed database")
		}
		if _, err := repo.List(); err == nil {
			t.Error("expected list error on closed database")
		}
	})
}

func TestPurchaseRepositoryAsGateStore(t *testing.T) {
	repo := NewPurchaseRepository(setupTestDB(t))
	album := models.Album{
		ID:   "album001",
		Lock: true,
		Tracks: []models.Track{
			{ID: 1, Title: "One", Src: "https://example.com/one.mp3", Duration: 225 * time.Second},
		},
	}

	opts := gate.Options{ResetOnLoad: false}
	g := gate.New(repo, gate.NewDeck(), opts)
	s := g.LoadAlbum(album)
	if s.Purchased() {
		t.Fatal("expected locked album")
	}
	if err := g.Unlock(s); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	fresh := gate.New(repo, gate.NewDeck(), opts).LoadAlbum(album)
	if !fresh.Purchased() {
		t.Error("expected persisted purchase to unlock a fresh session")
	}

	opts.ResetOnLoad = true
	reset := gate.New(repo, gate.NewDeck(), opts).LoadAlbum(album)
	if reset.Purchased() {
		t.Error("expected reset on load to clear the record")
	}
	if ok, _ := repo.Purchased("album001"); ok {
		t.Error("expected record gone after reset")
	}
}
