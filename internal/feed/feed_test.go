package feed

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/streamcloud/streamcloud/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreAddGet(t *testing.T) {
	store := NewStore(setupTestDB(t))

	src := &Source{
		URL:      "https://tracker.example/rss",
		Label:    "main tracker",
		OwnerID:  "user-1",
		Patterns: []string{"show name", "other show"},
	}
	if err := store.Add(src); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if src.ID == 0 {
		t.Fatal("Add() did not assign an ID")
	}

	got, err := store.Get(src.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.URL != src.URL || len(got.Patterns) != 2 || got.LastChecked != nil {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := store.Get(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestStoreDuplicateURL(t *testing.T) {
	store := NewStore(setupTestDB(t))

	src := &Source{URL: "https://tracker.example/rss", Label: "a", OwnerID: "u"}
	if err := store.Add(src); err != nil {
		t.Fatal(err)
	}
	dup := &Source{URL: "https://tracker.example/rss", Label: "b", OwnerID: "u"}
	if err := store.Add(dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Add() duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestStoreValidation(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.Add(&Source{Label: "no url"}); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("Add() error = %v, want ErrInvalidSource", err)
	}
}

func TestStoreUpdateAndWatermark(t *testing.T) {
	store := NewStore(setupTestDB(t))
	src := &Source{URL: "https://tracker.example/rss", Label: "old", OwnerID: "u", Patterns: []string{"a"}}
	if err := store.Add(src); err != nil {
		t.Fatal(err)
	}

	src.Label = "new"
	src.Patterns = []string{"a", "b"}
	if err := store.Update(src); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	mark := time.Now().Truncate(time.Second)
	if err := store.SetLastChecked(src.ID, mark); err != nil {
		t.Fatalf("SetLastChecked() error = %v", err)
	}

	got, err := store.Get(src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != "new" || len(got.Patterns) != 2 {
		t.Errorf("Update not persisted: %+v", got)
	}
	if got.LastChecked == nil || !got.LastChecked.Equal(mark) {
		t.Errorf("watermark = %v, want %v", got.LastChecked, mark)
	}

	missing := &Source{ID: 999, Label: "x"}
	if err := store.Update(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestStoreListDelete(t *testing.T) {
	store := NewStore(setupTestDB(t))
	a := &Source{URL: "https://one.example/rss", Label: "one", OwnerID: "u"}
	b := &Source{URL: "https://two.example/rss", Label: "two", OwnerID: "u"}
	for _, src := range []*Source{a, b} {
		if err := store.Add(src); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.List()
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %d, %v", len(all), err)
	}

	if err := store.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	all, _ = store.List()
	if len(all) != 1 || all[0].ID != b.ID {
		t.Errorf("after delete: %+v", all)
	}
	// Idempotent.
	if err := store.Delete(a.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}
