package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/artemshloyda/photodupes/internal/config"
)

func newTestWatcher(t *testing.T) (*Watcher, string, <-chan Change) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	cfg.InputExtensions = []string{"jpg", "png"}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.SetDebounceTime(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	return w, dir, changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-changes:
		if !ok {
			t.Fatal("changes channel closed")
		}
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change")
	}
	return Change{}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_BatchesUpdates(t *testing.T) {
	_, dir, changes := newTestWatcher(t)

	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.png")
	writeFile(t, a)
	writeFile(t, b)
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, ".hidden.jpg"))

	c := waitChange(t, changes)
	if !slices.Equal(c.Updated, []string{a, b}) {
		t.Errorf("Updated = %v, want [%s %s]", c.Updated, a, b)
	}
	if len(c.Removed) != 0 {
		t.Errorf("Removed = %v, want empty", c.Removed)
	}
}

func TestWatcher_Remove(t *testing.T) {
	_, dir, changes := newTestWatcher(t)

	a := filepath.Join(dir, "a.jpg")
	writeFile(t, a)
	waitChange(t, changes)

	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}

	c := waitChange(t, changes)
	if !slices.Equal(c.Removed, []string{a}) {
		t.Errorf("Removed = %v, want [%s]", c.Removed, a)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	_, dir, changes := newTestWatcher(t)

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Даём watcher время подписаться на новую директорию
	time.Sleep(100 * time.Millisecond)

	p := filepath.Join(sub, "c.png")
	writeFile(t, p)

	c := waitChange(t, changes)
	if !slices.Contains(c.Updated, p) {
		t.Errorf("Updated = %v, want to contain %s", c.Updated, p)
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir = dir

	w, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("unexpected change after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("changes channel not closed after cancel")
	}
}
