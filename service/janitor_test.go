package service

import (
	"os"
	"path/filepath"
	"testing"
)

func tempFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

func TestJanitorRemovesTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	a := tempFile(t, dir, "a.mp3")
	b := tempFile(t, dir, "b.wav")

	j := NewJanitor()
	j.Track(a)
	j.Track(b)
	j.Cleanup()

	for _, path := range []string{a, b} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists after cleanup", path)
		}
	}
}

func TestJanitorIgnoresEmptyAndDuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	a := tempFile(t, dir, "a.wav")

	j := NewJanitor()
	j.Track("")
	j.Track(a)
	j.Track(a) // transcoder may hand back its input unchanged

	if len(j.paths) != 1 {
		t.Fatalf("expected 1 tracked path, got %d", len(j.paths))
	}

	j.Cleanup()
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("tracked file still exists after cleanup")
	}
}

func TestJanitorToleratesMissingFiles(t *testing.T) {
	j := NewJanitor()
	j.Track(filepath.Join(t.TempDir(), "never-created.wav"))
	j.Cleanup()
}

func TestJanitorCleanupIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := tempFile(t, dir, "a.wav")

	j := NewJanitor()
	j.Track(a)
	j.Cleanup()
	j.Cleanup()
}
