package discover_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpfhost/cpf/internal/discover"
)

func writePlugins(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("fake-so"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEnumerateFlat(t *testing.T) {
	root := t.TempDir()
	writePlugins(t, root, "lib1.so", "lib2.so", "readme.txt")

	got, err := discover.Enumerate(root, discover.Extension)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Name != "lib1" || got[1].Name != "lib2" {
		t.Fatalf("unexpected names: %+v", got)
	}
}

func TestEnumerateNestedSortOrder(t *testing.T) {
	root := t.TempDir()
	// "/lib1.so" must sort before "/sub/..." per full-path ordering.
	writePlugins(t, root, "lib1.so", "sub/lib4.so")

	got, err := discover.Enumerate(root, discover.Extension)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Name != "lib1" || got[1].Name != "sub/lib4" {
		t.Fatalf("unexpected order/names: %+v", got)
	}
}

func TestCountMatchesPopulate(t *testing.T) {
	root := t.TempDir()
	writePlugins(t, root, "a.so", "b/c.so", "b/d.so")

	count, err := discover.Count(root, discover.Extension)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	pop, err := discover.Populate(root, discover.Extension)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if count != len(pop) {
		t.Fatalf("Count()=%d but Populate() returned %d entries", count, len(pop))
	}
}

func TestEnumerateCustomExtension(t *testing.T) {
	root := t.TempDir()
	writePlugins(t, root, "lib1.dylib", "lib1.so")

	got, err := discover.Enumerate(root, ".dylib")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 1 || got[0].Name != "lib1" {
		t.Fatalf("expected only the .dylib candidate, got %+v", got)
	}
}

func TestEnumerateEmptyDir(t *testing.T) {
	root := t.TempDir()
	got, err := discover.Enumerate(root, discover.Extension)
	if err != nil {
		t.Fatalf("Enumerate on empty dir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}
