package digest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpfhost/cpf/internal/digest"
)

func TestOfIsStableAndContentSensitive(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.so")
	pathB := filepath.Join(dir, "b.so")

	if err := os.WriteFile(pathA, []byte("hello plugin"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte("hello plugin"), 0o644); err != nil {
		t.Fatal(err)
	}

	sumA1, err := digest.Of(pathA)
	if err != nil {
		t.Fatalf("digest.Of(a): %v", err)
	}
	sumA2, err := digest.Of(pathA)
	if err != nil {
		t.Fatalf("digest.Of(a) second call: %v", err)
	}
	if sumA1 != sumA2 {
		t.Fatalf("digest of the same unchanged file differs: %x != %x", sumA1, sumA2)
	}

	sumB, err := digest.Of(pathB)
	if err != nil {
		t.Fatalf("digest.Of(b): %v", err)
	}
	if sumA1 != sumB {
		t.Fatalf("digest of identical content differs across files: %x != %x", sumA1, sumB)
	}

	if err := os.WriteFile(pathA, []byte("hello plugin v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	sumA3, err := digest.Of(pathA)
	if err != nil {
		t.Fatalf("digest.Of(a) after modification: %v", err)
	}
	if sumA3 == sumA1 {
		t.Fatalf("digest did not change after file content changed")
	}
}

func TestOfMissingFile(t *testing.T) {
	_, err := digest.Of(filepath.Join(t.TempDir(), "does-not-exist.so"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
