package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genrun/internal/ports"
)

func TestPutWritesArtifact(t *testing.T) {
	root := t.TempDir()
	l := New(root)

	out, err := l.Put(context.Background(), ports.PutArtifactInput{
		Name:        "pred-0.png",
		ContentType: "image/png",
		Reader:      strings.NewReader("pngdata"),
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if out.Size != int64(len("pngdata")) {
		t.Errorf("size = %d, want %d", out.Size, len("pngdata"))
	}

	data, err := os.ReadFile(filepath.Join(root, "pred-0.png"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "pngdata" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestPutCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not", "yet", "there")
	l := New(root)

	if _, err := l.Put(context.Background(), ports.PutArtifactInput{
		Name:   "a.bin",
		Reader: strings.NewReader("x"),
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.bin")); err != nil {
		t.Errorf("expected artifact under created root: %v", err)
	}
}

func TestPutRejectsBadNames(t *testing.T) {
	l := New(t.TempDir())

	for _, name := range []string{"", "../escape.bin", `sub\dir.bin`, "sub/dir.bin"} {
		if _, err := l.Put(context.Background(), ports.PutArtifactInput{
			Name:   name,
			Reader: strings.NewReader("x"),
		}); err == nil {
			t.Errorf("expected rejection for name %q", name)
		}
	}
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	l := New(root)

	_, err := l.Put(context.Background(), ports.PutArtifactInput{
		Name:   "gone.bin",
		Reader: strings.NewReader("x"),
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := l.Remove(context.Background(), "gone.bin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "gone.bin")); !os.IsNotExist(err) {
		t.Error("expected artifact to be removed")
	}
}
