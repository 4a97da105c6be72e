package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}
	key, size, mimeType, err := store.Save(context.Background(), "requests", "shot.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), size)
	}
	if !strings.HasPrefix(mimeType, "image/png") {
		t.Fatalf("expected png mime type, got %q", mimeType)
	}
	if !strings.HasPrefix(key, "requests/") {
		t.Fatalf("expected key under namespace, got %q", key)
	}

	f, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestSaveRejectsTraversalNames(t *testing.T) {
	store := New(t.TempDir())
	if _, _, _, err := store.Save(context.Background(), "requests", "../../etc/passwd", bytes.NewReader([]byte("x"))); err == nil {
		t.Fatal("expected error for traversal file name")
	}
}

func TestOpenRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Open(context.Background(), "/abs/path"); err == nil {
		t.Fatal("expected error for absolute key")
	}
}
