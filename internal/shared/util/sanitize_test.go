package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName("a/b\\c.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a_b_c.png" {
		t.Fatalf("expected separators replaced, got %q", got)
	}

	if _, err := SanitizeFileName("../secret"); err == nil {
		t.Fatal("expected error for traversal name")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatal("expected error for blank name")
	}
}
