package cache

import (
	"testing"

	"github.com/whispa-ai/whispad/internal/types"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestStoreCycleRoundTrip(t *testing.T) {
	c := openTestCache(t)

	note := types.Note{
		Title:     "Checkout bug",
		Content:   "# Checkout bug\nSteps follow.",
		SessionID: "session-1",
		Timestamp: 1756600000000,
	}
	if err := c.StoreCycle("data:image/png;base64,AAAA", "hello", note); err != nil {
		t.Fatalf("StoreCycle() error = %v", err)
	}

	got, ok, err := c.LastNote()
	if err != nil {
		t.Fatalf("LastNote() error = %v", err)
	}
	if !ok {
		t.Fatal("LastNote() found nothing after StoreCycle")
	}
	if got != note {
		t.Errorf("note = %+v, want %+v", got, note)
	}

	image, transcript, err := c.LastInputs()
	if err != nil {
		t.Fatalf("LastInputs() error = %v", err)
	}
	if image != "data:image/png;base64,AAAA" || transcript != "hello" {
		t.Errorf("inputs = (%q, %q)", image, transcript)
	}
}

func TestEmptyCache(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.LastNote(); err != nil || ok {
		t.Errorf("LastNote() on empty cache = ok %v, err %v", ok, err)
	}
	image, transcript, err := c.LastInputs()
	if err != nil {
		t.Fatalf("LastInputs() error = %v", err)
	}
	if image != "" || transcript != "" {
		t.Errorf("inputs on empty cache = (%q, %q)", image, transcript)
	}
}

func TestStoreCycleOverwrites(t *testing.T) {
	c := openTestCache(t)

	first := types.Note{Title: "one", Content: "one", SessionID: "s1"}
	second := types.Note{Title: "two", Content: "two", SessionID: "s2"}
	if err := c.StoreCycle("img1", "t1", first); err != nil {
		t.Fatalf("first StoreCycle: %v", err)
	}
	if err := c.StoreCycle("img2", "t2", second); err != nil {
		t.Fatalf("second StoreCycle: %v", err)
	}

	got, ok, err := c.LastNote()
	if err != nil || !ok {
		t.Fatalf("LastNote() = ok %v, err %v", ok, err)
	}
	if got.Title != "two" {
		t.Errorf("note title = %q, want the latest cycle", got.Title)
	}
}
