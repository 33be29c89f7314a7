package rss

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "feed.xml"), 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("entries = %d, want 0", l.Len())
	}
}

func TestAppendFlushReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")

	l, err := Open(path, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Append("[blog] New post", "<p>body</p>", "https://example.com/post", 1)
	l.Append("[blog] WARNING", "fetch failed", "", 0)
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{"[blog] New post #1", "[blog] WARNING #0", "https://example.com/post"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("feed file missing %q", want)
		}
	}

	// Entries survive into the next session.
	reopened, err := Open(path, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Errorf("reloaded entries = %d, want 2", reopened.Len())
	}
}

func TestFlushTrimsOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")

	l, err := Open(path, 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, subject := range []string{"one", "two", "three", "four", "five"} {
		l.Append(subject, "body", "", 1)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	for _, dropped := range []string{"one #1", "two #1"} {
		if strings.Contains(content, dropped) {
			t.Errorf("oldest entry %q should have been trimmed", dropped)
		}
	}
	for _, kept := range []string{"three #1", "four #1", "five #1"} {
		if !strings.Contains(content, kept) {
			t.Errorf("entry %q should have been kept", kept)
		}
	}
}

func TestFlushAccumulatesAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")

	l, err := Open(path, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Append("session one", "body", "", 1)
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	l, err = Open(path, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	l.Append("session two", "body", "", 1)
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "session one #1") || !strings.Contains(string(data), "session two #1") {
		t.Errorf("feed must accumulate across sessions:\n%s", data)
	}
}
