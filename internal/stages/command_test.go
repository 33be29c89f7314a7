package stages

import (
	"context"
	"strings"
	"testing"
	"time"

	"webwatch/internal/pipeline"
)

func TestCommandCapturesStdout(t *testing.T) {
	c := NewCommand("echo hello", pipeline.TypeText, "Echo", 0)

	items, err := c.Apply(context.Background(), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Content != "hello\n" {
		t.Errorf("content = %q", items[0].Content)
	}
	if items[0].Title != "Echo" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[0].ContentType != pipeline.TypeText {
		t.Errorf("content type = %q", items[0].ContentType)
	}
}

func TestCommandFailureCarriesStderr(t *testing.T) {
	c := NewCommand("echo broken >&2; exit 3", pipeline.TypeText, "", 0)

	_, err := c.Apply(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should carry stderr, got: %v", err)
	}
}

func TestCommandTimeout(t *testing.T) {
	c := NewCommand("sleep 5", pipeline.TypeText, "", 50*time.Millisecond)

	start := time.Now()
	_, err := c.Apply(context.Background(), nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("command was not killed at the timeout, ran %v", elapsed)
	}
}

func TestCommandUsesShell(t *testing.T) {
	c := NewCommand("echo a; echo b | tr b c", pipeline.TypeText, "", 0)

	items, err := c.Apply(context.Background(), nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if items[0].Content != "a\nc\n" {
		t.Errorf("content = %q, want shell semantics", items[0].Content)
	}
}
