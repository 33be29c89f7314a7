package stages

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"webwatch/internal/pipeline"
)

// Command runs a shell command and produces one item from its stdout.
// Like Fetch it is a fetcher and discards any incoming items.
type Command struct {
	command     string
	contentType pipeline.ContentType
	title       string
	timeout     time.Duration
}

func NewCommand(command string, contentType pipeline.ContentType, title string, timeout time.Duration) *Command {
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	return &Command{
		command:     command,
		contentType: contentType,
		title:       title,
		timeout:     timeout,
	}
}

func (c *Command) Name() string        { return "command" }
func (c *Command) Kind() pipeline.Kind { return pipeline.KindFetcher }

func (c *Command) Apply(ctx context.Context, _ []pipeline.Item) ([]pipeline.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", c.command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("run %q: %w: %s", c.command, err, msg)
		}
		return nil, fmt.Errorf("run %q: %w", c.command, err)
	}

	return []pipeline.Item{{
		Title:       c.title,
		Content:     stdout.String(),
		ContentType: c.contentType,
		Encoding:    pipeline.DefaultEncoding,
	}}, nil
}
