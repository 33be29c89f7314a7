// Package rss maintains the bounded feed file that mirrors what a session
// notified about. Existing entries are reloaded at session start so the
// feed survives across invocations; the oldest entries fall off once the
// configured cap is exceeded.
package rss

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
)

const (
	feedTitle       = "webwatch feed"
	feedDescription = "Content change notifications"
	feedLink        = "https://github.com/webwatch/webwatch"
)

type Log struct {
	path    string
	max     int
	entries []*feeds.Item
}

// Open loads the feed file if it exists; a missing file starts an empty
// log. max caps the number of retained entries.
func Open(path string, max int) (*Log, error) {
	l := &Log{path: path, max: max}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feed log: open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("feed log: parse %s: %w", path, err)
	}

	for _, entry := range parsed.Items {
		item := &feeds.Item{
			Title:       entry.Title,
			Description: entry.Description,
			Id:          entry.GUID,
		}
		if entry.Link != "" {
			item.Link = &feeds.Link{Href: entry.Link}
		}
		if entry.PublishedParsed != nil {
			item.Created = *entry.PublishedParsed
		}
		l.entries = append(l.entries, item)
	}

	return l, nil
}

// Append adds one entry. seq numbers the change within its source's run
// and shows up in the title, matching the notification subject.
func (l *Log) Append(subject, body, link string, seq int) {
	item := &feeds.Item{
		Title:       fmt.Sprintf("%s #%d", subject, seq),
		Description: body,
		Id:          fmt.Sprintf("%d", rand.Uint32()),
		Created:     time.Now(),
	}
	if link != "" {
		item.Link = &feeds.Link{Href: link}
	}
	l.entries = append(l.entries, item)
}

// Len reports the number of entries currently held.
func (l *Log) Len() int { return len(l.entries) }

// Flush trims the log to its cap (dropping oldest first) and rewrites the
// feed file atomically.
func (l *Log) Flush() error {
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}

	feed := &feeds.Feed{
		Title:       feedTitle,
		Link:        &feeds.Link{Href: feedLink},
		Description: feedDescription,
		Created:     time.Now(),
		Items:       l.entries,
	}

	xml, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("feed log: serialize: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("feed log: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(xml); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("feed log: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("feed log: close temp: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("feed log: replace %s: %w", l.path, err)
	}
	return nil
}
