// Package notify carries change notifications out of a session. The
// orchestrator only sees the Notifier interface; the SMTP transport
// behind it is session plumbing.
package notify

import "context"

// Notification is one outbound message.
type Notification struct {
	Recipients []string
	Subject    string
	Body       string
	HTML       bool
	// Link is the origin locator of the item, woven into the body.
	Link string
	// Encoding names the charset of the original content; transports may
	// normalize to UTF-8.
	Encoding string
}

// Notifier dispatches notifications. Implementations hold any long-lived
// transport state; Close releases it at session end.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	Close() error
}

// Recorder collects notifications instead of sending them. Used by tests
// and dry runs.
type Recorder struct {
	Sent []Notification
}

func (r *Recorder) Send(ctx context.Context, n Notification) error {
	r.Sent = append(r.Sent, n)
	return nil
}

func (r *Recorder) Close() error { return nil }
