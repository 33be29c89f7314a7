// Package session drives one complete pass over all configured sources:
// run each source's pipeline, classify its output against stored
// fingerprints, dispatch budgeted notifications for new content and
// persist per-source state the moment that source finishes.
package session

import (
	"context"
	"errors"
	"log/slog"

	"webwatch/internal/detect"
	"webwatch/internal/diffmode"
	"webwatch/internal/notify"
	"webwatch/internal/pipeline"
	"webwatch/internal/rss"
	"webwatch/internal/storage"
)

// FailureKind labels what went wrong with a source, matching the error
// taxonomy: retrieval failures isolate the source, persistence failures
// abort its remaining steps, post-run failures stop only the remaining
// sinks of that source.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureRetrieval
	FailurePersistence
	FailurePostRun
)

// Outcome is the terminal state of one source within a session.
type Outcome struct {
	Source    string
	Failure   FailureKind
	Err       error
	NewItems  int
	Unchanged int
	Notified  int
	FirstRun  bool
}

// Report summarizes a whole session.
type Report struct {
	Outcomes []Outcome
	Notified int
}

// Options wires an orchestrator. Notifier and Feed may be nil to disable
// mail notifications or the feed log.
type Options struct {
	Store            storage.Store
	Notifier         notify.Notifier
	Feed             *rss.Log
	MaxNotifications int
	DefaultReceiver  string
	Logger           *slog.Logger
}

type Orchestrator struct {
	store    storage.Store
	detector *detect.Detector
	differ   *diffmode.Engine
	notifier notify.Notifier
	feed     *rss.Log
	budget   *Budget
	receiver string
	logger   *slog.Logger
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    opts.Store,
		detector: detect.New(opts.Store),
		differ:   diffmode.New(opts.Store),
		notifier: opts.Notifier,
		feed:     opts.Feed,
		budget:   NewBudget(opts.MaxNotifications),
		receiver: opts.DefaultReceiver,
		logger:   logger,
	}
}

// Run processes every source in order. Outcomes are independent: no
// failure in one source prevents any other from being processed and
// persisted in the same session.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) Report {
	report := Report{}

	for _, src := range sources {
		outcome := o.runSource(ctx, src)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.Notified = o.budget.Used()
	return report
}

func (o *Orchestrator) runSource(ctx context.Context, src Source) Outcome {
	outcome := Outcome{Source: src.Name}
	o.logger.Debug("polling source", "source", src.Name)

	items, err := pipeline.Run(ctx, src.Stages, nil)
	if err != nil {
		// Retrieval failure: warn, leave this source's state untouched
		// and move on.
		o.logger.Warn("pipeline failed", "source", src.Name, "error", err)
		o.notifyWarning(ctx, src, err)
		outcome.Failure = FailureRetrieval
		outcome.Err = err
		return outcome
	}

	res, err := o.detector.Classify(ctx, src.Name, items, src.KeepAllHashes)
	if err != nil {
		if errors.Is(err, detect.ErrBadContent) {
			// Content the detector cannot digest is a retrieval problem:
			// warn the operator like a failed pipeline.
			o.logger.Warn("classification failed", "source", src.Name, "error", err)
			o.notifyWarning(ctx, src, err)
			outcome.Failure = FailureRetrieval
		} else {
			o.logger.Error("classification failed", "source", src.Name, "error", err)
			outcome.Failure = FailurePersistence
		}
		outcome.Err = err
		return outcome
	}
	outcome.NewItems = len(res.New)
	outcome.Unchanged = res.Unchanged
	outcome.FirstRun = res.FirstRun

	receiver := src.Receiver
	if receiver == "" {
		receiver = o.receiver
	}

	for i, item := range res.New {
		subject := "[" + src.Name + "] "
		if item.Title != "" {
			subject += item.Title
		} else {
			subject += "Update available"
		}

		display := item.Content
		sendHTML := item.ContentType == pipeline.TypeHTML
		if src.Diff {
			diff, derr := o.differ.DiffAndStore(ctx, src.Name, item.Content)
			if derr != nil {
				// Diff storage is decoupled from fingerprint bookkeeping;
				// fall back to the full content.
				o.logger.Error("diff failed", "source", src.Name, "error", derr)
			} else {
				display = diff
				sendHTML = false
			}
		}

		o.logger.Info("change detected", "source", src.Name, "subject", subject)

		if o.notifier != nil && !res.FirstRun {
			recipients := append([]string{receiver}, item.ExtraRecipients...)
			if o.dispatch(ctx, notify.Notification{
				Recipients: recipients,
				Subject:    subject,
				Body:       display,
				HTML:       sendHTML,
				Link:       item.URI,
				Encoding:   item.Encoding,
			}) {
				outcome.Notified++
			}
		}

		if o.feed != nil {
			o.feed.Append(subject, display, item.URI, i+1)
		}
	}

	if res.FirstRun && len(res.New) > 0 {
		o.logger.Info("recording baseline, notifications suppressed",
			"source", src.Name, "items", len(res.New))
	}

	if len(res.New) > 0 && len(src.PostRun) > 0 {
		if _, err := pipeline.Run(ctx, src.PostRun, res.New); err != nil {
			// Stops the remaining post-run sinks for this source only;
			// fingerprints are still committed below.
			o.logger.Error("post-run failed", "source", src.Name, "error", err)
			outcome.Failure = FailurePostRun
			outcome.Err = err
		}
	}

	if err := o.detector.Commit(ctx, src.Name, res); err != nil {
		o.logger.Error("persist failed", "source", src.Name, "error", err)
		outcome.Failure = FailurePersistence
		outcome.Err = err
		return outcome
	}

	if len(res.New) > 0 {
		o.logger.Info("source updated", "source", src.Name, "updates", len(res.New))
	}
	return outcome
}

// notifyWarning reports a failed source. It consumes budget like any other
// dispatch and lands in the feed with sequence 0.
func (o *Orchestrator) notifyWarning(ctx context.Context, src Source, cause error) {
	subject := "[" + src.Name + "] WARNING"

	if o.notifier != nil {
		receiver := src.Receiver
		if receiver == "" {
			receiver = o.receiver
		}
		o.dispatch(ctx, notify.Notification{
			Recipients: []string{receiver},
			Subject:    subject,
			Body:       cause.Error(),
		})
	}

	if o.feed != nil {
		o.feed.Append(subject, cause.Error(), "", 0)
	}
}

// dispatch sends one notification under the budget. Transport failures are
// logged, hand their budget slot back and never abort the session.
func (o *Orchestrator) dispatch(ctx context.Context, n notify.Notification) bool {
	if !o.budget.Acquire() {
		o.logger.Debug("notification budget exhausted", "subject", n.Subject)
		return false
	}

	if err := o.notifier.Send(ctx, n); err != nil {
		o.logger.Error("notification failed", "subject", n.Subject, "error", err)
		o.budget.Release()
		return false
	}
	return true
}
