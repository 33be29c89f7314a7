package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"webwatch/internal/config"
	"webwatch/internal/notify"
	"webwatch/internal/pipeline"
	"webwatch/internal/rss"
	"webwatch/internal/session"
	"webwatch/internal/storage"
	_ "webwatch/internal/storage/sqlite"
)

var (
	configPath = flag.String("config", "config.toml", "Path to configuration file")
	dryRun     = flag.String("dry-run", "", "Run a single source and print its items without touching state")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
	quiet      = flag.Bool("quiet", false, "Only log warnings and errors")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelWarn
	} else if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Configuration errors fail fast, before any source state is touched.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration error", "path", *configPath, "error", err)
		os.Exit(1)
	}

	sources, err := config.BuildSources(cfg)
	if err != nil {
		logger.Error("configuration error", "path", *configPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warn("received signal, cancelling session", "signal", sig.String())
		cancel()
	}()

	if *dryRun != "" {
		if err := runDry(ctx, sources, *dryRun); err != nil {
			logger.Error("dry run failed", "source", *dryRun, "error", err)
			os.Exit(1)
		}
		return
	}

	// A failed session is logged and best-effort reported by mail, but the
	// process still exits cleanly: one bad session must never crash
	// silently without at least attempting to alert.
	if err := run(ctx, cfg, sources, logger); err != nil {
		logger.Error("session failed", "error", err)
		notifyFatal(ctx, cfg, err)
	}
}

func run(ctx context.Context, cfg *config.Config, sources []session.Source, logger *slog.Logger) error {
	store, err := storage.New(cfg.Storage.Type, cfg.StoragePath())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	var notifier notify.Notifier
	if cfg.Mail.Enabled {
		smtp, err := notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			UseTLS:   cfg.Mail.UseTLS,
			Sender:   cfg.Mail.Sender,
		})
		if err != nil {
			return fmt.Errorf("mail transport: %w", err)
		}
		defer smtp.Close()
		notifier = smtp
	}

	var feed *rss.Log
	if cfg.Feed.Enabled {
		feed, err = rss.Open(cfg.FeedPath(), cfg.Feed.MaxEntries)
		if err != nil {
			return fmt.Errorf("feed log: %w", err)
		}
	}

	orchestrator := session.New(session.Options{
		Store:            store,
		Notifier:         notifier,
		Feed:             feed,
		MaxNotifications: cfg.Mail.MaxPerSession,
		DefaultReceiver:  cfg.Mail.Receiver,
		Logger:           logger,
	})

	report := orchestrator.Run(ctx, sources)

	if feed != nil {
		if err := feed.Flush(); err != nil {
			return err
		}
	}

	failed := 0
	for _, outcome := range report.Outcomes {
		if outcome.Failure != session.FailureNone {
			failed++
		}
	}
	logger.Info("session complete",
		"sources", len(report.Outcomes),
		"failed", failed,
		"notifications", report.Notified)
	return nil
}

// runDry executes one source's pipeline and prints the result, touching
// neither fingerprints nor snapshots.
func runDry(ctx context.Context, sources []session.Source, name string) error {
	for _, src := range sources {
		if src.Name != name {
			continue
		}

		items, err := pipeline.Run(ctx, src.Stages, nil)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Printf("title: %s\n", it.Title)
			fmt.Printf("content: %s\n", it.Content)
		}
		fmt.Printf("%d results\n", len(items))
		return nil
	}
	return fmt.Errorf("source %q not found in configuration", name)
}

// notifyFatal mails the operator about a failed session, best effort.
func notifyFatal(ctx context.Context, cfg *config.Config, cause error) {
	if !cfg.Mail.Enabled || cfg.Mail.Receiver == "" {
		return
	}

	smtp, err := notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		UseTLS:   cfg.Mail.UseTLS,
		Sender:   cfg.Mail.Sender,
	})
	if err != nil {
		slog.Error("fatal-error mail setup failed", "error", err)
		return
	}
	defer smtp.Close()

	err = smtp.Send(ctx, notify.Notification{
		Recipients: []string{cfg.Mail.Receiver},
		Subject:    "[webwatch] Something went wrong ...",
		Body:       cause.Error(),
	})
	if err != nil {
		slog.Error("fatal-error mail failed", "error", err)
	}
}
