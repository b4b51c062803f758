package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/referral/internal/bot"
	"github.com/go-scripts/referral/internal/browser"
	"github.com/go-scripts/referral/internal/config"
	"github.com/go-scripts/referral/internal/connections"
	"github.com/go-scripts/referral/internal/logging"
	"github.com/go-scripts/referral/internal/message"
	"github.com/go-scripts/referral/internal/outreach"
	"github.com/go-scripts/referral/internal/pacing"
	"github.com/go-scripts/referral/internal/progress"
	"github.com/go-scripts/referral/internal/session"
	"github.com/go-scripts/referral/internal/site"
	"github.com/go-scripts/referral/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		return 1
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		return 1
	}

	tmpl, err := message.Load(cfg.MessagePath())
	if err != nil {
		logger.Error("Failed to load message", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chrome, err := browser.Launch(browser.Options{
		UserDataDir: cfg.UserDataPath(),
		Headless:    cfg.Headless,
		ExecPath:    cfg.ChromePath,
		Logger:      logger.WithPrefix("chrome"),
	})
	if err != nil {
		logger.Error("Failed to launch browser", "err", err)
		return 1
	}

	li := site.LinkedIn()
	pacer := pacing.New()
	success := tracker.NewRecord(cfg.SuccessRecordPath())
	failures := tracker.NewRecord(cfg.FailureRecordPath())

	b := bot.New(bot.Config{
		Session: session.New(chrome, li, session.Credentials{
			Email:    cfg.Email,
			Password: cfg.Password,
		}, logger.WithPrefix("session")),
		Scraper: connections.New(chrome, li, pacer, cfg.ScrollPasses, logger.WithPrefix("connections")),
		Sender: outreach.New(chrome, li, pacer, outreach.Options{
			Template:    tmpl,
			ResumePath:  cfg.ResumePath(),
			Failures:    failures,
			StepTimeout: cfg.StepTimeout,
		}, logger.WithPrefix("outreach")),
		Browser:  chrome,
		Success:  success,
		Failures: failures,
		Pacer:    pacer,
		Progress: progress.New(os.Stderr),
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
		Logger:   logger,
	})

	if err := b.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted, tracking files saved")
			return 130
		}
		if errors.Is(err, session.ErrChallenge) {
			fmt.Fprintln(os.Stderr, "Complete the LinkedIn verification in the browser, then run again.")
		}
		logger.Error("Bot failed", "err", err)
		return 1
	}
	return 0
}
