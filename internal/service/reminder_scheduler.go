package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"solarops/internal/port"
)

// ReminderConfig holds settings for the pending-review digest.
type ReminderConfig struct {
	Schedule   string
	StaleAfter time.Duration
	Recipient  string
	BaseURL    string
}

// ReminderScheduler emails a digest of records left pending too long.
type ReminderScheduler struct {
	repo     port.RecordRepository
	notifier port.Notifier
	cfg      ReminderConfig
	cron     *cron.Cron
	now      func() time.Time
}

// NewReminderScheduler validates the cron schedule and registers the digest job.
func NewReminderScheduler(repo port.RecordRepository, notifier port.Notifier, cfg ReminderConfig) (*ReminderScheduler, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid reminder schedule %q", cfg.Schedule)
	}
	s := &ReminderScheduler{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		cron:     cron.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			zap.L().Error("reminderScheduler: digest failed", zap.Error(err))
		}
	}))
	return s, nil
}

// Start runs the cron loop until ctx is canceled and waits for a running job.
func (s *ReminderScheduler) Start(ctx context.Context) {
	zap.L().Info("reminderScheduler: started",
		zap.String("schedule", s.cfg.Schedule), zap.Duration("stale_after", s.cfg.StaleAfter))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	zap.L().Info("reminderScheduler: stopped")
}

// RunOnce sends one digest if any record is stale and reports how many were listed.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.StaleAfter)
	stale, err := s.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "listing stale records")
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString("Hi,\n\nThe following files are still awaiting review:\n\n")
	for i := range stale {
		age := s.now().Sub(stale[i].Timestamp).Truncate(time.Hour)
		fmt.Fprintf(&b, "- %s (waiting %s, confidence %d%%)\n  %s\n",
			stale[i].Filename, age, stale[i].Confidence, AuditURL(s.cfg.BaseURL, stale[i].Filename))
	}
	b.WriteString("\nThank you,\nSolarOps\n")

	subject := fmt.Sprintf("[SolarOps] %d file(s) awaiting review", len(stale))
	if err := s.notifier.Notify(ctx, s.cfg.Recipient, subject, b.String()); err != nil {
		return 0, eris.Wrap(err, "sending reminder digest")
	}
	zap.L().Info("reminderScheduler: digest sent", zap.Int("records", len(stale)))
	return len(stale), nil
}
