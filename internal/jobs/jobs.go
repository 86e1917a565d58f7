package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xyz-asif/habitstreak/internal/features/habits"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	"github.com/xyz-asif/habitstreak/internal/pkg/mailer"
)

// Scheduler runs background jobs on cron schedules in the streak timezone
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
	}
}

// Add registers job under a standard 5-field cron spec
func (s *Scheduler) Add(spec string, name string, job cron.Job) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	logger.Info("Scheduled %s: %s", name, spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Scheduler stopped")
}

// cronLogger adapts the package logger to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Default().Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, append(keysAndValues, "err", err)...)
}

type streakRefresher interface {
	RefreshStreaks(ctx context.Context) (int, error)
}

// StreakRefresher rewrites stored streaks that lapsed since the last completion
type StreakRefresher struct {
	service streakRefresher
	timeout time.Duration
}

func NewStreakRefresher(service streakRefresher) *StreakRefresher {
	return &StreakRefresher{service: service, timeout: 5 * time.Minute}
}

func (j *StreakRefresher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	updated, err := j.service.RefreshStreaks(ctx)
	if err != nil {
		logger.Error("Streak refresh failed after %d update(s): %v", updated, err)
		return
	}
	logger.Info("Streak refresh updated %d habit(s) in %s", updated, time.Since(start).Round(time.Millisecond))
}

type reminderSource interface {
	DueReminders(ctx context.Context, at time.Time) ([]*habits.Habit, error)
}

type reminderSender interface {
	SendReminder(r mailer.Reminder) error
}

// ReminderDispatcher e-mails owners whose habit reminder is due this minute
type ReminderDispatcher struct {
	service     reminderSource
	sender      reminderSender
	frontendURL string
	now         func() time.Time
}

func NewReminderDispatcher(service reminderSource, sender reminderSender, frontendURL string) *ReminderDispatcher {
	return &ReminderDispatcher{
		service:     service,
		sender:      sender,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

func (j *ReminderDispatcher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()

	sent, err := j.Dispatch(ctx, j.now())
	if err != nil {
		logger.Error("Reminder dispatch failed: %v", err)
		return
	}
	if sent > 0 {
		logger.Info("Sent %d reminder(s)", sent)
	}
}

// Dispatch sends reminders due at the minute of at and returns how many went out.
// A failed e-mail is logged and skipped.
func (j *ReminderDispatcher) Dispatch(ctx context.Context, at time.Time) (int, error) {
	due, err := j.service.DueReminders(ctx, at.Truncate(time.Minute))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, h := range due {
		r := mailer.Reminder{
			To:           h.OwnerEmail,
			Name:         h.OwnerName,
			HabitTitle:   h.Title,
			ReminderTime: h.ReminderTime,
			Streak:       h.CurrentStreak,
		}
		if j.frontendURL != "" {
			r.HabitURL = fmt.Sprintf("%s/habits/%s", j.frontendURL, h.ID.Hex())
		}

		if err := j.sender.SendReminder(r); err != nil {
			logger.Warn("Reminder for habit %s not sent: %v", h.ID.Hex(), err)
			continue
		}
		sent++
	}
	return sent, nil
}
