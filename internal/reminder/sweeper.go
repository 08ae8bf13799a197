// Package reminder notifies users about their incomplete tasks that are due soon.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"taskboard/internal/metrics"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

// DefaultWindow is how far ahead of now a task's due date may be to trigger a reminder.
const DefaultWindow = 24 * time.Hour

// DueTaskLister returns incomplete tasks of all owners due within [from, to].
type DueTaskLister interface {
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)
}

// UserFinder loads a task owner.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Result summarises one sweep.
type Result struct {
	Due    int
	Sent   int
	Failed int
}

// Sweeper scans for soon-due tasks and sends one reminder per task to its owner.
type Sweeper struct {
	tasks    DueTaskLister
	users    UserFinder
	notifier notify.Notifier
	clock    clockwork.Clock
	window   time.Duration
	logger   *zap.Logger
	metrics  metrics.Recorder
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock replaces the real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Sweeper) { s.clock = clock }
}

// WithWindow sets the look-ahead window. Non-positive values are ignored.
func WithWindow(window time.Duration) Option {
	return func(s *Sweeper) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithMetrics records sweep outcomes on rec.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Sweeper) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// NewSweeper creates a Sweeper.
func NewSweeper(tasks DueTaskLister, users UserFinder, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		window:   DefaultWindow,
		logger:   logger,
		metrics:  (*metrics.Collector)(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce performs one sweep. A failed send or a missing owner is logged and
// counted, and the sweep moves on to the next task. Nothing is retried.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	start := s.clock.Now()
	now := start.UTC()

	tasks, err := s.tasks.ListDueBetween(ctx, now, now.Add(s.window))
	if err != nil {
		err = fmt.Errorf("list due tasks: %w", err)
		s.metrics.RecordSweep(s.clock.Since(start), err)
		return Result{}, err
	}

	var res Result
	owners := make(map[string]*model.User)
	for i := range tasks {
		task := &tasks[i]
		if task.Status == model.TaskStatusCompleted || task.DueDate == nil {
			continue
		}
		res.Due++

		owner, err := s.owner(ctx, owners, task.UserID)
		if err != nil {
			res.Failed++
			s.metrics.RecordReminderFailed("owner")
			s.logger.Warn("skip reminder, owner not resolved",
				zap.String("task_id", task.ID),
				zap.String("user_id", task.UserID),
				zap.Error(err),
			)
			continue
		}

		if err := s.notifier.Send(ctx, Reminder(owner, task)); err != nil {
			res.Failed++
			s.metrics.RecordReminderFailed("send")
			s.logger.Error("send reminder",
				zap.String("task_id", task.ID),
				zap.String("to", owner.Email),
				zap.Error(err),
			)
			continue
		}
		res.Sent++
		s.metrics.RecordReminderSent()
	}

	s.metrics.RecordSweep(s.clock.Since(start), nil)
	s.logger.Info("reminder sweep finished",
		zap.Int("due", res.Due),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *Sweeper) owner(ctx context.Context, seen map[string]*model.User, id string) (*model.User, error) {
	if u, ok := seen[id]; ok {
		if u == nil {
			return nil, repository.ErrNotFound
		}
		return u, nil
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			seen[id] = nil
		}
		return nil, err
	}
	seen[id] = u
	return u, nil
}

var reminderHTML = template.Must(template.New("reminder").Parse(
	`<p>Your task <strong>{{.Title}}</strong> is due on {{.Due}}.</p>`,
))

// Reminder builds the notification for task addressed to its owner.
func Reminder(owner *model.User, task *model.Task) notify.Message {
	due := task.DueDate.UTC().Format(time.RFC1123)
	msg := notify.Message{
		To:      owner.Email,
		Subject: "Reminder: " + task.Title,
		Body:    "Due on " + due,
	}

	var html strings.Builder
	if err := reminderHTML.Execute(&html, struct{ Title, Due string }{task.Title, due}); err == nil {
		msg.HTML = html.String()
	}
	return msg
}
