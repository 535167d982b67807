// Package reminder periodically reports how many vocabulary words are due for review.
package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

const (
	DefaultEvery = time.Hour
	// previewLimit is the number of due words listed in a reminder.
	previewLimit = 5
)

// DueSource is the part of vocabulary.Manager the scheduler needs.
// Load is called on every check so changes from other processes are picked up.
type DueSource interface {
	Load(ctx context.Context) error
	DueForReview(limit int) []vocabulary.Item
}

// Reminder is one report of words due for review.
type Reminder struct {
	At  time.Time
	Due int
	// Preview is the most urgent due words.
	Preview []vocabulary.Item
}

type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

// WriterNotifier prints reminders as a line of text.
type WriterNotifier struct {
	Writer io.Writer
}

func (n WriterNotifier) Notify(_ context.Context, reminder Reminder) error {
	words := make([]string, 0, len(reminder.Preview))
	for _, item := range reminder.Preview {
		words = append(words, item.Spanish)
	}
	_, err := fmt.Fprintf(n.Writer, "[%s] %d word(s) due for review: %s\n",
		reminder.At.Format("2006-01-02 15:04"),
		reminder.Due,
		strings.Join(words, ", "),
	)
	return err
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	source    DueSource
	notifier  Notifier
	every     time.Duration
	now       func() time.Time
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler that checks every interval. A non-positive interval uses DefaultEvery.
func New(source DueSource, notifier Notifier, every time.Duration, opts ...Option) *Scheduler {
	if every <= 0 {
		every = DefaultEvery
	}
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		every:     every,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check reloads the vocabulary and notifies when any word is due.
func (s *Scheduler) Check(ctx context.Context) (Reminder, error) {
	if err := s.source.Load(ctx); err != nil {
		return Reminder{}, fmt.Errorf("source.Load() > %w", err)
	}

	due := s.source.DueForReview(0)
	reminder := Reminder{At: s.now(), Due: len(due)}
	if len(due) == 0 {
		slog.Default().Debug("no words due for review")
		return reminder, nil
	}
	reminder.Preview = due[:min(len(due), previewLimit)]

	if err := s.notifier.Notify(ctx, reminder); err != nil {
		return reminder, fmt.Errorf("notifier.Notify() > %w", err)
	}
	return reminder, nil
}

// Start runs the first check right away and then one every interval until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.every).SingletonMode().Do(func() {
		if _, err := s.Check(ctx); err != nil {
			slog.Default().Warn("review reminder failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler.Do() > %w", err)
	}
	s.scheduler.StartAsync()
	slog.Default().Info("review reminders started", "every", s.every)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
