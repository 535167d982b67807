// Package session tracks a single conversation session: which target words the learner used
// and how confidently.
package session

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSessionLength = 15 * time.Minute
	// DefaultSuccessConfidence is the lowest confidence counted as a successful use of a word.
	DefaultSuccessConfidence = 0.7
)

// State is a step of the session lifecycle.
type State int

const (
	StateInactive State = iota
	StateActive
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config is fixed when the session starts.
type Config struct {
	// ID is generated when empty.
	ID          string
	Scenario    string
	Difficulty  string
	TargetWords []TargetWord
	// SessionLength defaults to DefaultSessionLength.
	SessionLength time.Duration
	// SuccessConfidence defaults to DefaultSuccessConfidence.
	SuccessConfidence float64
}

// WordUse is a target word found in a turn, with its performance after the turn.
type WordUse struct {
	Word        TargetWord
	Count       int
	Performance Performance
}

// TurnResult is what changed by recording one turn.
type TurnResult struct {
	MessageCount int
	WordsUsed    []WordUse
}

// Tracker is the state machine of one session: Inactive, Active, Paused and finally Ended.
// An ended tracker cannot be restarted.
type Tracker struct {
	now func() time.Time

	mu           sync.Mutex
	state        State
	config       Config
	startTime    time.Time
	endTime      time.Time
	messageCount int
	wordsUsed    map[string]int
	performance  map[string]Performance
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithClock sets the time source of the tracker.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start moves an inactive tracker to active with the config's target words.
func (t *Tracker) Start(cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInactive {
		return fmt.Errorf("%w: cannot start a %s session", ErrInvalidState, t.state)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = DefaultSessionLength
	}
	if cfg.SuccessConfidence <= 0 {
		cfg.SuccessConfidence = DefaultSuccessConfidence
	}
	cfg.TargetWords = slices.Clone(cfg.TargetWords)

	t.config = cfg
	t.startTime = t.now()
	t.wordsUsed = make(map[string]int)
	t.performance = make(map[string]Performance)
	t.state = StateActive
	slog.Default().Info("session started",
		"id", cfg.ID,
		"scenario", cfg.Scenario,
		"targetWords", len(cfg.TargetWords),
	)
	return nil
}

// RecordTurn counts every target word found in text, ignoring case.
// The message count is incremented once per turn even when no word is found.
func (t *Tracker) RecordTurn(text string, confidence float64) (TurnResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return TurnResult{}, ErrNoActiveSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyInput
	}
	confidence = clampConfidence(confidence)

	lower := strings.ToLower(text)
	var result TurnResult
	for _, word := range t.config.TargetWords {
		spanish := strings.ToLower(strings.TrimSpace(word.Spanish))
		if spanish == "" || !strings.Contains(lower, spanish) {
			continue
		}

		t.wordsUsed[word.ID]++
		perf := t.performance[word.ID]
		perf.Attempts++
		if confidence >= t.config.SuccessConfidence {
			perf.SuccessfulUses++
		}
		perf.AverageConfidence = (perf.AverageConfidence*float64(perf.Attempts-1) + confidence) / float64(perf.Attempts)
		t.performance[word.ID] = perf

		result.WordsUsed = append(result.WordsUsed, WordUse{
			Word:        word,
			Count:       t.wordsUsed[word.ID],
			Performance: perf,
		})
	}
	t.messageCount++
	result.MessageCount = t.messageCount
	return result, nil
}

func (t *Tracker) Pause() error {
	return t.transition(StateActive, StatePaused)
}

func (t *Tracker) Resume() error {
	return t.transition(StatePaused, StateActive)
}

func (t *Tracker) transition(from, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.state == from:
		t.state = to
		return nil
	case t.state == StateEnded:
		return ErrAlreadyEnded
	case t.state == StateInactive:
		return ErrNoActiveSession
	default:
		return fmt.Errorf("%w: session is %s", ErrInvalidState, t.state)
	}
}

// End finishes an active or paused session and returns its final record.
func (t *Tracker) End() (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateEnded:
		return Record{}, ErrAlreadyEnded
	case StateInactive:
		return Record{}, ErrNoActiveSession
	}

	t.endTime = t.now()
	t.state = StateEnded
	record := t.record()
	slog.Default().Info("session ended",
		"id", record.ID,
		"messages", record.MessageCount,
		"wordsUsed", len(record.WordsUsed),
	)
	return record, nil
}

// ShouldContinue reports whether the session is under its length and has at least one turn.
// It only advises; the caller decides whether to end the session.
func (t *Tracker) ShouldContinue(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive && t.state != StatePaused {
		return false
	}
	return now.Sub(t.startTime) < t.config.SessionLength && t.messageCount > 0
}

// Stats returns the progress of the session at now.
func (t *Tracker) Stats(now time.Time) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var duration time.Duration
	switch t.state {
	case StateInactive:
	case StateEnded:
		duration = t.endTime.Sub(t.startTime)
	default:
		duration = now.Sub(t.startTime)
	}
	return newStats(t.config.TargetWords, t.wordsUsed, t.messageCount, duration)
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Config returns the config the session was started with.
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfg := t.config
	cfg.TargetWords = slices.Clone(cfg.TargetWords)
	return cfg
}

func (t *Tracker) record() Record {
	r := Record{
		ID:              t.config.ID,
		Scenario:        t.config.Scenario,
		Difficulty:      t.config.Difficulty,
		TargetWords:     t.config.TargetWords,
		StartTime:       t.startTime,
		EndTime:         t.endTime,
		MessageCount:    t.messageCount,
		WordsUsed:       t.wordsUsed,
		UserPerformance: t.performance,
	}
	return r.clone()
}

func clampConfidence(confidence float64) float64 {
	if math.IsNaN(confidence) {
		return 0
	}
	return math.Max(0, math.Min(1, confidence))
}
