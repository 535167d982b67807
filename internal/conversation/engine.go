// Package conversation runs a tutoring session: it picks the target words, talks to the
// dialogue generator, tracks word usage and schedules reviews when the session ends.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/at-ishikawa/hablabot/internal/assets"
	"github.com/at-ishikawa/hablabot/internal/inference"
	"github.com/at-ishikawa/hablabot/internal/session"
	"github.com/at-ishikawa/hablabot/internal/storage"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

const (
	// DefaultHistoryLimit is the number of recent non-system messages sent to the generator.
	DefaultHistoryLimit = 20
	// DefaultNudgeEvery is the number of turns between hints about unused target words.
	DefaultNudgeEvery = 3
)

var ErrSessionInProgress = errors.New("a session is already in progress")

// Vocabulary is the part of vocabulary.Manager the engine needs.
type Vocabulary interface {
	SelectSessionWords(opts vocabulary.SelectionOptions) []vocabulary.Item
	RecordReview(ctx context.Context, id string, quality float64) (vocabulary.Item, error)
}

// StartOptions configures a new session.
type StartOptions struct {
	Scenario   string
	Difficulty vocabulary.DifficultyTier
	MaxWords   int
	Topic      string
	// PrioritizeReview defaults to true when nil.
	PrioritizeReview  *bool
	SessionLength     time.Duration
	SuccessConfidence float64
}

// Opening is the first tutor message of a session.
type Opening struct {
	SessionID   string
	Message     string
	TargetWords []session.TargetWord
}

// Reply is the tutor's answer to one user turn.
type Reply struct {
	Message   string
	WordsUsed []session.WordUse
	Quality   float64
	// Nudge is a hint to use a target word not used yet, or empty.
	Nudge string
	Stats session.Stats
}

// ReviewOutcome is the review scheduled for a word used in the session.
type ReviewOutcome struct {
	Word    session.TargetWord
	Quality float64
	Item    vocabulary.Item
}

// Summary is the result of ending a session.
type Summary struct {
	Record  session.Record
	Stats   session.Stats
	Reviews []ReviewOutcome
}

type Engine struct {
	client    inference.Client
	vocab     Vocabulary
	sessions  storage.Store[session.Record]
	catalog   *assets.Catalog
	estimator session.QualityEstimator

	templatePath string
	historyLimit int
	nudgeEvery   int
	now          func() time.Time
	rnd          *rand.Rand

	mu        sync.Mutex
	tracker   *session.Tracker
	system    inference.Message
	history   []inference.Message
	qualities map[string][]float64
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithRand(rnd *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rnd = rnd
	}
}

func WithEstimator(estimator session.QualityEstimator) EngineOption {
	return func(e *Engine) {
		e.estimator = estimator
	}
}

// WithPromptTemplate renders the system prompt from the template file instead of the embedded one.
func WithPromptTemplate(path string) EngineOption {
	return func(e *Engine) {
		e.templatePath = path
	}
}

func WithHistoryLimit(limit int) EngineOption {
	return func(e *Engine) {
		e.historyLimit = limit
	}
}

// WithNudgeEvery sets the number of turns between nudges. 0 disables them.
func WithNudgeEvery(turns int) EngineOption {
	return func(e *Engine) {
		e.nudgeEvery = turns
	}
}

func NewEngine(
	client inference.Client,
	vocab Vocabulary,
	sessions storage.Store[session.Record],
	catalog *assets.Catalog,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		client:       client,
		vocab:        vocab,
		sessions:     sessions,
		catalog:      catalog,
		estimator:    session.ConfidenceEstimator{},
		historyLimit: DefaultHistoryLimit,
		nudgeEvery:   DefaultNudgeEvery,
		now:          time.Now,
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start selects the target words and opens a new session with a scenario greeting.
func (e *Engine) Start(ctx context.Context, opts StartOptions) (Opening, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracker != nil {
		if state := e.tracker.State(); state == session.StateActive || state == session.StatePaused {
			return Opening{}, ErrSessionInProgress
		}
	}

	level := string(vocabulary.ParseDifficultyTier(string(opts.Difficulty)))
	items := e.vocab.SelectSessionWords(vocabulary.SelectionOptions{
		MaxWords:         opts.MaxWords,
		DifficultyTier:   opts.Difficulty,
		Topic:            opts.Topic,
		PrioritizeReview: opts.PrioritizeReview,
	})
	targets := make([]session.TargetWord, 0, len(items))
	for _, item := range items {
		targets = append(targets, session.TargetWord{ID: item.ID, Spanish: item.Spanish, English: item.English})
	}

	systemPrompt, err := e.systemPrompt(opts.Scenario, level, targets)
	if err != nil {
		return Opening{}, fmt.Errorf("systemPrompt() > %w", err)
	}

	tracker := session.NewTracker(session.WithClock(e.now))
	if err := tracker.Start(session.Config{
		Scenario:          opts.Scenario,
		Difficulty:        level,
		TargetWords:       targets,
		SessionLength:     opts.SessionLength,
		SuccessConfidence: opts.SuccessConfidence,
	}); err != nil {
		return Opening{}, fmt.Errorf("tracker.Start() > %w", err)
	}

	opening := e.catalog.Starter(opts.Scenario, level, e.rnd)
	e.tracker = tracker
	e.system = inference.Message{Role: inference.RoleSystem, Content: systemPrompt}
	e.history = []inference.Message{{Role: inference.RoleAssistant, Content: opening}}
	e.qualities = make(map[string][]float64)

	return Opening{
		SessionID:   tracker.Config().ID,
		Message:     opening,
		TargetWords: targets,
	}, nil
}

func (e *Engine) systemPrompt(scenarioName, levelName string, targets []session.TargetWord) (string, error) {
	data := assets.SystemPrompt{}
	if scenario, ok := e.catalog.Scenario(scenarioName); ok {
		data.Scenario = &scenario
	}
	if level, ok := e.catalog.Level(levelName); ok {
		data.Level = &level
	}
	for _, target := range targets {
		data.TargetWords = append(data.TargetWords, assets.PromptWord{Spanish: target.Spanish, English: target.English})
	}

	var b strings.Builder
	if err := assets.WriteSystemPrompt(&b, e.templatePath, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Respond records the user's turn and asks the generator for the tutor's answer.
// The turn is counted even when the generator fails.
func (e *Engine) Respond(ctx context.Context, text string, confidence float64) (Reply, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracker == nil {
		return Reply{}, session.ErrNoActiveSession
	}
	cleaned := NormalizeInput(text)
	result, err := e.tracker.RecordTurn(cleaned, confidence)
	if err != nil {
		return Reply{}, err
	}

	quality := e.estimator.EstimateQuality(session.Utterance{
		Text:            cleaned,
		Confidence:      confidence,
		TargetWordsUsed: len(result.WordsUsed),
	})
	for _, use := range result.WordsUsed {
		e.qualities[use.Word.ID] = append(e.qualities[use.Word.ID], quality)
	}
	e.history = append(e.history, inference.Message{Role: inference.RoleUser, Content: cleaned})

	response, err := e.client.Chat(ctx, inference.ChatRequest{Messages: e.messages()})
	if err != nil {
		return Reply{}, fmt.Errorf("client.Chat() > %w", err)
	}
	e.history = append(e.history, inference.Message{Role: inference.RoleAssistant, Content: response.Content})

	stats := e.tracker.Stats(e.now())
	reply := Reply{
		Message:   response.Content,
		WordsUsed: result.WordsUsed,
		Quality:   quality,
		Stats:     stats,
	}
	if e.nudgeEvery > 0 && result.MessageCount%e.nudgeEvery == 0 && len(stats.UnusedWords) > 0 {
		word := stats.UnusedWords[e.rnd.IntN(len(stats.UnusedWords))]
		nudge, err := e.catalog.Nudge(assets.PromptWord{Spanish: word.Spanish, English: word.English}, e.rnd)
		if err != nil {
			slog.Default().Warn("failed to render a nudge", "word", word.Spanish, "error", err)
		}
		reply.Nudge = nudge
	}
	return reply, nil
}

// messages returns the system prompt followed by the most recent history.
func (e *Engine) messages() []inference.Message {
	recent := e.history
	if e.historyLimit > 0 && len(recent) > e.historyLimit {
		recent = recent[len(recent)-e.historyLimit:]
	}
	messages := make([]inference.Message, 0, len(recent)+1)
	messages = append(messages, e.system)
	return append(messages, recent...)
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracker == nil {
		return session.ErrNoActiveSession
	}
	return e.tracker.Pause()
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracker == nil {
		return session.ErrNoActiveSession
	}
	return e.tracker.Resume()
}

// ShouldContinue reports whether the session is within its length and has started talking.
func (e *Engine) ShouldContinue() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker != nil && e.tracker.ShouldContinue(e.now())
}

func (e *Engine) Stats() session.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracker == nil {
		return session.Stats{}
	}
	return e.tracker.Stats(e.now())
}

// Transcript returns the conversation so far without the system prompt.
func (e *Engine) Transcript() []session.Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return transcript(e.history)
}

// End finishes the session, schedules a review for every word used and stores the record.
// Words deleted during the session are skipped. The record is stored even when a review fails.
func (e *Engine) End(ctx context.Context) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracker == nil {
		return Summary{}, session.ErrNoActiveSession
	}
	record, err := e.tracker.End()
	if err != nil {
		return Summary{}, err
	}
	record.Transcript = transcript(e.history)

	summary := Summary{Record: record, Stats: record.Stats()}
	var errs []error
	for _, word := range record.TargetWords {
		qualities := e.qualities[word.ID]
		if record.WordsUsed[word.ID] == 0 || len(qualities) == 0 {
			continue
		}

		quality := mean(qualities)
		item, err := e.vocab.RecordReview(ctx, word.ID, quality)
		if err != nil {
			if errors.Is(err, vocabulary.ErrNotFound) {
				slog.Default().Info("skipped review of a removed word", "id", word.ID, "spanish", word.Spanish)
				continue
			}
			errs = append(errs, fmt.Errorf("vocab.RecordReview(%s) > %w", word.ID, err))
			continue
		}
		summary.Reviews = append(summary.Reviews, ReviewOutcome{Word: word, Quality: quality, Item: item})
	}

	if err := e.sessions.Put(ctx, record); err != nil {
		errs = append(errs, fmt.Errorf("sessions.Put(%s) > %w", record.ID, err))
	}
	return summary, errors.Join(errs...)
}

func transcript(history []inference.Message) []session.Line {
	lines := make([]session.Line, 0, len(history))
	for _, message := range history {
		speaker := session.SpeakerTutor
		if message.Role == inference.RoleUser {
			speaker = session.SpeakerUser
		}
		lines = append(lines, session.Line{Speaker: speaker, Text: message.Content})
	}
	return lines
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

var disallowedInput = regexp.MustCompile(`[^\w\s\x{00C0}-\x{017F}¿¡.,!?]`)

// NormalizeInput trims and collapses whitespace and removes symbols other than
// Spanish letters and basic punctuation.
func NormalizeInput(text string) string {
	text = disallowedInput.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
