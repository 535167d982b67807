package session

import (
	"maps"
	"math"
	"slices"
	"time"
)

// TargetWord is the snapshot of a vocabulary item taken when the session starts.
type TargetWord struct {
	ID      string `json:"id" yaml:"id"`
	Spanish string `json:"spanish" yaml:"spanish"`
	English string `json:"english" yaml:"english"`
}

// Performance aggregates the learner's uses of one target word.
type Performance struct {
	Attempts          int     `json:"attempts" yaml:"attempts"`
	SuccessfulUses    int     `json:"successful_uses" yaml:"successful_uses"`
	AverageConfidence float64 `json:"average_confidence" yaml:"average_confidence"`
}

// Line is one message of the conversation transcript.
type Line struct {
	Speaker string `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
}

const (
	SpeakerUser  = "user"
	SpeakerTutor = "tutor"
)

// Record is the final state of an ended session.
type Record struct {
	ID              string                 `json:"id" yaml:"id"`
	Scenario        string                 `json:"scenario" yaml:"scenario"`
	Difficulty      string                 `json:"difficulty" yaml:"difficulty"`
	TargetWords     []TargetWord           `json:"target_words" yaml:"target_words"`
	StartTime       time.Time              `json:"start_time" yaml:"start_time"`
	EndTime         time.Time              `json:"end_time" yaml:"end_time"`
	MessageCount    int                    `json:"message_count" yaml:"message_count"`
	WordsUsed       map[string]int         `json:"words_used" yaml:"words_used"`
	UserPerformance map[string]Performance `json:"user_performance" yaml:"user_performance"`
	Transcript      []Line                 `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

// RecordID returns the key the record is stored under.
func (r Record) RecordID() string {
	return r.ID
}

// Stats returns the statistics of the ended session.
func (r Record) Stats() Stats {
	return newStats(r.TargetWords, r.WordsUsed, r.MessageCount, r.EndTime.Sub(r.StartTime))
}

// Stats is a summary of a session's progress.
type Stats struct {
	MessageCount        int
	TargetWordCount     int
	WordsUsedCount      int
	WordsUsedPercentage int
	Duration            time.Duration
	UnusedWords         []TargetWord
}

func newStats(targets []TargetWord, wordsUsed map[string]int, messageCount int, duration time.Duration) Stats {
	stats := Stats{
		MessageCount:    messageCount,
		TargetWordCount: len(targets),
		WordsUsedCount:  len(wordsUsed),
		Duration:        duration,
	}
	if len(targets) > 0 {
		stats.WordsUsedPercentage = int(math.Round(float64(len(wordsUsed)) / float64(len(targets)) * 100))
	}
	for _, word := range targets {
		if wordsUsed[word.ID] == 0 {
			stats.UnusedWords = append(stats.UnusedWords, word)
		}
	}
	return stats
}

func (r Record) clone() Record {
	out := r
	out.TargetWords = slices.Clone(r.TargetWords)
	out.WordsUsed = maps.Clone(r.WordsUsed)
	out.UserPerformance = maps.Clone(r.UserPerformance)
	out.Transcript = slices.Clone(r.Transcript)
	return out
}
