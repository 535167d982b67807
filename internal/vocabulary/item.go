// Package vocabulary provides the vocabulary item model, the SM-2 review scheduler,
// session word selection and the Manager that owns the in-memory vocabulary list.
package vocabulary

import (
	"slices"
	"strings"
	"time"
)

const (
	DefaultCategory   = "general"
	DefaultDifficulty = 1
	MinDifficulty     = 1
	MaxDifficulty     = 5
)

// Item is a Spanish word or phrase to learn.
// Scheduling fields are only changed by ScheduleReview.
type Item struct {
	ID         string   `json:"id" yaml:"id"`
	Spanish    string   `json:"spanish" yaml:"spanish"`
	English    string   `json:"english" yaml:"english"`
	Phonetic   string   `json:"phonetic,omitempty" yaml:"phonetic,omitempty"`
	Difficulty int      `json:"difficulty" yaml:"difficulty"`
	Category   string   `json:"category" yaml:"category"`
	Examples   []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Repetitions    int        `json:"repetitions" yaml:"repetitions"`
	EasinessFactor float64    `json:"easiness_factor" yaml:"easiness_factor"`
	Interval       int        `json:"interval" yaml:"interval"` // days until next review
	NextReviewDate time.Time  `json:"next_review_date" yaml:"next_review_date"`
	LastReviewed   *time.Time `json:"last_reviewed,omitempty" yaml:"last_reviewed,omitempty"`
	LastQuality    *int       `json:"last_quality,omitempty" yaml:"last_quality,omitempty"`

	TimesCorrect   int     `json:"times_correct" yaml:"times_correct"`
	TimesIncorrect int     `json:"times_incorrect" yaml:"times_incorrect"`
	MasteryLevel   float64 `json:"mastery_level" yaml:"mastery_level"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RecordID returns the key the item is stored under.
func (item Item) RecordID() string {
	return item.ID
}

// Attempts returns the number of reviews recorded for the item.
func (item Item) Attempts() int {
	return item.TimesCorrect + item.TimesIncorrect
}

// Draft holds the descriptive fields of a new item.
type Draft struct {
	Spanish    string
	English    string
	Phonetic   string
	Difficulty int
	Category   string
	Examples   []string
	Tags       []string
}

// Patch holds the descriptive fields to change on an existing item. Nil fields are left as is.
type Patch struct {
	Spanish    *string
	English    *string
	Phonetic   *string
	Difficulty *int
	Category   *string
	Examples   []string
	Tags       []string
}

// newItem builds an item with default scheduling state from a validated draft.
func newItem(id string, draft Draft, now time.Time) Item {
	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = DefaultCategory
	}
	difficulty := draft.Difficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}

	return Item{
		ID:             id,
		Spanish:        strings.TrimSpace(draft.Spanish),
		English:        strings.TrimSpace(draft.English),
		Phonetic:       strings.TrimSpace(draft.Phonetic),
		Difficulty:     difficulty,
		Category:       category,
		Examples:       trimAll(draft.Examples),
		Tags:           trimAll(draft.Tags),
		Repetitions:    0,
		EasinessFactor: DefaultEasinessFactor,
		Interval:       0,
		NextReviewDate: now,
		CreatedAt:      now,
	}
}

// apply merges the patch over the descriptive fields of item.
func (p Patch) apply(item Item) Item {
	if p.Spanish != nil {
		item.Spanish = strings.TrimSpace(*p.Spanish)
	}
	if p.English != nil {
		item.English = strings.TrimSpace(*p.English)
	}
	if p.Phonetic != nil {
		item.Phonetic = strings.TrimSpace(*p.Phonetic)
	}
	if p.Difficulty != nil {
		item.Difficulty = *p.Difficulty
	}
	if p.Category != nil {
		item.Category = strings.TrimSpace(*p.Category)
		if item.Category == "" {
			item.Category = DefaultCategory
		}
	}
	if p.Examples != nil {
		item.Examples = trimAll(p.Examples)
	}
	if p.Tags != nil {
		item.Tags = trimAll(p.Tags)
	}
	return item
}

func (item Item) hasTag(tag string) bool {
	return slices.Contains(item.Tags, tag)
}

func (item Item) clone() Item {
	out := item
	out.Examples = slices.Clone(item.Examples)
	out.Tags = slices.Clone(item.Tags)
	if item.LastReviewed != nil {
		v := *item.LastReviewed
		out.LastReviewed = &v
	}
	if item.LastQuality != nil {
		v := *item.LastQuality
		out.LastQuality = &v
	}
	return out
}

func trimAll(values []string) []string {
	var result []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		result = append(result, v)
	}
	return result
}
