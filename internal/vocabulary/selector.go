package vocabulary

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

const (
	DefaultMaxWords = 5
	// reviewShare caps the share of a session filled with due words.
	reviewShare = 0.8
)

// DifficultyTier selects a subset of item difficulties for a session.
type DifficultyTier string

const (
	TierBeginner     DifficultyTier = "beginner"
	TierIntermediate DifficultyTier = "intermediate"
	TierAdvanced     DifficultyTier = "advanced"
	TierMixed        DifficultyTier = "mixed"
)

var tierDifficulties = map[DifficultyTier][]int{
	TierBeginner:     {1, 2},
	TierIntermediate: {3, 4},
	TierAdvanced:     {4, 5},
}

// ParseDifficultyTier returns the tier named s, or TierMixed when s is not a known tier.
func ParseDifficultyTier(s string) DifficultyTier {
	tier := DifficultyTier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierDifficulties[tier]; ok {
		return tier
	}
	return TierMixed
}

// Includes reports whether an item of the given difficulty belongs to the tier.
func (tier DifficultyTier) Includes(difficulty int) bool {
	difficulties, ok := tierDifficulties[tier]
	if !ok {
		return true
	}
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}
	return slices.Contains(difficulties, difficulty)
}

// SelectionOptions configures SelectSessionWords. Zero values fall back to the defaults.
type SelectionOptions struct {
	MaxWords       int
	DifficultyTier DifficultyTier
	// Topic matches an item's category or one of its tags.
	Topic string
	// PrioritizeReview defaults to true when nil.
	PrioritizeReview *bool
}

func (opts SelectionOptions) withDefaults() SelectionOptions {
	if opts.MaxWords < 1 {
		opts.MaxWords = DefaultMaxWords
	}
	opts.DifficultyTier = ParseDifficultyTier(string(opts.DifficultyTier))
	opts.Topic = strings.TrimSpace(opts.Topic)
	if opts.PrioritizeReview == nil {
		prioritize := true
		opts.PrioritizeReview = &prioritize
	}
	return opts
}

// ReviewCap returns how many due words a session of maxWords may hold when review is prioritized.
func ReviewCap(maxWords int) int {
	return int(math.Ceil(float64(maxWords) * reviewShare))
}

// SelectSessionWords picks the target words for a conversation session.
// Due words come first, most overdue and hardest first, but fill at most ReviewCap slots
// while review is prioritized; the rest are the least mastered words not yet due.
func SelectSessionWords(items []Item, opts SelectionOptions, now time.Time) []Item {
	opts = opts.withDefaults()

	var due, notDue []Item
	for _, item := range items {
		if !opts.DifficultyTier.Includes(item.Difficulty) {
			continue
		}
		if opts.Topic != "" && item.Category != opts.Topic && !item.hasTag(opts.Topic) {
			continue
		}
		if IsDue(item, now) {
			due = append(due, item)
		} else {
			notDue = append(notDue, item)
		}
	}
	SortForReview(due, now)

	selected := make([]Item, 0, opts.MaxWords)
	if *opts.PrioritizeReview && len(due) > 0 {
		reviewCount := min(ReviewCap(opts.MaxWords), len(due))
		selected = append(selected, due[:reviewCount]...)

		sort.SliceStable(notDue, func(i, j int) bool {
			return notDue[i].MasteryLevel < notDue[j].MasteryLevel
		})
		remaining := opts.MaxWords - len(selected)
		selected = append(selected, notDue[:min(remaining, len(notDue))]...)
		return selected
	}

	mixed := append(due, notDue...)
	sort.SliceStable(mixed, func(i, j int) bool {
		iOverdue := DaysOverdue(mixed[i], now) > 0
		jOverdue := DaysOverdue(mixed[j], now) > 0
		if iOverdue != jOverdue {
			return iOverdue
		}
		return mixed[i].MasteryLevel < mixed[j].MasteryLevel
	})
	return append(selected, mixed[:min(opts.MaxWords, len(mixed))]...)
}

// DueItems returns the items due at asOf ordered for review.
func DueItems(items []Item, asOf time.Time) []Item {
	var due []Item
	for _, item := range items {
		if IsDue(item, asOf) {
			due = append(due, item)
		}
	}
	SortForReview(due, asOf)
	return due
}

// SortForReview orders due items by days overdue, descending, then by easiness factor, ascending.
func SortForReview(items []Item, asOf time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		iOverdue, jOverdue := DaysOverdue(items[i], asOf), DaysOverdue(items[j], asOf)
		if iOverdue != jOverdue {
			return iOverdue > jOverdue
		}
		return easiness(items[i]) < easiness(items[j])
	})
}

func easiness(item Item) float64 {
	if item.EasinessFactor == 0 {
		return DefaultEasinessFactor
	}
	return item.EasinessFactor
}
