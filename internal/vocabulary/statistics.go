package vocabulary

import (
	"math"
	"slices"
	"time"
)

// MasteredLevel is the mastery level from which a word counts as mastered.
const MasteredLevel = 8.0

// DefaultCategories are offered even before any item uses them.
var DefaultCategories = []string{
	"general", "food", "travel", "family", "work",
	"health", "shopping", "emergency", "education", "entertainment",
}

// Statistics summarizes the vocabulary list at a point in time.
type Statistics struct {
	Total          int
	ByCategory     map[string]int
	ByDifficulty   map[int]int
	ByMasteryLevel map[int]int // keyed by the mastery level rounded down
	AverageMastery float64
	DueToday       int
	DueTomorrow    int
	DueThisWeek    int
	Mastered       int
	Learning       int
	New            int
}

// DailyReviews is the number of items due by the end of Date.
type DailyReviews struct {
	Date     time.Time
	DueCount int
}

// Statistics computes the statistics of the current list as of now.
func (m *Manager) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalculateStatistics(m.items, m.now())
}

// ReviewSchedule returns the number of items due on each of the next days, starting today.
func (m *Manager) ReviewSchedule(days int) []DailyReviews {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalculateReviewSchedule(m.items, m.now(), days)
}

// Categories returns the default categories and every category in use, sorted.
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	categories := slices.Clone(DefaultCategories)
	for _, item := range m.items {
		if !slices.Contains(categories, item.Category) {
			categories = append(categories, item.Category)
		}
	}
	slices.Sort(categories)
	return categories
}

// CalculateStatistics summarizes items as of now.
func CalculateStatistics(items []Item, now time.Time) Statistics {
	stats := Statistics{
		Total:          len(items),
		ByCategory:     make(map[string]int),
		ByDifficulty:   make(map[int]int),
		ByMasteryLevel: make(map[int]int),
	}
	tomorrow := now.AddDate(0, 0, 1)
	nextWeek := now.AddDate(0, 0, 7)

	totalMastery := 0.0
	for _, item := range items {
		stats.ByCategory[item.Category]++
		stats.ByDifficulty[item.Difficulty]++
		stats.ByMasteryLevel[int(math.Floor(item.MasteryLevel))]++
		totalMastery += item.MasteryLevel

		switch {
		case item.MasteryLevel >= MasteredLevel:
			stats.Mastered++
		case item.MasteryLevel > 0:
			stats.Learning++
		default:
			stats.New++
		}

		if IsDue(item, now) {
			stats.DueToday++
		}
		if IsDue(item, tomorrow) {
			stats.DueTomorrow++
		}
		if IsDue(item, nextWeek) {
			stats.DueThisWeek++
		}
	}

	if len(items) > 0 {
		stats.AverageMastery = math.Round(totalMastery/float64(len(items))*10) / 10
	}
	return stats
}

// CalculateReviewSchedule counts the items due on each of the given number of days from now.
func CalculateReviewSchedule(items []Item, now time.Time, days int) []DailyReviews {
	schedule := make([]DailyReviews, 0, max(days, 0))
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, i)
		count := 0
		for _, item := range items {
			if IsDue(item, date) {
				count++
			}
		}
		schedule = append(schedule, DailyReviews{Date: date, DueCount: count})
	}
	return schedule
}
