package vocabulary

import (
	"math"
	"strings"
)

// Filter narrows the vocabulary list. Zero-valued fields match every item; set fields are ANDed.
type Filter struct {
	// Search matches a substring of the Spanish, English, category or any tag, ignoring case.
	Search     string
	Category   string
	Difficulty int
	// MasteryLevel matches items whose mastery level rounds down to the value.
	MasteryLevel *int
}

// Match reports whether item passes every set filter.
func (f Filter) Match(item Item) bool {
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" && !matchesSearch(item, search) {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Difficulty != 0 && item.Difficulty != f.Difficulty {
		return false
	}
	if f.MasteryLevel != nil && int(math.Floor(item.MasteryLevel)) != *f.MasteryLevel {
		return false
	}
	return true
}

func matchesSearch(item Item, search string) bool {
	if strings.Contains(strings.ToLower(item.Spanish), search) ||
		strings.Contains(strings.ToLower(item.English), search) ||
		strings.Contains(strings.ToLower(item.Category), search) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// Filter returns the items matching f in insertion order.
func (m *Manager) Filter(f Filter) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Item
	for _, item := range m.items {
		if f.Match(item) {
			result = append(result, item.clone())
		}
	}
	return result
}
