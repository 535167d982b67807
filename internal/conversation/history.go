package conversation

import (
	"context"
	"fmt"
	"sort"

	"github.com/at-ishikawa/hablabot/internal/session"
	"github.com/at-ishikawa/hablabot/internal/storage"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// WordLookup finds a vocabulary item by id.
type WordLookup interface {
	Get(id string) (vocabulary.Item, bool)
}

// PastSession is a stored session with the words it used that still exist.
type PastSession struct {
	Record    session.Record
	Stats     session.Stats
	WordsUsed []vocabulary.Item
}

// ListSessions returns the stored sessions, most recent first.
// Words removed from the vocabulary since the session are left out of WordsUsed.
func ListSessions(ctx context.Context, sessions storage.Store[session.Record], words WordLookup) ([]PastSession, error) {
	records, err := sessions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("sessions.GetAll() > %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})

	result := make([]PastSession, 0, len(records))
	for _, record := range records {
		past := PastSession{Record: record, Stats: record.Stats()}
		for _, target := range record.TargetWords {
			if record.WordsUsed[target.ID] == 0 {
				continue
			}
			if item, ok := words.Get(target.ID); ok {
				past.WordsUsed = append(past.WordsUsed, item)
			}
		}
		result = append(result, past)
	}
	return result, nil
}
