// Package datasync copies vocabulary items and session records from one storage backend to another.
package datasync

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/at-ishikawa/hablabot/internal/session"
	"github.com/at-ishikawa/hablabot/internal/storage"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// Result counts what happened to the records of one kind.
type Result struct {
	New     int
	Skipped int
	Updated int
}

// Options controls the copy.
type Options struct {
	DryRun bool
	// UpdateExisting overwrites records already in the destination. They are skipped otherwise.
	UpdateExisting bool
}

// Backend is the pair of stores of one storage backend.
type Backend struct {
	Items    storage.Store[vocabulary.Item]
	Sessions storage.Store[session.Record]
}

// Syncer copies every record of a source backend into a destination backend and reports each one to writer.
type Syncer struct {
	writer io.Writer
}

func NewSyncer(writer io.Writer) *Syncer {
	return &Syncer{writer: writer}
}

// SyncResult holds the result of each kind.
type SyncResult struct {
	Vocabulary Result
	Sessions   Result
}

// Sync copies the vocabulary first so that sessions never refer to words missing in the destination.
func (s *Syncer) Sync(ctx context.Context, from, to Backend, opts Options) (*SyncResult, error) {
	var result SyncResult

	_, _ = fmt.Fprintln(s.writer, "Vocabulary:")
	vocabularyResult, err := copyRecords(ctx, s.writer, from.Items, to.Items, vocabularyKind, opts)
	if err != nil {
		return nil, fmt.Errorf("copyRecords(%s) > %w", storage.KindVocabulary, err)
	}
	result.Vocabulary = *vocabularyResult

	_, _ = fmt.Fprintln(s.writer, "Sessions:")
	sessionsResult, err := copyRecords(ctx, s.writer, from.Sessions, to.Sessions, sessionKind, opts)
	if err != nil {
		return nil, fmt.Errorf("copyRecords(%s) > %w", storage.KindSessions, err)
	}
	result.Sessions = *sessionsResult

	return &result, nil
}

// recordKind describes how records of one kind are shown and matched.
type recordKind[T storage.Record] struct {
	describe func(T) string
	// naturalKey also matches a destination record with another id. Nil matches by id only.
	naturalKey func(T) string
	// withID moves a record onto the id of the destination record it matched.
	withID func(T, string) T
}

var (
	vocabularyKind = recordKind[vocabulary.Item]{
		describe: func(item vocabulary.Item) string {
			return fmt.Sprintf("%q (%s)", item.Spanish, item.English)
		},
		// Spanish text is unique in a vocabulary, ignoring case
		naturalKey: func(item vocabulary.Item) string {
			return strings.ToLower(strings.TrimSpace(item.Spanish))
		},
		withID: func(item vocabulary.Item, id string) vocabulary.Item {
			item.ID = id
			return item
		},
	}
	sessionKind = recordKind[session.Record]{
		describe: func(record session.Record) string {
			return fmt.Sprintf("%s %s (%s)", record.StartTime.Format("2006-01-02 15:04"), record.Scenario, record.ID)
		},
	}
)

func copyRecords[T storage.Record](
	ctx context.Context,
	writer io.Writer,
	from, to storage.Store[T],
	kind recordKind[T],
	opts Options,
) (*Result, error) {
	records, err := from.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("from.GetAll() > %w", err)
	}
	existing, err := to.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("to.GetAll() > %w", err)
	}
	existingIDs := make(map[string]bool, len(existing))
	idsByKey := make(map[string]string, len(existing))
	for _, record := range existing {
		existingIDs[record.RecordID()] = true
		if kind.naturalKey != nil {
			idsByKey[kind.naturalKey(record)] = record.RecordID()
		}
	}

	var result Result
	for _, record := range records {
		status := "NEW"
		if existingIDs[record.RecordID()] {
			status = "UPDATE"
		} else if kind.naturalKey != nil {
			if id, ok := idsByKey[kind.naturalKey(record)]; ok {
				status = "UPDATE"
				record = kind.withID(record, id)
			}
		}
		if status == "UPDATE" && !opts.UpdateExisting {
			_, _ = fmt.Fprintf(writer, "  [SKIP]  %s\n", kind.describe(record))
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := to.Put(ctx, record); err != nil {
				return nil, fmt.Errorf("to.Put(%s) > %w", record.RecordID(), err)
			}
		}
		_, _ = fmt.Fprintf(writer, "  [%s]  %s\n", status, kind.describe(record))
		existingIDs[record.RecordID()] = true
		if kind.naturalKey != nil {
			idsByKey[kind.naturalKey(record)] = record.RecordID()
		}
		if status == "NEW" {
			result.New++
		} else {
			result.Updated++
		}
	}
	return &result, nil
}
