package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/hablabot/internal/database"
)

type testRecord struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func (r testRecord) RecordID() string {
	return r.ID
}

func newSQLiteStore(t *testing.T) Store[testRecord] {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, database.Migrate(context.Background(), db))
	return NewSQLStore[testRecord](db, KindVocabulary)
}

// TestStores runs the same contract against every implementation.
func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store[testRecord]{
		"memory": func(t *testing.T) Store[testRecord] {
			return NewMemoryStore[testRecord]()
		},
		"yaml": func(t *testing.T) Store[testRecord] {
			return NewYAMLStore[testRecord](filepath.Join(t.TempDir(), "data"), KindVocabulary)
		},
		"sqlite": newSQLiteStore,
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			got, err := store.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, store.Put(ctx, testRecord{ID: "a", Label: "hola", Tags: []string{"greeting"}}))
			require.NoError(t, store.Put(ctx, testRecord{ID: "b", Label: "adiós"}))
			require.NoError(t, store.Put(ctx, testRecord{ID: "a", Label: "hola!", Tags: []string{"greeting"}}))

			got, err = store.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []testRecord{
				{ID: "a", Label: "hola!", Tags: []string{"greeting"}},
				{ID: "b", Label: "adiós"},
			}, got)

			require.NoError(t, store.Delete(ctx, "a"))
			require.NoError(t, store.Delete(ctx, "missing"))

			got, err = store.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []testRecord{{ID: "b", Label: "adiós"}}, got)
		})
	}
}

func TestYAMLStore_GetAll(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []testRecord
		wantErr bool
	}{
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
		{
			name: "records",
			content: `- id: w1
  label: hola
`,
			want: []testRecord{{ID: "w1", Label: "hola"}},
		},
		{
			name:    "broken file",
			content: "- id: [[[",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := NewYAMLStore[testRecord](dir, KindSessions)
			assert.Equal(t, filepath.Join(dir, "sessions.yml"), store.Path())
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0644))

			got, err := store.GetAll(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type unencodableRecord struct {
	ID string
}

func (r unencodableRecord) RecordID() string {
	return r.ID
}

func (r unencodableRecord) MarshalYAML() (any, error) {
	return nil, errors.New("cannot encode")
}

func TestYAMLStore_Put_FailedWriteKeepsFile(t *testing.T) {
	dir := t.TempDir()
	original := "- id: w1\n"
	store := NewYAMLStore[unencodableRecord](dir, KindVocabulary)
	require.NoError(t, os.WriteFile(store.Path(), []byte(original), 0644))

	err := store.Put(context.Background(), unencodableRecord{ID: "w2"})
	require.Error(t, err)

	content, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, original, string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vocabulary.yml", entries[0].Name())
}

func TestYAMLStore_Put_ReplacesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewYAMLStore[testRecord](dir, KindVocabulary)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, testRecord{ID: "w1", Label: "hola"}))
	require.NoError(t, store.Put(ctx, testRecord{ID: "w2", Label: "mesa"}))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []testRecord{{ID: "w1", Label: "hola"}, {ID: "w2", Label: "mesa"}}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLStore_MySQL(t *testing.T) {
	tests := []struct {
		name      string
		run       func(store *SQLStore[testRecord]) error
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "put upserts with ON DUPLICATE KEY",
			run: func(store *SQLStore[testRecord]) error {
				return store.Put(context.Background(), testRecord{ID: "w1", Label: "hola"})
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO records .* ON DUPLICATE KEY UPDATE payload = VALUES\\(payload\\)").
					WithArgs("vocabulary", "w1", `{"id":"w1","label":"hola"}`, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "get all decodes payloads",
			run: func(store *SQLStore[testRecord]) error {
				got, err := store.GetAll(context.Background())
				if err != nil {
					return err
				}
				if len(got) != 2 || got[1].Label != "adiós" {
					return fmt.Errorf("unexpected records: %v", got)
				}
				return nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"payload"}).
					AddRow(`{"id":"w1","label":"hola"}`).
					AddRow(`{"id":"w2","label":"adiós"}`)
				mock.ExpectQuery("SELECT payload FROM records WHERE kind = \\? ORDER BY created_ns, record_id").
					WithArgs("vocabulary").
					WillReturnRows(rows)
			},
		},
		{
			name: "get all fails on a broken payload",
			run: func(store *SQLStore[testRecord]) error {
				_, err := store.GetAll(context.Background())
				return err
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM records").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{"id":`))
			},
			wantErr: true,
		},
		{
			name: "delete error",
			run: func(store *SQLStore[testRecord]) error {
				return store.Delete(context.Background(), "w1")
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM records WHERE kind = \\? AND record_id = \\?").
					WithArgs("vocabulary", "w1").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			store := NewSQLStore[testRecord](sqlx.NewDb(db, "mysql"), KindVocabulary)
			tt.setupMock(mock)

			err = tt.run(store)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
