package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps records of one kind as JSON documents in the records table.
// It works with the MySQL and SQLite drivers opened by the database package.
type SQLStore[T Record] struct {
	db   *sqlx.DB
	kind Kind
	now  func() time.Time
}

func NewSQLStore[T Record](db *sqlx.DB, kind Kind) *SQLStore[T] {
	return &SQLStore[T]{
		db:   db,
		kind: kind,
		now:  time.Now,
	}
}

func (s *SQLStore[T]) GetAll(ctx context.Context) ([]T, error) {
	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads,
		"SELECT payload FROM records WHERE kind = ? ORDER BY created_ns, record_id",
		string(s.kind)); err != nil {
		return nil, fmt.Errorf("db.SelectContext(records of %s) > %w", s.kind, err)
	}

	records := make([]T, 0, len(payloads))
	for _, payload := range payloads {
		var record T
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(%s record) > %w", s.kind, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *SQLStore[T]) Put(ctx context.Context, record T) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("json.Marshal(%s record %s) > %w", s.kind, record.RecordID(), err)
	}

	query := upsertQuery(s.db.DriverName())
	if _, err := s.db.ExecContext(ctx, query,
		string(s.kind), record.RecordID(), string(payload), s.now().UnixNano()); err != nil {
		return fmt.Errorf("db.ExecContext(upsert %s record %s) > %w", s.kind, record.RecordID(), err)
	}
	return nil
}

func (s *SQLStore[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE kind = ? AND record_id = ?",
		string(s.kind), id); err != nil {
		return fmt.Errorf("db.ExecContext(delete %s record %s) > %w", s.kind, id, err)
	}
	return nil
}

// upsertQuery inserts a record or replaces its payload, keeping its original position.
func upsertQuery(driverName string) string {
	if driverName == "mysql" {
		return `INSERT INTO records (kind, record_id, payload, created_ns) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload)`
	}
	return `INSERT INTO records (kind, record_id, payload, created_ns) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, record_id) DO UPDATE SET payload = excluded.payload`
}
