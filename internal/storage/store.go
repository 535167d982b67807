// Package storage provides the stores that persist vocabulary items and session records.
package storage

import (
	"context"
)

//go:generate mockgen -source=store.go -destination=../mocks/storage/mock_store.go -package=mock_storage

// Kind names a collection of records, like a table or an object store.
type Kind string

const (
	KindVocabulary Kind = "vocabulary"
	KindSessions   Kind = "sessions"
)

// Record is anything stored under a string id.
type Record interface {
	RecordID() string
}

// Store keeps the records of one kind. Put inserts or replaces; Delete of an unknown id is not an error.
type Store[T Record] interface {
	GetAll(ctx context.Context) ([]T, error)
	Put(ctx context.Context, record T) error
	Delete(ctx context.Context, id string) error
}
