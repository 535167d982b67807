package vocabulary

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid vocabulary item")
	ErrDuplicateWord = errors.New("this Spanish word already exists in the vocabulary")
	ErrNotFound      = errors.New("vocabulary item not found")
)

// StorageError wraps a failure of the item store. The underlying error is passed through unmodified.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("item store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
