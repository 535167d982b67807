package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLStore keeps all records of a kind in one YAML file, <directory>/<kind>.yml.
// The file is read and rewritten on every call.
type YAMLStore[T Record] struct {
	path string
	mu   sync.Mutex
}

func NewYAMLStore[T Record](directory string, kind Kind) *YAMLStore[T] {
	return &YAMLStore[T]{
		path: filepath.Join(directory, string(kind)+".yml"),
	}
}

// Path returns the file the records are kept in.
func (s *YAMLStore[T]) Path() string {
	return s.path
}

func (s *YAMLStore[T]) GetAll(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *YAMLStore[T]) Put(_ context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	return s.write(upsert(records, record))
}

func (s *YAMLStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	return s.write(remove(records, id))
}

func (s *YAMLStore[T]) read() ([]T, error) {
	records, err := readYamlFile[[]T](s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("readYamlFile(%s) > %w", s.path, err)
	}
	return records, nil
}

func (s *YAMLStore[T]) write(records []T) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(s.path), err)
	}
	if err := writeYamlFile(s.path, records); err != nil {
		return fmt.Errorf("writeYamlFile(%s) > %w", s.path, err)
	}
	return nil
}

func readYamlFile[T any](path string) (T, error) {
	var result T

	file, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(&result); err != nil {
		// an empty file holds no records
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		return result, fmt.Errorf("yaml.NewDecoder().Decode() > %w", err)
	}
	return result, nil
}

// writeYamlFile encodes data into a temporary file next to path and renames it over path,
// so a failed write leaves the previous content in place.
func writeYamlFile[T any](path string, data T) (err error) {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp(%s) > %w", filepath.Dir(path), err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
		}
	}()
	if err := file.Chmod(0644); err != nil {
		return fmt.Errorf("file.Chmod() > %w", err)
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("yaml.NewEncoder().Encode() > %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoder.Close() > %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close() > %w", err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("os.Rename(%s) > %w", path, err)
	}
	return nil
}
