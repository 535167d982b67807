package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=manager.go -destination=../mocks/vocabulary/mock_item_store.go -package=mock_vocabulary

// ItemStore persists vocabulary items.
type ItemStore interface {
	GetAll(ctx context.Context) ([]Item, error)
	Put(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
}

// Manager owns the vocabulary list of one learner profile.
// Every change is persisted through the item store before the in-memory list is replaced.
type Manager struct {
	store ItemStore
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	items []Item
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock sets the time source used for scheduling.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator sets the function used to assign item ids.
func WithIDGenerator(newID func() string) ManagerOption {
	return func(m *Manager) {
		m.newID = newID
	}
}

// NewManager creates a Manager with an empty list. Call Load to read the stored items.
func NewManager(store ItemStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the in-memory list with the items in the store.
func (m *Manager) Load(ctx context.Context) error {
	items, err := m.store.GetAll(ctx)
	if err != nil {
		return &StorageError{Op: "get all", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	slog.Default().Debug("loaded vocabulary", "count", len(items))
	return nil
}

// Add validates the draft and stores a new item with default scheduling state.
func (m *Manager) Add(ctx context.Context, draft Draft) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(ctx, draft)
}

func (m *Manager) add(ctx context.Context, draft Draft) (Item, error) {
	if err := validateDraft(draft); err != nil {
		return Item{}, err
	}
	if m.indexBySpanish(draft.Spanish, "") >= 0 {
		return Item{}, fmt.Errorf("%w: %q", ErrDuplicateWord, strings.TrimSpace(draft.Spanish))
	}

	item := newItem(m.newID(), draft, m.now())
	if err := m.store.Put(ctx, item); err != nil {
		return Item{}, &StorageError{Op: "put", Err: err}
	}
	m.items = append(m.items, item)
	slog.Default().Debug("added vocabulary item", "id", item.ID, "spanish", item.Spanish)
	return item.clone(), nil
}

// Update merges the patch over the descriptive fields of the item.
func (m *Manager) Update(ctx context.Context, id string, patch Patch) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexByID(id)
	if index < 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := patch.apply(m.items[index].clone())
	if updated.Spanish == "" || updated.English == "" {
		return Item{}, fmt.Errorf("%w: Spanish and English translations are required", ErrValidation)
	}
	if err := validateDifficulty(updated.Difficulty); err != nil {
		return Item{}, err
	}
	if m.indexBySpanish(updated.Spanish, id) >= 0 {
		return Item{}, fmt.Errorf("%w: %q", ErrDuplicateWord, updated.Spanish)
	}

	if err := m.store.Put(ctx, updated); err != nil {
		return Item{}, &StorageError{Op: "put", Err: err}
	}
	m.items[index] = updated
	return updated.clone(), nil
}

// Remove deletes the item. Past session records that refer to it are left untouched.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexByID(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	m.items = slices.Delete(m.items, index, index+1)
	return nil
}

// RecordReview schedules the next review of the item from the observed quality.
func (m *Manager) RecordReview(ctx context.Context, id string, quality float64) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexByID(id)
	if index < 0 {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := ScheduleReview(m.items[index], quality, m.now())
	if err := m.store.Put(ctx, updated); err != nil {
		return Item{}, &StorageError{Op: "put", Err: err}
	}
	m.items[index] = updated
	slog.Default().Debug("recorded review",
		"id", id,
		"quality", *updated.LastQuality,
		"interval", updated.Interval,
		"easinessFactor", updated.EasinessFactor,
	)
	return updated.clone(), nil
}

// Get returns the item with the id.
func (m *Manager) Get(id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexByID(id)
	if index < 0 {
		return Item{}, false
	}
	return m.items[index].clone(), true
}

// All returns a copy of every item in insertion order.
func (m *Manager) All() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// SelectSessionWords picks target words for a session from the current list.
func (m *Manager) SelectSessionWords(opts SelectionOptions) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SelectSessionWords(m.snapshot(), opts, m.now())
}

// DueForReview returns up to limit items due now, most urgent first. A limit below 1 returns all of them.
func (m *Manager) DueForReview(limit int) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := DueItems(m.snapshot(), m.now())
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

func (m *Manager) snapshot() []Item {
	items := make([]Item, len(m.items))
	for i, item := range m.items {
		items[i] = item.clone()
	}
	return items
}

func (m *Manager) indexByID(id string) int {
	return slices.IndexFunc(m.items, func(item Item) bool {
		return item.ID == id
	})
}

// indexBySpanish finds an item with the same Spanish text, ignoring case, other than excludeID.
func (m *Manager) indexBySpanish(spanish, excludeID string) int {
	spanish = strings.TrimSpace(spanish)
	return slices.IndexFunc(m.items, func(item Item) bool {
		return item.ID != excludeID && strings.EqualFold(item.Spanish, spanish)
	})
}

func validateDraft(draft Draft) error {
	if strings.TrimSpace(draft.Spanish) == "" || strings.TrimSpace(draft.English) == "" {
		return fmt.Errorf("%w: Spanish and English translations are required", ErrValidation)
	}
	if draft.Difficulty == 0 {
		return nil
	}
	return validateDifficulty(draft.Difficulty)
}

func validateDifficulty(difficulty int) error {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: difficulty must be between %d and %d, got %d", ErrValidation, MinDifficulty, MaxDifficulty, difficulty)
	}
	return nil
}
