// Package store defines the persistence interfaces for the library, the
// vocabulary and reading sessions.
//
// Implementations live in subpackages; sqlstore is the SQL implementation.
// Every implementation returns errors that match the sentinels below with
// errors.Is, wrapping the underlying driver error.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("store: entity not found")

	// ErrDuplicate is returned when an insert would create a second entity
	// with the same identity.
	ErrDuplicate = errors.New("store: entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// database constraint.
	ErrInvalidEntity = errors.New("store: invalid entity")

	ErrBookNotFound       = fmt.Errorf("%w: book", ErrNotFound)
	ErrVocabularyNotFound = fmt.Errorf("%w: vocabulary item", ErrNotFound)
	ErrSessionNotFound    = fmt.Errorf("%w: reading session", ErrNotFound)
)

// BookStore persists library records.
type BookStore interface {
	AddBook(ctx context.Context, b *model.Book) error
	GetBook(ctx context.Context, id string) (*model.Book, error)
	UpdateBook(ctx context.Context, b *model.Book) error
	// UpdateProgress records the reading position and stamps LastReadAt.
	UpdateProgress(ctx context.Context, id string, progress float64, chapter int, at time.Time) error
	DeleteBook(ctx context.Context, id string) error
	// ListBooks returns books most recently read first, then most recently
	// added.
	ListBooks(ctx context.Context) ([]model.Book, error)
}

// VocabularyStore persists saved words and their review state.
type VocabularyStore interface {
	AddVocabulary(ctx context.Context, item *model.VocabularyItem) error
	GetVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error)
	// UpdateVocabulary replaces the stored review state and translation of
	// item.
	UpdateVocabulary(ctx context.Context, item *model.VocabularyItem) error
	DeleteVocabulary(ctx context.Context, id string) error
	// ListVocabulary returns every item, newest first.
	ListVocabulary(ctx context.Context) ([]model.VocabularyItem, error)
	// SearchVocabulary returns items whose source or target word contains
	// query, case-insensitively.
	SearchVocabulary(ctx context.Context, query string) ([]model.VocabularyItem, error)
	// ListVocabularyByBook returns the items saved while reading bookID.
	ListVocabularyByBook(ctx context.Context, bookID string) ([]model.VocabularyItem, error)
}

// SessionStore persists reading sessions.
type SessionStore interface {
	StartSession(ctx context.Context, s *model.ReadingSession) error
	// EndSession closes an open session with its final counters.
	EndSession(ctx context.Context, s *model.ReadingSession) error
	ListSessions(ctx context.Context, bookID string) ([]model.ReadingSession, error)
}

// Store combines all stores.
type Store interface {
	BookStore
	VocabularyStore
	SessionStore
	Close() error
}
