package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation errors for vocabulary items.
var (
	ErrValidation        = errors.New("validation failed")
	ErrEmptyID           = errors.New("vocabulary item id cannot be empty")
	ErrEmptyWord         = errors.New("source and target word cannot be empty")
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
	ErrInvalidInterval   = errors.New("interval must be greater than or equal to 0")
	ErrInvalidCount      = errors.New("review count must be greater than or equal to 0")
	ErrInvalidStatus     = errors.New("invalid vocabulary status")
)

// Scheduling defaults for a newly saved word.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// Status is the learning state of a vocabulary item. The values are the
// strings stored in the vocabulary table.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusLearned  Status = "learned"
)

// ParseStatus parses a persisted status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusNew, StatusLearning, StatusReview, StatusLearned:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// WordEntry is a dictionary reference supplied by a lexicon.
type WordEntry struct {
	ID            string
	SourceWord    string
	TargetWord    string
	Pair          LanguagePair
	Level         ProficiencyLevel
	FrequencyRank int
	PartOfSpeech  string
	Variants      []string
	Pronunciation string
}

// VocabularyItem is a word the learner saved for review.
type VocabularyItem struct {
	ID              string       `json:"id"`
	SourceWord      string       `json:"source_word"`
	TargetWord      string       `json:"target_word"`
	Pair            LanguagePair `json:"pair"`
	ContextSentence string       `json:"context_sentence,omitempty"`
	BookID          string       `json:"book_id,omitempty"`
	BookTitle       string       `json:"book_title,omitempty"`
	AddedAt         time.Time    `json:"added_at"`
	LastReviewedAt  *time.Time   `json:"last_reviewed_at,omitempty"`
	ReviewCount     int          `json:"review_count"`
	EaseFactor      float64      `json:"ease_factor"`
	Interval        int          `json:"interval"`
	Status          Status       `json:"status"`
}

// NewVocabularyItem creates a new item with default scheduling state.
func NewVocabularyItem(source, target string, pair LanguagePair, now time.Time) (*VocabularyItem, error) {
	item := &VocabularyItem{
		ID:         uuid.NewString(),
		SourceWord: strings.TrimSpace(source),
		TargetWord: strings.TrimSpace(target),
		Pair:       pair,
		AddedAt:    now.UTC(),
		EaseFactor: DefaultEaseFactor,
		Status:     StatusNew,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks the item's invariants.
func (v *VocabularyItem) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyID)
	}
	if v.SourceWord == "" || v.TargetWord == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyWord)
	}
	if v.EaseFactor < MinEaseFactor {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidEaseFactor)
	}
	if v.Interval < 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidInterval)
	}
	if v.ReviewCount < 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidCount)
	}
	if _, err := ParseStatus(string(v.Status)); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// NextReviewAt returns when the item becomes due. Items never reviewed are
// due immediately and report ok == false.
func (v VocabularyItem) NextReviewAt() (at time.Time, ok bool) {
	if v.LastReviewedAt == nil {
		return time.Time{}, false
	}
	return v.LastReviewedAt.Add(time.Duration(v.Interval) * 24 * time.Hour), true
}

// ReadingSession records one sitting with a book.
type ReadingSession struct {
	ID            string
	BookID        string
	StartedAt     time.Time
	EndedAt       *time.Time
	PagesRead     int
	WordsRevealed int
	WordsSaved    int
}

// Duration is the session length, or zero while the session is open.
func (s ReadingSession) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
