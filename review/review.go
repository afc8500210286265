// Package review applies SM-2 review results to persisted vocabulary items.
//
// Submissions for the same item are serialized so two concurrent answers can
// never both read the old state; submissions for different items proceed in
// parallel.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/srs"
	"github.com/xenolexia/xenolexia-go/store"
)

// ErrInvalidQuality is returned for grades outside [0,5] when the service is
// strict.
var ErrInvalidQuality = errors.New("review: quality must be between 0 and 5")

// Service records reviews.
type Service struct {
	vocab  store.VocabularyStore
	params srs.Params
	now    func() time.Time
	strict bool
	logger *slog.Logger
	locks  keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithParams overrides the scheduler parameters.
func WithParams(p srs.Params) Option {
	return func(s *Service) { s.params = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStrictQuality rejects out-of-range grades instead of clamping them.
func WithStrictQuality() Option {
	return func(s *Service) { s.strict = true }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a review service over vocab.
func NewService(vocab store.VocabularyStore, opts ...Option) *Service {
	if vocab == nil {
		panic("vocab cannot be nil")
	}
	s := &Service{
		vocab:  vocab,
		params: srs.DefaultParams(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "review_service"))
	return s
}

// Submit grades one review of item id and persists the new state.
func (s *Service) Submit(ctx context.Context, id string, quality int) (*model.VocabularyItem, error) {
	if s.strict && srs.ClampQuality(quality) != quality {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := s.vocab.GetVocabulary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary item: %w", err)
	}

	next := s.params.Review(*item, quality, s.now().UTC())
	if err := s.vocab.UpdateVocabulary(ctx, &next); err != nil {
		s.logger.ErrorContext(ctx, "failed to save review",
			slog.String("error", err.Error()),
			slog.String("vocabulary_id", id))
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.InfoContext(ctx, "review recorded",
		slog.String("vocabulary_id", id),
		slog.Int("quality", srs.ClampQuality(quality)),
		slog.String("from", string(item.Status)),
		slog.String("to", string(next.Status)),
		slog.Int("interval_days", next.Interval),
		slog.Float64("ease_factor", next.EaseFactor))
	return &next, nil
}

// Due returns up to limit items due now. A limit <= 0 uses the configured
// due limit.
func (s *Service) Due(ctx context.Context, limit int) ([]model.VocabularyItem, error) {
	items, err := s.vocab.ListVocabulary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %w", err)
	}
	if limit <= 0 {
		limit = s.params.DueLimit
	}
	return srs.SelectDueItems(items, s.now().UTC(), limit), nil
}

// Stats summarizes the vocabulary.
type Stats struct {
	Total    int
	ByStatus map[model.Status]int
	Due      int
}

// Stats counts items by status and how many are due now.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.vocab.ListVocabulary(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list vocabulary: %w", err)
	}
	now := s.now().UTC()
	st := Stats{Total: len(items), ByStatus: make(map[model.Status]int)}
	for _, it := range items {
		st.ByStatus[it.Status]++
		if srs.IsDue(it, now) {
			st.Due++
		}
	}
	return st, nil
}

// keyedMutex hands out one mutex per key and drops it when the last holder
// releases it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
