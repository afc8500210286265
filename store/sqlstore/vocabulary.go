package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/store"
)

type vocabularyRow struct {
	ID              string         `db:"id"`
	SourceWord      string         `db:"source_word"`
	TargetWord      string         `db:"target_word"`
	SourceLang      model.Language `db:"source_lang"`
	TargetLang      model.Language `db:"target_lang"`
	ContextSentence string         `db:"context_sentence"`
	BookID          string         `db:"book_id"`
	BookTitle       string         `db:"book_title"`
	AddedAt         time.Time      `db:"added_at"`
	LastReviewedAt  *time.Time     `db:"last_reviewed_at"`
	ReviewCount     int            `db:"review_count"`
	EaseFactor      float64        `db:"ease_factor"`
	Interval        int            `db:"interval_days"`
	Status          model.Status   `db:"status"`
}

const vocabularyColumns = `id, source_word, target_word, source_lang, target_lang, context_sentence,
	book_id, book_title, added_at, last_reviewed_at, review_count, ease_factor, interval_days, status`

func toVocabularyRow(v *model.VocabularyItem) vocabularyRow {
	return vocabularyRow{
		ID:              v.ID,
		SourceWord:      v.SourceWord,
		TargetWord:      v.TargetWord,
		SourceLang:      v.Pair.Source,
		TargetLang:      v.Pair.Target,
		ContextSentence: v.ContextSentence,
		BookID:          v.BookID,
		BookTitle:       v.BookTitle,
		AddedAt:         utc(v.AddedAt),
		LastReviewedAt:  utcPtr(v.LastReviewedAt),
		ReviewCount:     v.ReviewCount,
		EaseFactor:      v.EaseFactor,
		Interval:        v.Interval,
		Status:          v.Status,
	}
}

func (r vocabularyRow) item() model.VocabularyItem {
	return model.VocabularyItem{
		ID:              r.ID,
		SourceWord:      r.SourceWord,
		TargetWord:      r.TargetWord,
		Pair:            model.LanguagePair{Source: r.SourceLang, Target: r.TargetLang},
		ContextSentence: r.ContextSentence,
		BookID:          r.BookID,
		BookTitle:       r.BookTitle,
		AddedAt:         r.AddedAt.UTC(),
		LastReviewedAt:  utcPtr(r.LastReviewedAt),
		ReviewCount:     r.ReviewCount,
		EaseFactor:      r.EaseFactor,
		Interval:        r.Interval,
		Status:          r.Status,
	}
}

func items(rows []vocabularyRow) []model.VocabularyItem {
	out := make([]model.VocabularyItem, len(rows))
	for i, r := range rows {
		out[i] = r.item()
	}
	return out
}

// AddVocabulary implements store.VocabularyStore.
func (s *Store) AddVocabulary(ctx context.Context, item *model.VocabularyItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO vocabulary (`+vocabularyColumns+`)
		VALUES (:id, :source_word, :target_word, :source_lang, :target_lang, :context_sentence,
			:book_id, :book_title, :added_at, :last_reviewed_at, :review_count, :ease_factor,
			:interval_days, :status)`, toVocabularyRow(item))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add vocabulary item",
			slog.String("error", err.Error()),
			slog.String("vocabulary_id", item.ID))
		return fmt.Errorf("add vocabulary item %s: %w", item.ID, mapError(err, store.ErrVocabularyNotFound))
	}
	s.logger.DebugContext(ctx, "vocabulary item added", slog.String("vocabulary_id", item.ID))
	return nil
}

// GetVocabulary implements store.VocabularyStore.
func (s *Store) GetVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error) {
	var row vocabularyRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+vocabularyColumns+` FROM vocabulary WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get vocabulary item %s: %w", id, mapError(err, store.ErrVocabularyNotFound))
	}
	item := row.item()
	return &item, nil
}

// UpdateVocabulary implements store.VocabularyStore.
func (s *Store) UpdateVocabulary(ctx context.Context, item *model.VocabularyItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE vocabulary SET
			target_word = :target_word,
			context_sentence = :context_sentence,
			last_reviewed_at = :last_reviewed_at,
			review_count = :review_count,
			ease_factor = :ease_factor,
			interval_days = :interval_days,
			status = :status
		WHERE id = :id`, toVocabularyRow(item))
	if err != nil {
		return fmt.Errorf("update vocabulary item %s: %w", item.ID, mapError(err, store.ErrVocabularyNotFound))
	}
	if err := requireRow(res, store.ErrVocabularyNotFound); err != nil {
		return fmt.Errorf("update vocabulary item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteVocabulary implements store.VocabularyStore.
func (s *Store) DeleteVocabulary(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM vocabulary WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete vocabulary item %s: %w", id, mapError(err, store.ErrVocabularyNotFound))
	}
	if err := requireRow(res, store.ErrVocabularyNotFound); err != nil {
		return fmt.Errorf("delete vocabulary item %s: %w", id, err)
	}
	return nil
}

// ListVocabulary implements store.VocabularyStore.
func (s *Store) ListVocabulary(ctx context.Context) ([]model.VocabularyItem, error) {
	var rows []vocabularyRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+vocabularyColumns+` FROM vocabulary ORDER BY added_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	return items(rows), nil
}

// SearchVocabulary implements store.VocabularyStore.
func (s *Store) SearchVocabulary(ctx context.Context, query string) ([]model.VocabularyItem, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	var rows []vocabularyRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+vocabularyColumns+` FROM vocabulary
		WHERE LOWER(source_word) LIKE ? ESCAPE '\' OR LOWER(target_word) LIKE ? ESCAPE '\'
		ORDER BY added_at DESC, id`), pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search vocabulary %q: %w", query, err)
	}
	return items(rows), nil
}

// ListVocabularyByBook implements store.VocabularyStore.
func (s *Store) ListVocabularyByBook(ctx context.Context, bookID string) ([]model.VocabularyItem, error) {
	var rows []vocabularyRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+vocabularyColumns+` FROM vocabulary WHERE book_id = ? ORDER BY added_at DESC, id`), bookID)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary for book %s: %w", bookID, err)
	}
	return items(rows), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
