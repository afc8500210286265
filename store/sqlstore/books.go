package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/store"
)

type bookRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Author         string         `db:"author"`
	FilePath       string         `db:"file_path"`
	Format         string         `db:"format"`
	FileSize       int64          `db:"file_size"`
	AddedAt        time.Time      `db:"added_at"`
	LastReadAt     *time.Time     `db:"last_read_at"`
	SourceLang     model.Language `db:"source_lang"`
	TargetLang     model.Language `db:"target_lang"`
	Proficiency    string         `db:"proficiency"`
	WordDensity    float64        `db:"word_density"`
	Progress       float64        `db:"progress"`
	CurrentChapter int            `db:"current_chapter"`
	TotalChapters  int            `db:"total_chapters"`
}

const bookColumns = `id, title, author, file_path, format, file_size, added_at, last_read_at,
	source_lang, target_lang, proficiency, word_density, progress, current_chapter, total_chapters`

func toBookRow(b *model.Book) bookRow {
	return bookRow{
		ID:             b.ID,
		Title:          b.Title,
		Author:         b.Author,
		FilePath:       b.FilePath,
		Format:         strings.ToLower(b.Format.String()),
		FileSize:       b.FileSize,
		AddedAt:        utc(b.AddedAt),
		LastReadAt:     utcPtr(b.LastReadAt),
		SourceLang:     b.Pair.Source,
		TargetLang:     b.Pair.Target,
		Proficiency:    b.Level.String(),
		WordDensity:    b.WordDensity,
		Progress:       b.Progress,
		CurrentChapter: b.CurrentChapter,
		TotalChapters:  b.TotalChapters,
	}
}

func (r bookRow) book() model.Book {
	level, err := model.ParseProficiency(r.Proficiency)
	if err != nil {
		level = model.Beginner
	}
	return model.Book{
		ID:             r.ID,
		Title:          r.Title,
		Author:         r.Author,
		FilePath:       r.FilePath,
		Format:         format.Parse(r.Format),
		FileSize:       r.FileSize,
		AddedAt:        r.AddedAt.UTC(),
		LastReadAt:     utcPtr(r.LastReadAt),
		Pair:           model.LanguagePair{Source: r.SourceLang, Target: r.TargetLang},
		Level:          level,
		WordDensity:    r.WordDensity,
		Progress:       r.Progress,
		CurrentChapter: r.CurrentChapter,
		TotalChapters:  r.TotalChapters,
	}
}

func validateBook(b *model.Book) error {
	switch {
	case b.ID == "":
		return fmt.Errorf("%w: book id cannot be empty", store.ErrInvalidEntity)
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("%w: book title cannot be empty", store.ErrInvalidEntity)
	case b.Progress < 0 || b.Progress > 100:
		return fmt.Errorf("%w: progress %.2f outside [0,100]", store.ErrInvalidEntity, b.Progress)
	}
	return nil
}

// AddBook implements store.BookStore.
func (s *Store) AddBook(ctx context.Context, b *model.Book) error {
	if err := validateBook(b); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (:id, :title, :author, :file_path, :format, :file_size, :added_at, :last_read_at,
			:source_lang, :target_lang, :proficiency, :word_density, :progress, :current_chapter,
			:total_chapters)`, toBookRow(b))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add book",
			slog.String("error", err.Error()),
			slog.String("book_id", b.ID))
		return fmt.Errorf("add book %s: %w", b.ID, mapError(err, store.ErrBookNotFound))
	}
	s.logger.InfoContext(ctx, "book added",
		slog.String("book_id", b.ID),
		slog.String("title", b.Title),
		slog.String("format", b.Format.String()))
	return nil
}

// GetBook implements store.BookStore.
func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	var row bookRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+bookColumns+` FROM books WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, mapError(err, store.ErrBookNotFound))
	}
	b := row.book()
	return &b, nil
}

// UpdateBook implements store.BookStore.
func (s *Store) UpdateBook(ctx context.Context, b *model.Book) error {
	if err := validateBook(b); err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE books SET
			title = :title,
			author = :author,
			file_path = :file_path,
			last_read_at = :last_read_at,
			source_lang = :source_lang,
			target_lang = :target_lang,
			proficiency = :proficiency,
			word_density = :word_density,
			progress = :progress,
			current_chapter = :current_chapter,
			total_chapters = :total_chapters
		WHERE id = :id`, toBookRow(b))
	if err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, mapError(err, store.ErrBookNotFound))
	}
	if err := requireRow(res, store.ErrBookNotFound); err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, err)
	}
	return nil
}

// UpdateProgress implements store.BookStore.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress float64, chapter int, at time.Time) error {
	progress = max(0, min(100, progress))
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE books SET progress = ?, current_chapter = ?, last_read_at = ? WHERE id = ?`),
		progress, chapter, utc(at), id)
	if err != nil {
		return fmt.Errorf("update progress of book %s: %w", id, mapError(err, store.ErrBookNotFound))
	}
	if err := requireRow(res, store.ErrBookNotFound); err != nil {
		return fmt.Errorf("update progress of book %s: %w", id, err)
	}
	return nil
}

// DeleteBook implements store.BookStore. Reading sessions of the book are
// removed with it; saved vocabulary is kept.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, mapError(err, store.ErrBookNotFound))
	}
	if err := requireRow(res, store.ErrBookNotFound); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

// ListBooks implements store.BookStore.
func (s *Store) ListBooks(ctx context.Context) ([]model.Book, error) {
	var rows []bookRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+bookColumns+` FROM books
		ORDER BY CASE WHEN last_read_at IS NULL THEN 1 ELSE 0 END, last_read_at DESC, added_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]model.Book, len(rows))
	for i, r := range rows {
		out[i] = r.book()
	}
	return out, nil
}
