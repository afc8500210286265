package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/store"
)

type sessionRow struct {
	ID            string     `db:"id"`
	BookID        string     `db:"book_id"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	PagesRead     int        `db:"pages_read"`
	WordsRevealed int        `db:"words_revealed"`
	WordsSaved    int        `db:"words_saved"`
}

const sessionColumns = `id, book_id, started_at, ended_at, pages_read, words_revealed, words_saved`

func toSessionRow(rs *model.ReadingSession) sessionRow {
	return sessionRow{
		ID:            rs.ID,
		BookID:        rs.BookID,
		StartedAt:     utc(rs.StartedAt),
		EndedAt:       utcPtr(rs.EndedAt),
		PagesRead:     rs.PagesRead,
		WordsRevealed: rs.WordsRevealed,
		WordsSaved:    rs.WordsSaved,
	}
}

// StartSession implements store.SessionStore. The book must exist.
func (s *Store) StartSession(ctx context.Context, rs *model.ReadingSession) error {
	if rs.ID == "" || rs.BookID == "" {
		return fmt.Errorf("%w: session and book id are required", store.ErrInvalidEntity)
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reading_sessions (`+sessionColumns+`)
		VALUES (:id, :book_id, :started_at, :ended_at, :pages_read, :words_revealed, :words_saved)`,
		toSessionRow(rs))
	if err != nil {
		return fmt.Errorf("start session %s: %w", rs.ID, mapError(err, store.ErrSessionNotFound))
	}
	return nil
}

// EndSession implements store.SessionStore.
func (s *Store) EndSession(ctx context.Context, rs *model.ReadingSession) error {
	if rs.EndedAt == nil {
		return fmt.Errorf("%w: session %s has no end time", store.ErrInvalidEntity, rs.ID)
	}
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE reading_sessions SET
			ended_at = :ended_at,
			pages_read = :pages_read,
			words_revealed = :words_revealed,
			words_saved = :words_saved
		WHERE id = :id`, toSessionRow(rs))
	if err != nil {
		return fmt.Errorf("end session %s: %w", rs.ID, mapError(err, store.ErrSessionNotFound))
	}
	if err := requireRow(res, store.ErrSessionNotFound); err != nil {
		return fmt.Errorf("end session %s: %w", rs.ID, err)
	}
	return nil
}

// ListSessions implements store.SessionStore. Sessions are returned oldest
// first.
func (s *Store) ListSessions(ctx context.Context, bookID string) ([]model.ReadingSession, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+sessionColumns+` FROM reading_sessions WHERE book_id = ? ORDER BY started_at, id`), bookID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for book %s: %w", bookID, err)
	}
	out := make([]model.ReadingSession, len(rows))
	for i, r := range rows {
		out[i] = model.ReadingSession{
			ID:            r.ID,
			BookID:        r.BookID,
			StartedAt:     r.StartedAt.UTC(),
			EndedAt:       utcPtr(r.EndedAt),
			PagesRead:     r.PagesRead,
			WordsRevealed: r.WordsRevealed,
			WordsSaved:    r.WordsSaved,
		}
	}
	return out, nil
}
