package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/store"
)

var (
	enes = model.LanguagePair{Source: model.English, Target: model.Spanish}
	t0   = time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x", nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func newVocab(id, src, dst string, added time.Time) *model.VocabularyItem {
	return &model.VocabularyItem{
		ID:         id,
		SourceWord: src,
		TargetWord: dst,
		Pair:       enes,
		BookID:     "b1",
		AddedAt:    added,
		EaseFactor: model.DefaultEaseFactor,
		Status:     model.StatusNew,
	}
}

func TestVocabularyCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item := newVocab("v1", "house", "casa", t0)
	item.ContextSentence = "The house was old."
	require.NoError(t, s.AddVocabulary(ctx, item))

	err := s.AddVocabulary(ctx, item)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetVocabulary(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "house", got.SourceWord)
	assert.Equal(t, enes, got.Pair)
	assert.Equal(t, "The house was old.", got.ContextSentence)
	assert.True(t, got.AddedAt.Equal(t0))
	assert.Nil(t, got.LastReviewedAt)
	assert.Equal(t, model.StatusNew, got.Status)

	reviewed := t0.Add(time.Hour)
	got.LastReviewedAt = &reviewed
	got.ReviewCount = 1
	got.Interval = 1
	got.EaseFactor = 2.6
	got.Status = model.StatusLearning
	require.NoError(t, s.UpdateVocabulary(ctx, got))

	again, err := s.GetVocabulary(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, again.LastReviewedAt)
	assert.True(t, again.LastReviewedAt.Equal(reviewed))
	assert.Equal(t, 1, again.ReviewCount)
	assert.Equal(t, 1, again.Interval)
	assert.InDelta(t, 2.6, again.EaseFactor, 1e-9)
	assert.Equal(t, model.StatusLearning, again.Status)

	require.NoError(t, s.DeleteVocabulary(ctx, "v1"))
	_, err = s.GetVocabulary(ctx, "v1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, store.ErrVocabularyNotFound)

	assert.ErrorIs(t, s.DeleteVocabulary(ctx, "v1"), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateVocabulary(ctx, got), store.ErrNotFound)
}

func TestVocabularyValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bad := newVocab("v1", "", "casa", t0)
	assert.ErrorIs(t, s.AddVocabulary(ctx, bad), store.ErrInvalidEntity)
	assert.ErrorIs(t, s.AddVocabulary(ctx, bad), model.ErrValidation)

	bad = newVocab("v2", "house", "casa", t0)
	bad.EaseFactor = 1.0
	assert.ErrorIs(t, s.AddVocabulary(ctx, bad), store.ErrInvalidEntity)
}

func TestVocabularyListAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddVocabulary(ctx, newVocab("v1", "house", "casa", t0)))
	require.NoError(t, s.AddVocabulary(ctx, newVocab("v2", "Household", "hogar", t0.Add(time.Minute))))
	other := newVocab("v3", "dog", "perro", t0.Add(2*time.Minute))
	other.BookID = "b2"
	require.NoError(t, s.AddVocabulary(ctx, other))
	require.NoError(t, s.AddVocabulary(ctx, newVocab("v4", "100%", "cien por ciento", t0.Add(3*time.Minute))))

	all, err := s.ListVocabulary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v4", "v3", "v2", "v1"}, ids(all))

	found, err := s.SearchVocabulary(ctx, "HOUSE")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v1"}, ids(found))

	found, err = s.SearchVocabulary(ctx, "perr")
	require.NoError(t, err)
	assert.Equal(t, []string{"v3"}, ids(found))

	found, err = s.SearchVocabulary(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"v4"}, ids(found), "LIKE wildcards are matched literally")

	byBook, err := s.ListVocabularyByBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v4", "v2", "v1"}, ids(byBook))
}

func ids(items []model.VocabularyItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newBook(id string, added time.Time) *model.Book {
	return &model.Book{
		ID:            id,
		Title:         "Book " + id,
		Author:        "Ann Author",
		FilePath:      "/books/" + id + ".epub",
		Format:        format.EPUB,
		FileSize:      1024,
		AddedAt:       added,
		Pair:          enes,
		Level:         model.Intermediate,
		WordDensity:   0.1,
		TotalChapters: 12,
	}
}

func TestBooks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddBook(ctx, newBook("b1", t0)))
	require.NoError(t, s.AddBook(ctx, newBook("b2", t0.Add(time.Hour))))
	require.NoError(t, s.AddBook(ctx, newBook("b3", t0.Add(2*time.Hour))))
	assert.ErrorIs(t, s.AddBook(ctx, newBook("b1", t0)), store.ErrDuplicate)
	assert.ErrorIs(t, s.AddBook(ctx, &model.Book{ID: "x"}), store.ErrInvalidEntity)

	got, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, format.EPUB, got.Format)
	assert.Equal(t, model.Intermediate, got.Level)
	assert.Equal(t, enes, got.Pair)
	assert.Equal(t, 12, got.TotalChapters)
	assert.Nil(t, got.LastReadAt)

	require.NoError(t, s.UpdateProgress(ctx, "b1", 42.5, 3, t0.Add(3*time.Hour)))
	got, err = s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.InDelta(t, 42.5, got.Progress, 1e-9)
	assert.Equal(t, 3, got.CurrentChapter)
	require.NotNil(t, got.LastReadAt)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	var order []string
	for _, b := range books {
		order = append(order, b.ID)
	}
	assert.Equal(t, []string{"b1", "b3", "b2"}, order)

	got.Title = "Renamed"
	require.NoError(t, s.UpdateBook(ctx, got))
	got, err = s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	require.NoError(t, s.DeleteBook(ctx, "b1"))
	_, err = s.GetBook(ctx, "b1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	assert.ErrorIs(t, s.UpdateProgress(ctx, "b1", 1, 1, t0), store.ErrNotFound)
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddBook(ctx, newBook("b1", t0)))

	rs := &model.ReadingSession{ID: "s1", BookID: "b1", StartedAt: t0}
	require.NoError(t, s.StartSession(ctx, rs))

	orphan := &model.ReadingSession{ID: "s2", BookID: "missing", StartedAt: t0}
	assert.ErrorIs(t, s.StartSession(ctx, orphan), store.ErrInvalidEntity)

	assert.ErrorIs(t, s.EndSession(ctx, rs), store.ErrInvalidEntity, "end time required")

	end := t0.Add(25 * time.Minute)
	rs.EndedAt = &end
	rs.PagesRead = 7
	rs.WordsRevealed = 12
	rs.WordsSaved = 3
	require.NoError(t, s.EndSession(ctx, rs))

	sessions, err := s.ListSessions(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 25*time.Minute, sessions[0].Duration())
	assert.Equal(t, 3, sessions[0].WordsSaved)

	require.NoError(t, s.DeleteBook(ctx, "b1"))
	sessions, err = s.ListSessions(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
