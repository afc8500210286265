package xenolexia

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/translate"
)

var enes = model.LanguagePair{Source: model.English, Target: model.Spanish}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixtures() (*lexicon.Memory, *translate.Static) {
	words := map[string]string{"house": "casa", "dog": "perro", "cat": "gato"}
	lex := lexicon.NewMemory()
	rank := 1
	for src, dst := range words {
		lex.Add(model.WordEntry{SourceWord: src, TargetWord: dst, Pair: enes, FrequencyRank: rank})
		rank++
	}
	return lex, translate.NewStatic(enes, words)
}

func allWords() policy.Policy {
	return policy.Policy{Pair: enes, Level: model.Beginner, Density: 1, MinTokenSpacing: 1}
}

func TestProcessChapter(t *testing.T) {
	lex, tr := fixtures()
	ch := model.Chapter{ID: "c1", Content: "<p>The dog saw the cat.</p>", ContentType: model.ContentHTML}

	pc, err := ProcessChapter(context.Background(), ch, ProcessOptions{
		Lexicon:    lex,
		Translator: tr,
		Policy:     allWords(),
		Logger:     quiet,
	})
	require.NoError(t, err)
	require.NoError(t, pc.Validate())

	require.Len(t, pc.ForeignWords, 2)
	assert.Equal(t, "perro", pc.ForeignWords[0].ForeignWord)
	assert.Equal(t, "gato", pc.ForeignWords[1].ForeignWord)
	assert.Equal(t, ch.Content, pc.Content, "original content is kept")
}

func TestProcessChapterRequiresLexicon(t *testing.T) {
	_, err := ProcessChapter(context.Background(), model.Chapter{}, ProcessOptions{})
	assert.ErrorIs(t, err, ErrNoLexicon)
}

func TestSm2StepAndDue(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	item, err := model.NewVocabularyItem("house", "casa", enes, now)
	require.NoError(t, err)

	next := Sm2Step(*item, 5)
	assert.Equal(t, 1, next.Interval)
	assert.Equal(t, 1, next.ReviewCount)

	reviewed := now
	next.LastReviewedAt = &reviewed
	assert.Empty(t, SelectDueItems([]model.VocabularyItem{next}, now, 10))
	assert.Len(t, SelectDueItems([]model.VocabularyItem{next}, now.Add(24*time.Hour), 10), 1)
}

func TestReaderProcess(t *testing.T) {
	fs := afero.NewMemMapFs()
	text := "Chapter 1\n\nThe dog sleeps.\n\nChapter 2\n\nThe cat and the house.\n"
	require.NoError(t, afero.WriteFile(fs, "/b.txt", []byte(text), 0o644))
	lex, tr := fixtures()

	base := Open("/b.txt").FS(fs).Logger(quiet).Lexicon(lex).Translator(tr).Policy(allWords())

	all, err := base.Process(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Len(t, all[1].ForeignWords, 2)

	second, err := base.Chapters(1).Process(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "chapter-2", second[0].ID)

	// Configuring a derived reader leaves the base untouched.
	assert.Empty(t, base.options.chapters)

	_, err = base.Chapters(5).Process(context.Background())
	assert.ErrorContains(t, err, "out of range")
}

func TestReaderBook(t *testing.T) {
	book := &model.ParsedBook{Chapters: []model.Chapter{{ID: "x", Content: "house"}}}
	got, err := FromBook(book).Book(context.Background())
	require.NoError(t, err)
	assert.Same(t, book, got)

	_, err = Open("/nope.epub").FS(afero.NewMemMapFs()).Logger(quiet).Book(context.Background())
	assert.ErrorIs(t, err, format.ErrIO)

	_, err = FromBook(book).Process(context.Background())
	assert.ErrorIs(t, err, ErrNoLexicon)
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, io.EOF) })
}
