// Package xenolexia is the core of a language-learning e-book reader. It
// parses EPUB, FB2, MOBI, PDF and plain text books into one model, replaces
// a controlled share of the words in a chapter with their translations, and
// schedules the saved words for review with SM-2.
//
// Basic usage:
//
//	book, err := xenolexia.ParseBook(ctx, "novel.epub")
//	if err != nil {
//	    // handle error
//	}
//	pc, err := xenolexia.ProcessChapter(ctx, book.Chapters[0], xenolexia.ProcessOptions{
//	    Lexicon:    lex,
//	    Translator: tr,
//	    Policy:     policy.Policy{Pair: pair, Level: model.Beginner, Density: 0.1},
//	})
//
// With the fluent reader:
//
//	chapters, err := xenolexia.Open("novel.epub").
//	    Lexicon(lex).
//	    Translator(tr).
//	    Pair(pair).
//	    Level(model.Intermediate).
//	    Chapters(0, 1).
//	    Process(ctx)
package xenolexia

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/parser"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/srs"
	"github.com/xenolexia/xenolexia-go/substitute"
	"github.com/xenolexia/xenolexia-go/translate"
)

// ErrNoLexicon is returned when a chapter is processed without a lexicon or
// translator.
var ErrNoLexicon = errors.New("xenolexia: lexicon and translator are required")

// ParseOption configures ParseBook.
type ParseOption = parser.Option

// Parse options.
var (
	WithLogger = parser.WithLogger
	WithOCR    = parser.WithOCR
	WithFormat = parser.WithFormat
)

// ParseBook parses the book at path on the local file system.
func ParseBook(ctx context.Context, path string, opts ...ParseOption) (*model.ParsedBook, error) {
	return parser.ParseBook(ctx, afero.NewOsFs(), path, opts...)
}

// ProcessOptions configures ProcessChapter.
type ProcessOptions struct {
	Lexicon    lexicon.Lexicon
	Translator translate.Translator
	Policy     policy.Policy
	// Substitution overrides the defaults derived from Policy when its
	// Policy.Pair is set.
	Substitution substitute.Options
	Logger       *slog.Logger
}

func (o ProcessOptions) substitution() substitute.Options {
	if o.Substitution.Policy.Pair.Valid() {
		return o.Substitution
	}
	return substitute.DefaultOptions(o.Policy)
}

// ProcessChapter replaces a share of the chapter's words with translations.
func ProcessChapter(ctx context.Context, ch model.Chapter, opts ProcessOptions) (*model.ProcessedChapter, error) {
	if opts.Lexicon == nil || opts.Translator == nil {
		return nil, ErrNoLexicon
	}
	e := substitute.NewEngine(opts.Lexicon, opts.Translator, opts.Logger)
	return e.Process(ctx, ch, opts.substitution())
}

// Sm2Step applies one SM-2 review with the given quality (0-5, clamped).
func Sm2Step(state model.VocabularyItem, quality int) model.VocabularyItem {
	return srs.Step(state, quality)
}

// SelectDueItems returns at most limit items due at now: never-reviewed
// items first, then the most overdue.
func SelectDueItems(items []model.VocabularyItem, now time.Time, limit int) []model.VocabularyItem {
	return srs.SelectDueItems(items, now, limit)
}

// Must wraps a call returning (T, error) and panics if the error is non-nil.
// It is intended for scripts and tests.
//
//	book := xenolexia.Must(xenolexia.ParseBook(ctx, "novel.epub"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
