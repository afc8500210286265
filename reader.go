package xenolexia

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/parser"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/substitute"
	"github.com/xenolexia/xenolexia-go/translate"
)

// Reader provides a fluent interface for parsing a book and processing its
// chapters. Each configuration method returns a new Reader, so a Reader can
// be shared and specialized safely.
type Reader struct {
	// Source
	path string
	fs   afero.Fs
	book *model.ParsedBook

	options readOptions
}

// Open returns a Reader for the book at path. Nothing is read until a
// terminal method such as Book or Process is called.
func Open(path string) *Reader {
	return &Reader{
		path:    path,
		fs:      afero.NewOsFs(),
		options: defaultReadOptions(),
	}
}

// FromBook returns a Reader over an already parsed book.
func FromBook(book *model.ParsedBook) *Reader {
	return &Reader{book: book, options: defaultReadOptions()}
}

// clone copies the Reader with a deep copy of its options.
func (r *Reader) clone() *Reader {
	return &Reader{
		path:    r.path,
		fs:      r.fs,
		book:    r.book,
		options: r.options.clone(),
	}
}

// FS reads the book from fs instead of the local file system.
func (r *Reader) FS(fs afero.Fs) *Reader {
	n := r.clone()
	n.fs = fs
	return n
}

// Logger sets the logger for parsing and substitution.
func (r *Reader) Logger(l *slog.Logger) *Reader {
	n := r.clone()
	n.options.logger = l
	return n
}

// ParseOptions adds parser options, such as WithOCR.
func (r *Reader) ParseOptions(opts ...ParseOption) *Reader {
	n := r.clone()
	n.options.parse = append(n.options.parse, opts...)
	return n
}

// Lexicon sets the word list used to select words.
func (r *Reader) Lexicon(lex lexicon.Lexicon) *Reader {
	n := r.clone()
	n.options.lexicon = lex
	return n
}

// Translator sets the translator for selected words.
func (r *Reader) Translator(tr translate.Translator) *Reader {
	n := r.clone()
	n.options.translator = tr
	return n
}

// Pair sets the source and target languages.
func (r *Reader) Pair(pair model.LanguagePair) *Reader {
	n := r.clone()
	n.options.policy.Pair = pair
	return n
}

// Level sets the learner's proficiency level.
func (r *Reader) Level(level model.ProficiencyLevel) *Reader {
	n := r.clone()
	n.options.policy.Level = level
	return n
}

// Density sets the target share of words to replace.
func (r *Reader) Density(d float64) *Reader {
	n := r.clone()
	n.options.policy.Density = d
	return n
}

// Policy replaces the whole selection policy.
func (r *Reader) Policy(p policy.Policy) *Reader {
	n := r.clone()
	n.options.policy = p
	return n
}

// Chapters restricts processing to the given chapter indexes (0-based).
// Multiple calls are cumulative.
func (r *Reader) Chapters(indexes ...int) *Reader {
	n := r.clone()
	n.options.chapters = append(n.options.chapters, indexes...)
	return n
}

// Book parses the book, or returns the book the Reader was built from.
func (r *Reader) Book(ctx context.Context) (*model.ParsedBook, error) {
	if r.book != nil {
		return r.book, nil
	}
	opts := append([]parser.Option{parser.WithLogger(r.options.logger)}, r.options.parse...)
	return parser.ParseBook(ctx, r.fs, r.path, opts...)
}

// Process parses the book if needed and processes the selected chapters in
// reading order.
func (r *Reader) Process(ctx context.Context) ([]*model.ProcessedChapter, error) {
	if r.options.lexicon == nil || r.options.translator == nil {
		return nil, ErrNoLexicon
	}
	book, err := r.Book(ctx)
	if err != nil {
		return nil, err
	}

	indexes, err := r.resolveChapters(len(book.Chapters))
	if err != nil {
		return nil, err
	}

	e := substitute.NewEngine(r.options.lexicon, r.options.translator, r.options.logger)
	opts := substitute.DefaultOptions(r.options.policy)

	out := make([]*model.ProcessedChapter, 0, len(indexes))
	for _, i := range indexes {
		pc, err := e.Process(ctx, book.Chapters[i], opts)
		if err != nil {
			return nil, fmt.Errorf("chapter %d: %w", i, err)
		}
		out = append(out, pc)
	}
	return out, nil
}

// resolveChapters returns the selected chapter indexes, or all of them.
func (r *Reader) resolveChapters(count int) ([]int, error) {
	if len(r.options.chapters) == 0 {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range r.options.chapters {
		if i < 0 || i >= count {
			return nil, fmt.Errorf("xenolexia: chapter %d out of range [0, %d)", i, count)
		}
	}
	return r.options.chapters, nil
}
