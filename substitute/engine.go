// Package substitute rewrites chapter content, replacing a policy-selected
// subset of words with foreign equivalents and recording where each
// replacement landed.
//
// A pass segments the chapter, selects occurrences with a [policy.Policy],
// translates every distinct selected word once with bounded concurrency and a
// per-word timeout, and only then assembles the processed content. Offsets
// depend on the final accepted set, so nothing is assembled until every
// translation has finished or failed.
package substitute

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/segment"
	"github.com/xenolexia/xenolexia-go/translate"
)

// ErrNoSubstitutions is returned when no occurrence could be substituted but
// at least one was required. It wraps the last translation error, if any.
var ErrNoSubstitutions = errors.New("substitute: no substitutions succeeded")

// ForeignClass is the class attribute of rendered HTML substitutions.
const ForeignClass = "xl-foreign"

// Options configures one substitution pass.
type Options struct {
	Policy policy.Policy
	// Concurrency bounds simultaneous translation calls. Zero or negative
	// selects the default.
	Concurrency int
	// Timeout bounds each translation call. Zero or negative selects the
	// default.
	Timeout time.Duration
	// MinRequired makes the pass fail when it is at least one and no
	// substitution succeeded.
	MinRequired int
	// PreserveCase capitalizes the foreign word like the original.
	PreserveCase bool
}

// DefaultOptions returns options with the default concurrency, timeout and
// case matching enabled.
func DefaultOptions(p policy.Policy) Options {
	return Options{
		Policy:       p,
		Concurrency:  4,
		Timeout:      5 * time.Second,
		PreserveCase: true,
	}
}

// Engine runs substitution passes. It is safe for concurrent use if its
// lexicon and translator are.
type Engine struct {
	lexicon    lexicon.Lexicon
	translator translate.Translator
	logger     *slog.Logger
}

// NewEngine returns an engine using lex to select words and tr to translate
// them.
func NewEngine(lex lexicon.Lexicon, tr translate.Translator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{lexicon: lex, translator: tr, logger: logger}
}

// Mode returns the segmentation mode for a content type.
func Mode(ct model.ContentType) segment.Mode {
	if ct == model.ContentText {
		return segment.Text
	}
	return segment.HTML
}

// Process produces the processed form of ch.
func (e *Engine) Process(ctx context.Context, ch model.Chapter, opts Options) (*model.ProcessedChapter, error) {
	opts = withDefaults(opts)
	mode := Mode(ch.ContentType)

	words := slices.Collect(segment.Words(ch.Content, mode))
	picked := opts.Policy.Select(words, e.lexicon)

	translations, lastErr := e.translateAll(ctx, picked, opts)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("substitute chapter %s: %w", ch.ID, err)
	}

	out := &model.ProcessedChapter{Chapter: ch}
	var b strings.Builder
	b.Grow(len(ch.Content) + len(picked)*96)
	prev := 0
	target := opts.Policy.Pair.Target

	for _, c := range picked {
		foreign, ok := translations[lexicon.Fold(c.Span.Text)]
		if !ok {
			continue
		}
		if opts.PreserveCase {
			foreign = matchCase(c.Span.Text, foreign, target)
		}

		b.WriteString(ch.Content[prev:c.Span.Start])
		start := b.Len()
		id := refID(ch.ID, c.Index)
		if mode == segment.HTML {
			renderHTML(&b, id, c.Span.Text, foreign, target)
		} else {
			b.WriteString(foreign)
		}
		prev = c.Span.End

		entry := c.Entry
		entry.TargetWord = foreign
		out.ForeignWords = append(out.ForeignWords, model.ForeignWordData{
			OriginalWord: c.Span.Text,
			ForeignWord:  foreign,
			StartIndex:   start,
			EndIndex:     b.Len(),
			RefID:        id,
			WordEntry:    &entry,
		})
	}
	b.WriteString(ch.Content[prev:])
	out.ProcessedContent = b.String()

	e.logger.DebugContext(ctx, "chapter processed",
		"chapter_id", ch.ID,
		"words", len(words),
		"selected", len(picked),
		"substituted", len(out.ForeignWords))

	if len(out.ForeignWords) == 0 && opts.MinRequired >= 1 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: chapter %s: %w", ErrNoSubstitutions, ch.ID, lastErr)
		}
		return nil, fmt.Errorf("%w: chapter %s: no eligible words", ErrNoSubstitutions, ch.ID)
	}
	return out, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions(opts.Policy)
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return opts
}

// translateAll translates each distinct picked word once. Failed words are
// absent from the result; the last failure is returned alongside.
func (e *Engine) translateAll(ctx context.Context, picked []policy.Candidate, opts Options) (map[string]string, error) {
	seen := make(map[string]bool, len(picked))
	var todo []string
	for _, c := range picked {
		key := lexicon.Fold(c.Span.Text)
		if !seen[key] {
			seen[key] = true
			todo = append(todo, c.Span.Text)
		}
	}

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(todo))
		lastErr error
	)
	pair := opts.Policy.Pair

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, word := range todo {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(gctx, opts.Timeout)
			defer cancel()

			foreign, err := e.translator.Translate(wctx, word, pair.Source, pair.Target)
			if err == nil && strings.TrimSpace(foreign) == "" {
				err = &translate.Error{Kind: translate.BackendError, Word: word, Err: translate.ErrNotFound}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = translate.Classify(word, err)
				e.logger.DebugContext(ctx, "translation skipped", "word", word, "error", err)
				return nil
			}
			results[lexicon.Fold(word)] = strings.TrimSpace(foreign)
			return nil
		})
	}
	_ = g.Wait()

	return results, lastErr
}

func refID(chapterID string, index int) string {
	return chapterID + "-w" + strconv.Itoa(index)
}

func renderHTML(b *strings.Builder, id, original, foreign string, lang model.Language) {
	b.WriteString(`<span class="`)
	b.WriteString(ForeignClass)
	b.WriteString(`" data-xl-id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" data-xl-original="`)
	b.WriteString(html.EscapeString(original))
	if lang != "" {
		b.WriteString(`" lang="`)
		b.WriteString(html.EscapeString(string(lang)))
	}
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(foreign))
	b.WriteString(`</span>`)
}

// matchCase makes foreign all upper case when original is, or capitalizes
// its first letter when original starts with one.
func matchCase(original, foreign string, lang model.Language) string {
	first, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(first) {
		return foreign
	}
	tag, err := language.Parse(string(lang))
	if err != nil {
		tag = language.Und
	}
	upper := cases.Upper(tag)

	if utf8.RuneCountInString(original) > 1 && original == strings.ToUpper(original) {
		return upper.String(foreign)
	}
	r, size := utf8.DecodeRuneInString(foreign)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return foreign
	}
	return upper.String(foreign[:size]) + foreign[size:]
}
