package translate

import (
	"context"
	"sync"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
)

// Static translates from fixed word lists, one per language pair. Lookups
// are case-insensitive. It is safe for concurrent use.
type Static struct {
	mu    sync.RWMutex
	words map[model.LanguagePair]map[string]string
}

// NewStatic returns a Static translator seeded with words for pair.
func NewStatic(pair model.LanguagePair, words map[string]string) *Static {
	s := &Static{words: make(map[model.LanguagePair]map[string]string)}
	for src, dst := range words {
		s.Add(pair, src, dst)
	}
	return s
}

// Add registers a translation.
func (s *Static) Add(pair model.LanguagePair, source, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.words[pair]
	if !ok {
		m = make(map[string]string)
		s.words[pair] = m
	}
	m[lexicon.Fold(source)] = target
}

// FromLexicon returns a Static translator holding every entry that carries
// a target word.
func FromLexicon(entries []model.WordEntry) *Static {
	s := &Static{words: make(map[model.LanguagePair]map[string]string)}
	for _, e := range entries {
		if e.TargetWord != "" {
			s.Add(e.Pair, e.SourceWord, e.TargetWord)
		}
	}
	return s
}

// Translate implements Translator.
func (s *Static) Translate(ctx context.Context, word string, source, target model.Language) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Classify(word, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if out, ok := s.words[model.LanguagePair{Source: source, Target: target}][lexicon.Fold(word)]; ok {
		return out, nil
	}
	return "", &Error{Kind: BackendError, Word: word, Err: ErrNotFound}
}
