// Package lexicon provides word frequency and dictionary lookups used to
// decide which words are candidates for substitution.
package lexicon

import (
	"sync"

	"golang.org/x/text/cases"

	"github.com/xenolexia/xenolexia-go/model"
)

// Lexicon looks up dictionary entries. Lookups are case-insensitive.
type Lexicon interface {
	Lookup(word string, pair model.LanguagePair) (model.WordEntry, bool)
}

// Fold returns the case-folded form of word used for case-insensitive
// comparison.
func Fold(word string) string {
	// A Caser keeps state and may not be shared between goroutines.
	return cases.Fold().String(word)
}

// Memory is an in-memory Lexicon. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[model.LanguagePair]map[string]model.WordEntry
}

// NewMemory returns an empty lexicon.
func NewMemory() *Memory {
	return &Memory{entries: make(map[model.LanguagePair]map[string]model.WordEntry)}
}

// Add inserts or replaces the entry for e.SourceWord in e.Pair. An existing
// entry with a better (lower) frequency rank is kept.
func (m *Memory) Add(e model.WordEntry) {
	key := Fold(e.SourceWord)
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byWord, ok := m.entries[e.Pair]
	if !ok {
		byWord = make(map[string]model.WordEntry)
		m.entries[e.Pair] = byWord
	}
	if old, ok := byWord[key]; ok && old.FrequencyRank > 0 && old.FrequencyRank <= e.FrequencyRank {
		return
	}
	byWord[key] = e
}

// Lookup implements Lexicon.
func (m *Memory) Lookup(word string, pair model.LanguagePair) (model.WordEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[pair][Fold(word)]
	return e, ok
}

// Len returns the number of entries for pair.
func (m *Memory) Len(pair model.LanguagePair) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[pair])
}

// Entries returns every entry in the lexicon, in no particular order.
func (m *Memory) Entries() []model.WordEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.WordEntry
	for _, byWord := range m.entries {
		for _, e := range byWord {
			out = append(out, e)
		}
	}
	return out
}
