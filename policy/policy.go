// Package policy decides which word occurrences of a chapter are replaced by
// foreign equivalents.
//
// Selection is deterministic: the same words, policy and exclusion set always
// produce the same selection, so a chapter regenerated in a later session
// shows the same substitutions at the same places.
package policy

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/segment"
)

const (
	// DefaultMinTokenSpacing is the minimum distance, in word tokens,
	// between two selected occurrences.
	DefaultMinTokenSpacing = 3
	// DefaultDensity is the share of word occurrences replaced by default.
	DefaultDensity = 0.1
)

// Band is an inclusive range of frequency ranks.
type Band struct {
	Min int `mapstructure:"min" validate:"gte=1"`
	Max int `mapstructure:"max" validate:"gtefield=Min"`
}

// Contains reports whether rank lies in the band.
func (b Band) Contains(rank int) bool {
	return rank >= b.Min && rank <= b.Max
}

// Bands maps each proficiency level to its frequency band.
type Bands map[model.ProficiencyLevel]Band

// DefaultBands returns the built-in bands: the 500 most frequent words for
// beginners, ranks 501-2000 for intermediate and 2001-5000 for advanced
// learners.
func DefaultBands() Bands {
	return Bands{
		model.Beginner:     {Min: 1, Max: 500},
		model.Intermediate: {Min: 501, Max: 2000},
		model.Advanced:     {Min: 2001, Max: 5000},
	}
}

// LevelFor returns the level whose band contains rank.
func (b Bands) LevelFor(rank int) (model.ProficiencyLevel, bool) {
	for _, lvl := range []model.ProficiencyLevel{model.Beginner, model.Intermediate, model.Advanced} {
		if band, ok := b[lvl]; ok && band.Contains(rank) {
			return lvl, true
		}
	}
	return model.Beginner, false
}

// Policy configures word selection.
type Policy struct {
	Pair  model.LanguagePair
	Level model.ProficiencyLevel
	// Density is the target fraction of word occurrences to substitute.
	// Values outside [0,1] are clamped.
	Density float64
	// Bands overrides DefaultBands when non-nil.
	Bands Bands
	// MinTokenSpacing is the minimum index distance between two selected
	// word occurrences. Zero selects DefaultMinTokenSpacing; 1 allows
	// adjacent words.
	MinTokenSpacing int
	// Exclude lists words that must never be selected, compared case
	// insensitively.
	Exclude []string
	// Seed varies the sampling while keeping it deterministic.
	Seed uint64
}

// Candidate is a selected word occurrence.
type Candidate struct {
	Span segment.Span
	// Index is the ordinal of the occurrence among the chapter's words.
	Index int
	Entry model.WordEntry
}

// Word is a distinct candidate word: its folded key and the casing of its
// first occurrence.
type Word struct {
	Key      string
	Original string
	Count    int
}

// Distinct deduplicates word spans case-insensitively, preserving the
// casing of the first occurrence and the order of first appearance.
func Distinct(words []segment.Span) []Word {
	idx := make(map[string]int, len(words))
	out := make([]Word, 0, len(words))
	for _, w := range words {
		key := lexicon.Fold(w.Text)
		if i, ok := idx[key]; ok {
			out[i].Count++
			continue
		}
		idx[key] = len(out)
		out = append(out, Word{Key: key, Original: w.Text, Count: 1})
	}
	return out
}

func (p Policy) bands() Bands {
	if p.Bands != nil {
		return p.Bands
	}
	return DefaultBands()
}

func (p Policy) spacing() int {
	if p.MinTokenSpacing <= 0 {
		return DefaultMinTokenSpacing
	}
	return p.MinTokenSpacing
}

func (p Policy) density() float64 {
	switch {
	case math.IsNaN(p.Density) || p.Density < 0:
		return 0
	case p.Density > 1:
		return 1
	}
	return p.Density
}

// Target returns how many of total occurrences the policy aims to select.
func (p Policy) Target(total int) int {
	return int(math.Round(p.density() * float64(total)))
}

// Select chooses occurrences among words, the Word spans of one chapter in
// document order. The result is ordered by Index.
func (p Policy) Select(words []segment.Span, lex lexicon.Lexicon) []Candidate {
	target := p.Target(len(words))
	if target == 0 || lex == nil {
		return nil
	}

	excluded := make(map[string]bool, len(p.Exclude))
	for _, w := range p.Exclude {
		excluded[lexicon.Fold(w)] = true
	}

	band, ok := p.bands()[p.Level]
	if !ok {
		return nil
	}

	// Look each distinct word up once.
	entries := make(map[string]model.WordEntry)
	for _, w := range Distinct(words) {
		if excluded[w.Key] {
			continue
		}
		e, ok := lex.Lookup(w.Original, p.Pair)
		if !ok || !band.Contains(e.FrequencyRank) {
			continue
		}
		e.Level = p.Level
		entries[w.Key] = e
	}

	type scored struct {
		index int
		key   string
		score uint64
	}
	eligible := make([]scored, 0, len(words))
	for i, w := range words {
		key := lexicon.Fold(w.Text)
		if _, ok := entries[key]; ok {
			eligible = append(eligible, scored{index: i, key: key, score: p.score(key, i)})
		}
	}
	target = min(target, len(eligible))
	if target == 0 {
		return nil
	}

	slices.SortFunc(eligible, func(a, b scored) int {
		if a.score != b.score {
			if a.score < b.score {
				return -1
			}
			return 1
		}
		return a.index - b.index
	})

	spacing := p.spacing()
	taken := make(map[int]bool, target)
	picked := make([]Candidate, 0, target)
	for _, c := range eligible {
		if len(picked) == target {
			break
		}
		if tooClose(taken, c.index, spacing) {
			continue
		}
		taken[c.index] = true
		picked = append(picked, Candidate{Span: words[c.index], Index: c.index, Entry: entries[c.key]})
	}

	slices.SortFunc(picked, func(a, b Candidate) int { return a.Index - b.Index })
	return picked
}

func tooClose(taken map[int]bool, i, spacing int) bool {
	for d := 1; d < spacing; d++ {
		if taken[i-d] || taken[i+d] {
			return true
		}
	}
	return false
}

// score is the sampling key of occurrence i of the folded word key.
func (p Policy) score(key string, i int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], p.Seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(i))

	d := xxhash.New()
	d.Write(buf[:8])
	d.WriteString(key)
	d.Write(buf[8:])
	return d.Sum64()
}
