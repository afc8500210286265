// Package srs implements SM-2 spaced-repetition scheduling for vocabulary
// items and the query that picks the items due for review.
//
// Both operations are pure: they never mutate their inputs and never touch
// storage.
package srs

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
)

const (
	// DefaultLearnedThresholdDays is the interval at which an item counts as
	// learned.
	DefaultLearnedThresholdDays = 21
	// DefaultDueLimit is used when SelectDueItems is given a limit <= 0.
	DefaultDueLimit = 20

	// MaxQuality is the best recall grade.
	MaxQuality = 5
	// PassQuality is the lowest grade that counts as a successful recall.
	PassQuality = 3
)

const day = 24 * time.Hour

// Params tunes the scheduler.
type Params struct {
	LearnedThresholdDays int `mapstructure:"learned_threshold_days" validate:"gte=1"`
	DueLimit             int `mapstructure:"due_limit" validate:"gte=1"`
}

// DefaultParams returns the default scheduler parameters.
func DefaultParams() Params {
	return Params{
		LearnedThresholdDays: DefaultLearnedThresholdDays,
		DueLimit:             DefaultDueLimit,
	}
}

// ClampQuality forces q into [0, MaxQuality].
func ClampQuality(q int) int {
	return max(0, min(MaxQuality, q))
}

// NextEaseFactor applies the SM-2 ease factor update for quality q.
func NextEaseFactor(ef float64, q int) float64 {
	d := float64(MaxQuality - ClampQuality(q))
	return max(model.MinEaseFactor, ef+(0.1-d*(0.08+d*0.02)))
}

// Step applies one review of quality q to item using the default threshold.
func Step(item model.VocabularyItem, q int) model.VocabularyItem {
	return DefaultParams().Step(item, q)
}

// Step applies one review of quality q to item and returns the new state.
// Quality outside [0,5] is clamped. A failed recall (q < 3) resets the
// interval to zero without counting the review; a pass counts it and grows
// the interval to 1 day, then 6, then by the ease factor. An item with an
// unset ease factor starts from model.DefaultEaseFactor.
func (p Params) Step(item model.VocabularyItem, q int) model.VocabularyItem {
	q = ClampQuality(q)
	next := item
	if next.EaseFactor < model.MinEaseFactor {
		next.EaseFactor = model.DefaultEaseFactor
	}
	next.EaseFactor = NextEaseFactor(next.EaseFactor, q)

	if q < PassQuality {
		next.Interval = 0
		next.Status = model.StatusLearning
		return next
	}

	next.ReviewCount++
	switch next.ReviewCount {
	case 1:
		next.Interval = 1
	case 2:
		next.Interval = 6
	default:
		next.Interval = max(1, int(math.Round(float64(item.Interval)*next.EaseFactor)))
	}

	threshold := p.LearnedThresholdDays
	if threshold <= 0 {
		threshold = DefaultLearnedThresholdDays
	}
	switch {
	case next.Interval >= threshold:
		next.Status = model.StatusLearned
	case next.ReviewCount == 1:
		next.Status = model.StatusLearning
	default:
		next.Status = model.StatusReview
	}
	return next
}

// Review applies Step and stamps the review time.
func (p Params) Review(item model.VocabularyItem, q int, now time.Time) model.VocabularyItem {
	next := p.Step(item, q)
	t := now
	next.LastReviewedAt = &t
	return next
}

// IsDue reports whether item should be reviewed at now. Learned items are
// never due; never-reviewed items always are.
func IsDue(item model.VocabularyItem, now time.Time) bool {
	if item.Status == model.StatusLearned {
		return false
	}
	if item.LastReviewedAt == nil {
		return true
	}
	return !item.LastReviewedAt.Add(time.Duration(item.Interval) * day).After(now)
}

// SelectDueItems returns at most limit items due at now. Items never reviewed
// come first, oldest first; then the rest, most overdue first. Ties are broken
// by ID. A limit <= 0 selects DefaultDueLimit.
func SelectDueItems(items []model.VocabularyItem, now time.Time, limit int) []model.VocabularyItem {
	if limit <= 0 {
		limit = DefaultDueLimit
	}

	var fresh, due []model.VocabularyItem
	for _, it := range items {
		if !IsDue(it, now) {
			continue
		}
		if it.LastReviewedAt == nil {
			fresh = append(fresh, it)
		} else {
			due = append(due, it)
		}
	}

	slices.SortFunc(fresh, func(a, b model.VocabularyItem) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	slices.SortFunc(due, func(a, b model.VocabularyItem) int {
		// Earlier due time means more overdue.
		if c := dueAt(a).Compare(dueAt(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	out := append(fresh, due...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dueAt(it model.VocabularyItem) time.Time {
	return it.LastReviewedAt.Add(time.Duration(it.Interval) * day)
}
