// Package translate defines the translation capability consumed by the
// substitution engine and provides its backends.
//
// Every backend reports failures as *Error with one of three kinds:
// NetworkUnavailable, BackendError or Timeout. The substitution engine skips
// an occurrence whose translation failed and keeps going.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
)

// Translator translates single words.
type Translator interface {
	Translate(ctx context.Context, word string, source, target model.Language) (string, error)
}

// Speaker is implemented by translators that can pronounce words.
type Speaker interface {
	Pronounce(ctx context.Context, word string, lang model.Language) error
}

// ErrorKind classifies a translation failure.
type ErrorKind int

const (
	NetworkUnavailable ErrorKind = iota + 1
	BackendError
	Timeout
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrNetworkUnavailable = errors.New("translation network unavailable")
	ErrBackend            = errors.New("translation backend error")
	ErrTimeout            = errors.New("translation timed out")

	// ErrNotFound is wrapped in a BackendError when a dictionary has no
	// entry for the word.
	ErrNotFound = errors.New("no translation found")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case NetworkUnavailable:
		return ErrNetworkUnavailable
	case Timeout:
		return ErrTimeout
	default:
		return ErrBackend
	}
}

func (k ErrorKind) String() string {
	return k.sentinel().Error()
}

// Error is a failed translation of Word.
type Error struct {
	Kind ErrorKind
	Word string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("translate %q: %s", e.Word, e.Kind)
	}
	return fmt.Sprintf("translate %q: %s: %v", e.Word, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Classify wraps err in an *Error, inferring the kind. Errors that already
// are *Error are returned unchanged.
func Classify(word string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}

	kind := BackendError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = Timeout
	case errors.As(err, &netErr):
		kind = NetworkUnavailable
	}
	return &Error{Kind: kind, Word: word, Err: err}
}

// speakTimeout bounds a fire-and-forget pronunciation.
const speakTimeout = 10 * time.Second

// Pronounce asks t to pronounce word when it implements Speaker. It returns
// immediately; failures are logged at debug level and otherwise ignored.
func Pronounce(t Translator, word string, lang model.Language, logger *slog.Logger) {
	sp, ok := t.(Speaker)
	if !ok {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		if err := sp.Pronounce(ctx, word, lang); err != nil {
			logger.Debug("pronunciation failed", "word", word, "lang", lang, "error", err)
		}
	}()
}
