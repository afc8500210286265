package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/xenolexia/xenolexia-go/model"
)

var enes = model.LanguagePair{Source: model.English, Target: model.Spanish}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("x", nil))

	err := Classify("x", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = Classify("x", &net.OpError{Op: "dial", Err: errors.New("connection refused")})
	assert.ErrorIs(t, err, ErrNetworkUnavailable)

	err = Classify("x", errors.New("boom"))
	assert.ErrorIs(t, err, ErrBackend)
	assert.NotErrorIs(t, err, ErrTimeout)

	orig := &Error{Kind: Timeout, Word: "y"}
	assert.Same(t, orig, Classify("x", orig))
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Kind: BackendError, Word: "casa", Err: ErrNotFound}
	assert.Equal(t, `translate "casa": translation backend error: no translation found`, e.Error())
	assert.ErrorIs(t, e, ErrNotFound)
}

func TestStatic(t *testing.T) {
	s := NewStatic(enes, map[string]string{"House": "casa"})
	ctx := context.Background()

	out, err := s.Translate(ctx, "HOUSE", model.English, model.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "casa", out)

	_, err = s.Translate(ctx, "house", model.English, model.French)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Translate(cancelled, "house", model.English, model.Spanish)
	assert.Error(t, err)
}

func TestFromLexicon(t *testing.T) {
	s := FromLexicon([]model.WordEntry{
		{SourceWord: "dog", TargetWord: "perro", Pair: enes},
		{SourceWord: "cat", Pair: enes},
	})
	out, err := s.Translate(context.Background(), "dog", model.English, model.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "perro", out)

	_, err = s.Translate(context.Background(), "cat", model.English, model.Spanish)
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingTranslator struct {
	calls atomic.Int32
	delay time.Duration
	fail  bool
}

func (c *countingTranslator) Translate(ctx context.Context, word string, _, _ model.Language) (string, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.fail {
		return "", &Error{Kind: NetworkUnavailable, Word: word}
	}
	return word + "-es", nil
}

func TestCachedSharesCalls(t *testing.T) {
	inner := &countingTranslator{delay: 20 * time.Millisecond}
	c := NewCached(inner)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.Translate(context.Background(), "Tree", model.English, model.Spanish)
			assert.NoError(t, err)
			assert.Equal(t, "Tree-es", out)
		}()
	}
	wg.Wait()

	out, err := c.Translate(context.Background(), "tree", model.English, model.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "Tree-es", out, "cache is keyed case-insensitively")
	assert.LessOrEqual(t, inner.calls.Load(), int32(2))
	assert.Equal(t, 1, c.Len())
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := &countingTranslator{fail: true}
	c := NewCached(inner)

	for i := 0; i < 3; i++ {
		_, err := c.Translate(context.Background(), "x", model.English, model.Spanish)
		assert.ErrorIs(t, err, ErrNetworkUnavailable)
	}
	assert.Equal(t, int32(3), inner.calls.Load())
	assert.Equal(t, 0, c.Len())
}

// gatedTranslator blocks every call until release is closed.
type gatedTranslator struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedTranslator) Translate(ctx context.Context, word string, _, _ model.Language) (string, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		return word + "-es", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestCachedSharedCallOutlivesCaller(t *testing.T) {
	inner := &gatedTranslator{release: make(chan struct{})}
	c := NewCached(inner)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Translate(ctx, "dog", model.English, model.Spanish)
		first <- err
	}()
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan string, 1)
	go func() {
		out, err := c.Translate(context.Background(), "dog", model.English, model.Spanish)
		assert.NoError(t, err)
		second <- out
	}()

	cancel()
	err := <-first
	assert.ErrorIs(t, err, context.Canceled)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, BackendError, te.Kind)

	close(inner.release)
	assert.Equal(t, "dog-es", <-second)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, 1, c.Len())
}

type speaker struct {
	Static
	spoken chan string
}

func (s *speaker) Pronounce(_ context.Context, word string, _ model.Language) error {
	s.spoken <- word
	return nil
}

func TestPronounce(t *testing.T) {
	sp := &speaker{spoken: make(chan string, 1)}
	Pronounce(sp, "hola", model.Spanish, nil)

	select {
	case w := <-sp.spoken:
		assert.Equal(t, "hola", w)
	case <-time.After(2 * time.Second):
		t.Fatal("pronunciation was not dispatched")
	}

	// Translators that cannot speak are ignored.
	Pronounce(NewStatic(enes, nil), "hola", model.Spanish, nil)
}

func TestNewLibreTranslateValidation(t *testing.T) {
	_, err := NewLibreTranslate(nil, LibreTranslateConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewLibreTranslate(nil, LibreTranslateConfig{BaseURL: "ftp://example.com"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewLibreTranslate(nil, LibreTranslateConfig{BaseURL: "https://libretranslate.com/"})
	assert.NoError(t, err)
}

func TestLibreTranslate(t *testing.T) {
	var failures atomic.Int32
	failures.Store(2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/translate", r.URL.Path)

		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en", req.Source)
		assert.Equal(t, "es", req.Target)
		assert.Equal(t, "text", req.Format)
		assert.Equal(t, "secret", req.APIKey)

		switch req.Q {
		case "flaky":
			if failures.Add(-1) >= 0 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"translatedText":"inestable"}`)
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid request"}`)
		case "down":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprintf(w, `{"translatedText":" %s-es "}`, req.Q)
		}
	}))
	defer srv.Close()

	lt, err := NewLibreTranslate(nil, LibreTranslateConfig{
		BaseURL:    srv.URL,
		APIKey:     "secret",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	ctx := context.Background()

	out, err := lt.Translate(ctx, "house", model.English, model.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "house-es", out)

	out, err = lt.Translate(ctx, "flaky", model.English, model.Spanish)
	require.NoError(t, err, "5xx responses are retried")
	assert.Equal(t, "inestable", out)

	_, err = lt.Translate(ctx, "bad", model.English, model.Spanish)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Contains(t, err.Error(), "invalid request")

	_, err = lt.Translate(ctx, "down", model.English, model.Spanish)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestLibreTranslateNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	url := srv.URL

	lt, err := NewLibreTranslate(nil, LibreTranslateConfig{BaseURL: url, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = lt.Translate(ctx, "slow", model.English, model.Spanish)
	assert.ErrorIs(t, err, ErrTimeout)

	srv.Close()
	_, err = lt.Translate(context.Background(), "gone", model.English, model.Spanish)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func geminiResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestGemini(t *testing.T) {
	var gotModel, gotPrompt string
	g := newGemini(nil, "", func(ctx context.Context, m string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = m
		gotPrompt = contents[0].Parts[0].Text
		require.NotNil(t, cfg.Temperature)
		return geminiResponse(" \"Casa\".\nIt means house."), nil
	})

	out, err := g.Translate(context.Background(), "house", model.English, model.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "Casa", out)
	assert.Equal(t, DefaultGeminiModel, gotModel)
	assert.Contains(t, gotPrompt, `"house"`)
	assert.Contains(t, gotPrompt, "Spanish")
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
		want error
	}{
		{"deadline", nil, context.DeadlineExceeded, ErrTimeout},
		{"api error", nil, errors.New("quota exceeded"), ErrBackend},
		{"no candidates", &genai.GenerateContentResponse{}, nil, ErrBackend},
		{"empty text", geminiResponse("  "), nil, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGemini(nil, "m", func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return tt.resp, tt.err
			})
			_, err := g.Translate(context.Background(), "x", model.English, model.Spanish)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), nil, GeminiConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
