package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/xenolexia/xenolexia-go/model"
)

// ErrInvalidConfig is returned by backend constructors.
var ErrInvalidConfig = errors.New("translate: invalid configuration")

// LibreTranslateConfig configures a LibreTranslate client.
type LibreTranslateConfig struct {
	BaseURL    string
	APIKey     string
	MaxRetries uint64
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// LibreTranslate calls the POST /translate endpoint of a LibreTranslate
// server.
type LibreTranslate struct {
	logger   *slog.Logger
	endpoint string
	apiKey   string
	client   *http.Client
	backoff  func() retry.Backoff
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// NewLibreTranslate validates cfg and returns a client.
func NewLibreTranslate(logger *slog.Logger, cfg LibreTranslateConfig) (*LibreTranslate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("%w: base URL must be http or https: %q", ErrInvalidConfig, cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	retries := cfg.MaxRetries

	return &LibreTranslate{
		logger:   logger,
		endpoint: base + "/translate",
		apiKey:   cfg.APIKey,
		client:   client,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(retries, retry.NewExponential(delay))
		},
	}, nil
}

// Translate implements Translator. Server errors (5xx, 429) are retried with
// exponential backoff; other failures are returned immediately.
func (l *LibreTranslate) Translate(ctx context.Context, word string, source, target model.Language) (string, error) {
	body, err := json.Marshal(libreRequest{
		Q:      word,
		Source: string(source),
		Target: string(target),
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return "", &Error{Kind: BackendError, Word: word, Err: err}
	}

	var out string
	attempt := 0
	err = retry.Do(ctx, l.backoff(), func(ctx context.Context) error {
		attempt++
		text, retryable, err := l.post(ctx, body)
		if err == nil {
			out = text
			return nil
		}
		l.logger.DebugContext(ctx, "libretranslate request failed",
			"word", word,
			"attempt", attempt,
			"retryable", retryable,
			"error", err)
		if retryable {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return "", Classify(word, err)
	}
	return out, nil
}

func (l *LibreTranslate) post(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		// Transport errors keep their type so Classify can tell network
		// failures and timeouts apart.
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}

	var lr libreResponse
	_ = json.Unmarshal(data, &lr)

	if resp.StatusCode != http.StatusOK {
		msg := lr.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if lr.Error != "" {
		return "", false, errors.New(lr.Error)
	}
	text := strings.TrimSpace(lr.TranslatedText)
	if text == "" {
		return "", false, ErrNotFound
	}
	return text, false, nil
}
