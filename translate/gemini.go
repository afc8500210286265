package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/xenolexia/xenolexia-go/model"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini translator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini translates words by prompting a Gemini model.
type Gemini struct {
	logger   *slog.Logger
	model    string
	generate generateFunc
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, logger *slog.Logger, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newGemini(logger, cfg.Model, client.Models.GenerateContent), nil
}

func newGemini(logger *slog.Logger, model string, generate generateFunc) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{logger: logger, model: model, generate: generate}
}

func translationPrompt(word string, source, target model.Language) string {
	return fmt.Sprintf(
		"Translate the %s word %q into %s. Reply with the single most common translation only, "+
			"without quotes, punctuation or explanation.",
		source.Name(), word, target.Name())
}

// Translate implements Translator.
func (g *Gemini) Translate(ctx context.Context, word string, source, target model.Language) (string, error) {
	temperature := float32(0)
	resp, err := g.generate(ctx, g.model, genai.Text(translationPrompt(word, source, target)), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		g.logger.DebugContext(ctx, "gemini call failed", "word", word, "error", err)
		return "", Classify(word, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", &Error{Kind: BackendError, Word: word, Err: err}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", errors.New("empty content in response")
	}

	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(strings.Trim(text, "\"'.` "))
	if text == "" {
		return "", ErrNotFound
	}
	return text, nil
}
