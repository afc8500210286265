// Package config loads xenolexia settings from defaults, an optional YAML
// file and XENOLEXIA_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/srs"
)

// Config holds all application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log" validate:"required"`
	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
	Translation TranslationConfig `mapstructure:"translation" validate:"required"`
	Policy      PolicyConfig      `mapstructure:"policy" validate:"required"`
	SRS         srs.Params        `mapstructure:"srs" validate:"required"`
	Lexicon     LexiconConfig     `mapstructure:"lexicon"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// StorageConfig selects the database.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite3 pgx"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// TranslationConfig selects and tunes the translation backend.
type TranslationConfig struct {
	Backend     string        `mapstructure:"backend" validate:"required,oneof=libretranslate gemini lexicon"`
	BaseURL     string        `mapstructure:"base_url" validate:"required_if=Backend libretranslate,omitempty,url"`
	APIKey      string        `mapstructure:"api_key" validate:"required_if=Backend gemini"`
	GeminiModel string        `mapstructure:"gemini_model"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	MaxRetries  uint64        `mapstructure:"max_retries" validate:"lte=10"`
	SourceLang  string        `mapstructure:"source_lang" validate:"required,min=2,max=8"`
	TargetLang  string        `mapstructure:"target_lang" validate:"required,min=2,max=8,nefield=SourceLang"`
}

// Pair returns the configured language pair.
func (t TranslationConfig) Pair() model.LanguagePair {
	return model.LanguagePair{
		Source: model.ParseLanguage(t.SourceLang),
		Target: model.ParseLanguage(t.TargetLang),
	}
}

// PolicyConfig configures word selection.
type PolicyConfig struct {
	Level           string                 `mapstructure:"level" validate:"required"`
	Density         float64                `mapstructure:"density" validate:"gte=0,lte=1"`
	MinTokenSpacing int                    `mapstructure:"min_token_spacing" validate:"gte=0"`
	Exclude         []string               `mapstructure:"exclude"`
	Seed            uint64                 `mapstructure:"seed"`
	Bands           map[string]policy.Band `mapstructure:"bands" validate:"omitempty,dive"`
}

// Policy converts the settings into a selection policy for pair.
func (p PolicyConfig) Policy(pair model.LanguagePair) (policy.Policy, error) {
	level, err := model.ParseProficiency(p.Level)
	if err != nil {
		return policy.Policy{}, err
	}

	var bands policy.Bands
	if len(p.Bands) > 0 {
		bands = policy.DefaultBands()
		for name, band := range p.Bands {
			lvl, err := model.ParseProficiency(name)
			if err != nil {
				return policy.Policy{}, fmt.Errorf("policy.bands: %w", err)
			}
			bands[lvl] = band
		}
	}

	return policy.Policy{
		Pair:            pair,
		Level:           level,
		Density:         p.Density,
		Bands:           bands,
		MinTokenSpacing: p.MinTokenSpacing,
		Exclude:         p.Exclude,
		Seed:            p.Seed,
	}, nil
}

// LexiconConfig points at the frequency word list.
type LexiconConfig struct {
	Path string `mapstructure:"path"`
}

// Redacted returns a copy safe for printing.
func (c Config) Redacted() Config {
	out := c
	if out.Translation.APIKey != "" {
		out.Translation.APIKey = "[REDACTED]"
	}
	if i := strings.Index(out.Storage.DSN, "@"); i > 0 && strings.Contains(out.Storage.DSN, "://") {
		scheme := out.Storage.DSN[:strings.Index(out.Storage.DSN, "://")+3]
		out.Storage.DSN = scheme + "[REDACTED]" + out.Storage.DSN[i:]
	}
	return out
}
