package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/srs"
)

// EnvPrefix prefixes every environment override, e.g.
// XENOLEXIA_TRANSLATION_API_KEY.
const EnvPrefix = "XENOLEXIA"

const appDir = "xenolexia"

// ErrInvalid is returned when the loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// DefaultPath returns the config file location under the XDG config
// directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDir, "config.yaml")
}

// DefaultDatabasePath returns the SQLite database location under the XDG
// data directory.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appDir, "xenolexia.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.driver", "sqlite3")
	v.SetDefault("storage.dsn", DefaultDatabasePath())

	v.SetDefault("translation.backend", "lexicon")
	v.SetDefault("translation.base_url", "")
	v.SetDefault("translation.api_key", "")
	v.SetDefault("translation.gemini_model", "")
	v.SetDefault("translation.timeout", 5*time.Second)
	v.SetDefault("translation.concurrency", 4)
	v.SetDefault("translation.max_retries", 2)
	v.SetDefault("translation.source_lang", string(model.English))
	v.SetDefault("translation.target_lang", string(model.Spanish))

	v.SetDefault("policy.level", model.Beginner.String())
	v.SetDefault("policy.density", policy.DefaultDensity)
	v.SetDefault("policy.min_token_spacing", policy.DefaultMinTokenSpacing)
	v.SetDefault("policy.exclude", []string{})
	v.SetDefault("policy.seed", 0)

	v.SetDefault("srs.learned_threshold_days", srs.DefaultLearnedThresholdDays)
	v.SetDefault("srs.due_limit", srs.DefaultDueLimit)

	v.SetDefault("lexicon.path", "")
}

// Load reads configuration from the OS file system. An empty path uses
// DefaultPath when that file exists.
func Load(path string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), path)
}

// LoadFS is Load reading files from fs. Environment variables take
// precedence over the file, which takes precedence over defaults.
func LoadFS(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if ok, _ := afero.Exists(fs, path); ok || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := cfg.Policy.Policy(cfg.Translation.Pair()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
