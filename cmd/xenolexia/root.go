package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/xenolexia/xenolexia-go/internal/config"
	"github.com/xenolexia/xenolexia-go/internal/logger"
	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/ocr"
	"github.com/xenolexia/xenolexia-go/parser"
	"github.com/xenolexia/xenolexia-go/review"
	"github.com/xenolexia/xenolexia-go/store/sqlstore"
	"github.com/xenolexia/xenolexia-go/translate"
)

// app carries the state shared by all commands.
type app struct {
	fs         afero.Fs
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	root := &cobra.Command{
		Use:           "xenolexia",
		Short:         "Learn a language while reading books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", fmt.Sprintf("config file (default is %s)", config.DefaultPath()))
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newParseCmd(a),
		newProcessCmd(a),
		newReviewCmd(a),
		newDueCmd(a),
		newExportCmd(a),
		newLexiconCmd(a),
		newRemindCmd(a),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.LoadFS(a.fs, a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logger.Setup(stderr, cfg.Log.Level, cfg.Log.Format)
	a.logger.Debug("configuration loaded", slog.Any("config", cfg.Redacted()))
	return nil
}

func (a *app) pair() model.LanguagePair {
	return a.cfg.Translation.Pair()
}

// openStore opens the configured database, creating the directory of a
// SQLite file when needed.
func (a *app) openStore(ctx context.Context) (*sqlstore.Store, error) {
	dsn := a.cfg.Storage.DSN
	if a.cfg.Storage.Driver == sqlstore.DriverSQLite && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		// The SQLite driver works on the OS file system, not on a.fs.
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return sqlstore.Open(ctx, a.cfg.Storage.Driver, dsn, a.logger)
}

func (a *app) reviewService(s *sqlstore.Store) *review.Service {
	return review.NewService(s, review.WithParams(a.cfg.SRS), review.WithLogger(a.logger))
}

// loadLexicon imports the configured frequency list. Without one the
// lexicon is empty and nothing is substituted.
func (a *app) loadLexicon() (*lexicon.Memory, error) {
	lex := lexicon.NewMemory()
	if a.cfg.Lexicon.Path == "" {
		a.logger.Warn("no lexicon configured; set lexicon.path to enable substitution")
		return lex, nil
	}
	res, err := lex.ImportFile(a.fs, a.cfg.Lexicon.Path, lexicon.DefaultImportConfig(a.pair()))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("lexicon loaded",
		slog.String("path", a.cfg.Lexicon.Path),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped))
	return lex, nil
}

// translator builds the configured backend behind a cache.
func (a *app) translator(ctx context.Context, lex *lexicon.Memory) (translate.Translator, error) {
	t := a.cfg.Translation
	var (
		tr  translate.Translator
		err error
	)
	switch t.Backend {
	case "libretranslate":
		tr, err = translate.NewLibreTranslate(a.logger, translate.LibreTranslateConfig{
			BaseURL:    t.BaseURL,
			APIKey:     t.APIKey,
			MaxRetries: t.MaxRetries,
			HTTPClient: &http.Client{Timeout: t.Timeout},
		})
	case "gemini":
		tr, err = translate.NewGemini(ctx, a.logger, translate.GeminiConfig{APIKey: t.APIKey, Model: t.GeminiModel})
	default:
		tr = translate.FromLexicon(lex.Entries())
	}
	if err != nil {
		return nil, err
	}
	return translate.NewCached(tr), nil
}

// parseOptions returns the parser options, with OCR when requested.
func (a *app) parseOptions(useOCR bool) ([]parser.Option, func(), error) {
	opts := []parser.Option{parser.WithLogger(a.logger)}
	if !useOCR {
		return opts, func() {}, nil
	}
	client, err := ocr.New(a.pair().Source)
	if err != nil {
		return nil, nil, err
	}
	return append(opts, parser.WithOCR(client)), func() { client.Close() }, nil
}

// writeYAML prints v as YAML.
func writeYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = w.Write(out)
	return err
}
