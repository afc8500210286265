package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xenolexia/xenolexia-go/export"
	"github.com/xenolexia/xenolexia-go/model"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		formatName string
		bookID     string
	)
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export the vocabulary as CSV, JSON, Anki or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := export.FormatFromPath(path)
			if formatName != "" {
				f, err = export.ParseFormat(formatName)
			}
			if err != nil {
				return err
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var items []model.VocabularyItem
			if bookID != "" {
				items, err = s.ListVocabularyByBook(cmd.Context(), bookID)
			} else {
				items, err = s.ListVocabulary(cmd.Context())
			}
			if err != nil {
				return err
			}

			if err := export.ToFile(a.fs, path, f, items); err != nil {
				return err
			}
			a.logger.Info("vocabulary exported",
				slog.String("path", path),
				slog.Int("items", len(items)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d items to %s\n", len(items), path)
			return err
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "", "csv, json, anki or xlsx (default from the file extension)")
	cmd.Flags().StringVar(&bookID, "book-id", "", "only export words saved from this book")
	return cmd
}
