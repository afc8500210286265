package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenolexia/xenolexia-go/model"
)

type itemSummary struct {
	ID         string `yaml:"id"`
	Source     string `yaml:"source"`
	Target     string `yaml:"target"`
	Status     string `yaml:"status"`
	Reviews    int    `yaml:"reviews"`
	Interval   int    `yaml:"interval_days"`
	EaseFactor string `yaml:"ease_factor"`
	Context    string `yaml:"context,omitempty"`
	Book       string `yaml:"book,omitempty"`
	Reviewed   string `yaml:"last_reviewed,omitempty"`
}

func summarizeItem(it model.VocabularyItem) itemSummary {
	s := itemSummary{
		ID:         it.ID,
		Source:     it.SourceWord,
		Target:     it.TargetWord,
		Status:     string(it.Status),
		Reviews:    it.ReviewCount,
		Interval:   it.Interval,
		EaseFactor: strconv.FormatFloat(it.EaseFactor, 'f', 2, 64),
		Context:    it.ContextSentence,
		Book:       it.BookTitle,
	}
	if it.LastReviewedAt != nil {
		s.Reviewed = it.LastReviewedAt.UTC().Format(time.RFC3339)
	}
	return s
}

func newReviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <id> <quality>",
		Short: "Grade one review of a vocabulary item (quality 0-5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality %q is not a number", args[1])
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			item, err := a.reviewService(s).Submit(cmd.Context(), args[0], quality)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), summarizeItem(*item))
		},
	}
	cmd.AddCommand(newStatsCmd(a))
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count vocabulary items by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := a.reviewService(s).Stats(cmd.Context())
			if err != nil {
				return err
			}
			byStatus := make(map[string]int, len(st.ByStatus))
			for status, n := range st.ByStatus {
				byStatus[string(status)] = n
			}
			return writeYAML(cmd.OutOrStdout(), struct {
				Total    int            `yaml:"total"`
				Due      int            `yaml:"due"`
				ByStatus map[string]int `yaml:"by_status"`
			}{st.Total, st.Due, byStatus})
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List vocabulary items due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := a.reviewService(s).Due(cmd.Context(), limit)
			if err != nil {
				return err
			}
			list := make([]itemSummary, len(items))
			for i, it := range items {
				list[i] = summarizeItem(it)
			}
			return writeYAML(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items (default srs.due_limit)")
	return cmd
}
