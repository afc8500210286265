package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
)

func newRemindCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Periodically report how many words are due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if once {
				return a.remind(ctx, out)
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			s := gocron.NewScheduler(time.UTC)
			if _, err := s.Every(interval).Do(func() {
				if err := a.remind(ctx, out); err != nil {
					a.logger.Error("reminder check failed", slog.String("error", err.Error()))
				}
			}); err != nil {
				return fmt.Errorf("failed to schedule reminder: %w", err)
			}
			s.StartAsync()
			a.logger.Info("reminder started", slog.Duration("interval", interval))

			<-ctx.Done()
			s.Stop()
			a.logger.Info("reminder stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "time between checks")
	cmd.Flags().BoolVar(&once, "once", false, "check once and exit")
	return cmd
}

// remind prints the number of items due now.
func (a *app) remind(ctx context.Context, out io.Writer) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := a.reviewService(s).Stats(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("reminder check", slog.Int("due", st.Due), slog.Int("total", st.Total))
	if st.Due == 0 {
		_, err = fmt.Fprintln(out, "nothing due for review")
		return err
	}
	_, err = fmt.Fprintf(out, "%d of %d words due for review\n", st.Due, st.Total)
	return err
}
