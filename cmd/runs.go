package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded outreach runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := runlog.Open(ctx, cfg.RunLog)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		runs, err := store.ListRuns(ctx, runlog.RunFilter{Limit: runsLimit})
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %-9s  processed=%d succeeded=%d failed=%d skipped=%d  %s\n",
				r.ID, r.Status, r.Processed, r.Succeeded, r.Failed, r.Skipped,
				r.StartedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d runs\n", len(runs))
		return nil
	},
}

var runShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show per-contact outcomes for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := runlog.Open(ctx, cfg.RunLog)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("run %s  %s  workers=%d\n", run.ID, run.Status, run.Workers)

		outcomes, err := store.ListOutcomes(ctx, run.ID)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			line := fmt.Sprintf("  %-10s %-35s %dms", o.Status, o.Email, o.ElapsedMS)
			if o.Error != "" {
				line += "  " + o.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	runsCmd.AddCommand(runShowCmd)
	rootCmd.AddCommand(runsCmd)
}
