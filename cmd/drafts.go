package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	draftsLimit  int
	draftsDryRun bool
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Create Gmail drafts for pending leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		env.Orchestrator.SetDryRun(draftsDryRun)
		summary, err := env.Orchestrator.Run(ctx, draftsLimit)
		if err != nil {
			return err
		}

		fmt.Printf("processed=%d succeeded=%d failed=%d skipped=%d\n",
			summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
		for _, f := range summary.Failures {
			fmt.Printf("  FAILED %s: %s\n", f.Email, f.Reason)
		}
		return nil
	},
}

func init() {
	draftsCmd.Flags().IntVar(&draftsLimit, "limit", 0, "max number of leads to process (0 = all)")
	draftsCmd.Flags().BoolVar(&draftsDryRun, "dry-run", false, "list pending leads without creating drafts")
	rootCmd.AddCommand(draftsCmd)
}
