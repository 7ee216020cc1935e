package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import leads from a CSV or XLSX file into the lead sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		contacts, err := importer.Load(args[0])
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			zap.L().Info("no contacts found in file", zap.String("file", args[0]))
			return nil
		}

		key, err := loadPrivateKey()
		if err != nil {
			return err
		}
		store, _, err := openSheetStore(key)
		if err != nil {
			return err
		}

		if err := store.Append(ctx, contacts); err != nil {
			return err
		}
		fmt.Printf("imported %d contacts\n", len(contacts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
