package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var leadsPendingOnly bool

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads from the sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		key, err := loadPrivateKey()
		if err != nil {
			return err
		}
		store, _, err := openSheetStore(key)
		if err != nil {
			return err
		}

		contacts, err := store.List(ctx)
		if err != nil {
			return err
		}

		shown := 0
		for _, c := range contacts {
			if leadsPendingOnly && c.Contacted {
				continue
			}
			status := "pending"
			if c.Contacted {
				status = "contacted"
			}
			fmt.Printf("%-9s %-35s %s\n", status, c.Email, c.Organization)
			shown++
		}
		fmt.Printf("%d leads\n", shown)
		return nil
	},
}

func init() {
	leadsCmd.Flags().BoolVar(&leadsPendingOnly, "pending", false, "show only leads not yet contacted")
	rootCmd.AddCommand(leadsCmd)
}
