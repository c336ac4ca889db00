package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one recorded entry by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		store, err := openStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		existed, err := store.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		if !existed {
			return fmt.Errorf("no entry with id %q", args[0])
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}
