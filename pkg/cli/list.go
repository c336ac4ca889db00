package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded entries",
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

		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no recorded entries")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-6s %-40s %d\n", e.ID, e.Request.Method, e.Request.Path, e.Response.Status)
		}
		return nil
	},
}
