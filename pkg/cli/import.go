package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load recorded entries from a JSON file, assigning each a fresh id",
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

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var entries []recordmodel.RecordedEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("cli: invalid import file: %w", err)
		}

		for _, e := range entries {
			if _, err := store.Save(ctx, e.Request, e.Response); err != nil {
				return err
			}
		}
		fmt.Printf("imported %d entries from %s\n", len(entries), args[0])
		return nil
	},
}
