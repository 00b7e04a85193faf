package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/audiolibrelab/looper/internal/record"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded clips",
	Long:    `List the clips in the recordings directory in the order they were recorded.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		records, err := record.List(cfg.Storage.Directory)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		if len(records) == 0 {
			fmt.Printf("No recordings in %s\n", cfg.Storage.Directory)
			return nil
		}

		for i, r := range records {
			fmt.Printf("%3d. %s  %8s  %s\n", i+1, r.Name, record.FormatBytes(r.Size),
				r.ModTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "print the list as JSON")
}
