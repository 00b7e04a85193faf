package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <number|name>...",
	Aliases: []string{"rm"},
	Short:   "Delete recorded clips",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		// Resolve everything first: positions shift as rows are removed
		ids := make([]string, 0, len(args))
		for _, arg := range args {
			id, err := svc.Resolve(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		for _, id := range ids {
			if err := svc.Delete(id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", id, err)
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}
