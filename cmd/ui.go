package cmd

import (
	"context"
	"fmt"

	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/tui"

	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the looper screen",
	Long: `Open the interactive looper screen: one record button with a live
level meter, and the list of clips with play, loop, stop and delete.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsTTY() {
			return fmt.Errorf("the looper screen needs a terminal, use 'looper list' instead")
		}

		// Messages show in the status line, not on the console
		svc, err := newService(notify.Discard)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		model := tui.New(ctx, svc)
		defer model.Close()

		return tui.Run(model)
	},
}
