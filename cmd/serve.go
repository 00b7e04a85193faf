package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/looper/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for remote control",
	Long: `Start the looper web server to record and play clips from a browser.
This allows you to control the looper from your smartphone or any device on the same network.

The server will display the local network URL for easy access from mobile devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetString("port")
		}

		hub := server.NewHub()
		svc, err := newService(hub)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Looper web server starting", "port", cfg.Server.Port, "config", cfgFile)

		// Run blocks until interrupted
		return server.New(cfg, svc, hub).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "port for the web server (overrides config)")
}
