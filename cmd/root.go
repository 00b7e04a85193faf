package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/service"
	"github.com/audiolibrelab/looper/internal/tui"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	outputDir    string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "looper",
	Short: "Record short audio clips and loop them back",
	Long: `Looper records short clips from the default microphone into a cache
directory, lists them and plays them back once or in a loop.

Without a subcommand it opens the looper screen when attached to a
terminal, and lists the recordings otherwise.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if outputDir != "" {
			cfg.Storage.Directory = outputDir
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.IsTTY() {
			return uiCmd.RunE(cmd, args)
		}
		return listCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/looper.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "recordings directory (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug, 2=debug with sources plus ffmpeg and player output")

	rootCmd.AddCommand(recordCmd, listCmd, playCmd, deleteCmd, infoCmd)
	rootCmd.AddCommand(configCmd, sourcesCmd, uiCmd, serveCmd)
}

// setupLogging installs the default slog handler. Level 2 also tags each
// line with its source location.
func setupLogging(level int) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if level >= 1 {
		opts.Level = slog.LevelDebug
	}
	if level >= 2 {
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// subprocessLog returns where ffmpeg and player output goes
func subprocessLog() io.Writer {
	if verboseLevel >= 2 {
		return os.Stderr
	}
	return io.Discard
}

// newService creates the service used by the one-shot commands, with
// notifications printed to the terminal
func newService(notifier notify.Notifier) (service.Service, error) {
	if notifier == nil {
		notifier = notify.NewConsole(os.Stderr)
	}
	svc, err := service.New(cfg, subprocessLog(), notifier)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}
