package cmd

import (
	"fmt"
	"runtime"

	"github.com/audiolibrelab/looper/internal/audio"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available audio sources",
	Long: `List the PulseAudio/PipeWire capture sources that can be set as
capture.source, and check the configured one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := audio.NewSources()

		list, err := sources.List()
		if err != nil {
			return fmt.Errorf("failed to get audio sources: %w", err)
		}

		fmt.Printf("🎵 Audio Sources (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		fmt.Printf("📋 SOURCES (%d found):\n", len(list))
		for i, source := range list {
			kind := "input"
			if source.IsMonitor() {
				kind = "monitor"
			}
			fmt.Printf("  %d. %s [%s, %s, %s]\n", i+1, source.Name, kind, source.Spec, source.State)
		}

		fmt.Printf("\n🎙  Configured source: %s (%s)\n", cfg.Capture.Source, cfg.Capture.InputFormat)
		if cfg.Capture.InputFormat == "pulse" {
			if err := sources.Validate(cfg.Capture.Source); err != nil {
				fmt.Printf("  ✗ %v\n", err)
			} else {
				fmt.Printf("  ✓ available\n")
			}
		}

		fmt.Printf("\n💡 Usage:\n")
		fmt.Printf("  • Set capture.source in the config file to one of the names above\n")
		fmt.Printf("  • \"default\" follows the system default input\n\n")

		return nil
	},
}
