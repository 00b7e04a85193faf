package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolibrelab/looper/internal/record"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a clip from the microphone",
	Long: `Record audio from the configured capture source into a new
<yyyyMMdd_HHmmss>_audio file in the recordings directory.
Recording stops on Ctrl+C or after --duration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("duration")

		svc, err := newService(nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, err := svc.StartRecording(ctx)
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		if duration > 0 {
			slog.Info("Recording", "file", session.Path, "duration", duration)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		} else {
			slog.Info("Recording - Press Ctrl+C to stop", "file", session.Path)
		}

		<-ctx.Done()
		slog.Info("Stopping recording...")

		rec, err := svc.StopRecording()
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}

		fmt.Printf("%s (%s, %s)\n", rec.Path, record.FormatBytes(rec.Size),
			time.Since(session.StartTime).Round(100*time.Millisecond))
		return nil
	},
}

func init() {
	recordCmd.Flags().DurationP("duration", "d", 0, "stop after this duration (default: until Ctrl+C)")
}
