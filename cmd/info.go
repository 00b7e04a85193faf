package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/record"
	"github.com/dhowden/tag"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <number|name>",
	Short: "Show details of a recorded clip",
	Long:  `Display the file path, size, capture time, container format and duration of a clip.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		id, err := svc.Resolve(args[0])
		if err != nil {
			return err
		}

		var rec record.Record
		for _, row := range svc.Rows() {
			if row.Record.ID() == id {
				rec = row.Record
				break
			}
		}

		fmt.Printf("=== RECORD ===\n")
		fmt.Printf("name: %s\n", rec.Name)
		fmt.Printf("path: %s\n", rec.Path)
		fmt.Printf("size: %s\n", record.FormatBytes(rec.Size))
		if at, ok := rec.RecordedAt(); ok {
			fmt.Printf("recorded_at: %s\n", at.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("modified: %s\n", rec.ModTime.Format("2006-01-02 15:04:05"))

		fmt.Printf("\n=== AUDIO ===\n")
		printContainer(rec.Path)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if duration, err := play.ProbeDuration(ctx, rec.Path); err != nil {
			slog.Debug("Duration probe failed", "error", err)
			fmt.Printf("duration: unknown\n")
		} else {
			fmt.Printf("duration: %s\n", duration.Round(10*time.Millisecond))
		}

		return nil
	},
}

// printContainer identifies the container with dhowden/tag, which reads
// the file header without decoding audio
func printContainer(path string) {
	file, err := os.Open(path)
	if err != nil {
		fmt.Printf("container: unreadable (%v)\n", err)
		return
	}
	defer file.Close()

	format, fileType, err := tag.Identify(file)
	if err != nil {
		fmt.Printf("container: %s (unidentified)\n", record.Record{Name: path}.Ext())
		return
	}
	fmt.Printf("container: %s\n", fileType)
	if format != tag.UnknownFormat {
		fmt.Printf("tag_format: %s\n", format)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return
	}
	meta, err := tag.ReadFrom(file)
	if err != nil {
		return
	}
	if meta.Title() != "" {
		fmt.Printf("title: %s\n", meta.Title())
	}
	if encoder, ok := meta.Raw()["©too"]; ok {
		fmt.Printf("encoder: %v\n", encoder)
	}
}
