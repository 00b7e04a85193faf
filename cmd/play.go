package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play <number|name>",
	Short: "Play a recorded clip",
	Long: `Play a clip given its number in 'looper list' or its file name.
With --loop the clip restarts at its end until Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loop, _ := cmd.Flags().GetBool("loop")

		svc, err := newService(nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		id, err := svc.Resolve(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := make(chan int, 16)
		finished := make(chan struct{})
		var finishOnce sync.Once
		unsubscribe := svc.Subscribe(playlist.ListenerFunc(func(ev playlist.Event) {
			if ev.ID != id {
				return
			}
			switch ev.Kind {
			case playlist.EventProgress:
				select {
				case progress <- ev.Progress:
				default:
				}
			case playlist.EventChanged:
				if ev.Row != nil && ev.Row.State == playlist.StateIdle {
					finishOnce.Do(func() { close(finished) })
				}
			}
		}))
		defer unsubscribe()

		if err := svc.Play(ctx, id, loop); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}

		description := "Playing " + id
		if loop {
			description = "Looping " + id
		}

		var bar *progressbar.ProgressBar
		if term.IsTerminal(int(os.Stdout.Fd())) {
			bar = progressbar.NewOptions(100,
				progressbar.OptionSetDescription(description),
				progressbar.OptionSetWidth(30),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		} else {
			fmt.Println(description)
		}

		for {
			select {
			case p := <-progress:
				if bar != nil {
					bar.Set(p)
				}
			case <-finished:
				if bar != nil {
					bar.Finish()
				}
				return nil
			case <-ctx.Done():
				if bar != nil {
					bar.Finish()
				}
				return svc.Stop(id)
			}
		}
	},
}

func init() {
	playCmd.Flags().BoolP("loop", "l", false, "restart the clip at its end until interrupted")
}
