package play

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/audiolibrelab/looper/internal/config"
)

// Options controls how a file is played.
type Options struct {
	// Loop restarts playback at the end of the file until stopped.
	Loop bool
	// Follow keeps reading a file that is still being written.
	Follow bool
}

// Player is one running playback of a file.
type Player interface {
	Duration() time.Duration
	Position() time.Duration
	// Done is closed when playback ended, on its own or through Stop.
	Done() <-chan struct{}
	Stop() error
}

// Backend opens players.
type Backend interface {
	Open(ctx context.Context, path string, opts Options) (Player, error)
}

// ExecBackend plays files through an external command line player
type ExecBackend struct {
	cfg       *config.Config
	logWriter io.Writer

	lookPath func(string) (string, error)
	probe    func(ctx context.Context, path string) (time.Duration, error)
	now      func() time.Time
}

func New(cfg *config.Config, logWriter io.Writer) *ExecBackend {
	if logWriter == nil {
		logWriter = io.Discard
	}
	return &ExecBackend{
		cfg:       cfg,
		logWriter: logWriter,
		lookPath:  exec.LookPath,
		probe:     ProbeDuration,
		now:       time.Now,
	}
}

// Open starts the player for path. The duration is probed first so the
// position can be derived from the wall clock.
func (b *ExecBackend) Open(ctx context.Context, path string, opts Options) (Player, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	player, err := b.findAudioPlayer(opts)
	if err != nil {
		return nil, fmt.Errorf("no suitable audio player found: %w", err)
	}

	var duration time.Duration
	if !opts.Follow {
		duration, err = b.probe(ctx, path)
		if err != nil {
			slog.Debug("Duration probe failed, progress will stay at 0", "file", path, "error", err)
		}
	}

	args := buildArgs(player, path, opts)
	slog.Debug("Starting player", "player", player, "args", strings.Join(args, " "))

	cmd := exec.Command(player, args...)
	cmd.Stdout = b.logWriter
	cmd.Stderr = b.logWriter
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("playback failed with %s: %w", player, err)
	}

	p := &execPlayer{
		cmd:      cmd,
		name:     player,
		duration: duration,
		loop:     opts.Loop,
		started:  b.now(),
		now:      b.now,
		done:     make(chan struct{}),
	}
	go p.wait()

	return p, nil
}

func (b *ExecBackend) findAudioPlayer(opts Options) (string, error) {
	// List of preferred audio players in order of preference
	players := []string{"ffplay", "mpv", "vlc"}
	if opts.Follow {
		// Only ffplay can follow a growing file
		players = []string{"ffplay"}
	} else if b.cfg.Playback.Player != "" && b.cfg.Playback.Player != "auto" {
		players = []string{b.cfg.Playback.Player}
	}

	for _, player := range players {
		if _, err := b.lookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(players, ", "))
}

func buildArgs(player, path string, opts Options) []string {
	switch player {
	case "mpv":
		args := []string{"--no-video", "--really-quiet"}
		if opts.Loop {
			args = append(args, "--loop-file=inf")
		}
		return append(args, path)
	case "vlc":
		args := []string{"--intf", "dummy", "--no-video"}
		if opts.Loop {
			args = append(args, "--loop")
		} else {
			args = append(args, "--play-and-exit")
		}
		return append(args, path)
	default:
		args := []string{"-nodisp", "-loglevel", "quiet"}
		if opts.Loop {
			args = append(args, "-loop", "0")
		} else {
			args = append(args, "-autoexit")
		}
		if opts.Follow {
			args = append(args, "-follow", "1")
		}
		return append(args, path)
	}
}

type execPlayer struct {
	cmd      *exec.Cmd
	name     string
	duration time.Duration
	loop     bool
	started  time.Time
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func (p *execPlayer) wait() {
	err := p.cmd.Wait()
	if err != nil {
		slog.Debug("Player exited", "player", p.name, "error", err)
	}
	close(p.done)
}

func (p *execPlayer) Duration() time.Duration {
	return p.duration
}

func (p *execPlayer) Position() time.Duration {
	return Position(p.now().Sub(p.started), p.duration, p.loop)
}

func (p *execPlayer) Done() <-chan struct{} {
	return p.done
}

func (p *execPlayer) Stop() error {
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
	})
	<-p.done
	return nil
}

// Position maps the elapsed wall clock time to a position in a file of
// the given duration.
func Position(elapsed, duration time.Duration, loop bool) time.Duration {
	if duration <= 0 || elapsed <= 0 {
		return 0
	}
	if loop {
		return elapsed % duration
	}
	if elapsed > duration {
		return duration
	}
	return elapsed
}

// Percent returns position/duration*100 clamped to 0..100.
func Percent(position, duration time.Duration) int {
	if duration <= 0 || position <= 0 {
		return 0
	}
	pct := int(float64(position) / float64(duration) * 100)
	if pct > 100 {
		return 100
	}
	return pct
}

// ProbeDuration extracts the duration of a file using ffprobe
func ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	return parseProbeDuration(output)
}

func parseProbeDuration(output []byte) (time.Duration, error) {
	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probeResult.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}

	seconds, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", probeResult.Format.Duration, err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
