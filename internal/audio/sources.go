package audio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Source is a PulseAudio/PipeWire capture source as reported by pactl
type Source struct {
	Index  string `json:"index"`
	Name   string `json:"name"`
	Driver string `json:"driver"`
	Spec   string `json:"spec"`
	State  string `json:"state"`
}

// IsMonitor reports whether the source captures an output sink rather than a microphone
func (s Source) IsMonitor() bool {
	return strings.HasSuffix(s.Name, ".monitor")
}

// Sources manages capture source discovery via pactl, which is served by
// both PulseAudio and pipewire-pulse
type Sources struct {
	run func() ([]byte, error)
}

// NewSources creates a new Sources instance
func NewSources() *Sources {
	return &Sources{
		run: func() ([]byte, error) {
			return exec.Command("pactl", "list", "short", "sources").Output()
		},
	}
}

// List returns all available capture sources
func (s *Sources) List() ([]Source, error) {
	output, err := s.run()
	if err != nil {
		return nil, fmt.Errorf("failed to list capture sources: %w", err)
	}
	return parseSources(string(output)), nil
}

// parseSources parses the tab separated output of "pactl list short sources"
func parseSources(output string) []Source {
	var sources []Source
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		src := Source{Index: fields[0], Name: fields[1]}
		if len(fields) > 2 {
			src.Driver = fields[2]
		}
		if len(fields) > 3 {
			src.Spec = fields[3]
		}
		if len(fields) > 4 {
			src.State = fields[4]
		}
		sources = append(sources, src)
	}
	return sources
}

// Validate checks if a specific source exists and has no duplicates
func (s *Sources) Validate(name string) error {
	if name == "" || name == "default" {
		return nil
	}

	sources, err := s.List()
	if err != nil {
		return err
	}

	return validateSourceInList(name, sources)
}

func validateSourceInList(name string, sources []Source) error {
	if name == "" || name == "default" {
		return nil
	}

	duplicates := findSourceDuplicates(name, sources)
	if len(duplicates) == 0 {
		return fmt.Errorf("source not found: %s", name)
	}
	if len(duplicates) > 1 {
		return fmt.Errorf("duplicate sources detected for '%s': %v. Please close conflicting applications", name, duplicates)
	}

	slog.Debug("Capture source validated", "source", name)
	return nil
}

// findSourceDuplicates finds all sources with exactly the same name
func findSourceDuplicates(name string, sources []Source) []string {
	var duplicates []string
	for _, src := range sources {
		if src.Name == name {
			duplicates = append(duplicates, src.Index+":"+src.Name)
		}
	}
	return duplicates
}
