package audio

import (
	"errors"
	"strings"
	"testing"
)

const pactlOutput = `0	alsa_output.pci-0000_00_1f.3.analog-stereo.monitor	module-alsa-card.c	s16le 2ch 44100Hz	SUSPENDED
1	alsa_input.pci-0000_00_1f.3.analog-stereo	module-alsa-card.c	s16le 2ch 44100Hz	RUNNING
2	bluez_input.headset	module-bluez5-device.c	s16le 1ch 16000Hz	IDLE
`

func fakeSources(output string, err error) *Sources {
	return &Sources{run: func() ([]byte, error) { return []byte(output), err }}
}

func TestParseSources(t *testing.T) {
	sources := parseSources(pactlOutput)

	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d: %+v", len(sources), sources)
	}
	if sources[1].Name != "alsa_input.pci-0000_00_1f.3.analog-stereo" || sources[1].State != "RUNNING" {
		t.Errorf("Unexpected second source: %+v", sources[1])
	}
	if !sources[0].IsMonitor() || sources[1].IsMonitor() {
		t.Errorf("Monitor detection incorrect: %+v", sources)
	}
}

func TestValidate_Success(t *testing.T) {
	s := fakeSources(pactlOutput, nil)

	if err := s.Validate("bluez_input.headset"); err != nil {
		t.Errorf("Expected no error for valid single source, got: %v", err)
	}
}

func TestValidate_NotFound(t *testing.T) {
	s := fakeSources(pactlOutput, nil)

	err := s.Validate("nonexistent.source")
	if err == nil {
		t.Fatal("Expected error for nonexistent source")
	}
	if !strings.Contains(err.Error(), "source not found") {
		t.Errorf("Expected 'source not found' error, got: %v", err)
	}
}

func TestValidate_DuplicateDetection(t *testing.T) {
	s := fakeSources(pactlOutput+"3\tbluez_input.headset\tmodule-bluez5-device.c\ts16le 1ch 16000Hz\tIDLE\n", nil)

	err := s.Validate("bluez_input.headset")
	if err == nil {
		t.Fatal("Expected error for duplicate sources")
	}
	if !strings.Contains(err.Error(), "duplicate sources detected") {
		t.Errorf("Expected 'duplicate sources detected' error, got: %v", err)
	}
}

func TestValidate_DefaultSkipsLookup(t *testing.T) {
	s := fakeSources("", errors.New("pactl missing"))

	if err := s.Validate("default"); err != nil {
		t.Errorf("Expected no error for 'default', got: %v", err)
	}
	if err := s.Validate(""); err != nil {
		t.Errorf("Expected no error for empty string, got: %v", err)
	}
	if err := s.Validate("mic"); err == nil {
		t.Error("Expected lookup error to propagate")
	}
}
