package tui

import "strings"

var bars = []rune("▁▂▃▄▅▆▇█")

// maxAmplitude is the largest value of a 16-bit sample.
const maxAmplitude = 32767

// visualizer keeps the recent amplitude samples of a recording.
type visualizer struct {
	width   int
	samples []int
}

func newVisualizer(width int) *visualizer {
	return &visualizer{width: width}
}

func (v *visualizer) push(amplitude int) {
	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > maxAmplitude {
		amplitude = maxAmplitude
	}
	v.samples = append(v.samples, amplitude)
	if len(v.samples) > v.width {
		v.samples = v.samples[len(v.samples)-v.width:]
	}
}

func (v *visualizer) clear() {
	v.samples = nil
}

func (v *visualizer) String() string {
	var sb strings.Builder
	for _, s := range v.samples {
		sb.WriteRune(bars[s*(len(bars)-1)/maxAmplitude])
	}
	if pad := v.width - len(v.samples); pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	return sb.String()
}
