package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pcm(samples ...int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func TestPeakMeter_TracksPeakAndResets(t *testing.T) {
	var m PeakMeter

	_, _ = m.Write(pcm(10, -300, 250))
	assert.Equal(t, 300, m.Amplitude())
	assert.Equal(t, 0, m.Amplitude(), "peak must reset after a read")
}

func TestPeakMeter_SplitSamples(t *testing.T) {
	var m PeakMeter
	data := pcm(1, 1200)

	n, err := m.Write(data[:3])
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = m.Write(data[3:])

	assert.Equal(t, 1200, m.Amplitude())
}

func TestPeakMeter_MinimumSampleIsClamped(t *testing.T) {
	var m PeakMeter
	_, _ = m.Write(pcm(-32768))
	assert.Equal(t, 32767, m.Amplitude())
}
