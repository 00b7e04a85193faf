package audio

import "sync"

// PeakMeter consumes little-endian signed 16-bit PCM and keeps the peak
// absolute value until it is read.
type PeakMeter struct {
	mu         sync.Mutex
	peak       int
	pending    byte
	hasPending bool
}

// Write implements io.Writer. It never fails.
func (m *PeakMeter) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := p
	if m.hasPending && len(data) > 0 {
		m.observe(m.pending, data[0])
		m.hasPending = false
		data = data[1:]
	}

	n := len(data) &^ 1
	for i := 0; i < n; i += 2 {
		m.observe(data[i], data[i+1])
	}
	if n < len(data) {
		m.pending = data[n]
		m.hasPending = true
	}

	return len(p), nil
}

func (m *PeakMeter) observe(lo, hi byte) {
	v := int(int16(uint16(lo) | uint16(hi)<<8))
	if v < 0 {
		v = -v
	}
	if v > 32767 {
		v = 32767
	}
	if v > m.peak {
		m.peak = v
	}
}

// Amplitude returns the peak since the previous call and resets it.
func (m *PeakMeter) Amplitude() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	peak := m.peak
	m.peak = 0
	return peak
}
