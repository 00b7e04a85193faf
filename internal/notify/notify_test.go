package notify

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(LevelInfo, "Audio permission granted")
	c.Notify(LevelError, "device busy")

	assert.Equal(t, "• Audio permission granted\n✗ device busy\n", buf.String())
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	NewLog(Multi{&a, nil, &b}).Notify(LevelError, "boom")

	assert.Equal(t, []Message{{Level: LevelError, Text: "boom"}}, a.Messages())
	last, ok := b.Last()
	assert.True(t, ok)
	assert.Equal(t, "boom", last.Text)

	_, ok = (&Recorder{}).Last()
	assert.False(t, ok)
}
