package record

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 1, 0, time.Local)

	assert.Equal(t, "20240307_090501_audio.mp4", FileName(ts, "mp4"))
	assert.Equal(t, "20240307_090501_audio.ogg", FileName(ts, ".ogg"))
	assert.True(t, MatchesPattern(FileName(ts, "mp4")))
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"20240307_090501_audio.mp4", true},
		{"20240307_090501_2_audio.mp4", true},
		{"20240307_090501.mp4", false},
		{"notes.txt", false},
		{"2024037_090501_audio.mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesPattern(tt.name))
		})
	}
}

func TestRecordedAt(t *testing.T) {
	r := Record{Name: "20240307_090501_audio.mp4"}
	at, ok := r.RecordedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 7, 9, 5, 1, 0, time.Local), at)
	assert.Equal(t, "mp4", r.Ext())

	_, ok = Record{Name: "other.wav"}.RecordedAt()
	assert.False(t, ok)
}

func TestNewPath_AvoidsCollisions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	ts := time.Date(2024, 3, 7, 9, 5, 1, 0, time.Local)

	first, err := NewPath(dir, ts, "mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240307_090501_audio.mp4"), first)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0644))

	second, err := NewPath(dir, ts, "mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240307_090501_1_audio.mp4"), second)
	assert.True(t, MatchesPattern(filepath.Base(second)))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20240307_090502_audio.mp4", "20240307_090501_audio.mp4", ".hidden"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	records, err := List(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "20240307_090501_audio.mp4", records[0].Name)
	assert.Equal(t, "20240307_090502_audio.mp4", records[1].Name)
	assert.Equal(t, int64(4), records[0].Size)
}

func TestList_SameSecondKeepsCreationOrder(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 7, 9, 5, 1, 0, time.Local)

	var created []string
	for i := 0; i < 12; i++ {
		path, err := NewPath(dir, at, "mp4")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		created = append(created, filepath.Base(path))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240307_090502_audio.mp4"), []byte("x"), 0644))

	records, err := List(dir)
	require.NoError(t, err)

	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	want := append(created, "20240307_090502_audio.mp4", "notes.txt")
	assert.Equal(t, want, names)
	assert.Equal(t, "20240307_090501_audio.mp4", names[0])
	assert.Equal(t, "20240307_090501_1_audio.mp4", names[1])
	assert.Equal(t, "20240307_090501_11_audio.mp4", names[11])
}

func TestList_MissingDirectory(t *testing.T) {
	records, err := List(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240307_090501_audio.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	r, err := FromPath(path)
	require.NoError(t, err)
	require.NoError(t, Remove(r))
	assert.NoFileExists(t, path)

	assert.Error(t, Remove(r), "removing twice must fail")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}
