// Package record describes the audio clips kept in the cache directory.
// The directory listing is the only index: there is no manifest.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the Go layout of the yyyyMMdd_HHmmss prefix.
const TimestampLayout = "20060102_150405"

// Suffix is appended to the timestamp of every recorded file name.
const Suffix = "_audio"

var namePattern = regexp.MustCompile(`^(\d{8}_\d{6})(?:_(\d+))?_audio\.[A-Za-z0-9]+$`)

// ErrNotFound is returned when a record is not part of a listing.
var ErrNotFound = errors.New("record not found")

// Record is an immutable audio clip on disk. Name is the stable identity.
type Record struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ID returns the stable identifier of the record.
func (r Record) ID() string {
	return r.Name
}

// Ext returns the container extension without the dot.
func (r Record) Ext() string {
	return strings.TrimPrefix(filepath.Ext(r.Name), ".")
}

// RecordedAt parses the capture time from the file name. ok is false for
// files that do not follow the naming scheme.
func (r Record) RecordedAt() (time.Time, bool) {
	m := namePattern.FindStringSubmatch(r.Name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FileName builds "<yyyyMMdd_HHmmss>_audio.<ext>".
func FileName(t time.Time, ext string) string {
	return t.Format(TimestampLayout) + Suffix + "." + strings.TrimPrefix(ext, ".")
}

// MatchesPattern reports whether name follows the recorded file naming scheme.
func MatchesPattern(name string) bool {
	return namePattern.MatchString(name)
}

// NewPath allocates a target path in dir for a recording started at t.
// Files that already exist are never reused: a "_N" counter is inserted
// before the suffix when two recordings start within the same second.
func NewPath(dir string, t time.Time, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	ext = strings.TrimPrefix(ext, ".")
	candidate := filepath.Join(dir, FileName(t, ext))
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s.%s", t.Format(TimestampLayout), n, Suffix, ext))
	}
}

// FromPath stats path and returns the record describing it.
func FromPath(path string) (Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Record{}, fmt.Errorf("recording file not found: %w", err)
	}
	if info.IsDir() {
		return Record{}, fmt.Errorf("%s is a directory", path)
	}
	return Record{
		Name:    info.Name(),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// List returns the records in dir in insertion order: by timestamp, then
// by collision counter. Files outside the naming scheme come last, by name.
// A missing directory yields an empty list.
func List(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		records = append(records, Record{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return orderKey(records[i].Name).less(orderKey(records[j].Name))
	})

	return records, nil
}

type listKey struct {
	other     bool
	timestamp string
	counter   int
	name      string
}

// orderKey splits a name into its timestamp and counter. The base file of
// a second has counter 0, so it precedes "_1", "_2" and "_10".
func orderKey(name string) listKey {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return listKey{other: true, name: name}
	}
	key := listKey{timestamp: m[1], name: name}
	if m[2] != "" {
		key.counter, _ = strconv.Atoi(m[2])
	}
	return key
}

func (k listKey) less(o listKey) bool {
	if k.other != o.other {
		return o.other
	}
	if k.timestamp != o.timestamp {
		return k.timestamp < o.timestamp
	}
	if k.counter != o.counter {
		return k.counter < o.counter
	}
	return k.name < o.name
}

// Remove deletes the file behind r.
func Remove(r Record) error {
	if err := os.Remove(r.Path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.Name, err)
	}
	return nil
}

// FormatBytes formats bytes in human readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
