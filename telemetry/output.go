package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/vortex/config"
	"github.com/pthm-cable/vortex/diagnostics"
)

// csvLog appends records to a CSV file, writing the header once.
type csvLog struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openCSV(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, file: f}, nil
}

// appendRecord writes a single record; T must carry csv struct tags.
func appendRecord[T any](l *csvLog, rec T) error {
	records := []T{rec}
	var err error
	if !l.headerWritten {
		err = gocsv.Marshal(records, l.file)
		l.headerWritten = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, l.file)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

// OutputManager writes the run's frames.csv, perf.csv, bookmarks.csv and
// config.yaml. A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	frames    *csvLog
	perf      *csvLog
	bookmarks *csvLog
}

// NewOutputManager creates dir and opens the CSV logs.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	frames, err := openCSV(dir, "frames.csv")
	if err != nil {
		return nil, err
	}
	perf, err := openCSV(dir, "perf.csv")
	if err != nil {
		frames.file.Close()
		return nil, err
	}
	bookmarks, err := openCSV(dir, "bookmarks.csv")
	if err != nil {
		frames.file.Close()
		perf.file.Close()
		return nil, err
	}
	return &OutputManager{dir: dir, frames: frames, perf: perf, bookmarks: bookmarks}, nil
}

// WriteConfig snapshots the run configuration.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFrame appends one sampled frame to frames.csv.
func (om *OutputManager) WriteFrame(stats diagnostics.FrameStats) error {
	if om == nil {
		return nil
	}
	return appendRecord(om.frames, stats)
}

// WritePerf appends the perf window ending at step to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, step int) error {
	if om == nil {
		return nil
	}
	return appendRecord(om.perf, stats.ToCSV(step))
}

// WriteBookmark appends a detected bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return appendRecord(om.bookmarks, b)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes the CSV files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.frames.file.Close(), om.perf.file.Close(), om.bookmarks.file.Close())
}
