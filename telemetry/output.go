package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/skirmish/config"
)

// csvTable appends records to one CSV file, writing the header once.
type csvTable struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openTable(dir, name string) (*csvTable, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvTable{name: name, file: f}, nil
}

// write marshals records, which must be a slice of csv-tagged structs.
func (t *csvTable) write(records any) error {
	var err error
	if !t.headerWritten {
		err = gocsv.Marshal(records, t.file)
		t.headerWritten = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, t.file)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", t.name, err)
	}
	return nil
}

// OutputManager writes one run's telemetry under its own directory.
type OutputManager struct {
	runID uuid.UUID
	dir   string

	telemetry *csvTable
	perf      *csvTable
	bookmarks *csvTable
}

// NewOutputManager creates <base>/<runID>/ and opens the CSV files.
// Returns nil if base is empty (output disabled).
func NewOutputManager(base string, runID uuid.UUID) (*OutputManager, error) {
	if base == "" {
		return nil, nil
	}

	dir := filepath.Join(base, runID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{runID: runID, dir: dir}
	var err error
	if om.telemetry, err = openTable(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = openTable(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = openTable(dir, "bookmarks.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteAgents writes the per-agent ledger to agents.csv, replacing any earlier copy.
func (om *OutputManager) WriteAgents(agents []LifetimeStats) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "agents.csv"))
	if err != nil {
		return fmt.Errorf("creating agents.csv: %w", err)
	}
	if err := gocsv.MarshalFile(&agents, f); err != nil {
		f.Close()
		return fmt.Errorf("writing agents.csv: %w", err)
	}
	return f.Close()
}

// WriteSnapshot saves a snapshot under the run's snapshots/ directory.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	s.RunID = om.runID.String()
	return SaveSnapshot(s, filepath.Join(om.dir, "snapshots"))
}

// RunID returns the run identifier.
func (om *OutputManager) RunID() uuid.UUID {
	if om == nil {
		return uuid.Nil
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, t := range []*csvTable{om.telemetry, om.perf, om.bookmarks} {
		if t != nil {
			errs = append(errs, t.file.Close())
		}
	}
	return errors.Join(errs...)
}
