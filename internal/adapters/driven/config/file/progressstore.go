package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure ProgressStore implements the interface.
var _ driven.ProgressStore = (*ProgressStore)(nil)

// Progress file names within the state directory.
const (
	ProcessedFile = "processed.json"
	StatsFile     = "run_stats.json"
	SummaryFile   = "run_summary.txt"
)

// ProgressStore keeps run state as three files in one directory. Every file
// is replaced atomically by writing a temp file and renaming it.
type ProgressStore struct {
	dir string
}

// statsFile is the on-disk layout of run_stats.json.
type statsFile struct {
	Outcome        domain.RunOutcome    `json:"outcome"`
	ProcessedCount int                  `json:"processed_count"`
	Statistics     domain.RunStatistics `json:"statistics"`
	Cost           domain.CostEstimate  `json:"cost"`
}

// NewProgressStore creates the state directory if needed.
// If dir is empty, defaults to ~/.boilerbrain/state.
func NewProgressStore(dir string) (*ProgressStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "state")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &ProgressStore{dir: dir}, nil
}

// Dir returns the state directory.
func (s *ProgressStore) Dir() string {
	return s.dir
}

// LoadProcessed returns the processed set. A missing file is an empty set.
func (s *ProgressStore) LoadProcessed() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ProcessedFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read processed set: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, ProcessedFile, err)
	}
	return names, nil
}

// SaveProcessed writes only the processed set, sorted.
func (s *ProgressStore) SaveProcessed(names []string) error {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encode processed set: %w", err)
	}
	return s.writeAtomic(ProcessedFile, append(data, '\n'))
}

// Save writes the processed set, the statistics snapshot and the summary.
func (s *ProgressStore) Save(snap driven.ProgressSnapshot) error {
	if err := s.SaveProcessed(snap.Processed); err != nil {
		return err
	}

	data, err := json.MarshalIndent(statsFile{
		Outcome:        snap.Outcome,
		ProcessedCount: len(snap.Processed),
		Statistics:     snap.Stats,
		Cost:           snap.Cost,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run statistics: %w", err)
	}
	if err := s.writeAtomic(StatsFile, append(data, '\n')); err != nil {
		return err
	}

	return s.writeAtomic(SummaryFile, []byte(snap.Summary))
}

// LoadSnapshot reads the last written statistics. It returns
// domain.ErrNotFound if no run has flushed yet.
func (s *ProgressStore) LoadSnapshot() (*driven.ProgressSnapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, StatsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read run statistics: %w", err)
	}
	var sf statsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, StatsFile, err)
	}

	processed, err := s.LoadProcessed()
	if err != nil {
		return nil, err
	}
	summary, err := os.ReadFile(filepath.Join(s.dir, SummaryFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read run summary: %w", err)
	}

	return &driven.ProgressSnapshot{
		Processed: processed,
		Stats:     sf.Statistics,
		Cost:      sf.Cost,
		Outcome:   sf.Outcome,
		Summary:   string(summary),
	}, nil
}

// writeAtomic replaces name in the state directory with data.
func (s *ProgressStore) writeAtomic(name string, data []byte) error {
	return writeFileAtomic(filepath.Join(s.dir, name), data)
}

// writeFileAtomic replaces path with data through a synced temp file in the
// same directory, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	name := filepath.Base(path)
	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
