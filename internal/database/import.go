package database

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"jordanella.com/royale-coach/internal/dataset"
)

// ImportResult summarizes a dataset import
type ImportResult struct {
	TotalFiles int
	Imported   int // files
	Samples    int
	Skipped    int // files whose matches were already indexed
	Failed     int
	Errors     []string
}

// ImportDirectory indexes every .jsonl dataset file under directory.
// A file is skipped when any of its matches already has samples.
func (s *SampleStore) ImportDirectory(directory string) (*ImportResult, error) {
	var files []string
	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan dataset directory: %w", err)
	}

	result := &ImportResult{
		TotalFiles: len(files),
		Errors:     make([]string, 0),
	}

	for _, path := range files {
		n, skipped, err := s.importFile(path)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		case skipped:
			result.Skipped++
		default:
			result.Imported++
			result.Samples += n
		}
	}

	return result, nil
}

func (s *SampleStore) importFile(path string) (int, bool, error) {
	samples, err := dataset.ReadSamples(path)
	if err != nil {
		return 0, false, err
	}

	starts := make(map[string]time.Time)
	for _, sample := range samples {
		if sample.MatchID == "" {
			continue
		}
		if _, seen := starts[sample.MatchID]; seen {
			continue
		}
		count, err := s.CountSamples(sample.MatchID)
		if err != nil {
			return 0, false, err
		}
		if count > 0 {
			return 0, true, nil
		}
		starts[sample.MatchID] = sample.Timestamp.Add(-time.Duration(sample.MatchElapsedMs) * time.Millisecond)
	}

	for id, startedAt := range starts {
		if err := s.StartMatch(id, startedAt, path); err != nil {
			return 0, false, err
		}
	}

	imported := 0
	for _, sample := range samples {
		if sample.MatchID == "" {
			continue
		}
		if err := s.Append(sample); err != nil {
			return imported, false, err
		}
		imported++
	}
	return imported, false, nil
}
