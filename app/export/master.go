package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/factcomb/app/dataset"
)

var ErrMasterLocked = errors.New("master file is locked by another process")

const staleLockAge = time.Hour

// lock takes the advisory lock next to the master file. A lock older than
// staleLockAge is assumed abandoned and replaced once.
func lock(masterPath string) (func(), error) {
	lockPath := masterPath + ".lock"

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return func() {
				if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
					slog.Warn("Failed to release master lock", "path", lockPath, "error", err)
				}
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, statErr := os.Stat(lockPath)
		if statErr != nil || time.Since(info.ModTime()) < staleLockAge {
			return nil, ErrMasterLocked
		}

		slog.Warn("Removing stale master lock", "path", lockPath, "age", time.Since(info.ModTime()).Round(time.Second).String())
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}

	return nil, ErrMasterLocked
}

// MergeMaster folds records into the master file: read it whole, concatenate,
// deduplicate by canonical URL then fingerprint, and replace it atomically.
// It returns the number of rows in the new master.
func MergeMaster(masterPath string, records []dataset.Record) (int, error) {
	unlock, err := lock(masterPath)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var existing []dataset.Record
	if _, err := os.Stat(masterPath); err == nil {
		existing, err = ReadCSV(masterPath)
		if err != nil {
			return 0, fmt.Errorf("failed to read master: %w", err)
		}
	}

	merged := dataset.Merge(append(existing, records...))

	if err := replaceCSV(masterPath, merged); err != nil {
		return 0, err
	}

	slog.Info("Master updated", "path", masterPath, "previous", len(existing), "added", len(records), "total", len(merged))
	return len(merged), nil
}

func replaceCSV(path string, records []dataset.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := WriteCSV(tmpPath, records); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
