package csvfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/etl76/etl/internal/dataset"
)

// BackupSuffix is appended to the dataset path to name the previous version.
const BackupSuffix = ".tmp"

// BackupPath returns where Save keeps the previous version of path.
func BackupPath(path string) string {
	return path + BackupSuffix
}

// SaveError reports a failed save and where the previous version is, if any.
type SaveError struct {
	Path   string
	Backup string
	Err    error
}

func (e *SaveError) Error() string {
	if e.Backup != "" {
		return fmt.Sprintf("csvfile: save %s: %v (previous version kept at %s)", e.Path, e.Err, e.Backup)
	}
	return fmt.Sprintf("csvfile: save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

type syncWriter interface {
	io.WriteCloser
	Sync() error
}

var createFile = func(path string) (syncWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads path into a new dataset.
func Load(path string, logger *slog.Logger) (*dataset.Dataset, error) {
	ds := dataset.New()
	if err := LoadInto(ds, path, logger); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadInto replaces the content of ds with the records in path. On any error
// ds is left untouched.
func LoadInto(ds *dataset.Dataset, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("csvfile: open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after read.
			_ = cerr
		}
	}()
	records, err := Read(f, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	ds.Reset(records)
	return nil
}

// Save writes the whole dataset to path. An existing file is first renamed
// to BackupPath(path), replacing any older backup, so a failed write leaves
// the previous version readable. The backup stays in place after success.
func Save(path string, ds *dataset.Dataset, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	backup := BackupPath(path)
	kept := ""
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &SaveError{Path: path, Err: fmt.Errorf("remove stale backup: %w", err)}
		}
		if err := os.Rename(path, backup); err != nil {
			return &SaveError{Path: path, Err: fmt.Errorf("backup: %w", err)}
		}
		kept = backup
		logger.Debug("previous version moved", "backup", backup)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &SaveError{Path: path, Err: err}
	}

	f, err := createFile(path)
	if err != nil {
		return &SaveError{Path: path, Backup: kept, Err: err}
	}
	if err := Write(f, ds.Instances()); err != nil {
		_ = f.Close()
		return &SaveError{Path: path, Backup: kept, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &SaveError{Path: path, Backup: kept, Err: fmt.Errorf("fsync: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &SaveError{Path: path, Backup: kept, Err: err}
	}
	ds.MarkClean()
	logger.Info("dataset saved", "path", path, "records", ds.Len())
	return nil
}
