package importer

import (
	"fmt"
	"log/slog"

	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/dataset"
)

// Merge concatenates log files in the given order. Every input goes
// through the same schema handling as a normal load.
func Merge(logger *slog.Logger, paths ...string) (*dataset.Dataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("merge: no input files")
	}
	out := dataset.New()
	for _, path := range paths {
		ds, err := csvfile.Load(path, logger)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		for _, rec := range ds.Instances() {
			out.Append(rec)
		}
		if logger != nil {
			logger.Debug("merged file", "path", path, "records", ds.Len())
		}
	}
	return out, nil
}
