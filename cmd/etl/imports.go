package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/etl76/etl/internal/config"
	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/importer"
	"github.com/etl76/etl/internal/model"
	"github.com/etl76/etl/internal/store"
)

type importFunc func(r io.Reader) ([]*model.Record, error)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append entries exported by other tools",
	}
	cmd.AddCommand(newImportFormatCmd("strava", "Strava activity list CSV", importer.Strava))
	cmd.AddCommand(newImportFormatCmd("concept2", "Concept2 logbook season CSV", func(r io.Reader) ([]*model.Record, error) {
		return importer.Concept2(r, importer.Concept2Options{
			Gear:      settings.Concept2Gear,
			ProfileID: settings.Concept2Profile,
		})
	}))
	cmd.AddCommand(newImportFormatCmd("fit", "FIT activity files", func(r io.Reader) ([]*model.Record, error) {
		rec, err := importer.FIT(r, time.Local)
		if err != nil {
			return nil, err
		}
		return []*model.Record{rec}, nil
	}))
	cmd.AddCommand(newImportFormatCmd("yaml", "YAML year logs", importer.LegacyYAML))
	return cmd
}

func newImportFormatCmd(name, what string, parse importFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <file>...",
		Short: "Import " + what,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runImport(name, parse, args)
		},
	}
}

// runImport appends the entries of every file and saves once. Nothing is
// saved when any file fails.
func runImport(format string, parse importFunc, paths []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	total := 0
	for _, path := range paths {
		records, err := importFile(path, parse)
		if err != nil {
			return err
		}
		for _, r := range records {
			ds.Append(r)
		}
		total += len(records)
		logger.Debug("file imported", "format", format, "path", path, "entries", len(records))
	}
	if total == 0 {
		logger.Info("nothing to import", "format", format)
		return nil
	}
	if err := saveDataset(ds); err != nil {
		return err
	}
	logger.Info("entries imported", "format", format, "entries", total, "files", len(paths))
	return nil
}

func importFile(path string, parse importFunc) ([]*model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after read.
			_ = cerr
		}
	}()
	records, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <out> <in>...",
		Short: "Concatenate training logs into a new file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ds, err := importer.Merge(logger, args[1:]...)
			if err != nil {
				return err
			}
			if err := csvfile.Save(args[0], ds, logger); err != nil {
				return err
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the log into other formats",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sqlite [db]",
		Short: "Write the log into a SQLite table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportSQLiteCmd,
	})
	return cmd
}

func runExportSQLiteCmd(cmd *cobra.Command, args []string) error {
	path := config.DefaultExportPath()
	if len(args) == 1 {
		path = args[0]
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "error", cerr)
		}
	}()
	if err := st.ReplaceAll(cmd.Context(), ds.Instances()); err != nil {
		return err
	}
	logger.Info("dataset exported", "db", path, "entries", ds.Len())
	return nil
}
