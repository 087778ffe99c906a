// Package main provides the CLI entrypoint for etl.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/etl76/etl/internal/config"
	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/dataset"
	"github.com/etl76/etl/internal/importer"
	"github.com/etl76/etl/internal/logging"
	"github.com/etl76/etl/internal/tui"
	"github.com/etl76/etl/internal/view"
)

var (
	configPath  string
	datasetPath string
	logLevel    string
	logFormat   string

	// settings and logger are resolved before any subcommand runs.
	settings config.Settings
	logger   = logging.Discard()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:               "etl",
		Short:             "Endurance training log",
		Long:              "Browse and edit a CSV endurance training log.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadSettings,
		RunE:              runRootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	flags.StringVar(&datasetPath, "dataset", defaults.DatasetPath, "training log CSV file")
	flags.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", defaults.LogFormat, "log format (text, json)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

// loadSettings resolves flag > environment > config file > default.
func loadSettings(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s := config.Defaults()
	s.Apply(fileCfg)
	s.ApplyEnv()
	applyStringConfig(cmd, "dataset", &datasetPath, &s.DatasetPath)
	applyStringConfig(cmd, "log-level", &logLevel, &s.LogLevel)
	applyStringConfig(cmd, "log-format", &logFormat, &s.LogFormat)
	s.DatasetPath = datasetPath
	s.LogLevel = logLevel
	s.LogFormat = logFormat
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logging.Setup(s.LogLevel, s.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	settings = s
	logger = l
	logger.Debug("settings resolved", "dataset", s.DatasetPath, "config", configPath)
	return nil
}

func runRootCmd(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	if !isTerminal(os.Stdout) || cmd.OutOrStdout() != os.Stdout {
		return printList(cmd, ds)
	}
	if err := tui.Run(cmd.Context(), ds, settings.DatasetPath, logger); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadDataset reads the configured log. A missing file is an empty log.
func loadDataset() (*dataset.Dataset, error) {
	ds, err := csvfile.Load(settings.DatasetPath, logger)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("dataset file not found, starting empty", "path", settings.DatasetPath)
		return dataset.New(), nil
	}
	return ds, err
}

func saveDataset(ds *dataset.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(settings.DatasetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return csvfile.Save(settings.DatasetPath, ds, logger)
}

func printList(cmd *cobra.Command, ds *dataset.Dataset) error {
	lines := view.Lines(ds.Instances())
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isTerminal(f) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			lines = view.Truncate(lines, width)
		}
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "config",
		Short:             "Create/open config file",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := config.Defaults()
	return fmt.Sprintf(`# etl configuration
# Uncomment a value to enable it. CLI flags and ETL_* environment
# variables override config values. $VAR references are expanded.

[dataset]
# path = %q

[log]
# level = %q              # debug, info, warn, error
# format = %q             # text, json

[import]
# concept2-gear = %q      # Gear label for Concept2 entries
# concept2-profile = ""   # log.concept2.com profile id for entry links
`,
		defaults.DatasetPath,
		defaults.LogLevel,
		defaults.LogFormat,
		importer.DefaultConcept2Gear,
	)
}
