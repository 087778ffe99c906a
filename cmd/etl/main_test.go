package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/dataset"
	"github.com/etl76/etl/internal/store"
)

type env struct {
	dir     string
	dataset string
	config  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ETL_DATASET", "")
	t.Setenv("ETL_LOG_LEVEL", "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	prevToday := today
	today = func() time.Time { return time.Date(2020, 5, 2, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { today = prevToday })
	return env{
		dir:     dir,
		dataset: filepath.Join(dir, "data", "log.csv"),
		config:  filepath.Join(dir, "config.toml"),
	}
}

func (e env) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.config, "--dataset", e.dataset}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("etl %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func (e env) activities(t *testing.T) string {
	t.Helper()
	ds, err := csvfile.Load(e.dataset, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var names []string
	for _, r := range ds.Instances() {
		names = append(names, r.Activity.String())
	}
	return strings.Join(names, ",")
}

func TestAddListShow(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "--set", "activity=run", "--set", "total_distance=10000m", "--set", "total_time=00h50m00s")
	e.mustRun(t, "add", "--set", "activity=bike", "--set", "date=2020/05/01")
	e.mustRun(t, "add", "--at", "0", "--set", "activity=swim")

	if got := e.activities(t); got != "swim,run,bike" {
		t.Fatalf("unexpected order: %s", got)
	}

	out := e.mustRun(t, "list")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[2], "10000m") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	if root := e.mustRun(t); root != out {
		t.Fatalf("root command should list when not on a terminal:\n%s", root)
	}

	out = e.mustRun(t, "show", "1")
	if !strings.Contains(out, "2020/05/02") || !strings.Contains(out, "run") {
		t.Fatalf("unexpected detail:\n%s", out)
	}
}

func TestAddRejectsInvalidFields(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "add", "--set", "distance=ten", "--set", "date=2020/13/01")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "distance") || !strings.Contains(err.Error(), "date") {
		t.Fatalf("error should name both fields: %v", err)
	}
	if _, statErr := os.Stat(e.dataset); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("nothing should be written on error")
	}
}

func TestEditRemoveMove(t *testing.T) {
	e := newEnv(t)
	for _, a := range []string{"run", "bike", "swim"} {
		e.mustRun(t, "add", "--set", "activity="+a)
	}

	e.mustRun(t, "edit", "1", "--set", "activity=rowing", "--set", "gear=my_concept2_e")
	if got := e.activities(t); got != "run,rowing,swim" {
		t.Fatalf("unexpected content after edit: %s", got)
	}
	out := e.mustRun(t, "show", "1")
	if !strings.Contains(out, "my_concept2_e") {
		t.Fatalf("edit lost gear:\n%s", out)
	}

	e.mustRun(t, "move", "2", "up")
	if got := e.activities(t); got != "run,swim,rowing" {
		t.Fatalf("unexpected content after move: %s", got)
	}
	e.mustRun(t, "move", "0", "up")
	if got := e.activities(t); got != "run,swim,rowing" {
		t.Fatalf("first entry should stay: %s", got)
	}

	e.mustRun(t, "remove", "0")
	if got := e.activities(t); got != "swim,rowing" {
		t.Fatalf("unexpected content after remove: %s", got)
	}

	_, _, err := e.run(t, "remove", "5")
	var idxErr *dataset.IndexError
	if !errors.As(err, &idxErr) || idxErr.Index != 5 {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if _, err := os.Stat(csvfile.BackupPath(e.dataset)); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
}

func TestCheckAndFix(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "--set", "time=00h30m00s", "--set", "distance=5000m")

	out, _, err := e.run(t, "check")
	if err == nil {
		t.Fatalf("expected inconsistent totals")
	}
	if !strings.Contains(out, "total_time_seconds") {
		t.Fatalf("unexpected report: %q", out)
	}

	e.mustRun(t, "check", "--fix")
	if out := e.mustRun(t, "check"); out != "" {
		t.Fatalf("expected clean check, got %q", out)
	}
}

func TestImportAndExport(t *testing.T) {
	e := newEnv(t)
	yamlPath := filepath.Join(e.dir, "2017.yaml")
	content := `year: 2017
log:
  - date: 03/04
    activity: run
    distance: 12.5km
    time: 1h3'10
    weight: 92.5kg
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	e.mustRun(t, "import", "yaml", yamlPath)
	out := e.mustRun(t, "show", "0")
	if !strings.Contains(out, "2017/03/04") || !strings.Contains(out, "yaml:2017") {
		t.Fatalf("unexpected imported entry:\n%s", out)
	}

	_, _, err := e.run(t, "import", "strava", filepath.Join(e.dir, "missing.csv"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}

	db := filepath.Join(e.dir, "export", "log.db")
	e.mustRun(t, "export", "sqlite", db)
	st, err := store.Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	records, err := st.List(t.Context())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Activity != "run" {
		t.Fatalf("unexpected exported records: %+v", records)
	}
}

func TestMerge(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "--set", "activity=run")
	other := filepath.Join(e.dir, "other.csv")
	if _, _, err := e.run(t, "--dataset", other, "add", "--set", "activity=bike"); err != nil {
		t.Fatalf("add to other: %v", err)
	}
	out := filepath.Join(e.dir, "merged.csv")
	e.mustRun(t, "merge", out, e.dataset, other)
	merged, err := csvfile.Load(out, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if merged.Len() != 2 {
		t.Fatalf("expected 2 merged entries, got %d", merged.Len())
	}
}

func TestSettingsPrecedence(t *testing.T) {
	e := newEnv(t)
	fromFile := filepath.Join(e.dir, "from-file.csv")
	fromEnv := filepath.Join(e.dir, "from-env.csv")
	config := "[dataset]\npath = \"" + fromFile + "\"\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(e.config, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	run := func(args ...string) string {
		cmd := newRootCmd()
		var stderr bytes.Buffer
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&stderr)
		cmd.SetArgs(append([]string{"--config", e.config}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
		return stderr.String()
	}

	stderr := run("list")
	if settings.DatasetPath != fromFile {
		t.Fatalf("config file not applied: %q", settings.DatasetPath)
	}
	if !strings.Contains(stderr, "settings resolved") {
		t.Fatalf("debug level from config not applied: %q", stderr)
	}

	t.Setenv("ETL_DATASET", fromEnv)
	run("list")
	if settings.DatasetPath != fromEnv {
		t.Fatalf("environment not applied: %q", settings.DatasetPath)
	}

	run("--dataset", e.dataset, "list")
	if settings.DatasetPath != e.dataset {
		t.Fatalf("flag not applied: %q", settings.DatasetPath)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", e.config, "--log-format", "xml", "list"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected invalid configuration error")
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	e := newEnv(t)
	if err := os.WriteFile(e.config, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	e.mustRun(t, "list")
}
