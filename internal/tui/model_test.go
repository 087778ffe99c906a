package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/dataset"
	"github.com/etl76/etl/internal/model"
)

func entry(day int, activity string) *model.Record {
	return &model.Record{Year: 2020, Month: 5, Day: day, Phase: 1, Activity: model.Categorical(activity), Intensity: "fartlek"}
}

func newTestModel(t *testing.T, records ...*model.Record) (*Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.csv")
	ds := dataset.New(records...)
	if err := csvfile.Save(path, ds, nil); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	m := NewModel(ds, path, nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	return m, path
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func activities(ds *dataset.Dataset) string {
	var names []string
	for _, r := range ds.Instances() {
		names = append(names, r.Activity.String())
	}
	return strings.Join(names, ",")
}

func TestMoveAndRemove(t *testing.T) {
	m, _ := newTestModel(t, entry(1, "run"), entry(2, "bike"), entry(3, "swim"))

	press(m, "down", "K")
	if got := activities(m.ds); got != "bike,run,swim" {
		t.Fatalf("unexpected order after move up: %s", got)
	}
	if m.table.Cursor() != 0 {
		t.Fatalf("cursor should follow the entry, got %d", m.table.Cursor())
	}
	press(m, "K")
	if got := activities(m.ds); got != "bike,run,swim" {
		t.Fatalf("first entry should not move: %s", got)
	}

	press(m, "J", "J")
	if got := activities(m.ds); got != "run,swim,bike" {
		t.Fatalf("unexpected order after move down: %s", got)
	}

	press(m, "x")
	if got := activities(m.ds); got != "run,swim" {
		t.Fatalf("unexpected order after remove: %s", got)
	}
	if m.table.Cursor() != 1 {
		t.Fatalf("cursor should clamp to the last entry, got %d", m.table.Cursor())
	}
	if !m.ds.Dirty() {
		t.Fatalf("dataset should be dirty")
	}
}

func TestQuitGuard(t *testing.T) {
	m, _ := newTestModel(t, entry(1, "run"), entry(2, "bike"))

	press(m, "x")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Fatalf("first q with unsaved changes should not quit")
	}
	if !strings.Contains(m.status, "unsaved") {
		t.Fatalf("expected warning, got %q", m.status)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("second q should quit")
	}
}

func TestSaveAndReload(t *testing.T) {
	m, path := newTestModel(t, entry(1, "run"), entry(2, "bike"))

	press(m, "x", "s")
	if m.ds.Dirty() {
		t.Fatalf("save should mark the dataset clean")
	}
	loaded, err := csvfile.Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := activities(loaded); got != "bike" {
		t.Fatalf("unexpected saved content: %s", got)
	}
	if _, err := os.Stat(csvfile.BackupPath(path)); err != nil {
		t.Fatalf("expected backup: %v", err)
	}

	other := dataset.New(entry(4, "rowing"), entry(5, "run"))
	if err := csvfile.Save(path, other, nil); err != nil {
		t.Fatalf("external save: %v", err)
	}
	press(m, "r")
	if got := activities(m.ds); got != "rowing,run" {
		t.Fatalf("unexpected content after reload: %s", got)
	}
}

func TestFileChanged(t *testing.T) {
	m, path := newTestModel(t, entry(1, "run"))
	now := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := csvfile.Save(path, dataset.New(entry(2, "bike")), nil); err != nil {
		t.Fatalf("external save: %v", err)
	}
	m.Update(FileChangedMsg{})
	if got := activities(m.ds); got != "bike" {
		t.Fatalf("clean dataset should reload, got %s", got)
	}

	press(m, "s")
	if err := csvfile.Save(path, dataset.New(entry(3, "swim")), nil); err != nil {
		t.Fatalf("external save: %v", err)
	}
	m.Update(FileChangedMsg{})
	if got := activities(m.ds); got != "bike" {
		t.Fatalf("event right after own save should be ignored, got %s", got)
	}

	now = now.Add(2 * time.Second)
	m.ds.Append(entry(4, "walk"))
	m.Update(FileChangedMsg{})
	if got := activities(m.ds); got != "bike,walk" {
		t.Fatalf("dirty dataset must not be reloaded, got %s", got)
	}
	if !strings.Contains(m.status, "unsaved changes kept") {
		t.Fatalf("expected warning, got %q", m.status)
	}
}

func TestDetailView(t *testing.T) {
	m, _ := newTestModel(t, entry(1, "run"))

	press(m, "enter")
	if !m.showDetail {
		t.Fatalf("enter should open the detail view")
	}
	if !strings.Contains(m.View(), "run") {
		t.Fatalf("detail view missing entry content:\n%s", m.View())
	}
	press(m, "esc")
	if m.showDetail {
		t.Fatalf("esc should close the detail view")
	}
}

func TestRenderFooter(t *testing.T) {
	m, path := newTestModel(t, entry(1, "run"), entry(2, "bike"))
	out := m.renderFooter()
	if !containsAll(out, []string{"2 entries", filepath.Base(path)}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
	press(m, "x")
	if !containsAll(m.renderFooter(), []string{"1 entries", "modified", "entry removed"}) {
		t.Fatalf("footer missing modified marker: %s", m.renderFooter())
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
