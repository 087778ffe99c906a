// Package tui provides the Bubble Tea browser for a training log.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/etl76/etl/internal/csvfile"
	"github.com/etl76/etl/internal/dataset"
	"github.com/etl76/etl/internal/view"
	"github.com/etl76/etl/internal/watch"
)

// ownSaveWindow is how long watcher events are attributed to our own save.
const ownSaveWindow = time.Second

// FileChangedMsg reports that the dataset file was changed on disk.
type FileChangedMsg struct{}

// Model implements the Bubble Tea log browser.
type Model struct {
	ds     *dataset.Dataset
	path   string
	logger *slog.Logger
	now    func() time.Time

	table      table.Model
	detail     viewport.Model
	showDetail bool

	width  int
	height int

	status    string
	quitArmed bool
	savedAt   time.Time
}

var (
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	dirtyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// NewModel constructs a browser over ds, which was loaded from path.
func NewModel(ds *dataset.Dataset, path string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Model{
		ds:     ds,
		path:   path,
		logger: logger,
		now:    time.Now,
		table: table.New(
			table.WithFocused(true),
			table.WithHeight(10),
		),
		detail: viewport.New(0, 0),
	}
	m.table.SetStyles(tableStyles())
	m.refreshRows()
	return m
}

// Run starts the browser and reloads it when the file changes on disk.
func Run(ctx context.Context, ds *dataset.Dataset, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(ds, path, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		if err := watch.Watch(ctx, path, logger, func() { p.Send(FileChangedMsg{}) }); err != nil {
			logger.Warn("file watcher unavailable", "path", path, "error", err)
		}
	}()
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case FileChangedMsg:
		m.handleFileChanged()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.showDetail {
			return m.updateDetail(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.quitArmed = false
	}
	switch key {
	case "q":
		if m.ds.Dirty() && !m.quitArmed {
			m.quitArmed = true
			m.status = "unsaved changes: press q again to quit, s to save"
			return m, nil
		}
		return m, tea.Quit
	case "K", "shift+up":
		m.move(m.ds.MoveUp)
	case "J", "shift+down":
		m.move(m.ds.MoveDown)
	case "x", "delete":
		m.remove()
	case "enter":
		m.openDetail()
	case "s":
		m.save()
	case "r":
		m.reload(true)
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.showDetail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) move(op func(int) (int, error)) {
	if m.ds.Len() == 0 {
		return
	}
	index, err := op(m.table.Cursor())
	if err != nil {
		m.status = err.Error()
		return
	}
	if index == dataset.NotMoved {
		return
	}
	m.refreshRows()
	m.table.SetCursor(index)
	m.status = ""
}

func (m *Model) remove() {
	if m.ds.Len() == 0 {
		return
	}
	index, err := m.ds.RemoveAt(m.table.Cursor())
	if err != nil {
		m.status = err.Error()
		return
	}
	m.refreshRows()
	if index == dataset.NoSelection {
		index = 0
	}
	m.table.SetCursor(index)
	m.status = "entry removed"
}

func (m *Model) openDetail() {
	r, err := m.ds.At(m.table.Cursor())
	if err != nil {
		return
	}
	m.detail.SetContent(r.ToDisplayString())
	m.detail.GotoTop()
	m.showDetail = true
}

func (m *Model) save() {
	if err := csvfile.Save(m.path, m.ds, m.logger); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.savedAt = m.now()
	m.status = fmt.Sprintf("saved %d entries", m.ds.Len())
}

// reload replaces the dataset with the file content. Unsaved changes are
// only discarded when force is set.
func (m *Model) reload(force bool) {
	if m.ds.Dirty() && !force {
		m.status = "file changed on disk; unsaved changes kept (r to reload)"
		return
	}
	cursor := m.table.Cursor()
	if err := csvfile.LoadInto(m.ds, m.path, m.logger); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return
	}
	m.refreshRows()
	if n := m.ds.Len(); n > 0 {
		m.table.SetCursor(min(cursor, n-1))
	}
	m.status = fmt.Sprintf("reloaded %d entries", m.ds.Len())
}

func (m *Model) handleFileChanged() {
	if !m.savedAt.IsZero() && m.now().Sub(m.savedAt) < ownSaveWindow {
		return
	}
	m.reload(false)
}

func (m *Model) refreshRows() {
	records := m.ds.Instances()
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row(view.Row(r))
	}
	m.table.SetColumns(columnsFor(rows))
	m.table.SetRows(rows)
}

func columnsFor(rows []table.Row) []table.Column {
	cols := make([]table.Column, len(view.Headers))
	for i, title := range view.Headers {
		width := runewidth.StringWidth(title)
		for _, row := range rows {
			width = max(width, runewidth.StringWidth(row[i]))
		}
		cols[i] = table.Column{Title: title, Width: width}
	}
	return cols
}

func (m *Model) updateLayout() {
	bodyHeight := max(1, m.height-1)
	m.table.SetWidth(m.width)
	// Header and its border take two lines.
	m.table.SetHeight(max(1, bodyHeight-2))
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
}

// View implements tea.Model.
func (m *Model) View() string {
	body := m.table.View()
	if m.showDetail {
		body = m.detail.View()
	}
	if m.height < 3 {
		return body
	}
	return body + "\n" + m.renderFooter()
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("%d entries", m.ds.Len()), m.path}
	if m.ds.Dirty() {
		segments = append(segments, dirtyStyle.Render("modified"))
	}
	footer := footerStyle.Render(strings.Join(segments, " · "))
	if m.status != "" {
		footer += "  " + warnStyle.Render(m.status)
	}
	if m.width > 0 {
		footer = lipgloss.NewStyle().MaxWidth(m.width).Render(footer)
	}
	return footer
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(true)
	return styles
}
