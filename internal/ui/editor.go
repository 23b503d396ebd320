package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/session"
)

// Engine is the part of the sync engine the editor drives.
type Engine interface {
	GetTask(id geo.TaskID) (geo.Task, error)
	ListItems(taskID geo.TaskID) ([]geo.Item, error)
	BeginEditing(ctx context.Context, taskID geo.TaskID) (string, error)
	EndEditing(ctx context.Context) (<-chan session.FlushResult, error)
	RenameTask(id geo.TaskID, name string) error
	UpdateTaskGeometry(ctx context.Context, id geo.TaskID, lat, lon, radius float64) error
	ClearTaskGeometry(ctx context.Context, id geo.TaskID) error
	AddItem(taskID geo.TaskID) (geo.Item, error)
	UpdateItemDetails(id geo.ItemID, details string) error
	ToggleItemDone(id geo.ItemID) error
	DeleteItem(id geo.ItemID) error
	MonitoringError() error
	ListTasks() []geo.Task
	AddTask(ctx context.Context) (geo.Task, error)
	DeleteTask(ctx context.Context, id geo.TaskID) error
}

type screen int

const (
	screenList screen = iota
	screenTask
)

type editMode int

const (
	modeBrowse editMode = iota
	modeName
	modeDetails
	modeGeometry
)

type sessionStartedMsg struct {
	id  string
	err error
}

type flushedMsg struct {
	res session.FlushResult
}

// Editor is the terminal task editor. It starts on the task list; opening a
// task begins an editing session and going back ends it, which flushes the
// edits. While a task is open, losing terminal focus ends the session too and
// regaining it begins a new one.
type Editor struct {
	ctx    context.Context
	engine Engine
	screen screen

	tasks      []geo.Task
	listCursor int

	taskID geo.TaskID
	task   geo.Task
	items  []geo.Item
	cursor int // 0 is the name row, i+1 is items[i]

	mode    editMode
	editing geo.ItemID
	input   textinput.Model

	sessionID string
	flushing  bool
	quitting  bool
	last      *session.FlushResult
	status    string
	err       error
}

// NewEditor returns an editor. A non-zero taskID opens that task directly;
// its session begins in Init.
func NewEditor(ctx context.Context, engine Engine, taskID geo.TaskID) Editor {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := Editor{ctx: ctx, engine: engine, taskID: taskID, input: ti}
	if taskID != 0 {
		m.screen = screenTask
		m.refresh()
	}
	m.refreshList()
	return m
}

// Active reports whether an editing session is open.
func (m Editor) Active() bool {
	return m.sessionID != ""
}

// LastFlush returns the result of the most recent flush, if any.
func (m Editor) LastFlush() (session.FlushResult, bool) {
	if m.last == nil {
		return session.FlushResult{}, false
	}
	return *m.last, true
}

// Err returns the last error shown to the user.
func (m Editor) Err() error {
	return m.err
}

func (m Editor) Init() tea.Cmd {
	if m.screen == screenTask {
		return m.begin()
	}
	return nil
}

// openTask switches to the task screen and begins its session.
func (m *Editor) openTask(id geo.TaskID) tea.Cmd {
	m.screen = screenTask
	m.taskID = id
	m.cursor = 0
	m.err = nil
	m.status = ""
	m.refresh()
	return m.begin()
}

func (m Editor) begin() tea.Cmd {
	ctx, engine, id := m.ctx, m.engine, m.taskID
	return func() tea.Msg {
		sid, err := engine.BeginEditing(ctx, id)
		return sessionStartedMsg{id: sid, err: err}
	}
}

// end closes the session and returns a command that waits for the flush.
func (m *Editor) end() tea.Cmd {
	if !m.Active() {
		return nil
	}
	ch, err := m.engine.EndEditing(m.ctx)
	m.sessionID = ""
	if err != nil {
		m.err = err
		return nil
	}
	m.flushing = true
	return func() tea.Msg {
		return flushedMsg{res: <-ch}
	}
}

func (m Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			if m.quitting {
				return m, tea.Quit
			}
			return m, nil
		}
		m.sessionID = msg.id
		m.err = nil
		if m.quitting || m.screen != screenTask {
			return m, m.end()
		}
		m.refresh()
		return m, nil

	case flushedMsg:
		m.flushing = false
		res := msg.res
		m.last = &res
		if res.Err != nil {
			m.err = res.Err
		} else {
			m.err = nil
			m.status = fmt.Sprintf("saved %d change(s)", res.Writes())
		}
		if m.screen == screenTask {
			m.refresh()
		}
		m.refreshList()
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case tea.FocusMsg:
		if m.screen == screenTask && !m.Active() && !m.quitting {
			return m, m.begin()
		}
		return m, nil

	case tea.BlurMsg:
		m.cancelEdit()
		return m, m.end()

	case tea.KeyMsg:
		switch {
		case m.screen == screenList:
			return m.updateList(msg)
		case m.mode != modeBrowse:
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Editor) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m.quit()
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(m.tasks)-1 {
			m.listCursor++
		}
	case "enter", "e":
		if m.listCursor < len(m.tasks) {
			return m, m.openTask(m.tasks[m.listCursor].ID)
		}
	case "a":
		t, err := m.engine.AddTask(m.ctx)
		if err != nil {
			m.err = err
			break
		}
		m.refreshList()
		return m, m.openTask(t.ID)
	case "d", "delete":
		if m.listCursor < len(m.tasks) {
			m.err = m.engine.DeleteTask(m.ctx, m.tasks[m.listCursor].ID)
			m.refreshList()
		}
	}
	return m, nil
}

// back ends the session and returns to the task list.
func (m Editor) back() (tea.Model, tea.Cmd) {
	m.screen = screenList
	cmd := m.end()
	m.refreshList()
	return m, cmd
}

func (m Editor) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "esc":
		return m.back()
	}
	if !m.Active() {
		return m, nil
	}

	m.err = nil
	m.status = ""
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items) {
			m.cursor++
		}
	case "enter", "e":
		if m.cursor == 0 {
			m.startEdit(modeName, m.task.Name)
		} else {
			it := m.items[m.cursor-1]
			m.editing = it.ID
			m.startEdit(modeDetails, it.Details)
		}
	case " ", "x":
		if it, ok := m.selected(); ok {
			m.err = m.engine.ToggleItemDone(it.ID)
			m.refresh()
		}
	case "a":
		it, err := m.engine.AddItem(m.taskID)
		if err != nil {
			m.err = err
			break
		}
		m.refresh()
		m.cursor = len(m.items)
		m.editing = it.ID
		m.startEdit(modeDetails, "")
	case "d", "delete":
		if it, ok := m.selected(); ok {
			m.err = m.engine.DeleteItem(it.ID)
			m.refresh()
		}
	case "g":
		value := ""
		if m.task.HasGeometry() {
			value = fmt.Sprintf("%g, %g, %g", *m.task.Latitude, *m.task.Longitude, *m.task.Radius)
		}
		m.startEdit(modeGeometry, value)
	case "G":
		m.err = m.engine.ClearTaskGeometry(m.ctx, m.taskID)
		m.refresh()
	}
	return m, nil
}

func (m Editor) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.err = m.commit(strings.TrimSpace(m.input.Value()))
		if m.err == nil || m.mode != modeGeometry {
			m.cancelEdit()
		}
		m.refresh()
		return m, nil
	case tea.KeyEsc:
		m.cancelEdit()
		return m, nil
	case tea.KeyCtrlC:
		m.cancelEdit()
		return m.quit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Editor) commit(value string) error {
	switch m.mode {
	case modeName:
		return m.engine.RenameTask(m.taskID, value)
	case modeDetails:
		return m.engine.UpdateItemDetails(m.editing, value)
	case modeGeometry:
		if value == "" {
			return m.engine.ClearTaskGeometry(m.ctx, m.taskID)
		}
		lat, lon, radius, err := ParseGeometry(value)
		if err != nil {
			return err
		}
		return m.engine.UpdateTaskGeometry(m.ctx, m.taskID, lat, lon, radius)
	}
	return nil
}

func (m Editor) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.Active() {
		return m, m.end()
	}
	if m.flushing {
		return m, nil
	}
	return m, tea.Quit
}

func (m *Editor) startEdit(mode editMode, value string) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Editor) cancelEdit() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
}

func (m Editor) selected() (geo.Item, bool) {
	if m.cursor == 0 || m.cursor > len(m.items) {
		return geo.Item{}, false
	}
	return m.items[m.cursor-1], true
}

func (m *Editor) refresh() {
	t, err := m.engine.GetTask(m.taskID)
	if err != nil {
		m.err = err
		return
	}
	m.task = t
	m.items, _ = m.engine.ListItems(m.taskID)
	m.cursor = min(m.cursor, len(m.items))
}

func (m *Editor) refreshList() {
	m.tasks = m.engine.ListTasks()
	m.listCursor = max(0, min(m.listCursor, len(m.tasks)-1))
}

func (m Editor) View() string {
	if m.screen == screenList {
		return m.listView()
	}
	var b strings.Builder

	state := StyleSuccess.Render("● editing")
	switch {
	case m.flushing:
		state = StyleWarning.Render("◌ saving")
	case !m.Active():
		state = StyleSubtle.Render("○ paused")
	}
	b.WriteString(StyleHeader.Render("📍 "+m.task.Name) + " " + state + "\n")
	b.WriteString(" " + StyleRegion.Render(FormatGeometry(m.task)) + "\n\n")

	b.WriteString(m.row(0, StyleTitle.Render("Name: ")+m.task.Name) + "\n")
	for i, it := range m.items {
		b.WriteString(m.row(i+1, checkbox(it.Done)+" "+itemText(it)) + "\n")
	}
	if len(m.items) == 0 {
		b.WriteString(StyleSubtle.Render("   (no items, press a to add one)") + "\n")
	}

	if m.mode != modeBrowse {
		label := map[editMode]string{
			modeName:     "Task name",
			modeDetails:  "Item",
			modeGeometry: "Latitude, longitude, radius (meters)",
		}[m.mode]
		b.WriteString("\n" + StyleSubtle.Render(label) + "\n")
		b.WriteString(StyleInputBox.Render(m.input.View()) + "\n")
	}

	if err := m.engine.MonitoringError(); err != nil {
		b.WriteString("\n")
		RenderFallback(&b, err)
	}
	if m.err != nil {
		b.WriteString("\n" + StyleError.Render("✗ "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + StyleSuccess.Render("✓ "+m.status) + "\n")
	}

	help := "↑/↓ move • enter edit • a add • x toggle • d delete • g region • G clear region • esc back • q quit"
	if m.mode != modeBrowse {
		help = "enter save • esc cancel"
	}
	b.WriteString("\n" + StyleSubtle.Render(help) + "\n")
	return b.String()
}

func (m Editor) listView() string {
	var b strings.Builder
	b.WriteString(StyleHeader.Render("📍 Tasks") + "\n\n")
	if len(m.tasks) == 0 {
		b.WriteString(StyleSubtle.Render("   (no tasks, press a to add one)") + "\n")
	}
	for i, t := range m.tasks {
		line := StyleTitle.Render(t.Name) + "  " + StyleRegion.Render(FormatGeometry(t))
		if i == m.listCursor {
			b.WriteString(StyleCursor.Render(" ▸ ") + line + "\n")
		} else {
			b.WriteString("   " + line + "\n")
		}
	}
	if m.flushing {
		b.WriteString("\n" + StyleWarning.Render("◌ saving") + "\n")
	}
	if err := m.engine.MonitoringError(); err != nil {
		b.WriteString("\n")
		RenderFallback(&b, err)
	}
	if m.err != nil {
		b.WriteString("\n" + StyleError.Render("✗ "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + StyleSuccess.Render("✓ "+m.status) + "\n")
	}
	b.WriteString("\n" + StyleSubtle.Render("↑/↓ move • enter open • a add • d delete • q quit") + "\n")
	return b.String()
}

func (m Editor) row(i int, content string) string {
	if i == m.cursor && m.mode == modeBrowse {
		return StyleCursor.Render(" ▸ ") + content
	}
	return "   " + content
}

// ErrGeometryFormat is returned for geometry input that is not three numbers.
var ErrGeometryFormat = errors.New("expected latitude, longitude and radius")

// ParseGeometry reads "lat, lon, radius" with commas or spaces as separators.
func ParseGeometry(s string) (lat, lon, radius float64, err error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 3 {
		return 0, 0, 0, ErrGeometryFormat
	}
	var vals [3]float64
	for i, f := range fields {
		vals[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q is not a number", ErrGeometryFormat, f)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

// RunEditor runs the editor until the user quits and returns the last flush.
// A zero taskID starts on the task list. A session still open when the
// program stops is ended and waited for.
func RunEditor(ctx context.Context, engine Engine, taskID geo.TaskID, opts ...tea.ProgramOption) (session.FlushResult, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithReportFocus()}, opts...)
	final, runErr := tea.NewProgram(NewEditor(ctx, engine, taskID), opts...).Run()

	m, ok := final.(Editor)
	if !ok {
		return session.FlushResult{}, runErr
	}
	if m.Active() {
		ch, err := engine.EndEditing(context.WithoutCancel(ctx))
		if err == nil {
			return <-ch, runErr
		}
	}
	res, _ := m.LastFlush()
	if runErr != nil {
		return res, fmt.Errorf("editor: %w", runErr)
	}
	return res, m.err
}
