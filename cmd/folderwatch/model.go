package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"folderwatch/pkg/watch"
)

// refreshInterval is how often the view drains the trigger queue.
const refreshInterval = 100 * time.Millisecond

// refreshMsg is sent by Bubble Tea on every refresh tick.
type refreshMsg time.Time

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// mode is what the keyboard currently drives.
type mode int

const (
	modeList mode = iota
	modeEditPath
	modeEditCommand
	modeBrowse
)

// Model is the Bubble Tea model of the interactive view. Update runs on the
// program goroutine, which therefore owns the registry.
type Model struct {
	reg      *watch.Registry
	consumer *watch.Consumer

	keys   keyMap
	help   help.Model
	theme  Theme
	styles Styles
	now    func() time.Time

	mode      mode
	cursor    int
	cmdCursor int
	input     textinput.Model
	picker    filepicker.Model

	status    string
	statusErr bool
	width     int
	height    int
}

func newModel(reg *watch.Registry, consumer *watch.Consumer) Model {
	theme := DefaultTheme()
	return Model{
		reg:      reg,
		consumer: consumer,
		keys:     defaultKeyMap(),
		help:     help.New(),
		theme:    theme,
		styles:   NewStyles(theme),
		now:      time.Now,
	}
}

// runInteractive runs the view until the user quits.
func runInteractive(s *session) error {
	p := tea.NewProgram(newModel(s.reg, s.consumer), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interactive view: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return refreshCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case refreshMsg:
		m.consumer.Drain()
		m.clampCursor()
		return m, refreshCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeEditPath, modeEditCommand:
			return m.handleEditKeys(msg)
		case modeBrowse:
			return m.handleBrowseKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	if m.mode == modeBrowse {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleListKeys processes keyboard input in the row list.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, hasRow := m.reg.IDAt(m.cursor)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.cmdCursor = 0
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.reg.Len()-1 {
			m.cursor++
			m.cmdCursor = 0
		}
	case key.Matches(msg, m.keys.ToggleAll):
		m.setResult("", m.reg.ToggleAll())
	case key.Matches(msg, m.keys.Add):
		m.reg.Add("")
		m.cursor = m.reg.Len() - 1
		m.cmdCursor = 0
		return m.beginEdit(modeEditPath, "")
	}

	if !hasRow {
		return m, nil
	}
	entry, _ := m.reg.Entry(id)

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if entry.IsWatching {
			m.setResult("stopped "+entry.Path, m.reg.Stop(id))
		} else {
			m.setResult("watching "+entry.Path, m.reg.Start(id))
		}
	case key.Matches(msg, m.keys.Remove):
		m.setResult("removed "+entry.Path, m.reg.Remove(id))
		m.clampCursor()
	case key.Matches(msg, m.keys.EditPath):
		return m.beginEdit(modeEditPath, entry.Path)
	case key.Matches(msg, m.keys.Browse):
		return m.beginBrowse(entry.Path)
	case key.Matches(msg, m.keys.EditCommand):
		if m.cmdCursor < len(entry.Commands) {
			return m.beginEdit(modeEditCommand, entry.Commands[m.cmdCursor])
		}
	case key.Matches(msg, m.keys.NextCommand):
		if len(entry.Commands) > 0 {
			m.cmdCursor = (m.cmdCursor + 1) % len(entry.Commands)
		}
	case key.Matches(msg, m.keys.AddCommand):
		if err := m.reg.AddCommand(id); err != nil {
			m.setResult("", err)
			return m, nil
		}
		m.cmdCursor = len(entry.Commands)
		return m.beginEdit(modeEditCommand, "")
	case key.Matches(msg, m.keys.RemoveCommand):
		if len(entry.Commands) <= 1 {
			m.setResult("", errors.New("an entry keeps at least one command"))
			return m, nil
		}
		m.setResult("", m.reg.RemoveCommand(id, m.cmdCursor))
		m.clampCursor()
	}
	return m, nil
}

func (m Model) beginEdit(md mode, value string) (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Prompt = "> "
	if md == modeEditPath {
		ti.Placeholder = "/path/to/directory"
	} else {
		ti.Placeholder = "shell command"
	}
	ti.SetValue(value)
	cmd := ti.Focus()

	m.input = ti
	m.mode = md
	m.status = ""
	return m, cmd
}

// handleEditKeys processes keyboard input while a text field is focused.
func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		return m, nil
	case "enter":
		m.commitEdit()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) commitEdit() {
	id, ok := m.reg.IDAt(m.cursor)
	if !ok {
		return
	}
	value := m.input.Value()
	switch m.mode {
	case modeEditPath:
		m.applyPath(id, value)
	case modeEditCommand:
		m.setResult("", m.reg.SetCommand(id, m.cmdCursor, value))
	}
}

func (m *Model) applyPath(id, path string) {
	entry, _ := m.reg.Entry(id)
	if err := m.reg.SetPath(id, path); err != nil {
		m.setResult("", err)
		return
	}
	if entry.IsWatching && entry.Path != path {
		m.setResult("path saved; stop and start to watch it", nil)
		return
	}
	m.setResult("path set to "+path, nil)
}

func (m Model) beginBrowse(start string) (tea.Model, tea.Cmd) {
	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.ShowHidden = false
	fp.CurrentDirectory = browseStart(start)

	m.picker = fp
	m.mode = modeBrowse
	m.status = ""
	return m, fp.Init()
}

// browseStart picks the directory the picker opens in.
func browseStart(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// handleBrowseKeys processes keyboard input in the directory picker.
func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		if id, has := m.reg.IDAt(m.cursor); has {
			m.applyPath(id, path)
		}
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m *Model) setResult(ok string, err error) {
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return
	}
	m.status = ok
	m.statusErr = false
}

func (m *Model) clampCursor() {
	n := m.reg.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	id, ok := m.reg.IDAt(m.cursor)
	if !ok {
		m.cmdCursor = 0
		return
	}
	entry, _ := m.reg.Entry(id)
	if m.cmdCursor >= len(entry.Commands) {
		m.cmdCursor = max(len(entry.Commands)-1, 0)
	}
}
