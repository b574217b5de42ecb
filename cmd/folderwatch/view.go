package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"folderwatch/pkg/watch"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeBrowse:
		b.WriteString(m.styles.Muted.Render("Select a directory (enter to choose, esc to cancel)"))
		b.WriteString("\n")
		b.WriteString(m.picker.View())
	default:
		b.WriteString(m.renderRows())
		if m.mode == modeEditPath || m.mode == modeEditCommand {
			b.WriteString("\n")
			b.WriteString(m.renderEditor())
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.Error
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("folderwatch")
	all := "off"
	if m.reg.AllWatching() {
		all = "on"
	}
	summary := m.styles.Summary.Render(fmt.Sprintf("%d/%d watching · %s · all %s",
		m.reg.Watching(), m.reg.Len(), m.reg.Strategy().Name(), all))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", summary)
}

func (m Model) renderRows() string {
	entries := m.reg.Entries()
	if len(entries) == 0 {
		return m.styles.Muted.Render("No folders yet. Press a to add one.") + "\n"
	}

	now := m.now()
	var b strings.Builder
	for i, e := range entries {
		selected := i == m.cursor
		b.WriteString(m.renderRow(e, selected, now))
		b.WriteString("\n")
		for j, c := range e.Commands {
			style := m.styles.Command
			if selected && j == m.cmdCursor {
				style = m.styles.SelectedCommand
			}
			if strings.TrimSpace(c) == "" {
				c = "(empty)"
			}
			b.WriteString(style.Render("$ " + c))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderRow(e watch.Entry, selected bool, now time.Time) string {
	marker := "  "
	pathStyle := m.styles.Row
	if selected {
		marker = "> "
		pathStyle = m.styles.SelectedRow
	}

	path := e.Path
	if path == "" {
		path = "(no path)"
	}

	parts := []string{
		marker + m.renderState(e.State),
		pathStyle.Render(path),
		m.styles.Muted.Render("last triggered " + sinceLabel(now, e.LastTriggered)),
	}
	if e.LastChange != "" {
		parts = append(parts, m.styles.Muted.Render("("+e.LastChange+")"))
	}
	line := strings.Join(parts, " ")
	if e.LastError != "" {
		line += "\n      " + m.styles.Error.Render(e.LastError)
	}
	return line
}

func (m Model) renderState(s watch.State) string {
	label := fmt.Sprintf("%-8s", s.String())
	switch s {
	case watch.Watching:
		return m.styles.Watching.Render(label)
	case watch.Starting:
		return m.styles.Starting.Render(label)
	default:
		return m.styles.Stopped.Render(label)
	}
}

func (m Model) renderEditor() string {
	label := "Path"
	if m.mode == modeEditCommand {
		label = fmt.Sprintf("Command %d", m.cmdCursor+1)
	}
	return m.styles.Title.Render(label) + " " + m.input.View() + "\n" +
		m.styles.Muted.Render("enter to save, esc to cancel") + "\n"
}

// sinceLabel renders how long ago t was, or "never" for the zero time.
func sinceLabel(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
