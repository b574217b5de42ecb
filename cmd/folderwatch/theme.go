package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the interactive view.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultTheme returns the default theme.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("12"),  // Blue
		Success: lipgloss.Color("10"),  // Green
		Warning: lipgloss.Color("11"),  // Yellow
		Error:   lipgloss.Color("9"),   // Red
		Muted:   lipgloss.Color("240"), // Gray
	}
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Title           lipgloss.Style
	Summary         lipgloss.Style
	Row             lipgloss.Style
	SelectedRow     lipgloss.Style
	Watching        lipgloss.Style
	Starting        lipgloss.Style
	Stopped         lipgloss.Style
	Command         lipgloss.Style
	SelectedCommand lipgloss.Style
	Muted           lipgloss.Style
	Error           lipgloss.Style
	Status          lipgloss.Style
}

// NewStyles builds the styles for t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:           lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Summary:         lipgloss.NewStyle().Foreground(t.Muted),
		Row:             lipgloss.NewStyle().PaddingLeft(2),
		SelectedRow:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Watching:        lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Starting:        lipgloss.NewStyle().Foreground(t.Warning),
		Stopped:         lipgloss.NewStyle().Foreground(t.Muted),
		Command:         lipgloss.NewStyle().PaddingLeft(6).Foreground(t.Muted),
		SelectedCommand: lipgloss.NewStyle().PaddingLeft(6).Foreground(t.Primary),
		Muted:           lipgloss.NewStyle().Foreground(t.Muted),
		Error:           lipgloss.NewStyle().Foreground(t.Error),
		Status:          lipgloss.NewStyle().Italic(true),
	}
}
