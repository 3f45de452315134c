package main

import "github.com/charmbracelet/lipgloss"

const (
	colorGreen  = "42"
	colorGray   = "245"
	colorRed    = "196"
	colorYellow = "220"
	colorWhite  = "255"
)

// Styles holds the CLI output styles.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
}

func styles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorRed)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
	}
}
