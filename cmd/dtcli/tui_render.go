package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/dtcli/internal/tracker"
)

var (
	abortedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	validatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	mutedStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle    = lipgloss.NewStyle().Bold(true)
)

func statusStyle(s tracker.Status) lipgloss.Style {
	switch s {
	case tracker.StatusAborted:
		return abortedStyle
	case tracker.StatusError:
		return errorStyle
	case tracker.StatusFailed:
		return failedStyle
	case tracker.StatusValidated:
		return validatedStyle
	default:
		return lipgloss.NewStyle()
	}
}

// formatStatus pads before styling so escape codes don't break alignment.
func formatStatus(s tracker.Status) string {
	return statusStyle(s).Render(fmt.Sprintf("%-9s", s))
}

// formatFrame renders the text part of a job row: "pct% | status | id: name".
func formatFrame(f tracker.Frame) string {
	return fmt.Sprintf("%3d%% | %s | %d: %s", f.Percentage, formatStatus(f.Status), f.ResourceID, f.Name)
}
