package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/awells/rove/internal/playback"
)

// Status line styles
var (
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5A00D")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

// renderStatus formats one transport status line for the terminal.
func renderStatus(s playback.Status) string {
	state := accentStyle.Render("▶")
	if s.State == playback.StatePaused {
		state = pausedStyle.Render("⏸")
	}

	name := titleStyle.Render(filepath.Base(s.Video))
	dir := dimStyle.Render(filepath.Base(s.Directory))
	meta := dimStyle.Render(fmt.Sprintf("vol %d · %.2fx · mon %d", s.Volume, s.Rate, s.Monitor))

	return fmt.Sprintf("%s %s  %s  %s", state, name, dir, meta)
}

// printHelp writes the hotkey reference shown at startup.
func printHelp() {
	help := [][2]string{
		{"space", "pause / resume"},
		{"n / p", "next / previous video"},
		{"] / [", "next / previous directory"},
		{"f / b", "seek forward / back"},
		{"+ / -", "volume up / down"},
		{"> / < / /", "speed up / down / reset"},
		{"F", "toggle fullscreen"},
		{"1 / 2", "monitor 1 / 2"},
		{"q", "quit"},
	}
	fmt.Println(accentStyle.Render("rove") + dimStyle.Render(" · hotkeys"))
	for _, h := range help {
		fmt.Printf("  %s %s\n", titleStyle.Render(fmt.Sprintf("%-9s", h[0])), dimStyle.Render(h[1]))
	}
	fmt.Println()
}
