package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // purple accent
	ColorSecondary = lipgloss.Color("#06B6D4") // cyan accent
	ColorText      = lipgloss.Color("#F8FAFC")
	ColorMuted     = lipgloss.Color("#94A3B8")
	ColorSubtle    = lipgloss.Color("#64748B")
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)
)

const logoASCII = `
                  __               _
 _   _____  _  __/ _| ___  ___  __| |
| | / / _ \ \/ / |_ / _ \/ _ \/ _  |
| |/ / (_) >  <|  _|  __/  __/ (_| |
|___/ \___/_/\_\_|  \___|\___|\____|`

// Logo returns the voxfeed ASCII art.
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
