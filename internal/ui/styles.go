package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, lime accent on gray.
const (
	ColorLime     = "154" // Primary accent
	ColorLimeDim  = "106" // Prompt, inactive accents
	ColorWhite    = "255" // Result titles
	ColorGray     = "245" // Snippets, labels
	ColorDarkGray = "238" // Refs, separators, hints
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Loading
)

// Styles holds all UI styles for TUI rendering.
type Styles struct {
	Header  lipgloss.Style
	Prompt  lipgloss.Style
	Status  lipgloss.Style
	Loading lipgloss.Style
	Error   lipgloss.Style
	Title   lipgloss.Style
	Ref     lipgloss.Style
	Snippet lipgloss.Style
	Dim     lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns styled components for TUI mode.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Loading: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Ref:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Snippet: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Prompt:  lipgloss.NewStyle(),
		Status:  lipgloss.NewStyle(),
		Loading: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Title:   lipgloss.NewStyle(),
		Ref:     lipgloss.NewStyle(),
		Snippet: lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
