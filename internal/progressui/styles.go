package progressui

import "github.com/charmbracelet/lipgloss"

// Color palette, lime green accent in an asitop-inspired theme.
const (
	colorLime     = "154"
	colorLimeDim  = "106"
	colorGray     = "245"
	colorDarkGray = "238"
	colorRed      = "196"
	colorYellow   = "220"
)

// Styles holds the styled components used by the TUI renderer.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Active   lipgloss.Style
	Progress lipgloss.Style

	Border    lipgloss.Style
	Sparkline lipgloss.Style
	Speed     lipgloss.Style
	Label     lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime)),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime)),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime)),

		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Sparkline: lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime)),
		Speed:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

// NoColorStyles returns an unstyled component set.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(), Success: lipgloss.NewStyle(), Warning: lipgloss.NewStyle(),
		Error: lipgloss.NewStyle(), Dim: lipgloss.NewStyle(), Active: lipgloss.NewStyle(),
		Progress: lipgloss.NewStyle(), Border: lipgloss.NewStyle(), Sparkline: lipgloss.NewStyle(),
		Speed: lipgloss.NewStyle(), Label: lipgloss.NewStyle(),
	}
}

// GetStyles picks colored or plain styles.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
