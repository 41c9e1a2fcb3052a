package styles

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary        = lipgloss.Color("#5DADE2")
	ColorSecondary      = lipgloss.Color("#82E0AA")
	ColorWarning        = lipgloss.Color("#F4D03F")
	ColorError          = lipgloss.Color("#E74C3C")
	ColorMuted          = lipgloss.Color("#7F8C8D")
	ColorForeground     = lipgloss.Color("#ECF0F1")
	ColorHealthOK       = lipgloss.Color("#2ECC71")
	ColorHealthDegraded = lipgloss.Color("#F39C12")
	ColorHealthDown     = lipgloss.Color("#E74C3C")
	ColorDarkBg         = lipgloss.Color("#2C3E50")
)

// Text styles
var (
	Muted     = lipgloss.NewStyle().Foreground(ColorMuted)
	Secondary = lipgloss.NewStyle().Foreground(ColorSecondary)
	Primary   = lipgloss.NewStyle().Foreground(ColorPrimary)
	BaseStyle = lipgloss.NewStyle().Foreground(ColorForeground)
)

// Pane styles
var (
	PaneBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted)
)

// Title styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)
)

// Tab styles
var (
	ActiveTab = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorDarkBg).
			Padding(0, 2)

	InactiveTab = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 2)
)

// Status badge styles
var (
	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHealthOK)

	StatusDegraded = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHealthDegraded)

	StatusDown = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHealthDown)
)

// Vital readout styles
var (
	VitalLabel = lipgloss.NewStyle().Foreground(ColorMuted).Width(12)
	VitalValue = lipgloss.NewStyle().Bold(true).Foreground(ColorForeground)
	VitalUnit  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Log level styles
var (
	LogDebug = lipgloss.NewStyle().Foreground(ColorMuted)
	LogInfo  = lipgloss.NewStyle().Foreground(ColorForeground)
	LogWarn  = lipgloss.NewStyle().Foreground(ColorWarning)
	LogError = lipgloss.NewStyle().Foreground(ColorError)
)

// ForLogLevel maps a backend log level to its display style.
func ForLogLevel(level string) lipgloss.Style {
	switch level {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}
