package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	RuddarrRed = lipgloss.Color("#E8465B")
	SlateDark  = lipgloss.Color("#1F2937")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Yellow     = lipgloss.Color("#F59E0B")
	Blue       = lipgloss.Color("#3B82F6")
)

// Tabs
var (
	ActiveTab = lipgloss.NewStyle().
			Foreground(White).
			Background(RuddarrRed).
			Bold(true).
			Padding(0, 1)

	InactiveTab = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(RuddarrRed)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Blue)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(SlateDark).
			Bold(true)
)

// Alert box shown for a recorded store error
var AlertStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Red).
	Padding(0, 1)

// Toast shown after a queued command
var ToastStyle = lipgloss.NewStyle().
	Foreground(SlateDark).
	Background(Green).
	Padding(0, 1)

// Status markers
const (
	MonitoredChar   = "●"
	UnmonitoredChar = "○"
	DownloadedChar  = "✓"
	MissingChar     = "·"
	RejectedChar    = "⚠"
	FlaggedChar     = "⚑"
)

// Monitored renders the monitored marker
func Monitored(monitored bool) string {
	if monitored {
		return AccentStyle.Render(MonitoredChar)
	}
	return DimStyle.Render(UnmonitoredChar)
}

// File renders whether an item has a file on disk
func File(hasFile bool) string {
	if hasFile {
		return SuccessStyle.Render(DownloadedChar)
	}
	return DimStyle.Render(MissingChar)
}
