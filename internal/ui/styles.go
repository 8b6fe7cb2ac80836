package ui

import (
	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/charmbracelet/lipgloss"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorInfo      = lipgloss.Color("75")  // Blue
	colorError     = lipgloss.Color("196") // Red
)

// SelectedRow style for the highlighted table row.
var SelectedRow = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalRow style for unselected rows.
var NormalRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ClosedRow dims items that can no longer be bid on.
var ClosedRow = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// MessageRow style for the Loading, empty and error rows.
var MessageRow = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true).
	Padding(0, 1)

// HeaderCell style for column titles.
var HeaderCell = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// TableBorder colors the table frame.
var TableBorder = lipgloss.NewStyle().
	Foreground(colorMuted)

// Title style for the app name in the header.
var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// KPILabel and KPIValue style the aggregate strip.
var (
	KPILabel = lipgloss.NewStyle().Foreground(colorSecondary)
	KPIValue = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HintStyle for the suggestion under an error.
var HintStyle = lipgloss.NewStyle().
	Foreground(colorWarning).
	Padding(0, 1)

// LoadingStyle for the refresh banner.
var LoadingStyle = lipgloss.NewStyle().
	Foreground(colorInfo).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// SearchBar style for the search input bar.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// SearchBarPrompt style for the "/" prompt.
var SearchBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// SearchBarCount style for the filtered count.
var SearchBarCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DetailStyle for the selected item's link and description.
var DetailStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section titles inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// statusColor picks the chip color for an item status.
func statusColor(s auction.Status) lipgloss.Color {
	switch s {
	case auction.StatusOpen:
		return colorSuccess
	case auction.StatusPaused:
		return colorWarning
	case auction.StatusPending:
		return colorInfo
	default:
		return colorSecondary
	}
}
