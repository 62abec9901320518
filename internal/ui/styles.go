package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
)

// CardAuthor style for the author line of a card.
var CardAuthor = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// CardCaption style for the caption text.
var CardCaption = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Padding(0, 1)

// SpecialtyBadge style for the specialty tag.
var SpecialtyBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// Screen is the bordered stand-in for the video surface.
var Screen = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Align(lipgloss.Center, lipgloss.Center)

// ActiveScreen highlights the active item's surface.
var ActiveScreen = Screen.
	BorderForeground(colorHighlight)

// PlayingBadge marks the playing state.
var PlayingBadge = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// PausedBadge marks ready and paused states.
var PausedBadge = lipgloss.NewStyle().
	Foreground(colorSecondary)

// MediaErrorBadge is the inline per-item error indicator.
var MediaErrorBadge = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// Counters style for the engagement line.
var Counters = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// Distance style for the distance tag.
var Distance = lipgloss.NewStyle().
	Foreground(colorHighlight)

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

// Toast style for one-off notices.
var Toast = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel is the bordered debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
