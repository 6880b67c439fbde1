package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primary   = lipgloss.Color("99")  // purple
	secondary = lipgloss.Color("240") // gray
	accent    = lipgloss.Color("86")  // green
	danger    = lipgloss.Color("196") // red

	// App container
	appStyle = lipgloss.NewStyle().
			Padding(1, 2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Title
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(secondary)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(accent).
			Padding(0, 1)

	searchModeStyle = modeStyle.
			Background(lipgloss.Color("214"))

	searchStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1)

	// List items
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(primary)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	keysStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(primary).
			Bold(true).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger)

	// Help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	// Form
	labelStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(secondary).
			Padding(0, 1)

	focusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(primary).
				Padding(0, 1)

	invalidInputStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(danger).
				Padding(0, 1)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Italic(true)

	// Status messages
	successStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)
