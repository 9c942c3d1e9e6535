package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors for the TUI
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color

	Text      lipgloss.Color
	TextMuted lipgloss.Color

	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
}

// Current is the active theme
var Current = Dark()

// Dark is the default theme.
func Dark() Theme {
	return Theme{
		Primary:             lipgloss.Color("#7AA2F7"),
		Accent:              lipgloss.Color("#FF9E64"),
		Text:                lipgloss.Color("#C0CAF5"),
		TextMuted:           lipgloss.Color("#565F89"),
		Background:          lipgloss.Color("#1A1B26"),
		BackgroundSecondary: lipgloss.Color("#24283B"),
		Success:             lipgloss.Color("#9ECE6A"),
		Warning:             lipgloss.Color("#E0AF68"),
		Error:               lipgloss.Color("#F7768E"),
		Info:                lipgloss.Color("#7DCFFF"),
		Border:              lipgloss.Color("#3B4261"),
		BorderFocus:         lipgloss.Color("#7AA2F7"),
	}
}

// Plain suits terminals without true color.
func Plain() Theme {
	return Theme{
		Primary:             lipgloss.Color("12"),
		Accent:              lipgloss.Color("11"),
		Text:                lipgloss.Color("15"),
		TextMuted:           lipgloss.Color("8"),
		Background:          lipgloss.Color("0"),
		BackgroundSecondary: lipgloss.Color("0"),
		Success:             lipgloss.Color("10"),
		Warning:             lipgloss.Color("11"),
		Error:               lipgloss.Color("9"),
		Info:                lipgloss.Color("14"),
		Border:              lipgloss.Color("8"),
		BorderFocus:         lipgloss.Color("12"),
	}
}

// ByName returns the named theme, or Dark.
func ByName(name string) Theme {
	if name == "plain" {
		return Plain()
	}
	return Dark()
}
