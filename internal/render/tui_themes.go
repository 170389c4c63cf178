package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme of the chat screen
type TUITheme struct {
	Name string

	// Base colors
	Surface lipgloss.Color
	Border  lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color // bot label, titles
	Secondary lipgloss.Color // user label
	Accent    lipgloss.Color // onboarding rule titles
	Success   lipgloss.Color
	Error     lipgloss.Color

	// Text colors
	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// DarkTheme is the default theme
	DarkTheme = TUITheme{
		Name: "dark",

		Surface: lipgloss.Color("#1f2335"),
		Border:  lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#e0af68"),
		Secondary: lipgloss.Color("#7aa2f7"),
		Accent:    lipgloss.Color("#bb9af7"),
		Success:   lipgloss.Color("#9ece6a"),
		Error:     lipgloss.Color("#f7768e"),

		Text:    lipgloss.Color("#c0caf5"),
		TextDim: lipgloss.Color("#565f89"),
	}

	// LightTheme suits light terminal backgrounds
	LightTheme = TUITheme{
		Name: "light",

		Surface: lipgloss.Color("#e9e9ed"),
		Border:  lipgloss.Color("#a8aecb"),

		Primary:   lipgloss.Color("#8f5e15"),
		Secondary: lipgloss.Color("#2e7de9"),
		Accent:    lipgloss.Color("#7847bd"),
		Success:   lipgloss.Color("#587539"),
		Error:     lipgloss.Color("#c64343"),

		Text:    lipgloss.Color("#3760bf"),
		TextDim: lipgloss.Color("#848cb5"),
	}
)

// TUIThemeByName returns a theme by its name
func TUIThemeByName(name string) (TUITheme, bool) {
	switch name {
	case "dark", "":
		return DarkTheme, true
	case "light":
		return LightTheme, true
	default:
		return TUITheme{}, false
	}
}

// ResolveTUITheme returns the named theme, or DarkTheme for unknown names
func ResolveTUITheme(name string) TUITheme {
	if theme, ok := TUIThemeByName(name); ok {
		return theme
	}
	return DarkTheme
}

// TUIThemeNames returns the theme names accepted in the config
func TUIThemeNames() []string {
	return []string{DarkTheme.Name, LightTheme.Name}
}
