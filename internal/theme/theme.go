// Package theme provides colour palettes for the changelist TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines all colours used in the application UI.
type Theme struct {
	Accent     lipgloss.Color
	AccentFg   lipgloss.Color // text on Accent
	AccentDim  lipgloss.Color // selection background
	Border     lipgloss.Color
	MutedFg    lipgloss.Color
	TextFg     lipgloss.Color
	ErrorFg    lipgloss.Color
	Staged     lipgloss.Color
	Unstaged   lipgloss.Color
	Untracked  lipgloss.Color
	Conflicted lipgloss.Color
}

// Theme names.
const (
	DraculaName        = "dracula"
	DraculaLightName   = "dracula-light"
	NordName           = "nord"
	GruvboxDarkName    = "gruvbox-dark"
	GruvboxLightName   = "gruvbox-light"
	SolarizedDarkName  = "solarized-dark"
	SolarizedLightName = "solarized-light"
)

// Dracula returns the Dracula theme.
func Dracula() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#BD93F9"),
		AccentFg:   lipgloss.Color("#282A36"),
		AccentDim:  lipgloss.Color("#44475A"),
		Border:     lipgloss.Color("#6272A4"),
		MutedFg:    lipgloss.Color("#6272A4"),
		TextFg:     lipgloss.Color("#F8F8F2"),
		ErrorFg:    lipgloss.Color("#FF5555"),
		Staged:     lipgloss.Color("#50FA7B"),
		Unstaged:   lipgloss.Color("#FFB86C"),
		Untracked:  lipgloss.Color("#8BE9FD"),
		Conflicted: lipgloss.Color("#FF79C6"),
	}
}

// DraculaLight returns the Dracula theme adapted for light backgrounds.
func DraculaLight() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#c6dbe5"),
		AccentFg:   lipgloss.Color("#24292F"),
		AccentDim:  lipgloss.Color("#F3E8FF"),
		Border:     lipgloss.Color("#D0D7DE"),
		MutedFg:    lipgloss.Color("#6E7781"),
		TextFg:     lipgloss.Color("#24292F"),
		ErrorFg:    lipgloss.Color("#DC2626"),
		Staged:     lipgloss.Color("#059669"),
		Unstaged:   lipgloss.Color("#D97706"),
		Untracked:  lipgloss.Color("#0891B2"),
		Conflicted: lipgloss.Color("#DB2777"),
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#88C0D0"),
		AccentFg:   lipgloss.Color("#2E3440"),
		AccentDim:  lipgloss.Color("#3B4252"),
		Border:     lipgloss.Color("#4C566A"),
		MutedFg:    lipgloss.Color("#81A1C1"),
		TextFg:     lipgloss.Color("#E5E9F0"),
		ErrorFg:    lipgloss.Color("#BF616A"),
		Staged:     lipgloss.Color("#A3BE8C"),
		Unstaged:   lipgloss.Color("#EBCB8B"),
		Untracked:  lipgloss.Color("#88C0D0"),
		Conflicted: lipgloss.Color("#B48EAD"),
	}
}

// GruvboxDark returns the Gruvbox dark theme.
func GruvboxDark() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#FABD2F"),
		AccentFg:   lipgloss.Color("#282828"),
		AccentDim:  lipgloss.Color("#3C3836"),
		Border:     lipgloss.Color("#504945"),
		MutedFg:    lipgloss.Color("#928374"),
		TextFg:     lipgloss.Color("#EBDBB2"),
		ErrorFg:    lipgloss.Color("#FB4934"),
		Staged:     lipgloss.Color("#B8BB26"),
		Unstaged:   lipgloss.Color("#FABD2F"),
		Untracked:  lipgloss.Color("#83A598"),
		Conflicted: lipgloss.Color("#D3869B"),
	}
}

// GruvboxLight returns the Gruvbox light theme.
func GruvboxLight() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#D79921"),
		AccentFg:   lipgloss.Color("#FBF1C7"),
		AccentDim:  lipgloss.Color("#E0CFA9"),
		Border:     lipgloss.Color("#D5C4A1"),
		MutedFg:    lipgloss.Color("#7C6F64"),
		TextFg:     lipgloss.Color("#3C3836"),
		ErrorFg:    lipgloss.Color("#9D0006"),
		Staged:     lipgloss.Color("#79740E"),
		Unstaged:   lipgloss.Color("#D79921"),
		Untracked:  lipgloss.Color("#427B58"),
		Conflicted: lipgloss.Color("#B16286"),
	}
}

// SolarizedDark returns the Solarized dark theme.
func SolarizedDark() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#268BD2"),
		AccentFg:   lipgloss.Color("#FDF6E3"),
		AccentDim:  lipgloss.Color("#073642"),
		Border:     lipgloss.Color("#586E75"),
		MutedFg:    lipgloss.Color("#586E75"),
		TextFg:     lipgloss.Color("#EEE8D5"),
		ErrorFg:    lipgloss.Color("#DC322F"),
		Staged:     lipgloss.Color("#859900"),
		Unstaged:   lipgloss.Color("#B58900"),
		Untracked:  lipgloss.Color("#2AA198"),
		Conflicted: lipgloss.Color("#D33682"),
	}
}

// SolarizedLight returns the Solarized light theme.
func SolarizedLight() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#268BD2"),
		AccentFg:   lipgloss.Color("#FDF6E3"),
		AccentDim:  lipgloss.Color("#EEE8D5"),
		Border:     lipgloss.Color("#93A1A1"),
		MutedFg:    lipgloss.Color("#93A1A1"),
		TextFg:     lipgloss.Color("#073642"),
		ErrorFg:    lipgloss.Color("#DC322F"),
		Staged:     lipgloss.Color("#859900"),
		Unstaged:   lipgloss.Color("#B58900"),
		Untracked:  lipgloss.Color("#2AA198"),
		Conflicted: lipgloss.Color("#D33682"),
	}
}

// GetTheme returns a theme by name, or Dracula if not found.
func GetTheme(name string) *Theme {
	switch name {
	case DraculaLightName:
		return DraculaLight()
	case NordName:
		return Nord()
	case GruvboxDarkName:
		return GruvboxDark()
	case GruvboxLightName:
		return GruvboxLight()
	case SolarizedDarkName:
		return SolarizedDark()
	case SolarizedLightName:
		return SolarizedLight()
	default:
		return Dracula()
	}
}

// IsLight returns true if the theme is a light theme.
func IsLight(name string) bool {
	switch name {
	case DraculaLightName, GruvboxLightName, SolarizedLightName:
		return true
	default:
		return false
	}
}

// DefaultDark returns the default dark theme name.
func DefaultDark() string {
	return DraculaName
}

// DefaultLight returns the default light theme name.
func DefaultLight() string {
	return DraculaLightName
}

// Detect picks the default theme matching the terminal background.
func Detect() string {
	if lipgloss.HasDarkBackground() {
		return DefaultDark()
	}
	return DefaultLight()
}

// AvailableThemes returns a list of available theme names.
func AvailableThemes() []string {
	return []string{
		DraculaName,
		DraculaLightName,
		NordName,
		GruvboxDarkName,
		GruvboxLightName,
		SolarizedDarkName,
		SolarizedLightName,
	}
}
