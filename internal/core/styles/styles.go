// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Surface:    lipgloss.Color("#3c3836"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports, rebuilt by SetTheme.
var (
	TitleStyle          lipgloss.Style
	StatusBarStyle      lipgloss.Style
	DirtyIndicatorStyle lipgloss.Style
	SyncedStyle         lipgloss.Style
	ErrorStyle          lipgloss.Style
	MutedStyle          lipgloss.Style
	PathStyle           lipgloss.Style
	AuthorStyle         lipgloss.Style
	SelectedStyle       lipgloss.Style
	ResolvedStyle       lipgloss.Style
	ModalStyle          lipgloss.Style
	ModalTitleStyle     lipgloss.Style
	ModalHelpStyle      lipgloss.Style
	ConfirmMessageStyle lipgloss.Style
)

func init() {
	SetTheme(themes[DefaultTheme])
}

// SetTheme rebuilds all exported styles from the given palette.
func SetTheme(p Palette) {
	CurrentPalette = p

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	StatusBarStyle = lipgloss.NewStyle().Foreground(p.Muted)
	DirtyIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Warning)
	SyncedStyle = lipgloss.NewStyle().Foreground(p.Success)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Error)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	PathStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	AuthorStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Foreground)
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	ResolvedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(p.Muted)
	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	ModalHelpStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ConfirmMessageStyle = lipgloss.NewStyle().Foreground(p.Foreground)
}
