// Package styles provides reusable lipgloss-based TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arbor-browser/arbor/internal/config"
)

// Palette holds the raw colors a theme is built from.
type Palette struct {
	Background string
	Surface    string
	Text       string
	Muted      string
	Accent     string
	Border     string
}

// DarkPalette returns the default dark colors.
func DarkPalette() Palette {
	return Palette{
		Background: "#0a0a0b",
		Surface:    "#1a1a1b",
		Text:       "#e4e4e7",
		Muted:      "#8b8b92",
		Accent:     "#4ade80",
		Border:     "#333333",
	}
}

// LightPalette returns the default light colors.
func LightPalette() Palette {
	return Palette{
		Background: "#fafafa",
		Surface:    "#f0f0f0",
		Text:       "#18181b",
		Muted:      "#71717a",
		Accent:     "#16a34a",
		Border:     "#d4d4d8",
	}
}

// Theme holds lipgloss colors and the derived styles the inspector uses.
type Theme struct {
	Background lipgloss.Color
	Surface    lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color

	Title     lipgloss.Style
	Normal    lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	ErrStyle  lipgloss.Style
	WarnStyle lipgloss.Style

	Selected  lipgloss.Style
	Pinned    lipgloss.Style
	ActiveTab lipgloss.Style
	MatchText lipgloss.Style
	Badge     lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
}

// NewTheme creates a Theme from the configured panel theme; "auto" and
// anything unknown falls back to dark.
func NewTheme(cfg *config.Config) *Theme {
	palette := DarkPalette()
	if cfg != nil && cfg.Panel.Theme == "light" {
		palette = LightPalette()
	}
	return NewThemeFromPalette(palette)
}

// NewThemeFromPalette creates a Theme from explicit colors.
func NewThemeFromPalette(p Palette) *Theme {
	t := &Theme{
		Background: lipgloss.Color(p.Background),
		Surface:    lipgloss.Color(p.Surface),
		Text:       lipgloss.Color(p.Text),
		Muted:      lipgloss.Color(p.Muted),
		Accent:     lipgloss.Color(p.Accent),
		Border:     lipgloss.Color(p.Border),
		Error:      lipgloss.Color("#ef4444"),
		Warning:    lipgloss.Color("#f59e0b"),
	}
	t.buildStyles()
	return t
}

func (t *Theme) buildStyles() {
	t.Title = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	t.Normal = lipgloss.NewStyle().Foreground(t.Text)
	t.Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	t.Highlight = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	t.ErrStyle = lipgloss.NewStyle().Foreground(t.Error)
	t.WarnStyle = lipgloss.NewStyle().Foreground(t.Warning)

	t.Selected = lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Accent).
		Bold(true)

	t.Pinned = lipgloss.NewStyle().Foreground(t.Warning)

	t.ActiveTab = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	t.MatchText = lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Warning)

	t.Badge = lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Muted).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(t.Muted).
		Background(t.Surface).
		Padding(0, 1)

	t.Help = lipgloss.NewStyle().Foreground(t.Muted)
}
