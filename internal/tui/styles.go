package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"

	"gitloom/internal/loom"
)

type Styles struct {
	flavor catppuccin.Flavor
}

func NewStyles(themeName string) *Styles {
	return &Styles{flavor: flavorFromName(themeName)}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	case "mocha":
		return catppuccin.Mocha
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.flavor.Mauve().Hex))
}

func (s *Styles) SubtitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Subtext0().Hex))
}

func (s *Styles) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Overlay0().Hex))
}

func (s *Styles) InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Text().Hex))
}

func (s *Styles) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Teal().Hex))
}

func (s *Styles) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Red().Hex)).
		Bold(true)
}

func (s *Styles) SeparatorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Surface1().Hex))
}

// StateColor maps a loom lifecycle state to its display color.
func (s *Styles) StateColor(state loom.State) lipgloss.Color {
	switch state {
	case loom.StateActive:
		return lipgloss.Color(s.flavor.Teal().Hex)
	case loom.StateCompleted:
		return lipgloss.Color(s.flavor.Green().Hex)
	case loom.StateFailed:
		return lipgloss.Color(s.flavor.Red().Hex)
	default:
		return lipgloss.Color(s.flavor.Yellow().Hex)
	}
}

func (s *Styles) StateStyle(state loom.State) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.StateColor(state))
}

func (s *Styles) LogTimestampStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Overlay1().Hex))
}

func (s *Styles) LogScopeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Sapphire().Hex))
}

func (s *Styles) LogLevelStyle(level string) lipgloss.Style {
	switch level {
	case "DEBUG":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.flavor.Overlay0().Hex))
	case "WARN":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.flavor.Yellow().Hex))
	case "ERROR":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.flavor.Red().Hex))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.flavor.Blue().Hex))
	}
}
