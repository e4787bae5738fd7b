package theme

import "github.com/charmbracelet/lipgloss/v2"

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Tree   TreeTheme
	Footer FooterTheme
	Panel  PanelTheme
}

// TreeTheme styles tree rows by node kind.
type TreeTheme struct {
	Marker      lipgloss.Style
	Solution    lipgloss.Style
	Folder      lipgloss.Style
	Project     lipgloss.Style
	Directory   lipgloss.Style
	File        lipgloss.Style
	Dependency  lipgloss.Style
	Placeholder lipgloss.Style
	Selected    lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// PanelTheme styles headings.
type PanelTheme struct {
	Title lipgloss.Style
	Body  lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	return Theme{
		Tree: TreeTheme{
			Marker:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			Solution:    lipgloss.NewStyle().Bold(true),
			Folder:      lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
			Project:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
			Directory:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
			File:        lipgloss.NewStyle(),
			Dependency:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("218")).Underline(true),
			Selected:    lipgloss.NewStyle().Reverse(true),
		},
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		},
		Panel: PanelTheme{
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
		},
	}
}
