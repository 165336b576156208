package element

import "github.com/charmbracelet/lipgloss"

// registry maps class names to lipgloss styles, playing the role a CSS
// stylesheet played for the DOM version of this builder.
var registry = map[string]lipgloss.Style{
	"title": lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("213")),

	"bold": lipgloss.NewStyle().Bold(true),

	"muted": lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")),

	"help": lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true),

	"error": lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true),

	"status": lipgloss.NewStyle().
		Foreground(lipgloss.Color("117")),

	"accent": lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Bold(true),

	"bubble-self": lipgloss.NewStyle().
		Foreground(lipgloss.Color("111")).
		Align(lipgloss.Right),

	"bubble-other": lipgloss.NewStyle().
		Foreground(lipgloss.Color("120")),
}

// RegisterClass adds or replaces a named style in the registry.
func RegisterClass(name string, style lipgloss.Style) {
	registry[name] = style
}
