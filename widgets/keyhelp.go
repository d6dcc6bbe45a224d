package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection, keyColor lipgloss.Color) string {
	keyStyle := lipgloss.NewStyle().Foreground(keyColor)
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %s %s", keyStyle.Render(fmt.Sprintf("%-10s", k.Key)), k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine is the one-line form shown under the staff
func RenderKeyLine(sections []KeySection) string {
	var parts []string
	for _, sec := range sections {
		for _, k := range sec.Keys {
			parts = append(parts, k.Key+":"+k.Desc)
		}
	}
	return strings.Join(parts, "  ")
}

// RenderLegendItem renders a single legend item: "♫ name - description"
func RenderLegendItem(symbol rune, color lipgloss.Color, name, desc string) string {
	style := lipgloss.NewStyle().Foreground(color)
	return fmt.Sprintf("  %s %s - %s", style.Render(string(symbol)), name, desc)
}
