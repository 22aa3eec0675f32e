package hud

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/cprum/internal/state"
)

// Palette colors the terminal view of the panel.
type Palette struct {
	Border lipgloss.Color
	Title  lipgloss.Color
	Label  lipgloss.Color
	Body   lipgloss.Color
}

var (
	LightPalette = Palette{
		Border: lipgloss.Color("#004D98"),
		Title:  lipgloss.Color("#A50044"),
		Label:  lipgloss.Color("#6B7280"),
		Body:   lipgloss.Color("#101F38"),
	}
	DarkPalette = Palette{
		Border: lipgloss.Color("#EDBB00"),
		Title:  lipgloss.Color("#EDBB00"),
		Label:  lipgloss.Color("#9CA3AF"),
		Body:   lipgloss.Color("#F2F2F2"),
	}
)

// PaletteFor returns the palette for a resolved theme.
func PaletteFor(theme string) Palette {
	if theme == state.ThemeDark {
		return DarkPalette
	}
	return LightPalette
}

// View renders the open panel as a bordered terminal box. A closed panel
// renders as the empty string.
func (p *Panel) View() string {
	if !p.IsOpen() {
		return ""
	}
	snap := p.source.Snapshot()
	pal := PaletteFor(state.ResolveTheme(snap.Theme, p.renderer.prefersDark))
	stateText, errText, netText := p.Sections()

	title := lipgloss.NewStyle().Bold(true).Foreground(pal.Title)
	label := lipgloss.NewStyle().Foreground(pal.Label).MarginTop(1)
	body := lipgloss.NewStyle().Foreground(pal.Body)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title.Render("Debug HUD"),
		label.Render("Toggled via Ctrl+Shift+D"),
		label.Render("State"),
		body.Render(stateText),
		label.Render("Last error"),
		body.Render(errText),
		label.Render("Last network"),
		body.Render(netText),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.Border).
		Padding(0, 1).
		Render(content)
}
