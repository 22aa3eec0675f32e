package page

import (
	"time"

	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/state"
)

// ApplyTheme stores mode and returns the resolved theme. Unknown modes are
// treated as "system".
func (p *Page) ApplyTheme(mode string) string {
	switch mode {
	case state.ThemeLight, state.ThemeDark, state.ThemeSystem:
	default:
		mode = state.ThemeSystem
	}
	p.state.SetTheme(mode)
	resolved := state.ResolveTheme(mode, p.prefersDark)
	p.Log("theme", "mode", mode, "resolved", resolved)
	return resolved
}

// NextTheme returns the mode after current in the light, dark, system cycle.
func NextTheme(current string) string {
	switch current {
	case state.ThemeLight:
		return state.ThemeDark
	case state.ThemeDark:
		return state.ThemeSystem
	default:
		return state.ThemeLight
	}
}

// CycleTheme advances the saved theme mode and announces it. It returns
// the new mode and the theme it resolves to.
func (p *Page) CycleTheme() (mode, resolved string) {
	mode = NextTheme(p.state.Snapshot().Theme)
	resolved = p.ApplyTheme(mode)
	p.Toast("Theme: "+mode, notify.KindInfo, notify.ToastOptions{TTL: 1800 * time.Millisecond})
	return mode, resolved
}
