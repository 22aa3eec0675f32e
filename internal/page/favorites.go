package page

import (
	"slices"
	"time"

	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/store"
)

// Favorites returns the saved player IDs. Unreadable data reads as empty.
func (p *Page) Favorites() []string {
	var favs []string
	if !p.kv.GetJSON(store.KeyFavorites, &favs) || favs == nil {
		return []string{}
	}
	return favs
}

// AddFavorite saves id. Returns false if it was already a favorite.
func (p *Page) AddFavorite(id string) bool {
	favs := p.Favorites()
	if slices.Contains(favs, id) {
		return false
	}
	p.kv.SetJSON(store.KeyFavorites, append(favs, id))
	p.Toast("Added to favorites!", notify.KindOK, notify.ToastOptions{TTL: 1800 * time.Millisecond})
	return true
}

// RemoveFavorite drops id.
func (p *Page) RemoveFavorite(id string) {
	favs := slices.DeleteFunc(p.Favorites(), func(x string) bool { return x == id })
	p.kv.SetJSON(store.KeyFavorites, favs)
	p.Toast("Removed from favorites", notify.KindInfo, notify.ToastOptions{TTL: 1200 * time.Millisecond})
}
