package page

import (
	"bytes"
	"log/slog"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cprum/internal/engine"
	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/state"
	"github.com/roach88/cprum/internal/store"
	"github.com/roach88/cprum/internal/testutil"
)

func newTestPage(t *testing.T, mem *store.Memory, layer *engine.DataLayer) *Page {
	t.Helper()
	if mem == nil {
		mem = store.NewMemory()
	}
	p, err := New(Options{
		Backend:    mem,
		Layer:      layer,
		HTTPClient: &http.Client{},
		Logger:     slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Sessions:   testutil.NewFixedSessionGenerator(""),
		Clock:      testutil.NewFakeClock(time.Time{}).Stepper(10 * time.Millisecond),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		p.timers.StopAll()
		p.capture.Wait()
	})
	return p
}

func TestBoot_DrainsPreBootCommandsOnce(t *testing.T) {
	layer := engine.NewDataLayer()
	layer.Push("pageGroup", "Home")
	layer.Push("tracepoint", "step", 1)
	layer.Push("pageGroup", "Shop")

	p := newTestPage(t, nil, layer)
	assert.Equal(t, "", p.State().Snapshot().PageGroup, "nothing applied before boot")

	require.True(t, p.Boot())
	assert.False(t, p.Boot(), "second boot is a no-op")

	snap := p.State().Snapshot()
	assert.Equal(t, "Shop", snap.PageGroup)
	assert.Equal(t, map[string]any{"step": 1}, snap.TracePoints)
	assert.Equal(t, 3, p.Engine().Cursor())
}

func TestTag_LoggingToggleIsPersisted(t *testing.T) {
	mem := store.NewMemory()
	p := newTestPage(t, mem, nil)
	p.Boot()

	p.Tag("logging", true)
	p.Tag("logging", false)

	assert.False(t, p.State().Logging())
	v, ok := mem.Raw(store.KeyLogging)
	require.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestTag_TracePointKeyIsTrimmed(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.Boot()

	p.Tag("tracepoint", "  checkout  ", "step-2")
	p.Tag("tracepoint", "   ", "ignored")

	assert.Equal(t, map[string]any{"checkout": "step-2"}, p.State().Snapshot().TracePoints)
}

func TestTag_NonFiniteTracePointStillRendersAndPersists(t *testing.T) {
	mem := store.NewMemory()
	p := newTestPage(t, mem, nil)
	p.Boot()

	p.Tag("tracepoint", "a", 1)
	p.Tag("tracepoint", "bad", math.NaN())
	p.Tag("tracepoint", "b", 2)

	text := p.Renderer().StateText(p.State().Snapshot())
	assert.NotEqual(t, hud.Placeholder, text)
	assert.Contains(t, text, `"bad": null`)
	assert.Contains(t, text, `"b": 2`)

	reloaded := newTestPage(t, mem, nil)
	assert.Contains(t, reloaded.State().Snapshot().TracePoints, "b")
}

func TestTag_UnknownCommandIsIgnored(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.Boot()

	before := p.State().Snapshot()
	p.Tag("nope", 1, 2, 3)
	p.Tag("pageGroup", "After")

	after := p.State().Snapshot()
	assert.Equal(t, before.TracePoints, after.TracePoints)
	assert.Equal(t, "After", after.PageGroup, "processing continues past unknown commands")
}

func TestState_SurvivesReload(t *testing.T) {
	mem := store.NewMemory()
	first := newTestPage(t, mem, nil)
	first.Boot()
	first.Tag("pageGroup", "Shop")
	first.Tag("tracepoint", "cart", 2)
	first.ApplyTheme(state.ThemeDark)

	second := newTestPage(t, mem, nil)
	snap := second.State().Snapshot()
	assert.Equal(t, "Shop", snap.PageGroup)
	assert.Equal(t, map[string]any{"cart": float64(2)}, snap.TracePoints)
	assert.Equal(t, state.ThemeDark, snap.Theme)
}

func TestWhenReady(t *testing.T) {
	p := newTestPage(t, nil, nil)

	var order []string
	p.WhenReady(func() { order = append(order, "early") })
	assert.Empty(t, order)

	p.Boot()
	assert.Equal(t, []string{"early"}, order)

	p.WhenReady(func() { order = append(order, "late") })
	assert.Equal(t, []string{"early", "late"}, order)
}

func TestWhenReady_PanicIsCaptured(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.WhenReady(func() { panic("boom") })
	p.WhenReady(func() { p.Tag("pageGroup", "still-runs") })

	p.Boot()

	require.NotNil(t, p.LastError())
	assert.Contains(t, p.LastError().Message, "boom")
	assert.Equal(t, "still-runs", p.State().Snapshot().PageGroup)
}

func TestHandleKey_ModalTakesPrecedence(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.Boot()

	toggle := hud.Key{Name: "d", Ctrl: true, Shift: true}
	require.True(t, p.HandleKey(toggle))
	assert.True(t, p.Panel().IsOpen())

	p.OpenModal(notify.ModalOptions{Title: "Confirm"})
	require.True(t, p.HandleKey(hud.Key{Name: "Escape"}))
	assert.False(t, p.Modal().IsOpen())
	assert.True(t, p.Panel().IsOpen(), "escape on the modal leaves the panel alone")

	require.True(t, p.HandleKey(toggle))
	assert.False(t, p.Panel().IsOpen())
}

func TestApplyTheme(t *testing.T) {
	p := newTestPage(t, nil, nil)

	assert.Equal(t, state.ThemeDark, p.ApplyTheme(state.ThemeDark))
	assert.Equal(t, state.ThemeLight, p.ApplyTheme("neon"))
	assert.Equal(t, state.ThemeSystem, p.State().Snapshot().Theme)

	p.prefersDark = true
	assert.Equal(t, state.ThemeDark, p.ApplyTheme(state.ThemeSystem))
}

func TestCycleTheme(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.ApplyTheme(state.ThemeLight)

	mode, resolved := p.CycleTheme()
	assert.Equal(t, state.ThemeDark, mode)
	assert.Equal(t, state.ThemeDark, resolved)

	mode, resolved = p.CycleTheme()
	assert.Equal(t, state.ThemeSystem, mode)
	assert.Equal(t, state.ThemeLight, resolved)

	mode, _ = p.CycleTheme()
	assert.Equal(t, state.ThemeLight, mode)

	active := p.Toaster().Active()
	require.Len(t, active, 3)
	assert.Equal(t, "Theme: light", active[2].Message)
}

func TestFavorites(t *testing.T) {
	mem := store.NewMemory()
	p := newTestPage(t, mem, nil)

	assert.Empty(t, p.Favorites())
	assert.True(t, p.AddFavorite("lewandowski"))
	assert.False(t, p.AddFavorite("lewandowski"))
	assert.True(t, p.AddFavorite("pedri"))
	assert.Equal(t, []string{"lewandowski", "pedri"}, p.Favorites())

	p.RemoveFavorite("lewandowski")
	raw, _ := mem.Raw(store.KeyFavorites)
	assert.JSONEq(t, `["pedri"]`, raw)
}

func TestFavorites_CorruptDataReadsEmpty(t *testing.T) {
	mem := store.NewMemory()
	p := newTestPage(t, mem, nil)
	p.KV().Set(store.KeyFavorites, "{not json")

	assert.Equal(t, []string{}, p.Favorites())
}

func TestCart(t *testing.T) {
	p := newTestPage(t, nil, nil)
	p.Boot()

	shirt := CartItem{ID: "home-kit", Name: "Home Kit", Price: 90}
	scarf := CartItem{ID: "scarf", Name: "Scarf", Price: 10}
	p.AddToCart(shirt)
	p.AddToCart(shirt)
	p.AddToCart(scarf)

	c := p.Cart()
	require.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.Items[0].Qty)
	assert.Equal(t, "scarf", p.State().Snapshot().TracePoints["cart:add"])

	assert.True(t, p.SetQty("scarf", 0))
	assert.Equal(t, 1, p.Cart().Items[1].Qty, "quantity never drops below one")
	assert.False(t, p.SetQty("missing", 3))

	totals := p.Cart().Totals()
	assert.InDelta(t, 190.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, Shipping, totals.Shipping, 1e-9)
	assert.InDelta(t, 13.3, totals.Tax, 1e-9)
	assert.InDelta(t, 208.29, totals.Total, 1e-9)

	p.RemoveFromCart("home-kit")
	assert.Len(t, p.Cart().Items, 1)
	assert.Equal(t, "home-kit", p.State().Snapshot().TracePoints["cart:remove"])
}

func TestCart_EmptyHasNoShipping(t *testing.T) {
	assert.Equal(t, Totals{}, Cart{}.Totals())
}
