// Package timers tracks cancellable one-shot and repeating timers as a group.
//
// StopAll cancels every outstanding handle in one locked pass: once it
// returns, no callback of a handle it cancelled starts.
package timers

import (
	"sync"
	"time"
)

// Group owns a set of timers.
type Group struct {
	mu      sync.Mutex
	nextID  int64
	handles map[int64]*Handle
}

// Handle is one scheduled timer.
type Handle struct {
	id     int64
	g      *Group
	every  time.Duration
	fn     func()
	timer  *time.Timer
	active bool // guarded by g.mu
}

// NewGroup creates an empty Group.
func NewGroup() *Group {
	return &Group{handles: make(map[int64]*Handle)}
}

// After runs fn once after d.
func (g *Group) After(d time.Duration, fn func()) *Handle {
	return g.schedule(d, 0, fn)
}

// Every runs fn every d until stopped. The next tick is scheduled after fn
// returns, so slow callbacks never overlap.
func (g *Group) Every(d time.Duration, fn func()) *Handle {
	if d <= 0 {
		d = time.Millisecond
	}
	return g.schedule(d, d, fn)
}

func (g *Group) schedule(d, every time.Duration, fn func()) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	h := &Handle{id: g.nextID, g: g, every: every, fn: fn, active: true}
	g.handles[h.id] = h
	h.timer = time.AfterFunc(d, h.fire)
	return h
}

func (h *Handle) fire() {
	g := h.g

	g.mu.Lock()
	if !h.active {
		g.mu.Unlock()
		return
	}
	if h.every == 0 {
		h.active = false
		delete(g.handles, h.id)
	}
	g.mu.Unlock()

	h.fn()

	if h.every == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if h.active {
		h.timer.Reset(h.every)
	}
}

// Stop cancels h. It returns false if h already fired (one-shot) or was
// stopped.
func (h *Handle) Stop() bool {
	g := h.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if !h.active {
		return false
	}
	h.active = false
	h.timer.Stop()
	delete(g.handles, h.id)
	return true
}

// Active reports whether h can still fire.
func (h *Handle) Active() bool {
	h.g.mu.Lock()
	defer h.g.mu.Unlock()
	return h.active
}

// StopAll cancels every outstanding handle and returns how many there were.
func (g *Group) StopAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.handles)
	for id, h := range g.handles {
		h.active = false
		h.timer.Stop()
		delete(g.handles, id)
	}
	return n
}

// Len returns the number of outstanding handles.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}
