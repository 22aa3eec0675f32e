// Package state holds the shared observability state of one process image.
//
// State is the single mutation entry point for everything the HUD shows:
// the diagnostics flag, trace points, page group, theme, and the most recent
// captured error and network event.
//
// Persistence: logging, trace points, page group and theme are restored from
// the store at construction and written through on every mutation. The last
// error and last network event are session-only.
//
// Notification: every mutation notifies all subscribers synchronously, in
// mutation order, before the mutating call returns. Listeners may read the
// state but must not mutate it from inside the callback.
//
// Conflict policy for lastError and lastNetwork is last-write-wins: with two
// requests in flight, whichever settles last is what remains.
package state
