// Package engine implements the tag command queue and its processor.
//
// The queue (DataLayer) is an append-only list of commands. The processor
// (Engine) drains it by index with a monotonic cursor and dispatches each
// command to a handler registered under the command's name.
//
// ARCHITECTURE:
//
// Adopt, Then Drain:
// Code that runs before the engine exists may push commands onto a DataLayer.
// The engine adopts that list and its first Process() call starts at index 0,
// so pre-boot commands are never lost.
//
// Command Processing Flow:
//  1. Tag() appends (name, args) to the DataLayer
//  2. Tag() calls Process()
//  3. Process() dispatches every entry past the cursor, in order, one at a time
//  4. Handlers mutate shared state, which persists and re-renders synchronously
//
// Single Drainer:
// At most one goroutine drains at a time. A Tag() issued from inside a handler
// (reentrant) or from another goroutine while a drain is running only appends;
// the active drainer picks the entry up before it releases. The cursor never
// rewinds, so replay is impossible and every entry is dispatched exactly once.
//
// ERROR HANDLING:
// Each dispatch is isolated. A handler that returns an error or panics yields
// a DispatchError that is reported to the diagnostics logger; the drain
// continues with the next entry and Tag() callers never see the failure.
//
// Unknown command names are ignored.
package engine
