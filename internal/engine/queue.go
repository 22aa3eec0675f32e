package engine

import (
	"sync"

	"github.com/roach88/cprum/internal/ir"
)

// DataLayer is the append-only command list.
//
// Entries are never removed or mutated; the engine drains by index. Push is
// safe from any goroutine and may be used before any Engine exists.
type DataLayer struct {
	mu      sync.Mutex
	entries []ir.Command
	clock   *Clock
}

// NewDataLayer creates a DataLayer, adopting any pre-existing entries.
//
// Adopted entries keep their order. Entries without a Seq are stamped in
// adoption order, continuing after the highest Seq already present.
func NewDataLayer(pre ...ir.Command) *DataLayer {
	var maxSeq int64
	for _, c := range pre {
		if c.Seq > maxSeq {
			maxSeq = c.Seq
		}
	}

	d := &DataLayer{
		entries: make([]ir.Command, 0, len(pre)+64),
		clock:   NewClockAt(maxSeq),
	}
	for _, c := range pre {
		if c.Seq == 0 {
			c.Seq = d.clock.Next()
		}
		c.Args = copyArgs(c.Args)
		d.entries = append(d.entries, c)
	}
	return d
}

// Push appends a command without processing it and returns its Seq.
// The args slice is copied so later caller mutation cannot alter history.
func (d *DataLayer) Push(name string, args ...any) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := ir.Command{
		Seq:  d.clock.Next(),
		Name: name,
		Args: copyArgs(args),
	}
	d.entries = append(d.entries, cmd)
	return cmd.Seq
}

// Len returns the number of entries ever pushed.
func (d *DataLayer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// At returns the entry at index i.
func (d *DataLayer) At(i int) (ir.Command, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.entries) {
		return ir.Command{}, false
	}
	return d.entries[i], true
}

// Entries returns a copy of the full history.
func (d *DataLayer) Entries() []ir.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ir.Command, len(d.entries))
	copy(out, d.entries)
	return out
}

func copyArgs(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	copy(out, args)
	return out
}
