package lab

import (
	"math"
	"time"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/notify"
)

// Tagger issues DataLayer commands.
type Tagger interface {
	Tag(name string, args ...any) int64
}

// Toaster shows transient notifications.
type Toaster interface {
	Toast(message string, kind notify.Kind, opts notify.ToastOptions) notify.Toast
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundMs rounds d to whole milliseconds.
func roundMs(d time.Duration) int64 {
	return int64(math.Round(ir.Millis(d)))
}
