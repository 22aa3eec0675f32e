package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/cprum/internal/ir"
)

// Built-in command names.
const (
	CmdLogging    = "logging"
	CmdTracePoint = "tracepoint"
	CmdPageGroup  = "pageGroup"
)

// Target receives the effects of the built-in commands.
// Implemented by *state.State.
type Target interface {
	SetLogging(on bool)
	SetTracePoint(key string, value any)
	SetPageGroup(group string)
}

// RegisterTagHandlers installs the built-in dispatch table on e.
//
//	logging    [on]          sets the diagnostics flag (truthiness of on)
//	tracepoint [key, value]  key trimmed; empty key is a no-op
//	pageGroup  [value]       nil becomes ""
func RegisterTagHandlers(e *Engine, t Target) {
	e.Handle(CmdLogging, func(cmd ir.Command) error {
		t.SetLogging(Truthy(cmd.Arg(0)))
		return nil
	})

	e.Handle(CmdTracePoint, func(cmd ir.Command) error {
		key := strings.TrimSpace(argString(cmd.Arg(0)))
		if key == "" {
			return nil
		}
		t.SetTracePoint(key, cmd.Arg(1))
		return nil
	})

	e.Handle(CmdPageGroup, func(cmd ir.Command) error {
		t.SetPageGroup(argString(cmd.Arg(0)))
		return nil
	})
}

// Truthy reports whether v counts as "on": false, nil, zero numbers and the
// empty string are off, everything else is on.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int8:
		return val != 0
	case int16:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case uint:
		return val != 0
	case uint8:
		return val != 0
	case uint16:
		return val != 0
	case uint32:
		return val != 0
	case uint64:
		return val != 0
	case float32:
		return val != 0 && !math.IsNaN(float64(val))
	case float64:
		return val != 0 && !math.IsNaN(val)
	default:
		return true
	}
}

// argString stringifies an argument; nil becomes "".
func argString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
