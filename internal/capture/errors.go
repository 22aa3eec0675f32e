package capture

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/roach88/cprum/internal/ir"
)

const (
	// fallbackRejection is the message for a rejection with no usable reason.
	fallbackRejection = "Unhandled rejection"
	// fallbackError is the message for a script error with no message.
	fallbackError = "Unknown error"
)

// Guard runs fn and records a panic escaping it as a script error.
// It returns false when fn panicked. The panic does not propagate further.
func (i *Interceptor) Guard(fn func()) (ok bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ok = false
		file, line := panicSite()
		i.recordError(ir.ErrorEvent{
			Kind:     ir.ErrorKindScript,
			Message:  panicMessage(r),
			Filename: file,
			Line:     line,
			Stack:    string(debug.Stack()),
		})
	}()
	fn()
	return true
}

// ScriptError records an explicitly reported synchronous failure.
func (i *Interceptor) ScriptError(err error, filename string, line, column int) {
	msg := fallbackError
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	i.recordError(ir.ErrorEvent{
		Kind:     ir.ErrorKindScript,
		Message:  msg,
		Filename: filename,
		Line:     line,
		Column:   column,
		Stack:    stackOf(err),
	})
}

// ResourceError records a failed resource load. Resource failures carry no
// message of their own; for img, script and link elements one is built from
// the tag and the URL becomes the filename. Other tags get the generic
// fallback.
func (i *Interceptor) ResourceError(tag, url string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	ev := ir.ErrorEvent{Kind: ir.ErrorKindScript, Message: fallbackError}
	switch tag {
	case "img", "script", "link":
		ev.Message = fmt.Sprintf("Resource error: <%s> failed to load", tag)
		ev.Filename = url
	}
	i.recordError(ev)
}

// Rejection records a failure nobody handled. reason may be any value.
func (i *Interceptor) Rejection(reason any) {
	msg := ir.SanitizeValue(reason)
	if msg == "" {
		msg = fallbackRejection
	}
	var stack string
	if err, ok := reason.(error); ok {
		stack = stackOf(err)
	} else if s, ok := reason.(interface{ Stack() string }); ok {
		stack = s.Stack()
	}
	i.recordError(ir.ErrorEvent{
		Kind:    ir.ErrorKindRejection,
		Message: msg,
		Stack:   stack,
	})
}

// Go runs fn as a detached task. An error returned by fn has by definition
// no handler and is recorded as a rejection; a panic is recorded as a script
// error.
func (i *Interceptor) Go(fn func() error) {
	i.tasks.Go(func() error {
		var err error
		if i.Guard(func() { err = fn() }) && err != nil {
			i.Rejection(err)
		}
		return nil
	})
}

// Wait blocks until every detached task has finished.
func (i *Interceptor) Wait() {
	_ = i.tasks.Wait()
}

// stackOf returns the stack carried by err or anything it wraps.
func stackOf(err error) string {
	var s interface{ Stack() string }
	if err != nil && errors.As(err, &s) {
		return s.Stack()
	}
	return ""
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}

// panicSite locates the frame that panicked: the first non-runtime frame
// below runtime.gopanic. Must be called from the deferred recover function.
func panicSite() (string, int) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	seenPanic := false
	for {
		f, more := frames.Next()
		if seenPanic && !strings.HasPrefix(f.Function, "runtime.") {
			return f.File, f.Line
		}
		if f.Function == "runtime.gopanic" {
			seenPanic = true
		}
		if !more {
			return "", 0
		}
	}
}
