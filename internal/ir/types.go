package ir

import "time"

// Command is a single tagging call: a name plus its positional arguments.
//
// Commands are appended to the DataLayer and never mutated or removed;
// the queue is drained by index so entries are immutable history.
type Command struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Args []any  `json:"args"`
}

// Arg returns the i-th argument, or nil when the command carries fewer.
func (c Command) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// ErrorKind distinguishes captured error sources.
type ErrorKind string

const (
	// ErrorKindScript is an uncaught synchronous failure or resource load error.
	ErrorKindScript ErrorKind = "script-error"
	// ErrorKindRejection is a failed asynchronous task nobody handled.
	ErrorKindRejection ErrorKind = "unhandled-rejection"
)

// ErrorEvent is the canonical record of a captured runtime error.
// Message, Filename and Stack are sanitized before the record is built.
type ErrorEvent struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Filename  string    `json:"filename"`
	Line      int       `json:"line"`
	Column    int       `json:"column"`
	Stack     string    `json:"stack"`
	Timestamp string    `json:"timestamp"`
}

// NetworkKind distinguishes the two intercepted transport mechanisms.
type NetworkKind string

const (
	// NetworkKindFetch is the http.RoundTripper path.
	NetworkKindFetch NetworkKind = "fetch"
	// NetworkKindXHR is the callback-style request object path.
	NetworkKindXHR NetworkKind = "xhr"
)

// NetworkEvent is the canonical record of a settled outgoing request.
//
// Status 0 means no HTTP response was received (transport failure) and is
// disjoint from every real HTTP status.
type NetworkEvent struct {
	Kind       NetworkKind `json:"kind"`
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	Status     int         `json:"status"`
	OK         bool        `json:"ok"`
	DurationMs float64     `json:"durationMs"`
	Error      *string     `json:"error"`
	Timestamp  string      `json:"timestamp"`
}

// TransportFailed reports whether the request never produced a response.
func (e NetworkEvent) TransportFailed() bool {
	return e.Status == 0
}

// Timestamp formats t the way every record stores it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
