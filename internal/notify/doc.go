// Package notify provides the transient toast stack and the focus-trapped
// modal dialog.
package notify
