// Package lab holds the interactive diagnostics scenarios: the error lab,
// which deliberately triggers every kind of captured failure, and the
// performance lab, which generates measurable work.
//
// Every scenario reports through the same public surface page code uses:
// tags, toasts and the interceptors.
package lab
