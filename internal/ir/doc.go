// Package ir provides the canonical records that flow through the tag pipeline.
//
// This package contains type definitions and the sanitizer only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Commands are immutable once pushed; Seq comes from the engine clock
//   - Event timestamps are ISO8601 (RFC 3339, UTC)
//   - Strings captured from errors and transports pass through Sanitize
//     before they are stored
//   - JSON tags use camelCase to match the HUD display format
package ir
