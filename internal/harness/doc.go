// Package harness runs tag scenarios against a real page.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_id: fixed-session
//	preboot:
//	  - tag: pageGroup
//	    args: [Home]
//	flow:
//	  - tag: tracepoint
//	    args: [checkout, 2]
//	assertions:
//	  - type: trace_contains
//	    tag: tracepoint
//	    args: [checkout, 2]
//	  - type: final_state
//	    expect: { pageGroup: Home }
//	  - type: stored
//	    key: cprum-pageGroup
//	    value: Home
//
// Preboot commands are pushed onto the DataLayer before the page exists and
// are dispatched by Boot. Flow commands are tagged after Boot.
//
// # Assertion Types
//
//   - trace_contains: a dispatched command has the tag and, if given, args
//   - trace_order: the tags were dispatched in this relative order
//   - trace_count: the tag was dispatched exactly count times
//   - final_state: the final snapshot matches expect (subset match)
//   - stored: the store holds value under key (absent when value is omitted)
//
// # Deterministic Testing
//
// Every run gets a fresh in-memory SQLite store, a fixed session ID and a
// fake clock, so the trace and final state are identical across runs and
// can be compared against golden files.
package harness
