// Package harness runs conformance scenarios against the session reducer.
//
// A scenario is a fixed sequence of push frames and journal events fed to a
// fresh session. Every step is reduced with a deterministic clock, journaled
// to an in-memory SQLite journal, and recorded in a trace. After the last
// step the journal is replayed and the replayed view must match the live
// one exactly.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_id: s-1            # optional
//	steps:
//	  - event: ack:create
//	    payload: { player: { id: 1, game_id: 7 } }
//	    expect: { changed: true, status: CREATED }
//	  - frame: '{"event":"STARTED","game_id":7}'
//	  - event: issued:ready
//	    expect: { readiness: WAITING_FOR_PEERS }
//	  - frame: 'not json'
//	    expect: { dropped: true }
//	assertions:
//	  - type: trace_count
//	    kind: notice:STARTED
//	    count: 1
//	  - type: final_view
//	    expect: { session: { status: STARTED }, ledger_len: 0 }
//
// Event kinds use the journal encoding: ack:<action>, issued:<action>,
// failed:<action>, notice:<event> and games.
//
// # Assertion Types
//
//   - trace_contains: an entry of the given kind appears (optionally filtered by changed)
//   - trace_order: kinds appear in the given order
//   - trace_count: an entry of the given kind appears exactly N times
//   - final_view: the final view matches the expected fields (subset match)
//
// # Golden Traces
//
// RunWithGolden compares the canonical JSON trace against
// testdata/golden/<name>.golden using goldie.
package harness
