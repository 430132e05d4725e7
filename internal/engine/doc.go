// Package engine runs one game session.
//
// The engine is the shell around the pure session reducer: it owns the
// event queue, the gateway and the push pump, and it is the only place a
// session.State lives.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every input becomes a session.Event and is reduced in one goroutine. This
// ensures:
// - Push notices and action results are merged in one total order
// - The reducer never runs concurrently with itself
// - The journal (if any) records exactly the order that was reduced
//
// Event Processing Flow:
// 1. Push frames are decoded by PumpFrames and enqueued as PushNotice
// 2. Actions enqueue ActionIssued and wait for the gate's verdict
// 3. Admitted actions call the gateway outside the loop
// 4. Results are enqueued as ActionAck or ActionFailed
// 5. Run reduces each event, publishes a View when state changed, and
//    starts any requested effects
//
// The server may broadcast a notice before it answers the request that
// caused it, so an ack can arrive after the notice it explains. The reducer
// is written for that: lifecycle moves only forward and duplicates are
// no-ops.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Each reduced event is stamped with the next Clock seq. Views carry the seq
// of the reduction that produced them.
//
// Replay:
// Replay folds journaled entries through the same reducer and reproduces
// the live engine's final view, seq included.
package engine
