// Package session implements the client session state machine.
//
// The state machine merges two independent event sources into one view:
//
//   - action events (ActionIssued, ActionAck, ActionFailed) produced around
//     requests the client makes through the action gateway. Optimistic.
//   - push events (PushNotice) decoded from the server's push channel.
//     Authoritative.
//
// Both flow through the single pure function Reduce. There is no second
// mutation path. Safety under cross-source reordering comes from three
// properties of Reduce rather than from any global ordering:
//
//   - Lifecycle status only moves forward (EMPTY < CREATED < JOINED < READY < STARTED)
//   - Card appends are idempotent and reject regressions
//   - Scores and answers are replaced wholesale, never patched
//
// The readiness gate is consulted by reducing ActionIssued before a request
// leaves the process. A refused issue leaves the state untouched and reports
// the reason in Reduction.Err.
package session
