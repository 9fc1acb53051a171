// Package orchestrator bridges one preview client and the host service
// over the UTP protocol.
//
// Each orchestrator owns a per-session state machine
// (loading -> initializing -> ready, error on protocol failures) and
// resolves navigation and intent requests against an immutable site
// bundle and the plan's entitlements.
//
// Inbound frames are accepted only from the configured peer origin and
// only inside the UTP namespace; everything else is dropped before it
// can touch session state. Close is the terminal teardown: it cancels
// in-flight intent executions and turns later inbound frames into
// no-ops.
package orchestrator
