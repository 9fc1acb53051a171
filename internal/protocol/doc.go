// Package protocol defines the UTP message envelope exchanged between
// the orchestrator and the sandboxed preview client.
//
// Every message is a JSON envelope {type: "UTP/<NAME>", payload: {...}}.
// Inbound frames that do not carry the UTP prefix are dropped before
// dispatch; well-formed frames with unknown names are the caller's
// problem to log and ignore.
package protocol
