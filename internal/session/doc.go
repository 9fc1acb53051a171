// Package session tracks active preview sessions.
//
// The manager owns the orchestrator lifecycle: one orchestrator per
// connected preview, created when the websocket is established and
// torn down when the connection goes away or the host closes it.
package session
