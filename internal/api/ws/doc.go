// Package ws binds the UTP protocol to websocket connections.
//
// Each connection at /preview/:bundleID becomes one preview session:
// the handler upgrades, opens an orchestrator through the session
// manager, pumps inbound frames into it, and tears the session down
// when the socket goes away. Origin checking happens twice: the
// upgrader rejects foreign handshakes, and the orchestrator drops any
// frame whose recorded origin does not match the configured one.
package ws
