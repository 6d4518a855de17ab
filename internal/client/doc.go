// Package client ties the StagelinQ layers into one supervised session.
//
// A Client owns the identity token, the live state table and the mix
// resolver, and drives a connection state machine:
//
//	Discovering -> Connecting -> Negotiating -> Monitoring -> Lost -> Discovering
//
// Discovering broadcasts presence and scans for devices, retrying with a
// fixed backoff while the network is empty. Once devices appear the client
// waits a short grace period (hardware only accepts TCP connections from
// tokens it has already heard announced), then negotiates services with
// each candidate in turn until one offers StateMap. Monitoring lasts until
// the state connection drops; the table and the resolver's deck timestamps
// are then cleared and discovery starts over. Stop cancels everything and
// waits for the supervisor to exit.
//
// No failure below Stop ever escapes: connection and protocol errors are
// logged and become state transitions.
package client
