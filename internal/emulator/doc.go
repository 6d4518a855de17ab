// Package emulator implements a scriptable fake StagelinQ device.
//
// The emulator speaks enough of the protocol to exercise a full client
// session on loopback: it broadcasts presence datagrams (optional), answers
// the services-request handshake on a main TCP port, and serves a StateMap
// port that honors subscriptions by replaying the scripted state and
// pushing later updates.
//
// It exists for two consumers: the `deckwatch emulate` command, which lets
// the client be developed without hardware on the network, and the
// integration tests, which script play/stop and connection-drop scenarios
// against it.
package emulator
