// Package protocol implements the StagelinQ binary wire protocol.
//
// StagelinQ is the proprietary network protocol spoken by Denon DJ mixers
// and players for device discovery and state telemetry. There is no official
// client library; this package is the codec layer for the format as observed
// on the wire.
//
// # Wire Format
//
// All multi-byte integers are big-endian and fixed-width. Strings are
// UTF-16BE with a 4-byte big-endian byte-length prefix and no terminator.
// A length-prefixed frame is a u32 payload length followed by the payload.
//
// # Discovery (UDP port 51337)
//
// Participants broadcast presence datagrams:
//
//	magic("airD") | token(16) | string(deviceName) | string(action) |
//	string(softwareName) | string(softwareVersion) | port(u16)
//
// Only datagrams whose action is "DISCOVERER_HOWDY_" announce presence;
// "DISCOVERER_EXIT_" shares the magic but signals departure.
//
// # Main TCP connection
//
// Messages on a device's main port carry a 4-byte message id:
//   - 0x0 service announcement: token(16) | string(serviceName) | port(u16)
//   - 0x1 reference/keepalive: localToken(16) | remoteToken(16) | counter(i64)
//   - 0x2 services request: token(16)
//
// During service negotiation a reference message from the device doubles as
// the end-of-service-list marker.
//
// # StateMap service
//
// StateMap messages travel inside length-prefixed frames. Payloads begin
// with the magic "smaa" and a 4-byte marker: 0x000007d2 subscribes to a
// state path (with a u32 interval, 0 = push on change) and 0x00000000 emits
// a state path together with a JSON-encoded value.
//
// # Identity Tokens
//
// Every participant is identified by a 16-byte token. Hardware rejects
// tokens whose first byte has the high bit set, so NewToken clears it.
//
// # Error Handling
//
// Decode failures wrap ErrProtocol so callers can tell protocol corruption
// (abandon the connection attempt) apart from socket errors (retry with
// backoff). All functions are stateless and safe for concurrent use.
package protocol
