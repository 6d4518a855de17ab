package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// StateMapService is the service name of the subscribable state table.
const StateMapService = "StateMap"

// StateMap payload markers (follow the "smaa" magic inside a frame)
const (
	smaaMarkerSubscribe = 0x000007d2
	smaaMarkerEmit      = 0x00000000
)

// smaaMagic prefixes every StateMap payload
var smaaMagic = []byte("smaa")

// EncodeStateSubscribe builds the payload that subscribes to one state path.
// Interval 0 requests push-on-change. The caller wraps it in a frame.
func EncodeStateSubscribe(path string, interval uint32) []byte {
	var buf bytes.Buffer
	buf.Write(smaaMagic)
	var marker [4]byte
	binary.BigEndian.PutUint32(marker[:], smaaMarkerSubscribe)
	buf.Write(marker[:])
	buf.Write(PackString(path))
	var iv [4]byte
	binary.BigEndian.PutUint32(iv[:], interval)
	buf.Write(iv[:])
	return buf.Bytes()
}

// EncodeStateEmit builds the payload that carries one state value. Devices
// send these; the emulator uses it to play a device.
func EncodeStateEmit(path, jsonText string) []byte {
	var buf bytes.Buffer
	buf.Write(smaaMagic)
	var marker [4]byte
	binary.BigEndian.PutUint32(marker[:], smaaMarkerEmit)
	buf.Write(marker[:])
	buf.Write(PackString(path))
	buf.Write(PackString(jsonText))
	return buf.Bytes()
}

// DecodeStateSubscribe parses a subscribe payload into its path and
// interval. Devices (and the emulator) use this to honor subscriptions.
func DecodeStateSubscribe(payload []byte) (path string, interval uint32, err error) {
	if len(payload) < len(smaaMagic)+4 {
		return "", 0, fmt.Errorf("%w: state payload too short (%d bytes)", ErrProtocol, len(payload))
	}
	if !bytes.HasPrefix(payload, smaaMagic) {
		return "", 0, fmt.Errorf("%w: bad state magic %q", ErrProtocol, payload[:len(smaaMagic)])
	}
	offset := len(smaaMagic)
	marker := binary.BigEndian.Uint32(payload[offset:])
	if marker != smaaMarkerSubscribe {
		return "", 0, fmt.Errorf("%w: unexpected state marker 0x%08x", ErrProtocol, marker)
	}
	offset += 4
	if path, offset, err = UnpackString(payload, offset); err != nil {
		return "", 0, fmt.Errorf("state path: %w", err)
	}
	if len(payload)-offset < 4 {
		return "", 0, fmt.Errorf("%w: subscribe payload missing interval", ErrProtocol)
	}
	return path, binary.BigEndian.Uint32(payload[offset:]), nil
}

// DecodeStateEmit parses a state emit payload into its path and the raw
// JSON text of the value.
func DecodeStateEmit(payload []byte) (path, jsonText string, err error) {
	if len(payload) < len(smaaMagic)+4 {
		return "", "", fmt.Errorf("%w: state payload too short (%d bytes)", ErrProtocol, len(payload))
	}
	if !bytes.HasPrefix(payload, smaaMagic) {
		return "", "", fmt.Errorf("%w: bad state magic %q", ErrProtocol, payload[:len(smaaMagic)])
	}
	offset := len(smaaMagic)
	marker := binary.BigEndian.Uint32(payload[offset:])
	if marker != smaaMarkerEmit {
		return "", "", fmt.Errorf("%w: unexpected state marker 0x%08x", ErrProtocol, marker)
	}
	offset += 4
	if path, offset, err = UnpackString(payload, offset); err != nil {
		return "", "", fmt.Errorf("state path: %w", err)
	}
	if jsonText, _, err = UnpackString(payload, offset); err != nil {
		return "", "", fmt.Errorf("state value: %w", err)
	}
	return path, jsonText, nil
}
