package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
)

// ErrProtocol reports malformed or truncated wire data. Every decode failure
// in this package wraps it.
var ErrProtocol = errors.New("stagelinq protocol error")

// maxStringBytes caps the declared length of a wire string. Real device
// strings are short paths and names; anything larger means a desynced stream.
const maxStringBytes = 64 * 1024

// maxFrameSize caps a length-prefixed frame. State emit payloads top out
// well below this.
const maxFrameSize = 1 << 20

// PackString encodes s as UTF-16BE prefixed with a 4-byte big-endian byte
// length. No terminator is appended.
func PackString(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 4+2*len(units))
	binary.BigEndian.PutUint32(buf, uint32(2*len(units)))
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[4+2*i:], u)
	}
	return buf
}

// UnpackString decodes a length-prefixed UTF-16BE string from buf starting
// at offset. It returns the decoded string and the offset of the first byte
// after it.
func UnpackString(buf []byte, offset int) (string, int, error) {
	if offset < 0 || len(buf)-offset < 4 {
		return "", 0, fmt.Errorf("%w: short string length at offset %d", ErrProtocol, offset)
	}
	n := int(binary.BigEndian.Uint32(buf[offset:]))
	offset += 4
	if n%2 != 0 {
		return "", 0, fmt.Errorf("%w: odd UTF-16 byte length %d", ErrProtocol, n)
	}
	if n > maxStringBytes {
		return "", 0, fmt.Errorf("%w: unreasonable string length %d", ErrProtocol, n)
	}
	if len(buf)-offset < n {
		return "", 0, fmt.Errorf("%w: string declares %d bytes, %d remain", ErrProtocol, n, len(buf)-offset)
	}
	return decodeUTF16BE(buf[offset : offset+n]), offset + n, nil
}

// ReadString reads one length-prefixed UTF-16BE string from a stream.
func ReadString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n%2 != 0 || n > maxStringBytes {
		return "", fmt.Errorf("%w: bad string length %d", ErrProtocol, n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", fmt.Errorf("failed to read string data: %w", err)
	}
	return decodeUTF16BE(data), nil
}

func decodeUTF16BE(data []byte) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return string(utf16.Decode(units))
}

// WriteFrame writes one length-prefixed frame: u32 payload length followed
// by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("failed to write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("%w: frame declares %d bytes", ErrProtocol, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read frame payload: %w", err)
	}
	return payload, nil
}
