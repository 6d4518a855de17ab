package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Message ids on a device's main TCP connection
const (
	MsgIDServiceAnnouncement = 0x00000000
	MsgIDReference           = 0x00000001
	MsgIDServicesRequest     = 0x00000002
)

// referenceBodySize is the fixed body of a reference message after its id:
// local token + remote token + i64 counter.
const referenceBodySize = 2*TokenSize + 8

// ServiceDescriptor names one sub-service a device exposes and the TCP port
// it listens on.
type ServiceDescriptor struct {
	Name string
	Port uint16
}

// EncodeServicesRequest builds the handshake message that asks a device to
// enumerate its services.
func EncodeServicesRequest(token Token) []byte {
	buf := make([]byte, 4+TokenSize)
	binary.BigEndian.PutUint32(buf, MsgIDServicesRequest)
	copy(buf[4:], token[:])
	return buf
}

// EncodeServiceAnnouncement builds a service announcement message. Clients
// send one on the StateMap connection to identify themselves; devices send
// them in response to a services request.
func EncodeServiceAnnouncement(token Token, serviceName string, port uint16) []byte {
	var buf bytes.Buffer
	var id [4]byte
	binary.BigEndian.PutUint32(id[:], MsgIDServiceAnnouncement)
	buf.Write(id[:])
	buf.Write(token[:])
	buf.Write(PackString(serviceName))
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], port)
	buf.Write(p[:])
	return buf.Bytes()
}

// EncodeReference builds a reference/keepalive message.
func EncodeReference(local, remote Token, counter int64) []byte {
	buf := make([]byte, 4+referenceBodySize)
	binary.BigEndian.PutUint32(buf, MsgIDReference)
	copy(buf[4:], local[:])
	copy(buf[4+TokenSize:], remote[:])
	binary.BigEndian.PutUint64(buf[4+2*TokenSize:], uint64(counter))
	return buf
}

// ReadMessageID reads the 4-byte message id that opens every main-connection
// message.
func ReadMessageID(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadServiceAnnouncement reads the body of a service announcement after its
// message id has been consumed. The remote token is read and discarded.
func ReadServiceAnnouncement(r io.Reader) (ServiceDescriptor, error) {
	var token [TokenSize]byte
	if _, err := io.ReadFull(r, token[:]); err != nil {
		return ServiceDescriptor{}, fmt.Errorf("failed to read announcement token: %w", err)
	}
	name, err := ReadString(r)
	if err != nil {
		return ServiceDescriptor{}, fmt.Errorf("service name: %w", err)
	}
	var port [2]byte
	if _, err := io.ReadFull(r, port[:]); err != nil {
		return ServiceDescriptor{}, fmt.Errorf("failed to read service port: %w", err)
	}
	return ServiceDescriptor{Name: name, Port: binary.BigEndian.Uint16(port[:])}, nil
}

// DiscardReference consumes the fixed body of a reference message after its
// id. During negotiation the device's reference marks the end of the
// service list.
func DiscardReference(r io.Reader) error {
	var buf [referenceBodySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("failed to read reference body: %w", err)
	}
	return nil
}
