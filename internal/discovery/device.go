package discovery

import (
	"fmt"
	"net"
	"time"

	"github.com/deckwatch/deckwatch/internal/protocol"
)

// Device represents a discovered StagelinQ device on the network
type Device struct {
	// IP is the address the presence datagram arrived from
	IP net.IP

	// Port is the device's main TCP port (from the datagram, not the UDP
	// source port)
	Port uint16

	// Name is the device display name (e.g. "prime4")
	Name string

	// SoftwareName is the firmware/software name (e.g. "JP13")
	SoftwareName string

	// SoftwareVersion is the firmware/software version (e.g. "2.4.1")
	SoftwareVersion string

	// Token is the device identity token; devices are deduplicated by it
	Token protocol.Token

	// DiscoveredAt is when the device was first seen in this scan
	DiscoveredAt time.Time
}

// Addr returns the device's main TCP address in host:port form
func (d *Device) Addr() string {
	return net.JoinHostPort(d.IP.String(), fmt.Sprintf("%d", d.Port))
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s %s) at %s", d.Name, d.SoftwareName, d.SoftwareVersion, d.Addr())
}
