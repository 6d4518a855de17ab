package client

import (
	"context"
	"net"
	"time"

	"github.com/deckwatch/deckwatch/internal/protocol"
)

// keepaliveInterval is how often reference messages go out on an open main
// connection. Devices drop idle connections well before a second passes.
const keepaliveInterval = 250 * time.Millisecond

// runKeepalive sends reference messages on conn until ctx is cancelled or a
// write fails. Write failures end the loop silently - the owning
// connection's failure surfaces in the reader that actually consumes it.
func runKeepalive(ctx context.Context, conn net.Conn, local, remote protocol.Token) {
	msg := protocol.EncodeReference(local, remote, 0)

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := conn.Write(msg); err != nil {
				return
			}
		}
	}
}
