//go:build !unix

package discovery

import "syscall"

// reuseAddrControl is a no-op where the unix socket options are unavailable;
// the shared-bind fallback simply behaves like the exclusive bind there.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
