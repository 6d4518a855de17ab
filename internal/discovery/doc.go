// Package discovery implements StagelinQ device discovery over UDP.
//
// StagelinQ discovery is symmetric: every participant - hardware and client
// alike - broadcasts presence datagrams to UDP port 51337 once per second,
// and learns about peers by listening on the same port. Hardware only
// accepts TCP connections from tokens it has already seen announced, so the
// Announcer must run for the whole lifetime of a client session, not just
// during scans.
//
// # Discovery Process
//
// A scan works as follows:
//  1. Bind the discovery port, permissively (devices on the same host may
//     already hold it)
//  2. Collect presence datagrams until the scan window elapses
//  3. Validate the magic prefix and the "DISCOVERER_HOWDY_" action
//  4. Deduplicate devices by token and drop our own loopback announcements
//  5. Return the devices in arrival order
//
// Malformed datagrams are logged at debug level and skipped; a scan never
// aborts because one sender is broken.
//
// # Usage Example
//
//	scanner := discovery.NewScanner(token)
//	scanner.Timeout = 5 * time.Second
//	devices, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Printf("Found: %s\n", d)
//	}
//
// # Network Requirements
//
// - Devices must be on the same broadcast domain
// - Firewall must allow UDP port 51337 in both directions
package discovery
