// Package statemap implements the client side of the StagelinQ StateMap
// service: a subscribable table of hierarchical state paths mapped to
// JSON-shaped values.
//
// The Monitor opens the negotiated StateMap TCP port, announces itself
// (the protocol is nominally bidirectional), subscribes to the fixed set of
// deck and mixer paths, and then decodes pushed state emits into a live
// Table until the connection drops.
//
// The Table is the only shared mutable resource between the monitor
// goroutine (writer) and whoever resolves "what is playing" (reader). Keys
// are never removed while a connection lives; values are overwritten in
// place. Reads are snapshot-consistent per path, not across the whole
// table, which is acceptable: a stale-by-one-update pair of reads corrects
// itself on the next poll.
package statemap
