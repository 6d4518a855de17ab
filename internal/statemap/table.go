package statemap

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Value is one decoded state value. Device values are small JSON objects
// whose interesting field depends on the path kind: booleans arrive as
// {"state":bool,...}, numbers as {"value":float,...} and text as
// {"string":text,...}.
type Value struct {
	raw any
}

// StateFlag returns the value's "state" boolean, or false when the value
// has no such field.
func (v Value) StateFlag() bool {
	obj, ok := v.raw.(map[string]any)
	if !ok {
		return false
	}
	b, _ := obj["state"].(bool)
	return b
}

// Float returns the value's "value" number.
func (v Value) Float() (float64, bool) {
	obj, ok := v.raw.(map[string]any)
	if !ok {
		return 0, false
	}
	f, ok := obj["value"].(float64)
	return f, ok
}

// Text returns the value's "string" field.
func (v Value) Text() (string, bool) {
	obj, ok := v.raw.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj["string"].(string)
	return s, ok
}

// Table is the live state table: path -> latest value. It is safe for one
// writer and any number of readers.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Value
}

// NewTable creates an empty state table
func NewTable() *Table {
	return &Table{entries: make(map[string]Value)}
}

// SetJSON parses jsonText and stores it under path, overwriting any
// previous value.
func (t *Table) SetJSON(path, jsonText string) error {
	var raw any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return fmt.Errorf("state value for %s is not valid JSON: %w", path, err)
	}
	t.mu.Lock()
	t.entries[path] = Value{raw: raw}
	t.mu.Unlock()
	return nil
}

// Get returns the latest value stored under path
func (t *Table) Get(path string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[path]
	return v, ok
}

// Len returns the number of distinct paths seen
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear drops every entry. The supervisor calls this when a connection is
// lost so stale state cannot masquerade as a playing track.
func (t *Table) Clear() {
	t.mu.Lock()
	t.entries = make(map[string]Value)
	t.mu.Unlock()
}
