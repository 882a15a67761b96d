/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package baggage

// Half is an ordered mapping of string keys to string values.
//
// Insertion order is preserved. Putting an existing key replaces its value in
// place, so the last write wins without moving the key. A key that was never
// put reads as absent, which is distinct from a key holding the empty string.
//
// Half is not safe for concurrent use.
type Half struct {
	// keys holds the insertion order. Removed keys leave an empty slot until
	// the next compaction.
	keys    []string
	entries map[string]entry
}

type entry struct {
	value string
	slot  int
}

// NewHalf creates an empty Half
func NewHalf() *Half {
	return &Half{}
}

// Put sets the value of key. Empty keys are ignored.
func (h *Half) Put(key, value string) {
	if key == "" {
		return
	}

	if h.entries == nil {
		h.entries = make(map[string]entry)
	}

	if current, ok := h.entries[key]; ok {
		current.value = value
		h.entries[key] = current
		return
	}
	h.entries[key] = entry{value: value, slot: len(h.keys)}
	h.keys = append(h.keys, key)
}

// Get returns the value of key and whether it is set
func (h *Half) Get(key string) (string, bool) {
	current, ok := h.entries[key]
	return current.value, ok
}

// Has reports whether key is set
func (h *Half) Has(key string) bool {
	_, ok := h.entries[key]
	return ok
}

// Remove deletes key in amortized constant time. Removing an absent key is a no-op.
func (h *Half) Remove(key string) {
	current, ok := h.entries[key]
	if !ok {
		return
	}

	delete(h.entries, key)
	h.keys[current.slot] = ""
	if len(h.keys) > 2*len(h.entries) {
		h.compact()
	}
}

// compact drops the empty slots left by Remove
func (h *Half) compact() {
	keys := make([]string, 0, len(h.entries))
	for _, key := range h.keys {
		if key == "" {
			continue
		}
		current := h.entries[key]
		current.slot = len(keys)
		h.entries[key] = current
		keys = append(keys, key)
	}
	h.keys = keys
}

// Len returns the number of keys set
func (h *Half) Len() int {
	return len(h.entries)
}

// IsEmpty reports whether no key is set
func (h *Half) IsEmpty() bool {
	return len(h.entries) == 0
}

// Keys returns the keys in insertion order
func (h *Half) Keys() []string {
	out := make([]string, 0, len(h.entries))
	for _, key := range h.keys {
		if key != "" {
			out = append(out, key)
		}
	}
	return out
}

// Range calls fn for every entry in insertion order until fn returns false
func (h *Half) Range(fn func(key, value string) bool) {
	for _, key := range h.keys {
		if key == "" {
			continue
		}
		if !fn(key, h.entries[key].value) {
			return
		}
	}
}

// All returns a copy of the entries
func (h *Half) All() map[string]string {
	out := make(map[string]string, len(h.entries))
	for key, current := range h.entries {
		out[key] = current.value
	}
	return out
}

// PutAll sets every entry of the given map. Keys are appended in sorted order
// when absent so the resulting order is deterministic.
func (h *Half) PutAll(entries map[string]string) {
	for _, key := range sortedKeys(entries) {
		h.Put(key, entries[key])
	}
}

// Merge copies the entries of other into h. Entries of other win.
func (h *Half) Merge(other *Half) {
	if other == nil {
		return
	}
	other.Range(func(key, value string) bool {
		h.Put(key, value)
		return true
	})
}

// Clone returns a deep copy of h
func (h *Half) Clone() *Half {
	clone := &Half{
		keys:    make([]string, 0, len(h.entries)),
		entries: make(map[string]entry, len(h.entries)),
	}
	h.Range(func(key, value string) bool {
		clone.entries[key] = entry{value: value, slot: len(clone.keys)}
		clone.keys = append(clone.keys, key)
		return true
	})
	return clone
}

// Clear removes every entry
func (h *Half) Clear() {
	h.keys = nil
	h.entries = nil
}
