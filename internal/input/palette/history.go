package palette

import (
	"slices"
	"sync"
)

// History keeps history keys in most-recently-used order.
type History struct {
	mu    sync.Mutex
	keys  []string
	limit int
}

// NewHistory creates a history holding at most limit keys.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{keys: make([]string, 0, limit), limit: limit}
}

// Add moves key to the front, inserting it if absent.
func (h *History) Add(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = slices.DeleteFunc(h.keys, func(k string) bool { return k == key })
	h.keys = slices.Insert(h.keys, 0, key)
	if len(h.keys) > h.limit {
		h.keys = h.keys[:h.limit]
	}
}

// Recent returns up to limit keys, most recent first. A limit of zero
// returns all of them.
func (h *History) Recent(limit int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.keys) {
		limit = len(h.keys)
	}
	return slices.Clone(h.keys[:limit])
}

// Position returns the rank of key (0 = most recent) or -1.
func (h *History) Position(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Index(h.keys, key)
}

// Contains reports whether key is present.
func (h *History) Contains(key string) bool {
	return h.Position(key) >= 0
}

// Remove deletes key and reports whether it was present.
func (h *History) Remove(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := slices.Index(h.keys, key)
	if i < 0 {
		return false
	}
	h.keys = slices.Delete(h.keys, i, i+1)
	return true
}

// Restore replaces the contents with keys, most recent first, keeping the
// first occurrence of each.
func (h *History) Restore(keys []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = h.keys[:0]
	for _, k := range keys {
		if len(h.keys) == h.limit {
			break
		}
		if !slices.Contains(h.keys, k) {
			h.keys = append(h.keys, k)
		}
	}
}

// Clear removes every key.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = h.keys[:0]
}

// Len returns the number of keys.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}
