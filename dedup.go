package webbridge

import "sync"

// Deduper suppresses redelivery of inbound message IDs.
//
// It remembers the most recent IDs in a bounded window. With the default size
// of one it only holds the last seen ID, so a duplicate is dropped only when it
// arrives right after its original; there is no general replay cache.
type Deduper struct {
	mu   sync.Mutex
	size int
	ring []string
	next int
}

// NewDeduper creates a deduper remembering the last size IDs.
// Sizes below one are treated as one.
func NewDeduper(size int) *Deduper {
	if size < 1 {
		size = 1
	}
	return &Deduper{size: size}
}

// Seen reports whether id is a duplicate and records it otherwise.
// Empty IDs are never duplicates and leave the window unchanged.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, v := range d.ring {
		if v == id {
			return true
		}
	}

	if len(d.ring) < d.size {
		d.ring = append(d.ring, id)
		return false
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % d.size
	return false
}

// Last returns the most recently recorded ID.
func (d *Deduper) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.ring) == 0 {
		return ""
	}
	if len(d.ring) < d.size {
		return d.ring[len(d.ring)-1]
	}
	return d.ring[(d.next+d.size-1)%d.size]
}

// Reset forgets every recorded ID.
func (d *Deduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ring = nil
	d.next = 0
}
