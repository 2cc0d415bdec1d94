package engine

import (
	"github.com/IshaanNene/RivalScope/internal/marketplace"
)

// Deduplicator collects catalog ids in first-seen order, ignoring repeats.
// It is not safe for concurrent use.
type Deduplicator struct {
	seen  map[string]struct{}
	order []string
}

// NewDeduplicator creates a new Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen:  make(map[string]struct{}, estimatedCapacity),
		order: make([]string, 0, estimatedCapacity),
	}
}

// Add records id and reports whether it was new. Empty ids are ignored.
func (d *Deduplicator) Add(id string) bool {
	id = marketplace.NormalizeID(id)
	if id == "" {
		return false
	}
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return true
}

// MarkSeen excludes id without adding it to the ordered list.
func (d *Deduplicator) MarkSeen(id string) {
	d.seen[marketplace.NormalizeID(id)] = struct{}{}
}

// Count returns the number of ids added.
func (d *Deduplicator) Count() int {
	return len(d.order)
}

// IDs returns the added ids in first-seen order.
func (d *Deduplicator) IDs() []string {
	return append([]string(nil), d.order...)
}
