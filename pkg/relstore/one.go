package relstore

import "sync"

// One is a one-to-one relation table: each source identifier maps to at most one value
type One[K comparable, V any] struct {
	part    *Partition
	name    string
	mu      sync.RWMutex
	entries map[K]V
}

// NewOne creates a one-to-one table in partition p
func NewOne[K comparable, V any](p *Partition, name string) *One[K, V] {
	return &One[K, V]{
		part:    orNewPartition(p),
		name:    name,
		entries: make(map[K]V),
	}
}

// Name returns the table name
func (t *One[K, V]) Name() string {
	return t.name
}

// Define sets the value of id, replacing any previous value
func (t *One[K, V]) Define(id K, value V) {
	t.part.mu.RLock()
	defer t.part.mu.RUnlock()

	t.mu.Lock()
	t.entries[id] = value
	t.mu.Unlock()
}

// Get returns the value of id and whether it is defined
func (t *One[K, V]) Get(id K) (V, bool) {
	t.part.mu.RLock()
	defer t.part.mu.RUnlock()

	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.entries[id]
	return value, ok
}

// Has reports whether id has a value
func (t *One[K, V]) Has(id K) bool {
	_, ok := t.Get(id)
	return ok
}

func (t *One[K, V]) reset(id K) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}
