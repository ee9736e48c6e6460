package relstore

import (
	"slices"
	"sync"
)

// Many is a one-to-many relation table: each source identifier maps to an ordered,
// append-only sequence of values, optionally bounded by a limit
type Many[K comparable, V any] struct {
	part    *Partition
	name    string
	limit   int
	policy  LimitPolicy
	sink    Sink
	mu      sync.RWMutex
	entries map[K][]V
}

// ManyOption configures a Many table
type ManyOption func(*manyConfig)

type manyConfig struct {
	limit  int
	policy LimitPolicy
}

// WithLimit bounds the number of values per source identifier. n <= 0 means unbounded.
func WithLimit(n int) ManyOption {
	return func(c *manyConfig) {
		c.limit = n
	}
}

// WithPolicy sets what happens to a value that would exceed the limit
func WithPolicy(policy LimitPolicy) ManyOption {
	return func(c *manyConfig) {
		c.policy = policy
	}
}

// NewMany creates a one-to-many table in partition p. Limit violations are reported to sink.
func NewMany[K comparable, V any](p *Partition, name string, sink Sink, opts ...ManyOption) *Many[K, V] {
	cfg := manyConfig{policy: LimitReject}
	for _, opt := range opts {
		opt(&cfg)
	}
	if sink == nil {
		sink = Discard
	}

	return &Many[K, V]{
		part:    orNewPartition(p),
		name:    name,
		limit:   cfg.limit,
		policy:  cfg.policy,
		sink:    sink,
		entries: make(map[K][]V),
	}
}

// Name returns the table name
func (t *Many[K, V]) Name() string {
	return t.name
}

// Limit returns the limit of the table, 0 when unbounded
func (t *Many[K, V]) Limit() int {
	return t.limit
}

// Define appends value to the sequence of id. When the append would exceed the limit the
// violation is reported to the sink; under LimitReject the value is dropped and Define
// returns false, under LimitWarn it is appended anyway.
func (t *Many[K, V]) Define(id K, value V) bool {
	t.part.mu.RLock()
	t.mu.Lock()

	count := len(t.entries[id]) + 1
	violated := t.limit > 0 && count > t.limit
	accepted := !violated || t.policy == LimitWarn
	if accepted {
		t.entries[id] = append(t.entries[id], value)
	}

	t.mu.Unlock()
	t.part.mu.RUnlock()

	// The sink runs without locks held so it may use the store.
	if violated {
		t.sink.Notify(Violation{
			Concept:  t.part.Concept(),
			Relation: t.name,
			SourceID: id,
			Limit:    t.limit,
			Count:    count,
			Policy:   t.policy,
		})
	}

	return accepted
}

// Get returns a copy of the sequence of id, nil when nothing is defined
func (t *Many[K, V]) Get(id K) []V {
	t.part.mu.RLock()
	defer t.part.mu.RUnlock()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.entries[id])
}

// Len returns the number of values defined for id
func (t *Many[K, V]) Len(id K) int {
	t.part.mu.RLock()
	defer t.part.mu.RUnlock()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries[id])
}

// Clear removes the whole sequence of id
func (t *Many[K, V]) Clear(id K) {
	t.part.mu.RLock()
	defer t.part.mu.RUnlock()

	t.reset(id)
}

func (t *Many[K, V]) reset(id K) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}
