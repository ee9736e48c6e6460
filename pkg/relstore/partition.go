// Package relstore is the runtime of modules generated by relgen.
//
// A generated module owns one Partition per concept and one table per relation:
// One for "->" relations and Many for "->>" relations. Tables are keyed by the
// identifier of the source concept. Every table guards its entries with its own
// lock; the partition lock is held shared by table operations and exclusively by
// ClearAll, so clearing an instance is atomic across the concept's tables.
package relstore

import (
	"sync"
	"sync/atomic"
)

// ID is a surrogate identifier produced by a concept's sequence
type ID uint64

// Partition holds the identifier sequence of one concept and coordinates its tables
type Partition struct {
	concept string
	next    atomic.Uint64
	mu      sync.RWMutex
}

// NewPartition creates the partition of the named concept
func NewPartition(concept string) *Partition {
	return &Partition{concept: concept}
}

// Concept returns the concept name
func (p *Partition) Concept() string {
	return p.concept
}

// Next returns the current sequence value and advances the sequence.
// The first value is 0 and values are never reused.
func (p *Partition) Next() ID {
	return ID(p.next.Add(1) - 1)
}

// peek returns the value the next call to Next will return
func (p *Partition) peek() ID {
	return ID(p.next.Load())
}

// Table is a relation table that can be cleared for one source identifier
type Table[K comparable] interface {
	// Name returns the table name (the lower-cased target name)
	Name() string

	reset(id K)
}

// ClearAll removes the entries of id from every table in one step.
// The identifier sequence of the partition is not touched.
func ClearAll[K comparable](p *Partition, id K, tables ...Table[K]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range tables {
		t.reset(id)
	}
}

func orNewPartition(p *Partition) *Partition {
	if p == nil {
		return NewPartition("")
	}
	return p
}
