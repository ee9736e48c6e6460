package relmetrics

import (
	"sync"
	"sync/atomic"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// Collector counts limit violations per relation. It implements relstore.Sink.
type Collector struct {
	violations sync.Map // map[string]*uint64 - "Concept.relation" -> count
	rejections sync.Map // map[string]*uint64 - "Concept.relation" -> rejected count
	total      atomic.Uint64
}

// ViolationMetrics holds a snapshot of the collector
type ViolationMetrics struct {
	Total      uint64
	Violations map[string]uint64
	Rejections map[string]uint64
}

// NewCollector creates a new violation collector
func NewCollector() *Collector {
	return &Collector{}
}

// Notify records a violation
func (c *Collector) Notify(v relstore.Violation) {
	key := RelationKey(v.Concept, v.Relation)
	atomic.AddUint64(c.getOrCreateCounter(&c.violations, key), 1)
	if v.Rejected() {
		atomic.AddUint64(c.getOrCreateCounter(&c.rejections, key), 1)
	}
	c.total.Add(1)
}

// Snapshot returns the current counts
func (c *Collector) Snapshot() *ViolationMetrics {
	result := &ViolationMetrics{
		Total:      c.total.Load(),
		Violations: make(map[string]uint64),
		Rejections: make(map[string]uint64),
	}

	c.violations.Range(func(key, value interface{}) bool {
		result.Violations[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})
	c.rejections.Range(func(key, value interface{}) bool {
		result.Rejections[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	return result
}

// RelationKey returns the key a relation is counted under
func RelationKey(concept, relation string) string {
	return concept + "." + relation
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
