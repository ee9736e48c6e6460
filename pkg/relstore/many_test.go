package relstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects every violation it receives
type recordingSink struct {
	mu         sync.Mutex
	violations []Violation
}

func (s *recordingSink) Notify(v Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, v)
}

func (s *recordingSink) all() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Violation(nil), s.violations...)
}

func TestMany_AppendsInOrder(t *testing.T) {
	p := NewPartition("Sphere")
	skills := NewMany[ID, ID](p, "skill", nil)
	id := p.Next()

	for _, v := range []ID{3, 1, 2, 1} {
		assert.True(t, skills.Define(id, v))
	}

	assert.Equal(t, []ID{3, 1, 2, 1}, skills.Get(id))
	assert.Equal(t, 4, skills.Len(id))
	assert.Equal(t, 0, skills.Limit())
	assert.Equal(t, "skill", skills.Name())
}

func TestMany_GetReturnsCopy(t *testing.T) {
	skills := NewMany[ID, ID](NewPartition("Sphere"), "skill", nil)
	skills.Define(0, 7)

	got := skills.Get(0)
	got[0] = 99

	assert.Equal(t, []ID{7}, skills.Get(0))
}

func TestMany_GetUndefined(t *testing.T) {
	skills := NewMany[ID, ID](NewPartition("Sphere"), "skill", nil)

	assert.Nil(t, skills.Get(5))
	assert.Equal(t, 0, skills.Len(5))
}

func TestMany_Clear(t *testing.T) {
	skills := NewMany[ID, ID](NewPartition("Sphere"), "skill", nil)
	skills.Define(0, 1)
	skills.Define(1, 2)

	skills.Clear(0)

	assert.Nil(t, skills.Get(0))
	assert.Equal(t, []ID{2}, skills.Get(1))
}

func TestMany_LimitReject(t *testing.T) {
	sink := &recordingSink{}
	p := NewPartition("Sphere")
	skills := NewMany[ID, ID](p, "skill", sink, WithLimit(2))
	id := p.Next()

	assert.True(t, skills.Define(id, 1))
	assert.True(t, skills.Define(id, 2))
	assert.Empty(t, sink.all())

	assert.False(t, skills.Define(id, 3))
	assert.Equal(t, []ID{1, 2}, skills.Get(id))

	violations := sink.all()
	require.Len(t, violations, 1)
	assert.Equal(t, Violation{
		Concept:  "Sphere",
		Relation: "skill",
		SourceID: id,
		Limit:    2,
		Count:    3,
		Policy:   LimitReject,
	}, violations[0])
	assert.True(t, violations[0].Rejected())
}

func TestMany_LimitWarn(t *testing.T) {
	sink := &recordingSink{}
	p := NewPartition("Sphere")
	skills := NewMany[ID, ID](p, "skill", sink, WithLimit(1), WithPolicy(LimitWarn))
	id := p.Next()

	assert.True(t, skills.Define(id, 1))
	assert.True(t, skills.Define(id, 2))
	assert.True(t, skills.Define(id, 3))

	assert.Equal(t, []ID{1, 2, 3}, skills.Get(id))

	violations := sink.all()
	require.Len(t, violations, 2)
	assert.Equal(t, 2, violations[0].Count)
	assert.Equal(t, 3, violations[1].Count)
	assert.False(t, violations[1].Rejected())
}

func TestMany_LimitIsPerSource(t *testing.T) {
	sink := &recordingSink{}
	p := NewPartition("Sphere")
	skills := NewMany[ID, ID](p, "skill", sink, WithLimit(1))

	a := p.Next()
	b := p.Next()

	assert.True(t, skills.Define(a, 1))
	assert.True(t, skills.Define(b, 1))
	assert.Empty(t, sink.all())
}

func TestMany_ClearResetsLimit(t *testing.T) {
	p := NewPartition("Sphere")
	skills := NewMany[ID, ID](p, "skill", nil, WithLimit(1))
	id := p.Next()

	assert.True(t, skills.Define(id, 1))
	assert.False(t, skills.Define(id, 2))

	ClearAll[ID](p, id, skills)

	assert.True(t, skills.Define(id, 3))
	assert.Equal(t, []ID{3}, skills.Get(id))
}

func TestMany_SinkMayUseStore(t *testing.T) {
	p := NewPartition("Sphere")
	var skills *Many[ID, ID]
	cleared := false

	sink := SinkFunc(func(v Violation) {
		// runs without locks held, so touching the partition must not deadlock
		ClearAll[ID](p, v.SourceID.(ID), skills)
		cleared = true
	})
	skills = NewMany[ID, ID](p, "skill", sink, WithLimit(1))
	id := p.Next()

	skills.Define(id, 1)
	skills.Define(id, 2)

	assert.True(t, cleared)
	assert.Nil(t, skills.Get(id))
}

func TestMany_ConcurrentDefineRespectsLimit(t *testing.T) {
	sink := &recordingSink{}
	p := NewPartition("Sphere")
	skills := NewMany[ID, int](p, "skill", sink, WithLimit(10))
	id := p.Next()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			skills.Define(id, i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, skills.Len(id))
	assert.Len(t, sink.all(), 40)
}
