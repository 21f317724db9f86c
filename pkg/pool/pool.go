// Package pool provides typed object pools for strata.
//
// Example usage:
//
//	batches := pool.NewSlicePool[csv.Record](1024)
//	batch := batches.Get()
//	defer batches.Put(batch)
//
//	// Using custom pools
//	bufs := pool.New(
//	    func() *bytes.Buffer { return new(bytes.Buffer) },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
//	buf := bufs.Get()
//	defer bufs.Put(buf)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated atomic.Int64
		inUse     atomic.Int64
		gets      atomic.Int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The reset function, when not nil, is called before an object goes back to
// the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() any {
		p.stats.allocated.Add(1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, creating one when the pool is empty.
func (p *Pool[T]) Get() T {
	p.stats.inUse.Add(1)
	p.stats.gets.Add(1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.stats.inUse.Add(-1)
	p.pool.Put(obj)
}

// Stats returns current pool statistics.
//
// Returns:
//   - allocated: Total number of objects created by the pool
//   - inUse: Number of objects currently checked out from the pool
//   - hits: Number of Get calls served by a recycled object
//   - misses: Number of Get calls that had to allocate
func (p *Pool[T]) Stats() (allocated, inUse, hits, misses int64) {
	allocated = p.stats.allocated.Load()
	gets := p.stats.gets.Load()
	return allocated, p.stats.inUse.Load(), max(gets-allocated, 0), allocated
}

// SlicePool recycles slices of T with a fixed starting capacity. Returned
// slices are cleared so pooled elements do not pin memory.
type SlicePool[T any] struct {
	p *Pool[*[]T]
}

// NewSlicePool creates a pool whose fresh slices have the given capacity.
func NewSlicePool[T any](capacity int) *SlicePool[T] {
	return &SlicePool[T]{p: New(
		func() *[]T {
			s := make([]T, 0, capacity)
			return &s
		},
		func(s *[]T) {
			clear((*s)[:cap(*s)])
			*s = (*s)[:0]
		},
	)}
}

// Get returns an empty slice.
func (p *SlicePool[T]) Get() []T {
	return *p.p.Get()
}

// Put returns s to the pool. s must not be used afterwards.
func (p *SlicePool[T]) Put(s []T) {
	p.p.Put(&s)
}

// Stats reports the statistics of the underlying pool.
func (p *SlicePool[T]) Stats() (allocated, inUse, hits, misses int64) {
	return p.p.Stats()
}
