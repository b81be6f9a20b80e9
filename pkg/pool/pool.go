// Package pool provides object pooling for fst's hot paths. Decompression
// scratch buffers are the main consumer: a column read needs one scratch
// buffer of blockElems*elemSize bytes, reused across all blocks of the
// column instead of being allocated per block.
//
// Example usage:
//
//	buf := pool.GetBuffer(16384)
//	defer pool.PutBuffer(buf)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic type-safe object pool wrapping sync.Pool with usage
// statistics and an optional reset hook. Safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
	}
}

// New creates a typed pool. The new function is called when the pool is
// empty; reset (optional) is called before an object is returned to the
// pool.
func New[T any](newFunc func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFunc()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool after resetting it.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the number of objects allocated by the pool and the number
// currently checked out.
func (p *Pool[T]) Stats() (allocated, inUse int64) {
	return atomic.LoadInt64(&p.stats.allocated), atomic.LoadInt64(&p.stats.inUse)
}

// Byte-buffer pooling with size buckets. Buckets are powers of two from 4KB
// to 1MB; requests larger than the largest bucket are allocated directly.

const (
	minBufferBucket = 4 * 1024
	maxBufferBucket = 1024 * 1024
)

var bufferPools = func() []*Pool[*[]byte] {
	var pools []*Pool[*[]byte]
	for size := minBufferBucket; size <= maxBufferBucket; size *= 2 {
		sz := size
		pools = append(pools, New(
			func() *[]byte {
				b := make([]byte, sz)
				return &b
			},
			nil,
		))
	}
	return pools
}()

func bucketIndex(size int) int {
	idx := 0
	for sz := minBufferBucket; sz < size; sz *= 2 {
		idx++
	}
	return idx
}

// GetBuffer returns a byte slice of at least size bytes, length set to
// size. Return it with PutBuffer when done.
func GetBuffer(size int) []byte {
	if size > maxBufferBucket {
		return make([]byte, size)
	}
	bucket := bucketIndex(size)
	buf := *bufferPools[bucket].Get()
	return buf[:size]
}

// PutBuffer returns a buffer obtained from GetBuffer to its pool. Oversized
// buffers are dropped for the garbage collector.
func PutBuffer(buf []byte) {
	size := cap(buf)
	if size < minBufferBucket || size > maxBufferBucket {
		return
	}
	// Only pool buffers whose capacity matches a bucket exactly, otherwise a
	// later Get would return a short slice.
	bucket := bucketIndex(size)
	if bucket >= len(bufferPools) || size != minBufferBucket<<bucket {
		return
	}
	full := buf[:size]
	bufferPools[bucket].Put(&full)
}
