package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedPool(t *testing.T) {
	type scratch struct{ data []byte }

	resets := 0
	p := New(
		func() *scratch { return &scratch{data: make([]byte, 0, 64)} },
		func(s *scratch) { s.data = s.data[:0]; resets++ },
	)

	s := p.Get()
	s.data = append(s.data, 1, 2, 3)
	p.Put(s)
	assert.Equal(t, 1, resets)

	s2 := p.Get()
	assert.Empty(t, s2.data)
	p.Put(s2)

	allocated, inUse := p.Stats()
	assert.GreaterOrEqual(t, allocated, int64(1))
	assert.Equal(t, int64(0), inUse)
}

func TestGetBufferSizes(t *testing.T) {
	for _, size := range []int{0, 1, 100, 4096, 4097, 16384, maxBufferBucket, maxBufferBucket + 1} {
		buf := GetBuffer(size)
		require.Len(t, buf, size)
		PutBuffer(buf)
	}
}

func TestBufferReuse(t *testing.T) {
	buf := GetBuffer(8192)
	require.GreaterOrEqual(t, cap(buf), 8192)
	for i := range buf {
		buf[i] = 0xAB
	}
	PutBuffer(buf)

	// A fresh request of the same size must come back with the full length
	// regardless of what the previous user left behind.
	buf2 := GetBuffer(8192)
	assert.Len(t, buf2, 8192)
	PutBuffer(buf2)
}
