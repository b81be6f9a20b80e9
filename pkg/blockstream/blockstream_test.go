package blockstream

import (
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

const (
	testElemSize   = 4
	testBlockElems = 4096
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stream.bin"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func payload(t *testing.T, elems int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(elems)))
	buf := make([]byte, elems*testElemSize)
	for i := 0; i < elems; i++ {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(rng.Intn(500)))
	}
	return buf
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, elems := range []int{1, testBlockElems - 1, testBlockElems, testBlockElems + 1, 3*testBlockElems + 17} {
		for _, level := range []int{0, 25, 50, 75, 100} {
			src := payload(t, elems)
			plan := compress.PlanFor(compress.KindInt32, level)

			f := tempFile(t)
			require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))

			dst := make([]byte, len(src))
			err := Read(f, dst, 0, 0, elems, elems, testElemSize, testBlockElems)
			require.NoError(t, err)
			require.Equal(t, src, dst, "elems=%d level=%d", elems, level)
		}
	}
}

func TestPartialRead(t *testing.T) {
	elems := 3*testBlockElems + 5
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 50)

	f := tempFile(t)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))

	ranges := [][2]int{
		{0, 1},
		{testBlockElems - 2, 5},            // straddles block 0 and 1
		{testBlockElems, testBlockElems},   // exactly block 1
		{1, elems - 1},                     // everything except the first element
		{elems - 1, 1},                     // last element only
		{2 * testBlockElems, testBlockElems + 5},
	}
	for _, r := range ranges {
		first, n := r[0], r[1]
		dst := make([]byte, n*testElemSize)
		require.NoError(t, Read(f, dst, 0, first, n, elems, testElemSize, testBlockElems))
		assert.Equal(t, src[first*testElemSize:(first+n)*testElemSize], dst, "range %v", r)
	}
}

func TestStreamAtNonZeroOffset(t *testing.T) {
	elems := testBlockElems + 100
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 30)

	f := tempFile(t)
	// Simulate preceding file content; all index offsets must stay absolute.
	_, err := f.Write(make([]byte, 333))
	require.NoError(t, err)

	colOffset, err := f.Seek(0, 1)
	require.NoError(t, err)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))

	dst := make([]byte, len(src))
	require.NoError(t, Read(f, dst, colOffset, 0, elems, elems, testElemSize, testBlockElems))
	assert.Equal(t, src, dst)
}

func TestIndexMonotonicity(t *testing.T) {
	elems := 5 * testBlockElems
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 75)

	f := tempFile(t)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))
	end, err := f.Seek(0, 1)
	require.NoError(t, err)

	nBlocks := BlockCount(elems, testBlockElems)
	entries, err := ReadEntries(f, 0, 0, nBlocks, nBlocks)
	require.NoError(t, err)
	require.Len(t, entries, nBlocks)

	// Blocks are contiguous right after the index, and the index region plus
	// the compressed sizes accounts for the whole on-disk extent.
	var total uint64 = uint64(nBlocks) * EntrySize
	prev := uint64(0)
	for i, e := range entries {
		assert.Greater(t, e.Offset, prev, "block %d", i)
		prev = e.Offset
		total += uint64(e.CompSize)
	}
	assert.Equal(t, entries[0].Offset, uint64(nBlocks)*EntrySize)
	assert.Equal(t, uint64(end), total)
}

func TestCorruptIndexRejected(t *testing.T) {
	elems := 3 * testBlockElems
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 0)

	f := tempFile(t)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))

	// Swap the offsets of blocks 0 and 1.
	nBlocks := BlockCount(elems, testBlockElems)
	entries, err := ReadEntries(f, 0, 0, nBlocks, nBlocks)
	require.NoError(t, err)

	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], entries[1].Offset)
	_, err = f.WriteAt(raw[:], 0)
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(raw[:], entries[0].Offset)
	_, err = f.WriteAt(raw[:], EntrySize)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	err = Read(f, dst, 0, 0, elems, elems, testElemSize, testBlockElems)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeFormat))
}

func TestUnknownCodecRejected(t *testing.T) {
	elems := testBlockElems
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 0)

	f := tempFile(t)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))

	// Overwrite the algo id of block 0 with garbage.
	var raw [2]byte
	binary.LittleEndian.PutUint16(raw[:], 999)
	_, err := f.WriteAt(raw[:], 12)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	err = Read(f, dst, 0, 0, elems, elems, testElemSize, testBlockElems)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeCodec))
}

func TestShortFileRejected(t *testing.T) {
	elems := testBlockElems
	src := payload(t, elems)
	plan := compress.PlanFor(compress.KindInt32, 0)

	f := tempFile(t)
	require.NoError(t, Write(f, src, elems, testElemSize, testBlockElems, plan))
	end, err := f.Seek(0, 1)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(end-10))

	dst := make([]byte, len(src))
	err = Read(f, dst, 0, 0, elems, elems, testElemSize, testBlockElems)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeIO))
}

func TestWriterUnderflowRejected(t *testing.T) {
	f := tempFile(t)
	w, err := NewIndexedWriter(f, 2)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte{1, 2, 3}, compress.AlgoIdentity))

	err = w.Finish()
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeFormat))
}
