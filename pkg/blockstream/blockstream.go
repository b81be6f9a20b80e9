// Package blockstream reads and writes a column's payload as a sequence of
// independently compressed blocks preceded by a per-column block index.
//
// On disk a column is laid out as
//
//	index: nBlocks entries of 16 bytes
//	       uint64 offset (absolute), uint32 compSize, uint16 algoID, uint16 flags
//	blocks, in ascending block order
//
// The writer reserves the index region by seeking past it and patches it
// exactly once when the column completes, so all offsets are absolute and a
// reader can seek straight to the blocks covering a requested element
// range.
package blockstream

import (
	"encoding/binary"
	"io"

	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/metrics"
)

// EntrySize is the on-disk size of one block index entry.
const EntrySize = 16

// Entry is one block index record.
type Entry struct {
	Offset   uint64
	CompSize uint32
	Algo     compress.AlgoID
	Flags    uint16
}

func (e Entry) encode(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], e.Offset)
	binary.LittleEndian.PutUint32(b[8:], e.CompSize)
	binary.LittleEndian.PutUint16(b[12:], uint16(e.Algo))
	binary.LittleEndian.PutUint16(b[14:], e.Flags)
}

func decodeEntry(b []byte) Entry {
	return Entry{
		Offset:   binary.LittleEndian.Uint64(b[0:]),
		CompSize: binary.LittleEndian.Uint32(b[8:]),
		Algo:     compress.AlgoID(binary.LittleEndian.Uint16(b[12:])),
		Flags:    binary.LittleEndian.Uint16(b[14:]),
	}
}

// BlockCount returns the number of blocks covering totalElems elements.
func BlockCount(totalElems, blockElems int) int {
	return (totalElems + blockElems - 1) / blockElems
}

// IndexedWriter emits blocks and maintains the index region in front of
// them. Used directly by codecs with variable-size block payloads
// (character data); fixed-size columns go through Write.
type IndexedWriter struct {
	ws       io.WriteSeeker
	indexPos int64
	cur      int64
	nBlocks  int
	entries  []Entry
	finished bool
}

// NewIndexedWriter records the current sink position as the index start and
// seeks past the reserved index region.
func NewIndexedWriter(ws io.WriteSeeker, nBlocks int) (*IndexedWriter, error) {
	indexPos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "positioning block index")
	}
	cur := indexPos + int64(nBlocks)*EntrySize
	if _, err := ws.Seek(cur, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "reserving block index")
	}
	return &IndexedWriter{
		ws:       ws,
		indexPos: indexPos,
		cur:      cur,
		nBlocks:  nBlocks,
		entries:  make([]Entry, 0, nBlocks),
	}, nil
}

// Append writes one compressed block and records its index entry.
func (w *IndexedWriter) Append(block []byte, algo compress.AlgoID) error {
	if len(w.entries) >= w.nBlocks {
		return fsterrors.Newf(fsterrors.ErrorTypeFormat,
			"block stream overflow: %d blocks reserved", w.nBlocks)
	}

	entry := Entry{
		Offset:   uint64(w.cur),
		CompSize: uint32(len(block)),
		Algo:     algo,
	}
	if _, err := w.ws.Write(block); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "writing column block")
	}
	w.cur += int64(len(block))
	w.entries = append(w.entries, entry)

	metrics.BlocksWritten.WithLabelValues(algo.String()).Inc()
	metrics.BytesWritten.Add(float64(len(block)))
	return nil
}

// Finish patches the index region and restores the sink position to the end
// of the block data. Must be called exactly once, after all blocks.
func (w *IndexedWriter) Finish() error {
	if w.finished {
		return fsterrors.New(fsterrors.ErrorTypeFormat, "block index patched twice")
	}
	if len(w.entries) != w.nBlocks {
		return fsterrors.Newf(fsterrors.ErrorTypeFormat,
			"block stream underflow: %d of %d blocks written", len(w.entries), w.nBlocks)
	}
	w.finished = true

	if w.nBlocks == 0 {
		return nil
	}

	buf := make([]byte, w.nBlocks*EntrySize)
	for i, e := range w.entries {
		e.encode(buf[i*EntrySize:])
	}
	if _, err := w.ws.Seek(w.indexPos, io.SeekStart); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to block index")
	}
	if _, err := w.ws.Write(buf); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "patching block index")
	}
	if _, err := w.ws.Seek(w.cur, io.SeekStart); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "restoring sink position")
	}
	return nil
}

// ReadEntries reads and validates the index entries for blocks
// [firstBlock, firstBlock+count) of a column whose index region starts at
// colOffset and holds nBlocks entries.
func ReadEntries(rs io.ReadSeeker, colOffset int64, firstBlock, count, nBlocks int) ([]Entry, error) {
	if firstBlock < 0 || firstBlock+count > nBlocks {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
			"block range %d..%d outside index of %d blocks", firstBlock, firstBlock+count, nBlocks)
	}
	if count == 0 {
		return nil, nil
	}

	if _, err := rs.Seek(colOffset+int64(firstBlock)*EntrySize, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to block index")
	}
	buf := make([]byte, count*EntrySize)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "short read on block index")
	}

	dataStart := uint64(colOffset) + uint64(nBlocks)*EntrySize
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = decodeEntry(buf[i*EntrySize:])
		if entries[i].Offset < dataStart {
			return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
				"corrupt block index: block %d offset %d inside index region",
				firstBlock+i, entries[i].Offset)
		}
		if i > 0 && entries[i].Offset <= entries[i-1].Offset {
			return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
				"corrupt block index: non-monotonic offset at block %d", firstBlock+i)
		}
	}
	return entries, nil
}

// ReadBlockBody reads the compressed bytes of one block into buf, which
// must have length entry.CompSize.
func ReadBlockBody(rs io.ReadSeeker, entry Entry, buf []byte) error {
	if _, err := rs.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to column block")
	}
	if _, err := io.ReadFull(rs, buf); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "short read on column block")
	}
	metrics.BlocksRead.WithLabelValues(entry.Algo.String()).Inc()
	metrics.BytesRead.Add(float64(len(buf)))
	return nil
}
