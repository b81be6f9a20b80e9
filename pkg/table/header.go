package table

import (
	"encoding/binary"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// File identification and the table header layout. The header is realized
// as read/write functions against a byte slice at explicit offsets; the
// offsets below are normative for the format.
//
//	0   : int32      nrOfCols
//	4   : int32      keyLength
//	8   : uint32     version
//	12  : uint32     chunksPerIndexRow
//	16  : uint64     FST_FILE_ID
//	24  : uint64[8]  chunkPos
//	88  : uint64[8]  chunkRows
//	152 : uint32     chunksUsed
//	156 : int32[K]   keyColPos
//	156+4K : uint16[C] colTypes

const (
	// FileID identifies an fst file. Files without it are treated as the
	// legacy pre-magic format.
	FileID uint64 = 0xA91C12F8B245A71D

	// FormatVersion is the current table header schema version.
	FormatVersion uint32 = 1

	// TableMetaSize is the fixed header prefix read to validate magic and
	// version.
	TableMetaSize = 24

	// chunkSlots is the reserved size of the chunk index. The current
	// format uses exactly one chunk.
	chunkSlots = 8
)

// metaSize returns the full metadata block size for a table of cols
// columns and keys key columns.
func metaSize(cols, keys int) int {
	return 156 + 4*keys + 2*cols
}

type header struct {
	nrOfCols          int32
	keyLength         int32
	version           uint32
	chunksPerIndexRow uint32
	chunkPos          [chunkSlots]uint64
	chunkRows         [chunkSlots]uint64
	chunksUsed        uint32
	keyColPos         []int32
	colTypes          []column.Type
}

// encode serializes the header into a fresh metadata block.
func (h *header) encode() []byte {
	buf := make([]byte, metaSize(int(h.nrOfCols), int(h.keyLength)))
	binary.LittleEndian.PutUint32(buf[0:], uint32(h.nrOfCols))
	binary.LittleEndian.PutUint32(buf[4:], uint32(h.keyLength))
	binary.LittleEndian.PutUint32(buf[8:], h.version)
	binary.LittleEndian.PutUint32(buf[12:], h.chunksPerIndexRow)
	binary.LittleEndian.PutUint64(buf[16:], FileID)
	for i := 0; i < chunkSlots; i++ {
		binary.LittleEndian.PutUint64(buf[24+8*i:], h.chunkPos[i])
		binary.LittleEndian.PutUint64(buf[88+8*i:], h.chunkRows[i])
	}
	binary.LittleEndian.PutUint32(buf[152:], h.chunksUsed)
	for i, k := range h.keyColPos {
		binary.LittleEndian.PutUint32(buf[156+4*i:], uint32(k))
	}
	typesOff := 156 + 4*int(h.keyLength)
	for i, t := range h.colTypes {
		binary.LittleEndian.PutUint16(buf[typesOff+2*i:], uint16(t))
	}
	return buf
}

// decodeFixed parses the 24-byte fixed prefix. A magic mismatch reports
// ok=false so the caller can dispatch to the legacy reader.
func decodeFixed(buf []byte) (h header, ok bool) {
	h.nrOfCols = int32(binary.LittleEndian.Uint32(buf[0:]))
	h.keyLength = int32(binary.LittleEndian.Uint32(buf[4:]))
	h.version = binary.LittleEndian.Uint32(buf[8:])
	h.chunksPerIndexRow = binary.LittleEndian.Uint32(buf[12:])
	ok = binary.LittleEndian.Uint64(buf[16:]) == FileID
	return h, ok
}

// decodeVariable parses the variable metadata block (everything after the
// fixed prefix) into h.
func (h *header) decodeVariable(buf []byte) error {
	if h.nrOfCols < 1 || h.keyLength < 0 {
		return fsterrors.New(fsterrors.ErrorTypeFormat, "damaged table header")
	}
	want := metaSize(int(h.nrOfCols), int(h.keyLength)) - TableMetaSize
	if len(buf) < want {
		return fsterrors.New(fsterrors.ErrorTypeFormat, "damaged table header")
	}

	for i := 0; i < chunkSlots; i++ {
		h.chunkPos[i] = binary.LittleEndian.Uint64(buf[8*i:])
		h.chunkRows[i] = binary.LittleEndian.Uint64(buf[64+8*i:])
	}
	h.chunksUsed = binary.LittleEndian.Uint32(buf[128:])

	h.keyColPos = make([]int32, h.keyLength)
	for i := range h.keyColPos {
		h.keyColPos[i] = int32(binary.LittleEndian.Uint32(buf[132+4*i:]))
		if h.keyColPos[i] < 0 || h.keyColPos[i] >= h.nrOfCols {
			return fsterrors.Newf(fsterrors.ErrorTypeFormat, "key column index %d out of range", h.keyColPos[i])
		}
	}

	typesOff := 132 + 4*int(h.keyLength)
	h.colTypes = make([]column.Type, h.nrOfCols)
	for i := range h.colTypes {
		h.colTypes[i] = column.Type(binary.LittleEndian.Uint16(buf[typesOff+2*i:]))
	}
	return nil
}
