package compress

import (
	"encoding/binary"
	"math"

	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// LOGIC64 packs three-state booleans at a fixed 16:1 ratio. The in-memory
// representation is one int32 per value (0 false, 1 true, math.MinInt32
// missing); on disk each value occupies 2 bits of a little-endian uint32
// word, value i at bits 2i..2i+1:
//
//	00 false, 01 true, 10 missing
//
// The final partial word is zero-padded, so the unpacked length must be
// supplied by the caller (it is implied by the block element count).

const logicalMissing = math.MinInt32

// logic64PackedLen returns the packed byte length for srcLen bytes of
// int32 input.
func logic64PackedLen(srcLen int) int {
	elems := srcLen / 4
	words := (elems + 15) / 16
	return words * 4
}

// logic64Pack packs src (int32 values as little-endian bytes) into dst and
// returns the number of bytes written.
func logic64Pack(dst, src []byte) int {
	elems := len(src) / 4
	words := (elems + 15) / 16

	for w := 0; w < words; w++ {
		var word uint32
		base := w * 16
		limit := elems - base
		if limit > 16 {
			limit = 16
		}
		for i := 0; i < limit; i++ {
			v := int32(binary.LittleEndian.Uint32(src[(base+i)*4:]))
			switch {
			case v == logicalMissing:
				word |= 2 << uint(2*i)
			case v != 0:
				word |= 1 << uint(2*i)
			}
		}
		binary.LittleEndian.PutUint32(dst[w*4:], word)
	}

	return words * 4
}

// logic64Unpack expands packed words into dst, which must hold the exact
// unpacked length (a multiple of 4).
func logic64Unpack(dst, src []byte) error {
	elems := len(dst) / 4
	if logic64PackedLen(len(dst)) != len(src) {
		return fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"logic64 block length mismatch: %d packed bytes for %d values", len(src), elems)
	}

	for i := 0; i < elems; i++ {
		word := binary.LittleEndian.Uint32(src[(i/16)*4:])
		bits := (word >> uint(2*(i%16))) & 3

		var v int32
		switch bits {
		case 1:
			v = 1
		case 2:
			v = logicalMissing
		}
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
	}

	return nil
}
