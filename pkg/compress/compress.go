// Package compress implements the byte-compression layer of the fst format:
// the stable on-disk algorithm identifiers, the stateless compress and
// decompress entry points, and the planner that maps a user-visible
// compression level to a per-block codec pipeline.
//
// Two third-party codecs are wrapped: LZ4 block compression
// (github.com/pierrec/lz4/v4) as the fast arm and Zstandard
// (github.com/klauspost/compress/zstd) as the strong arm. On top of those
// the package provides an identity mode, a fixed-ratio 2-bit packer for
// three-state booleans (LOGIC64) and byte-shuffle pre-transforms for 4- and
// 8-byte elements.
package compress

import (
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/pool"
	"github.com/pierrec/lz4/v4"
)

// AlgoID identifies a block compression algorithm. The numeric values are
// stable on disk; never renumber.
type AlgoID uint16

const (
	// AlgoIdentity stores block bytes verbatim.
	AlgoIdentity AlgoID = 0
	// AlgoLZ4 is plain LZ4 block compression.
	AlgoLZ4 AlgoID = 1
	// AlgoZstd is plain Zstandard compression.
	AlgoZstd AlgoID = 2
	// AlgoLogic64 is the fixed-ratio 2-bit boolean packer.
	AlgoLogic64 AlgoID = 3
	// AlgoLZ4Logic64 packs booleans, then LZ4.
	AlgoLZ4Logic64 AlgoID = 4
	// AlgoZstdLogic64 packs booleans, then Zstandard.
	AlgoZstdLogic64 AlgoID = 5
	// AlgoLZ4Shuf4 byte-shuffles 4-byte elements, then LZ4.
	AlgoLZ4Shuf4 AlgoID = 6
	// AlgoZstdShuf4 byte-shuffles 4-byte elements, then Zstandard.
	AlgoZstdShuf4 AlgoID = 7
	// AlgoLZ4Shuf8 byte-shuffles 8-byte elements, then LZ4.
	AlgoLZ4Shuf8 AlgoID = 8
	// AlgoZstdShuf8 byte-shuffles 8-byte elements, then Zstandard.
	AlgoZstdShuf8 AlgoID = 9
)

// String returns the metric label for the algorithm.
func (a AlgoID) String() string {
	switch a {
	case AlgoIdentity:
		return "identity"
	case AlgoLZ4:
		return "lz4"
	case AlgoZstd:
		return "zstd"
	case AlgoLogic64:
		return "logic64"
	case AlgoLZ4Logic64:
		return "lz4_logic64"
	case AlgoZstdLogic64:
		return "zstd_logic64"
	case AlgoLZ4Shuf4:
		return "lz4_shuf4"
	case AlgoZstdShuf4:
		return "zstd_shuf4"
	case AlgoLZ4Shuf8:
		return "lz4_shuf8"
	case AlgoZstdShuf8:
		return "zstd_shuf8"
	default:
		return "unknown"
	}
}

// fallback returns the algorithm a block is stored under when the LZ4 arm
// yields no gain. Packed pipelines fall back to the packed-only form so the
// fixed compression ratio is preserved.
func (a AlgoID) fallback() AlgoID {
	switch a {
	case AlgoLZ4Logic64, AlgoZstdLogic64:
		return AlgoLogic64
	default:
		return AlgoIdentity
	}
}

// MaxCompressedLen returns an upper bound for the number of bytes Compress
// may produce for srcLen input bytes under the given algorithm.
func MaxCompressedLen(srcLen int, algo AlgoID) int {
	switch algo {
	case AlgoIdentity:
		return srcLen
	case AlgoLogic64:
		return logic64PackedLen(srcLen)
	case AlgoLZ4Logic64, AlgoZstdLogic64:
		return lz4.CompressBlockBound(logic64PackedLen(srcLen)) + zstdFrameOverhead
	default:
		return lz4.CompressBlockBound(srcLen) + zstdFrameOverhead
	}
}

// zstd frames carry a header and checksum beyond the lz4 worst case.
const zstdFrameOverhead = 64

// Compress transforms src with the given algorithm and intensity, writing
// into dst where capacity allows. It returns the compressed bytes and the
// algorithm the block was actually stored under: when an LZ4 arm produces
// no gain the block degrades to its fallback form (identity, or packed-only
// for the boolean pipelines). dst must be at least
// MaxCompressedLen(len(src), algo) bytes.
func Compress(dst, src []byte, algo AlgoID, intensity int) ([]byte, AlgoID, error) {
	switch algo {
	case AlgoIdentity:
		n := copy(dst, src)
		return dst[:n], AlgoIdentity, nil

	case AlgoLogic64:
		n := logic64Pack(dst, src)
		return dst[:n], AlgoLogic64, nil

	case AlgoLZ4, AlgoZstd:
		return compressBytes(dst, src, algo, intensity)

	case AlgoLZ4Logic64, AlgoZstdLogic64:
		packed := pool.GetBuffer(logic64PackedLen(len(src)))
		defer pool.PutBuffer(packed)
		n := logic64Pack(packed, src)
		return compressBytes(dst, packed[:n], algo, intensity)

	case AlgoLZ4Shuf4, AlgoZstdShuf4:
		return compressShuffled(dst, src, algo, intensity, 4)

	case AlgoLZ4Shuf8, AlgoZstdShuf8:
		return compressShuffled(dst, src, algo, intensity, 8)

	default:
		return nil, algo, fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"unknown compression algorithm %d", algo)
	}
}

// compressShuffled runs the byte-shuffle pre-transform followed by the
// entropy stage. An identity fallback must store the ORIGINAL bytes, not
// the shuffled form, so the fallback result is rebuilt from src.
func compressShuffled(dst, src []byte, algo AlgoID, intensity, elemSize int) ([]byte, AlgoID, error) {
	shuffled := pool.GetBuffer(len(src))
	defer pool.PutBuffer(shuffled)
	shuffle(shuffled, src, elemSize)

	out, used, err := compressBytes(dst, shuffled[:len(src)], algo, intensity)
	if err == nil && used == AlgoIdentity {
		n := copy(dst, src)
		out = dst[:n]
	}
	return out, used, err
}

// compressBytes runs the entropy stage shared by the plain, packed and
// shuffled pipelines. The input here is already packed/shuffled.
func compressBytes(dst, src []byte, algo AlgoID, intensity int) ([]byte, AlgoID, error) {
	switch algo {
	case AlgoLZ4, AlgoLZ4Logic64, AlgoLZ4Shuf4, AlgoLZ4Shuf8:
		n, err := lz4CompressBlock(dst, src, intensity)
		if err != nil {
			return nil, algo, fsterrors.Wrap(err, fsterrors.ErrorTypeCodec, "lz4 compression failed")
		}
		if n == 0 || n >= len(src) {
			// No gain: store under the fallback algorithm instead.
			fb := algo.fallback()
			m := copy(dst, src)
			return dst[:m], fb, nil
		}
		return dst[:n], algo, nil

	case AlgoZstd, AlgoZstdLogic64, AlgoZstdShuf4, AlgoZstdShuf8:
		out := zstdCompress(dst[:0], src, intensity)
		return out, algo, nil

	default:
		return nil, algo, fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"unknown compression algorithm %d", algo)
	}
}

// Decompress reverses Compress. dst must have the exact uncompressed length
// of the block; the algorithm is taken from the block index entry.
func Decompress(dst, src []byte, algo AlgoID) error {
	switch algo {
	case AlgoIdentity:
		if len(src) != len(dst) {
			return fsterrors.Newf(fsterrors.ErrorTypeCodec,
				"identity block length mismatch: %d on disk, %d expected", len(src), len(dst))
		}
		copy(dst, src)
		return nil

	case AlgoLogic64:
		return logic64Unpack(dst, src)

	case AlgoLZ4:
		return lz4DecompressBlock(dst, src)

	case AlgoZstd:
		return zstdDecompress(dst, src)

	case AlgoLZ4Logic64, AlgoZstdLogic64:
		packed := pool.GetBuffer(logic64PackedLen(len(dst)))
		defer pool.PutBuffer(packed)
		packed = packed[:logic64PackedLen(len(dst))]
		if err := decompressBytes(packed, src, algo); err != nil {
			return err
		}
		return logic64Unpack(dst, packed)

	case AlgoLZ4Shuf4, AlgoZstdShuf4:
		return decompressShuffled(dst, src, algo, 4)

	case AlgoLZ4Shuf8, AlgoZstdShuf8:
		return decompressShuffled(dst, src, algo, 8)

	default:
		return fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"unknown compression algorithm %d", algo)
	}
}

func decompressBytes(dst, src []byte, algo AlgoID) error {
	switch algo {
	case AlgoLZ4Logic64, AlgoLZ4Shuf4, AlgoLZ4Shuf8:
		return lz4DecompressBlock(dst, src)
	default:
		return zstdDecompress(dst, src)
	}
}

func decompressShuffled(dst, src []byte, algo AlgoID, elemSize int) error {
	shuffled := pool.GetBuffer(len(dst))
	defer pool.PutBuffer(shuffled)
	shuffled = shuffled[:len(dst)]
	if err := decompressBytes(shuffled, src, algo); err != nil {
		return err
	}
	unshuffle(dst, shuffled, elemSize)
	return nil
}
