package compress

import (
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/pool"
	"github.com/pierrec/lz4/v4"
)

// LZ4 uses the raw block format: each fst block is one independent LZ4
// block, so the reader can seek to and decode any block in isolation.
// Compressor state (hash tables) is pooled; allocating it per block would
// dominate small-column writes.

var lz4Compressors = pool.New(
	func() *lz4.Compressor { return &lz4.Compressor{} },
	nil,
)

var lz4HCCompressors = pool.New(
	func() *lz4.CompressorHC { return &lz4.CompressorHC{} },
	nil,
)

// lz4CompressBlock compresses src into dst. Intensities above 50 engage the
// high-compression match finder with a depth scaled into levels 4..9.
// Returns 0 when the block is not compressible.
func lz4CompressBlock(dst, src []byte, intensity int) (int, error) {
	if intensity > 50 {
		c := lz4HCCompressors.Get()
		defer lz4HCCompressors.Put(c)
		c.Level = lz4HCLevel(intensity)
		return c.CompressBlock(src, dst)
	}

	c := lz4Compressors.Get()
	defer lz4Compressors.Put(c)
	return c.CompressBlock(src, dst)
}

func lz4HCLevel(intensity int) lz4.CompressionLevel {
	// 51..100 spread over Level4..Level9.
	switch {
	case intensity <= 60:
		return lz4.Level4
	case intensity <= 70:
		return lz4.Level5
	case intensity <= 80:
		return lz4.Level6
	case intensity <= 90:
		return lz4.Level7
	case intensity < 100:
		return lz4.Level8
	default:
		return lz4.Level9
	}
}

func lz4DecompressBlock(dst, src []byte) error {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeCodec, "lz4 decompression failed")
	}
	if n != len(dst) {
		return fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"lz4 block decompressed to %d bytes, expected %d", n, len(dst))
	}
	return nil
}
