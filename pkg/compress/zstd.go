package compress

import (
	"sync"

	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/klauspost/compress/zstd"
)

// Zstandard encoders are expensive to construct, so one pool is kept per
// encoder level. Decoders are level-independent and share a single pool.

var zstdEncoderPools = map[zstd.EncoderLevel]*sync.Pool{
	zstd.SpeedFastest:           newZstdEncoderPool(zstd.SpeedFastest),
	zstd.SpeedDefault:           newZstdEncoderPool(zstd.SpeedDefault),
	zstd.SpeedBetterCompression: newZstdEncoderPool(zstd.SpeedBetterCompression),
	zstd.SpeedBestCompression:   newZstdEncoderPool(zstd.SpeedBestCompression),
}

var zstdDecoderPool = sync.Pool{
	New: func() interface{} {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	},
}

func newZstdEncoderPool(level zstd.EncoderLevel) *sync.Pool {
	return &sync.Pool{
		New: func() interface{} {
			enc, _ := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(level),
				zstd.WithEncoderConcurrency(1),
			)
			return enc
		},
	}
}

// zstdLevel maps a plan intensity in 0..100 onto the encoder tiers.
func zstdLevel(intensity int) zstd.EncoderLevel {
	switch {
	case intensity < 40:
		return zstd.SpeedFastest
	case intensity < 60:
		return zstd.SpeedDefault
	case intensity < 85:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// zstdCompress appends the compressed frame to dst and returns it.
func zstdCompress(dst, src []byte, intensity int) []byte {
	p := zstdEncoderPools[zstdLevel(intensity)]
	enc := p.Get().(*zstd.Encoder)
	defer p.Put(enc)
	return enc.EncodeAll(src, dst)
}

// zstdDecompress decodes a frame into dst, which must have the exact
// uncompressed length.
func zstdDecompress(dst, src []byte) error {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	res, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeCodec, "zstd decompression failed")
	}
	if len(res) != len(dst) {
		return fsterrors.Newf(fsterrors.ErrorTypeCodec,
			"zstd block decompressed to %d bytes, expected %d", len(res), len(dst))
	}
	if len(res) > 0 && &res[0] != &dst[0] {
		copy(dst, res)
	}
	return nil
}
