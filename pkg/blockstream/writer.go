package blockstream

import (
	"io"

	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/metrics"
	"github.com/funjongwoo/fst/pkg/pool"
)

// Write streams a fixed-element-size column payload to the sink as
// compressed blocks of blockElems elements, routed through the plan. The
// sink may be at any position; offsets recorded in the index are absolute.
// The final block may be short.
func Write(ws io.WriteSeeker, src []byte, elemCount, elemSize, blockElems int, plan compress.Plan) error {
	if len(src) != elemCount*elemSize {
		return fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"payload of %d bytes does not hold %d elements of %d bytes", len(src), elemCount, elemSize)
	}

	nBlocks := BlockCount(elemCount, blockElems)
	w, err := NewIndexedWriter(ws, nBlocks)
	if err != nil {
		return err
	}

	blockBytes := blockElems * elemSize
	for i := 0; i < nBlocks; i++ {
		start := i * blockBytes
		end := start + blockBytes
		if end > len(src) {
			end = len(src)
		}
		raw := src[start:end]
		stage := plan.StageFor(i)

		buf := pool.GetBuffer(compress.MaxCompressedLen(len(raw), stage.Algo))
		out, used, err := compress.Compress(buf, raw, stage.Algo, stage.Intensity)
		if err != nil {
			pool.PutBuffer(buf)
			return err
		}
		err = w.Append(out, used)
		pool.PutBuffer(buf)
		if err != nil {
			return err
		}
		metrics.UncompressedBytesWritten.Add(float64(len(raw)))
	}

	return w.Finish()
}
