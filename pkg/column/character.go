package column

import (
	"encoding/binary"
	"io"

	"github.com/funjongwoo/fst/pkg/blockstream"
	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/pool"
)

// The character codec nests its own layout inside the block-stream
// contract. Per block of up to blockElemsChar strings the uncompressed
// payload is
//
//	uint32 lengths[count]   (0xFFFFFFFF marks a missing value)
//	concatenated UTF-8 bytes of the non-missing values
//
// Payload sizes vary per block, so each on-disk block body is prefixed
// with a uint32 holding the uncompressed payload length; the compSize in
// the index entry covers the prefix.

const missingLen = 0xFFFFFFFF

type characterCodec struct{}

func (characterCodec) TypeTag() Type { return TypeCharacter }

func (characterCodec) Write(ws io.WriteSeeker, col Column, rows, level int) (*Result, error) {
	c, ok := col.(*StringColumn)
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "expected character column, got %s", col.Type())
	}
	if err := checkLen(col, rows); err != nil {
		return nil, err
	}
	if err := WriteStrings(ws, c.Values, c.Missing, level); err != nil {
		return nil, err
	}
	return &Result{Blocks: blockstream.BlockCount(rows, blockElemsChar)}, nil
}

func (characterCodec) Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error) {
	return ReadStrings(rs, colOffset, firstRow, nRows, totalRows)
}

// WriteStrings streams a string vector at the sink's current position. The
// table writer also uses this directly for the column-name table.
func WriteStrings(ws io.WriteSeeker, values []string, missing []bool, level int) error {
	nBlocks := blockstream.BlockCount(len(values), blockElemsChar)
	plan := compress.PlanFor(compress.KindBytes, level)

	w, err := blockstream.NewIndexedWriter(ws, nBlocks)
	if err != nil {
		return err
	}

	for b := 0; b < nBlocks; b++ {
		start := b * blockElemsChar
		end := start + blockElemsChar
		if end > len(values) {
			end = len(values)
		}
		payload := encodeStringBlock(values[start:end], missing, start)

		stage := plan.StageFor(b)
		buf := pool.GetBuffer(compress.MaxCompressedLen(len(payload), stage.Algo))
		out, used, err := compress.Compress(buf, payload, stage.Algo, stage.Intensity)
		if err != nil {
			pool.PutBuffer(buf)
			return err
		}

		body := make([]byte, 4+len(out))
		binary.LittleEndian.PutUint32(body, uint32(len(payload)))
		copy(body[4:], out)
		pool.PutBuffer(buf)

		if err := w.Append(body, used); err != nil {
			return err
		}
	}

	return w.Finish()
}

func encodeStringBlock(values []string, missing []bool, base int) []byte {
	heapLen := 0
	for i, v := range values {
		if missing == nil || !missing[base+i] {
			heapLen += len(v)
		}
	}

	payload := make([]byte, 4*len(values)+heapLen)
	heap := payload[4*len(values):]
	pos := 0
	for i, v := range values {
		if missing != nil && missing[base+i] {
			binary.LittleEndian.PutUint32(payload[4*i:], missingLen)
			continue
		}
		binary.LittleEndian.PutUint32(payload[4*i:], uint32(len(v)))
		pos += copy(heap[pos:], v)
	}
	return payload
}

// ReadStrings decodes rows [firstRow, firstRow+nRows) of a string vector
// whose block-index region starts at colOffset.
func ReadStrings(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (*StringColumn, error) {
	out := &StringColumn{
		Values:  make([]string, nRows),
		Missing: make([]bool, nRows),
	}
	if nRows == 0 {
		return out, nil
	}
	if firstRow < 0 || firstRow+nRows > totalRows {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"row range %d..%d outside column of %d rows", firstRow, firstRow+nRows, totalRows)
	}

	nBlocks := blockstream.BlockCount(totalRows, blockElemsChar)
	firstBlock := firstRow / blockElemsChar
	lastBlock := (firstRow + nRows - 1) / blockElemsChar

	entries, err := blockstream.ReadEntries(rs, colOffset, firstBlock, lastBlock-firstBlock+1, nBlocks)
	if err != nil {
		return nil, err
	}

	for i, entry := range entries {
		block := firstBlock + i
		blockFirst := block * blockElemsChar
		blockCount := blockElemsChar
		if blockFirst+blockCount > totalRows {
			blockCount = totalRows - blockFirst
		}

		if entry.CompSize < 4 {
			return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
				"corrupt character block %d: body of %d bytes", block, entry.CompSize)
		}
		body := pool.GetBuffer(int(entry.CompSize))
		if err := blockstream.ReadBlockBody(rs, entry, body); err != nil {
			pool.PutBuffer(body)
			return nil, err
		}

		rawSize := int(binary.LittleEndian.Uint32(body))
		if rawSize < 4*blockCount {
			pool.PutBuffer(body)
			return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
				"corrupt character block %d: payload of %d bytes for %d strings", block, rawSize, blockCount)
		}
		raw := pool.GetBuffer(rawSize)
		err = compress.Decompress(raw[:rawSize], body[4:], entry.Algo)
		pool.PutBuffer(body)
		if err != nil {
			pool.PutBuffer(raw)
			return nil, err
		}

		err = decodeStringBlock(out, raw[:rawSize], block, blockFirst, blockCount, firstRow, nRows)
		pool.PutBuffer(raw)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func decodeStringBlock(out *StringColumn, raw []byte, block, blockFirst, blockCount, firstRow, nRows int) error {
	heap := raw[4*blockCount:]
	heapPos := 0
	for i := 0; i < blockCount; i++ {
		length := binary.LittleEndian.Uint32(raw[4*i:])
		row := blockFirst + i

		if length == missingLen {
			if row >= firstRow && row < firstRow+nRows {
				out.Missing[row-firstRow] = true
			}
			continue
		}
		if heapPos+int(length) > len(heap) {
			return fsterrors.Newf(fsterrors.ErrorTypeFormat,
				"corrupt character block %d: heap overrun at string %d", block, i)
		}
		if row >= firstRow && row < firstRow+nRows {
			out.Values[row-firstRow] = string(heap[heapPos : heapPos+int(length)])
		}
		heapPos += int(length)
	}
	return nil
}
