package column

import (
	"encoding/binary"
	"io"

	"github.com/funjongwoo/fst/pkg/blockstream"
	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// A factor column is stored as a 16-byte header, the level strings as a
// character stream, and the integer codes as a block stream:
//
//	uint32 nLevels, uint32 reserved, uint64 codesOffset (absolute)
//
// The header is reserved first and patched once the levels' extent is
// known.

const factorHeaderSize = 16

type factorCodec struct{}

func (factorCodec) TypeTag() Type { return TypeFactor }

func (factorCodec) Write(ws io.WriteSeeker, col Column, rows, level int) (*Result, error) {
	c, ok := col.(*FactorColumn)
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "expected factor column, got %s", col.Type())
	}
	if err := checkLen(col, rows); err != nil {
		return nil, err
	}

	headerPos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "positioning factor header")
	}
	if _, err := ws.Seek(headerPos+factorHeaderSize, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "reserving factor header")
	}

	if err := WriteStrings(ws, c.Levels, nil, level); err != nil {
		return nil, err
	}

	codesOffset, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "positioning factor codes")
	}

	plan := compress.PlanFor(compress.KindInt32, level)
	if err := blockstream.Write(ws, int32Bytes(c.Codes), rows, 4, blockElemsInt, plan); err != nil {
		return nil, err
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "positioning end of factor column")
	}

	var header [factorHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(len(c.Levels)))
	binary.LittleEndian.PutUint64(header[8:], uint64(codesOffset))
	if _, err := ws.Seek(headerPos, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to factor header")
	}
	if _, err := ws.Write(header[:]); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "patching factor header")
	}
	if _, err := ws.Seek(end, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "restoring sink position")
	}

	return &Result{Blocks: blockstream.BlockCount(rows, blockElemsInt)}, nil
}

func (factorCodec) Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error) {
	if _, err := rs.Seek(colOffset, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to factor header")
	}
	var header [factorHeaderSize]byte
	if _, err := io.ReadFull(rs, header[:]); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "short read on factor header")
	}
	nLevels := int(binary.LittleEndian.Uint32(header[0:]))
	codesOffset := int64(binary.LittleEndian.Uint64(header[8:]))
	if codesOffset < colOffset+factorHeaderSize {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat,
			"corrupt factor header: codes offset %d before levels", codesOffset)
	}

	levels, err := ReadStrings(rs, colOffset+factorHeaderSize, 0, nLevels, nLevels)
	if err != nil {
		return nil, err
	}

	codes := make([]int32, nRows)
	err = blockstream.Read(rs, int32Bytes(codes), codesOffset, firstRow, nRows, totalRows, 4, blockElemsInt)
	if err != nil {
		return nil, err
	}

	return &FactorColumn{Levels: levels.Values, Codes: codes}, nil
}
