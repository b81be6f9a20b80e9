package column

import (
	"io"

	"github.com/funjongwoo/fst/pkg/blockstream"
	"github.com/funjongwoo/fst/pkg/compress"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// Codecs for the fixed-element-size types. Each reinterprets its value
// slice as raw bytes and delegates to the block streamer with its own
// element size, block element count and compression plan kind.

type intCodec struct{}

func (intCodec) TypeTag() Type { return TypeInteger }

func (intCodec) Write(ws io.WriteSeeker, col Column, rows, level int) (*Result, error) {
	c, ok := col.(*IntColumn)
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "expected integer column, got %s", col.Type())
	}
	if err := checkLen(col, rows); err != nil {
		return nil, err
	}
	plan := compress.PlanFor(compress.KindInt32, level)
	if err := blockstream.Write(ws, int32Bytes(c.Values), rows, 4, blockElemsInt, plan); err != nil {
		return nil, err
	}
	return &Result{Blocks: blockstream.BlockCount(rows, blockElemsInt)}, nil
}

func (intCodec) Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error) {
	values := make([]int32, nRows)
	err := blockstream.Read(rs, int32Bytes(values), colOffset, firstRow, nRows, totalRows, 4, blockElemsInt)
	if err != nil {
		return nil, err
	}
	return &IntColumn{Values: values}, nil
}

type doubleCodec struct{}

func (doubleCodec) TypeTag() Type { return TypeDouble }

func (doubleCodec) Write(ws io.WriteSeeker, col Column, rows, level int) (*Result, error) {
	c, ok := col.(*DoubleColumn)
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "expected double column, got %s", col.Type())
	}
	if err := checkLen(col, rows); err != nil {
		return nil, err
	}
	plan := compress.PlanFor(compress.KindDouble, level)
	if err := blockstream.Write(ws, float64Bytes(c.Values), rows, 8, blockElemsDouble, plan); err != nil {
		return nil, err
	}
	return &Result{Blocks: blockstream.BlockCount(rows, blockElemsDouble)}, nil
}

func (doubleCodec) Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error) {
	values := make([]float64, nRows)
	err := blockstream.Read(rs, float64Bytes(values), colOffset, firstRow, nRows, totalRows, 8, blockElemsDouble)
	if err != nil {
		return nil, err
	}
	return &DoubleColumn{Values: values}, nil
}

type boolCodec struct{}

func (boolCodec) TypeTag() Type { return TypeBoolean }

func (boolCodec) Write(ws io.WriteSeeker, col Column, rows, level int) (*Result, error) {
	c, ok := col.(*BoolColumn)
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "expected boolean column, got %s", col.Type())
	}
	if err := checkLen(col, rows); err != nil {
		return nil, err
	}
	plan := compress.PlanFor(compress.KindLogical, level)
	if err := blockstream.Write(ws, int32Bytes(c.Values), rows, 4, blockElemsLogical, plan); err != nil {
		return nil, err
	}
	return &Result{Blocks: blockstream.BlockCount(rows, blockElemsLogical)}, nil
}

func (boolCodec) Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error) {
	values := make([]int32, nRows)
	err := blockstream.Read(rs, int32Bytes(values), colOffset, firstRow, nRows, totalRows, 4, blockElemsLogical)
	if err != nil {
		return nil, err
	}
	return &BoolColumn{Values: values}, nil
}
