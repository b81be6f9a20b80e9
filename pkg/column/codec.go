package column

import (
	"io"

	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// Block element counts per column type: 16KB of uncompressed payload per
// block for the fixed-size types, 2047 strings per character block.
const (
	blockElemsInt     = 4096
	blockElemsDouble  = 2048
	blockElemsLogical = 4096
	blockElemsChar    = 2047
)

// Result carries per-column information back from a write.
type Result struct {
	// Blocks is the number of compressed blocks the column produced.
	Blocks int
}

// Codec serializes one column type through the block streamer. Write and
// Read are exact inverses for every supported row range.
type Codec interface {
	// TypeTag returns the on-disk type code the codec handles.
	TypeTag() Type

	// Write serializes col (which must hold exactly rows values) at the
	// sink's current position.
	Write(ws io.WriteSeeker, col Column, rows int, level int) (*Result, error)

	// Read decodes rows [firstRow, firstRow+nRows) of a column of totalRows
	// values whose data begins at colOffset.
	Read(rs io.ReadSeeker, colOffset int64, firstRow, nRows, totalRows int) (Column, error)
}

var codecs = map[Type]Codec{
	TypeCharacter: characterCodec{},
	TypeFactor:    factorCodec{},
	TypeInteger:   intCodec{},
	TypeDouble:    doubleCodec{},
	TypeBoolean:   boolCodec{},
}

// For returns the codec for an on-disk type code.
func For(t Type) (Codec, error) {
	c, ok := codecs[t]
	if !ok {
		return nil, fsterrors.Newf(fsterrors.ErrorTypeFormat, "unknown column type %d", uint16(t))
	}
	return c, nil
}

func checkLen(col Column, rows int) error {
	if col.Len() != rows {
		return fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"column holds %d values, table has %d rows", col.Len(), rows)
	}
	return nil
}
