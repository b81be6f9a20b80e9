package table

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/metrics"
)

// readHeader parses the full table header and column names. legacy=true
// means the file carries no magic and must be handled by the legacy
// reader; hdr and names are nil in that case.
func readHeader(f *os.File) (hdr *header, names []string, legacy bool, err error) {
	fixed := make([]byte, TableMetaSize)
	if _, err := io.ReadFull(f, fixed); err != nil {
		return nil, nil, false, fsterrors.Wrap(err, fsterrors.ErrorTypeFormat,
			"error reading file header, the fst file is incomplete or damaged")
	}

	h, ok := decodeFixed(fixed)
	if !ok {
		return nil, nil, true, nil
	}
	if h.version > FormatVersion {
		return nil, nil, false, fsterrors.New(fsterrors.ErrorTypeFormat,
			"incompatible fst file: created by a newer format version")
	}
	if h.nrOfCols < 1 || h.keyLength < 0 {
		return nil, nil, false, fsterrors.New(fsterrors.ErrorTypeFormat, "damaged table header")
	}

	rest := make([]byte, metaSize(int(h.nrOfCols), int(h.keyLength))-TableMetaSize)
	if _, err := io.ReadFull(f, rest); err != nil {
		return nil, nil, false, fsterrors.Wrap(err, fsterrors.ErrorTypeFormat,
			"error reading file header, the fst file is incomplete or damaged")
	}
	if err := h.decodeVariable(rest); err != nil {
		return nil, nil, false, err
	}

	nameCol, err := column.ReadStrings(f,
		int64(metaSize(int(h.nrOfCols), int(h.keyLength))),
		0, int(h.nrOfCols), int(h.nrOfCols))
	if err != nil {
		return nil, nil, false, err
	}

	return &h, nameCol.Values, false, nil
}

// ReadMeta parses the header of the file at path without touching column
// data. Files without the format magic fall back to the legacy reader.
func ReadMeta(path string) (*Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "opening fst file")
	}
	defer f.Close()

	hdr, names, legacy, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	if legacy {
		return legacyMeta(f, path)
	}

	keyIdx := make([]int, len(hdr.keyColPos))
	keyNames := make([]string, len(hdr.keyColPos))
	for i, k := range hdr.keyColPos {
		keyIdx[i] = int(k)
		keyNames[i] = names[k]
	}

	return &Meta{
		NrOfCols:    int(hdr.nrOfCols),
		NrOfRows:    int64(hdr.chunkRows[0]),
		Version:     hdr.version,
		ColNames:    names,
		ColTypes:    hdr.colTypes,
		KeyColIndex: keyIdx,
		KeyNames:    keyNames,
		ChunksUsed:  hdr.chunksUsed,
	}, nil
}

// Read loads the selected columns for rows [fromRow, toRow) from the file
// at path. A nil or empty selection loads every column, in table order; a
// non-empty selection loads the named columns in selection order. toRow is
// clamped to the table's row count; toRow <= 0 means everything from
// fromRow on.
func Read(path string, selection []string, fromRow, toRow int64) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "opening fst file")
	}
	defer f.Close()

	hdr, names, legacy, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	if legacy {
		return legacyRead(f, path, selection, fromRow, toRow)
	}

	if hdr.chunksUsed > 1 {
		return nil, fsterrors.New(fsterrors.ErrorTypeNotImplemented, "multi-chunk read not implemented")
	}

	// Column-offset table at the chunk anchor.
	nrOfCols := int(hdr.nrOfCols)
	if _, err := f.Seek(int64(hdr.chunkPos[0]), io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to column-offset table")
	}
	offsetTable := make([]byte, 8*nrOfCols)
	if _, err := io.ReadFull(f, offsetTable); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "short read on column-offset table")
	}
	colOffsets := make([]uint64, nrOfCols)
	for i := range colOffsets {
		colOffsets[i] = binary.LittleEndian.Uint64(offsetTable[8*i:])
	}

	colIndex, err := resolveSelection(names, selection)
	if err != nil {
		return nil, err
	}

	nrOfRows := int64(hdr.chunkRows[0])
	firstRow, n, err := clampRowRange(fromRow, toRow, nrOfRows)
	if err != nil {
		return nil, err
	}

	selectedNames := make([]string, len(colIndex))
	columns := make([]column.Column, len(colIndex))
	for sel, idx := range colIndex {
		selectedNames[sel] = names[idx]

		codec, err := column.For(hdr.colTypes[idx])
		if err != nil {
			return nil, err
		}
		col, err := codec.Read(f, int64(colOffsets[idx]), int(firstRow), int(n), int(nrOfRows))
		if err != nil {
			return nil, err
		}
		columns[sel] = col
	}

	// Keys that survive the selection, in key order.
	var keyNames []string
	for _, k := range hdr.keyColPos {
		for _, idx := range colIndex {
			if int(k) == idx {
				keyNames = append(keyNames, names[k])
				break
			}
		}
	}

	metrics.TablesRead.Inc()

	return &Table{ColNames: selectedNames, Columns: columns, KeyNames: keyNames}, nil
}

// resolveSelection maps a column-name selection to indices. nil selects
// every column in table order.
func resolveSelection(names, selection []string) ([]int, error) {
	if len(selection) == 0 {
		all := make([]int, len(names))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	idx := make([]int, len(selection))
	for i, name := range selection {
		pos := findColumn(names, name)
		if pos < 0 {
			return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "selected column %q not found", name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// clampRowRange validates fromRow and clamps toRow to the table size,
// returning the first row and the number of rows to read.
func clampRowRange(fromRow, toRow, nrOfRows int64) (int64, int64, error) {
	if fromRow < 0 || fromRow >= nrOfRows {
		return 0, 0, fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"row selection out of range: row %d of %d", fromRow, nrOfRows)
	}
	if toRow <= 0 || toRow > nrOfRows {
		toRow = nrOfRows
	}
	if toRow <= fromRow {
		return 0, 0, fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"row selection out of range: %d..%d", fromRow, toRow)
	}
	return fromRow, toRow - fromRow, nil
}
