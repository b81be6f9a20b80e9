package table

import (
	"encoding/binary"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/logger"
	"github.com/funjongwoo/fst/pkg/metrics"
)

// Store writes a table to path as a single-chunk fst file. level is the
// user compression level in 0..100. Any failure after the file has been
// created invalidates it; the partial file is removed.
func Store(path string, tbl *Table, level int) (result *WriteResult, err error) {
	if level < 0 || level > 100 {
		return nil, fsterrors.New(fsterrors.ErrorTypeArgument, "compression must be in 0..100")
	}
	if err := tbl.validate(); err != nil {
		return nil, err
	}

	nrOfCols := len(tbl.Columns)
	nrOfRows := tbl.NrOfRows()

	// Resolve key column names before touching the filesystem.
	keyColPos := make([]int32, len(tbl.KeyNames))
	for i, key := range tbl.KeyNames {
		idx := findColumn(tbl.ColNames, key)
		if idx < 0 {
			return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "unknown key column %q", key)
		}
		keyColPos[i] = int32(idx)
	}

	hdr := header{
		nrOfCols:          int32(nrOfCols),
		keyLength:         int32(len(tbl.KeyNames)),
		version:           FormatVersion,
		chunksPerIndexRow: 1,
		chunksUsed:        1,
		keyColPos:         keyColPos,
		colTypes:          make([]column.Type, nrOfCols),
	}
	hdr.chunkRows[0] = uint64(nrOfRows)
	for i, col := range tbl.Columns {
		hdr.colTypes[i] = col.Type()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "creating fst file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fsterrors.Wrap(cerr, fsterrors.ErrorTypeIO, "closing fst file")
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	// Header and column names. chunkPos[0] is still unknown; the header is
	// rewritten once the column layout is final.
	meta := hdr.encode()
	if _, err = f.Write(meta); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "writing table header")
	}
	if err = column.WriteStrings(f, tbl.ColNames, nil, 0); err != nil {
		return nil, err
	}

	// Reserve the column-offset table.
	offsetTablePos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "positioning column-offset table")
	}
	if _, err = f.Seek(offsetTablePos+int64(8*nrOfCols), io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "reserving column-offset table")
	}

	colOffsets := make([]uint64, nrOfCols)
	colResults := make([]column.Result, nrOfCols)
	for i, col := range tbl.Columns {
		pos, serr := f.Seek(0, io.SeekCurrent)
		if serr != nil {
			err = fsterrors.Wrap(serr, fsterrors.ErrorTypeIO, "positioning column data")
			return nil, err
		}
		colOffsets[i] = uint64(pos)

		codec, cerr := column.For(col.Type())
		if cerr != nil {
			err = cerr
			return nil, err
		}
		res, werr := codec.Write(f, col, nrOfRows, level)
		if werr != nil {
			err = werr
			return nil, err
		}
		colResults[i] = *res
	}

	// The chunk's column-offset table position is the chunk anchor.
	hdr.chunkPos[0] = uint64(offsetTablePos)

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "rewinding to table header")
	}
	if _, err = f.Write(hdr.encode()); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "patching table header")
	}

	offsetTable := make([]byte, 8*nrOfCols)
	for i, off := range colOffsets {
		binary.LittleEndian.PutUint64(offsetTable[8*i:], off)
	}
	if _, err = f.Seek(offsetTablePos, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "seeking to column-offset table")
	}
	if _, err = f.Write(offsetTable); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "patching column-offset table")
	}

	metrics.TablesStored.Inc()
	logger.WithFile(path).Debug("stored fst table",
		zap.Int("columns", nrOfCols),
		zap.Int("rows", nrOfRows),
		zap.Int("compression", level),
	)

	return &WriteResult{MetaSize: len(meta), Columns: colResults}, nil
}
