package table

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/logger"
	"github.com/funjongwoo/fst/pkg/metrics"
)

// Legacy reader for pre-magic fst files. The legacy layout, in stream
// order:
//
//	int16      nrOfCols
//	int16      keyLength (top bit flagged)
//	int16[K]   key column indices
//	int16[C]   column type codes (valid range 0..5)
//	uint64[C+1] block positions; entry 0 holds the row count, entries 1..C
//	           are column offsets, monotonically non-decreasing
//	column names
//
// Legacy type codes: 1 character, 2 integer, 3 double, 4 boolean, 5
// factor.

var legacyTypeMap = map[int16]column.Type{
	1: column.TypeCharacter,
	2: column.TypeInteger,
	3: column.TypeDouble,
	4: column.TypeBoolean,
	5: column.TypeFactor,
}

var legacyWarnOnce sync.Once

// warnLegacy emits the deprecation notice, once per process, after a
// legacy file has been parsed successfully.
func warnLegacy(path string) {
	legacyWarnOnce.Do(func() {
		logger.WithFile(path).Warn("reading a legacy fst file without format magic; resave to upgrade")
	})
	metrics.LegacyFallbacks.Inc()
}

type legacyHeader struct {
	nrOfCols  int
	keyColPos []int
	colTypes  []int16
	blockPos  []uint64
	nrOfRows  int64
	names     []string
}

func malformedLegacy(detail string) *fsterrors.Error {
	return fsterrors.Newf(fsterrors.ErrorTypeFormat, "malformed legacy header: %s", detail)
}

// readLegacyHeader parses and validates the legacy layout from the start
// of the file.
func readLegacyHeader(f *os.File) (*legacyHeader, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "rewinding legacy file")
	}

	var colSizes [2]int16
	if err := binary.Read(f, binary.LittleEndian, &colSizes); err != nil {
		return nil, malformedLegacy("truncated column sizes")
	}
	if colSizes[0] < 0 || colSizes[1] < 0 {
		return nil, malformedLegacy("negative column sizes")
	}
	nrOfCols := int(colSizes[0])
	keyLength := int(colSizes[1] & 0x7FFF)

	keyCols := make([]int16, keyLength)
	if err := binary.Read(f, binary.LittleEndian, keyCols); err != nil {
		return nil, malformedLegacy("truncated key columns")
	}
	keyColPos := make([]int, keyLength)
	for i, k := range keyCols {
		if k < 0 || int(k) >= nrOfCols {
			return nil, malformedLegacy("key column index out of range")
		}
		keyColPos[i] = int(k)
	}

	colTypes := make([]int16, nrOfCols)
	if err := binary.Read(f, binary.LittleEndian, colTypes); err != nil {
		return nil, malformedLegacy("truncated column types")
	}
	for _, t := range colTypes {
		if t < 0 || t > 5 {
			return nil, malformedLegacy("bad column type code")
		}
	}

	blockPos := make([]uint64, nrOfCols+1)
	if err := binary.Read(f, binary.LittleEndian, blockPos); err != nil {
		return nil, malformedLegacy("truncated block positions")
	}
	for i := 2; i <= nrOfCols; i++ {
		if blockPos[i] < blockPos[i-1] {
			return nil, malformedLegacy("non-monotonic block positions")
		}
	}
	nrOfRows := int64(blockPos[0])
	if nrOfRows <= 0 {
		return nil, malformedLegacy("zero rows")
	}

	namesOffset := int64(nrOfCols+1)*8 + int64(nrOfCols+keyLength+2)*2
	names, err := column.ReadStrings(f, namesOffset, 0, nrOfCols, nrOfCols)
	if err != nil {
		return nil, malformedLegacy("unreadable column names")
	}

	return &legacyHeader{
		nrOfCols:  nrOfCols,
		keyColPos: keyColPos,
		colTypes:  colTypes,
		blockPos:  blockPos,
		nrOfRows:  nrOfRows,
		names:     names.Values,
	}, nil
}

func legacyMeta(f *os.File, path string) (*Meta, error) {
	hdr, err := readLegacyHeader(f)
	if err != nil {
		return nil, err
	}
	warnLegacy(path)

	colTypes := make([]column.Type, hdr.nrOfCols)
	for i, t := range hdr.colTypes {
		colTypes[i] = legacyTypeMap[t]
	}
	keyNames := make([]string, len(hdr.keyColPos))
	for i, k := range hdr.keyColPos {
		keyNames[i] = hdr.names[k]
	}

	return &Meta{
		NrOfCols:    hdr.nrOfCols,
		NrOfRows:    hdr.nrOfRows,
		Version:     0,
		ColNames:    hdr.names,
		ColTypes:    colTypes,
		KeyColIndex: hdr.keyColPos,
		KeyNames:    keyNames,
		ChunksUsed:  1,
		Legacy:      true,
	}, nil
}

// legacyRead serves a read against a legacy file. Column payloads use the
// same block-stream layout as the current format; only the header differs.
func legacyRead(f *os.File, path string, selection []string, fromRow, toRow int64) (*Table, error) {
	hdr, err := readLegacyHeader(f)
	if err != nil {
		return nil, err
	}
	warnLegacy(path)

	colIndex, err := resolveSelection(hdr.names, selection)
	if err != nil {
		return nil, err
	}
	firstRow, n, err := clampRowRange(fromRow, toRow, hdr.nrOfRows)
	if err != nil {
		return nil, err
	}

	selectedNames := make([]string, len(colIndex))
	columns := make([]column.Column, len(colIndex))
	for sel, idx := range colIndex {
		selectedNames[sel] = hdr.names[idx]

		typ, ok := legacyTypeMap[hdr.colTypes[idx]]
		if !ok {
			return nil, malformedLegacy("unreadable column type")
		}
		codec, err := column.For(typ)
		if err != nil {
			return nil, err
		}
		col, err := codec.Read(f, int64(hdr.blockPos[idx+1]), int(firstRow), int(n), int(hdr.nrOfRows))
		if err != nil {
			return nil, err
		}
		columns[sel] = col
	}

	var keyNames []string
	for _, k := range hdr.keyColPos {
		for _, idx := range colIndex {
			if k == idx {
				keyNames = append(keyNames, hdr.names[k])
				break
			}
		}
	}

	return &Table{ColNames: selectedNames, Columns: columns, KeyNames: keyNames}, nil
}
