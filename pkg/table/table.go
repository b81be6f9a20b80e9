// Package table implements the fst file format at the table level: the
// self-describing header with its chunk index, the write pipeline that
// dispatches columns to their codecs, the random-access read pipeline for
// column subsets and row ranges, and the fallback reader for pre-magic
// legacy files.
package table

import (
	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// Table is a rectangular set of columns with identical row count. Names
// correspond one-to-one with Columns; KeyNames designates a sort key
// carried as metadata only.
type Table struct {
	ColNames []string
	Columns  []column.Column
	KeyNames []string
}

// NrOfRows returns the table's row count.
func (t *Table) NrOfRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// validate checks the table invariants shared by every store operation.
func (t *Table) validate() error {
	if len(t.Columns) < 1 {
		return fsterrors.New(fsterrors.ErrorTypeArgument, "your dataset needs at least one column")
	}
	if len(t.ColNames) != len(t.Columns) {
		return fsterrors.Newf(fsterrors.ErrorTypeArgument,
			"%d column names for %d columns", len(t.ColNames), len(t.Columns))
	}

	seen := make(map[string]struct{}, len(t.ColNames))
	for _, name := range t.ColNames {
		if _, dup := seen[name]; dup {
			return fsterrors.Newf(fsterrors.ErrorTypeArgument, "duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}

	rows := t.Columns[0].Len()
	if rows == 0 {
		return fsterrors.New(fsterrors.ErrorTypeArgument, "the dataset contains no data")
	}
	for i, col := range t.Columns {
		if col.Len() != rows {
			return fsterrors.Newf(fsterrors.ErrorTypeArgument,
				"column %q holds %d values, expected %d", t.ColNames[i], col.Len(), rows)
		}
	}
	return nil
}

// findColumn returns the index of name in names, or -1.
func findColumn(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// Meta describes an fst file without reading column data.
type Meta struct {
	NrOfCols    int
	NrOfRows    int64
	Version     uint32
	ColNames    []string
	ColTypes    []column.Type
	KeyColIndex []int
	KeyNames    []string
	ChunksUsed  uint32
	// Legacy reports that the file carried no magic and was parsed by the
	// legacy reader.
	Legacy bool
}

// WriteResult reports how a table was laid out on disk.
type WriteResult struct {
	// MetaSize is the size of the table metadata block in bytes.
	MetaSize int
	// Columns holds the per-column codec results in table order.
	Columns []column.Result
}
