package table

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/fsterrors"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "table.fst")
}

func sampleTable(rng *rand.Rand, rows int) *Table {
	ints := make([]int32, rows)
	doubles := make([]float64, rows)
	bools := make([]int32, rows)
	strs := make([]string, rows)
	missing := make([]bool, rows)
	codes := make([]int32, rows)
	levels := []string{"lo", "mid", "hi"}

	for i := 0; i < rows; i++ {
		ints[i] = rng.Int31n(10000) - 5000
		doubles[i] = rng.NormFloat64()
		bools[i] = int32(rng.Intn(2))
		if rng.Intn(10) == 0 {
			missing[i] = true
		} else {
			strs[i] = fmt.Sprintf("row-%d", i)
		}
		codes[i] = int32(rng.Intn(len(levels)))
	}

	return &Table{
		ColNames: []string{"a", "b", "c", "d", "e"},
		Columns: []column.Column{
			&column.IntColumn{Values: ints},
			&column.DoubleColumn{Values: doubles},
			&column.BoolColumn{Values: bools},
			&column.StringColumn{Values: strs, Missing: missing},
			&column.FactorColumn{Levels: levels, Codes: codes},
		},
	}
}

func assertTablesEqual(t *testing.T, want, got *Table) {
	t.Helper()
	require.Equal(t, want.ColNames, got.ColNames)
	require.Len(t, got.Columns, len(want.Columns))
	for i := range want.Columns {
		assertColsEqual(t, want.Columns[i], got.Columns[i])
	}
}

func assertColsEqual(t *testing.T, want, got column.Column) {
	t.Helper()
	require.Equal(t, want.Type(), got.Type())
	require.Equal(t, want.Len(), got.Len())

	switch w := want.(type) {
	case *column.IntColumn:
		assert.Equal(t, w.Values, got.(*column.IntColumn).Values)
	case *column.BoolColumn:
		assert.Equal(t, w.Values, got.(*column.BoolColumn).Values)
	case *column.DoubleColumn:
		g := got.(*column.DoubleColumn)
		for i := range w.Values {
			if math.IsNaN(w.Values[i]) {
				assert.True(t, math.IsNaN(g.Values[i]))
			} else {
				assert.Equal(t, w.Values[i], g.Values[i])
			}
		}
	case *column.StringColumn:
		g := got.(*column.StringColumn)
		for i := range w.Values {
			wantMissing := w.Missing != nil && w.Missing[i]
			assert.Equal(t, wantMissing, g.Missing[i], "row %d", i)
			if !wantMissing {
				assert.Equal(t, w.Values[i], g.Values[i], "row %d", i)
			}
		}
	case *column.FactorColumn:
		g := got.(*column.FactorColumn)
		assert.Equal(t, w.Levels, g.Levels)
		assert.Equal(t, w.Codes, g.Codes)
	}
}

func TestStoreReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, rows := range []int{1, 100, 4095, 4096, 4097, 10000} {
		for _, level := range []int{0, 1, 50, 51, 100} {
			t.Run(fmt.Sprintf("rows=%d/level=%d", rows, level), func(t *testing.T) {
				tbl := sampleTable(rng, rows)
				path := tempPath(t)

				_, err := Store(path, tbl, level)
				require.NoError(t, err)

				got, err := Read(path, nil, 0, 0)
				require.NoError(t, err)
				assertTablesEqual(t, tbl, got)
			})
		}
	}
}

func TestPartialReadLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	rows := 9000
	tbl := sampleTable(rng, rows)
	path := tempPath(t)
	_, err := Store(path, tbl, 50)
	require.NoError(t, err)

	ranges := [][2]int64{
		{0, 1},
		{0, int64(rows)},
		{4094, 4099}, // straddles a block boundary
		{int64(rows) - 1, int64(rows)},
		{17, 8000},
	}
	for _, r := range ranges {
		from, to := r[0], r[1]
		got, err := Read(path, nil, from, to)
		require.NoError(t, err, "range %v", r)
		require.Equal(t, int(to-from), got.NrOfRows())

		for c := range tbl.Columns {
			want := sliceCol(tbl.Columns[c], int(from), int(to-from))
			assertColsEqual(t, want, got.Columns[c])
		}
	}
}

func sliceCol(col column.Column, first, n int) column.Column {
	switch c := col.(type) {
	case *column.IntColumn:
		return &column.IntColumn{Values: c.Values[first : first+n]}
	case *column.DoubleColumn:
		return &column.DoubleColumn{Values: c.Values[first : first+n]}
	case *column.BoolColumn:
		return &column.BoolColumn{Values: c.Values[first : first+n]}
	case *column.StringColumn:
		return &column.StringColumn{Values: c.Values[first : first+n], Missing: c.Missing[first : first+n]}
	case *column.FactorColumn:
		return &column.FactorColumn{Levels: c.Levels, Codes: c.Codes[first : first+n]}
	}
	return nil
}

func TestColumnSubsetLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tbl := sampleTable(rng, 500)
	path := tempPath(t)
	_, err := Store(path, tbl, 40)
	require.NoError(t, err)

	// Selection order is result order.
	got, err := Read(path, []string{"d", "a"}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"d", "a"}, got.ColNames)
	assertColsEqual(t, tbl.Columns[3], got.Columns[0])
	assertColsEqual(t, tbl.Columns[0], got.Columns[1])

	got, err = Read(path, []string{"e", "c", "b"}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "c", "b"}, got.ColNames)
	assertColsEqual(t, tbl.Columns[4], got.Columns[0])
	assertColsEqual(t, tbl.Columns[2], got.Columns[1])
	assertColsEqual(t, tbl.Columns[1], got.Columns[2])
}

func TestUnknownColumnRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	path := tempPath(t)
	_, err := Store(path, sampleTable(rng, 10), 0)
	require.NoError(t, err)

	_, err = Read(path, []string{"nope"}, 0, 0)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeArgument))
}

func TestRowRangeValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	path := tempPath(t)
	_, err := Store(path, sampleTable(rng, 10), 0)
	require.NoError(t, err)

	for _, r := range [][2]int64{{-1, 0}, {10, 0}, {5, 5}, {5, 3}} {
		_, err = Read(path, nil, r[0], r[1])
		require.Error(t, err, "range %v", r)
		assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeArgument))
	}

	// toRow beyond the table clamps.
	got, err := Read(path, nil, 5, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, got.NrOfRows())
}

func TestEmptyTableRejected(t *testing.T) {
	path := tempPath(t)
	tbl := &Table{
		ColNames: []string{"a"},
		Columns:  []column.Column{&column.IntColumn{}},
	}

	_, err := Store(path, tbl, 0)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeArgument))
	assert.Contains(t, err.Error(), "contains no data")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file may be left on disk")
}

func TestCompressionRangeRejected(t *testing.T) {
	path := tempPath(t)
	tbl := &Table{
		ColNames: []string{"a"},
		Columns:  []column.Column{&column.IntColumn{Values: []int32{1}}},
	}

	for _, level := range []int{-1, 101} {
		_, err := Store(path, tbl, level)
		require.Error(t, err)
		assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeArgument))
		assert.Contains(t, err.Error(), "compression must be in 0..100")
	}
}

func TestSmallBoolRoundTrip(t *testing.T) {
	path := tempPath(t)
	tbl := &Table{
		ColNames: []string{"flag"},
		Columns:  []column.Column{&column.BoolColumn{Values: []int32{1, 0, column.MissingInt, 1}}},
	}

	_, err := Store(path, tbl, 0)
	require.NoError(t, err)

	got, err := Read(path, nil, 0, 0)
	require.NoError(t, err)
	assertColsEqual(t, tbl.Columns[0], got.Columns[0])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(metaSize(1, 0)+16+4))
}

func TestKeyColumns(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tbl := sampleTable(rng, 50)
	tbl.KeyNames = []string{"b", "a"}
	path := tempPath(t)
	_, err := Store(path, tbl, 20)
	require.NoError(t, err)

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, meta.KeyNames)
	assert.Equal(t, []int{1, 0}, meta.KeyColIndex)

	// Only keys intersecting the selection are reported.
	got, err := Read(path, []string{"a", "c"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.KeyNames)

	got, err = Read(path, []string{"c"}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got.KeyNames)
}

func TestUnknownKeyRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tbl := sampleTable(rng, 10)
	tbl.KeyNames = []string{"nope"}

	_, err := Store(tempPath(t), tbl, 0)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeArgument))
}

func TestMeta(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	tbl := sampleTable(rng, 321)
	path := tempPath(t)
	_, err := Store(path, tbl, 70)
	require.NoError(t, err)

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, 5, meta.NrOfCols)
	assert.Equal(t, int64(321), meta.NrOfRows)
	assert.Equal(t, FormatVersion, meta.Version)
	assert.Equal(t, tbl.ColNames, meta.ColNames)
	assert.Equal(t, []column.Type{
		column.TypeInteger, column.TypeDouble, column.TypeBoolean,
		column.TypeCharacter, column.TypeFactor,
	}, meta.ColTypes)
	assert.Equal(t, uint32(1), meta.ChunksUsed)
	assert.False(t, meta.Legacy)
}

func TestUnsupportedVersionRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	path := tempPath(t)
	_, err := Store(path, sampleTable(rng, 10), 0)
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF, 0, 0, 0}, 8)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadMeta(path)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeFormat))
}

func TestMultiChunkRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	path := tempPath(t)
	_, err := Store(path, sampleTable(rng, 10), 0)
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{2, 0, 0, 0}, 152)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Read(path, nil, 0, 0)
	require.Error(t, err)
	assert.True(t, fsterrors.IsType(err, fsterrors.ErrorTypeNotImplemented))
}
