package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funjongwoo/fst/pkg/column"
)

func TestInferColumn(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		col := inferColumn([]string{"1", "-5", "NA", "42"})
		c, ok := col.(*column.IntColumn)
		require.True(t, ok)
		assert.Equal(t, []int32{1, -5, column.MissingInt, 42}, c.Values)
	})

	t.Run("doubles", func(t *testing.T) {
		col := inferColumn([]string{"1.5", "2", ""})
		c, ok := col.(*column.DoubleColumn)
		require.True(t, ok)
		assert.Equal(t, 1.5, c.Values[0])
		assert.Equal(t, 2.0, c.Values[1])
		assert.True(t, math.IsNaN(c.Values[2]))
	})

	t.Run("booleans", func(t *testing.T) {
		col := inferColumn([]string{"true", "FALSE", "NA"})
		c, ok := col.(*column.BoolColumn)
		require.True(t, ok)
		assert.Equal(t, []int32{1, 0, column.MissingInt}, c.Values)
	})

	t.Run("strings", func(t *testing.T) {
		col := inferColumn([]string{"red", "12x", "NA"})
		c, ok := col.(*column.StringColumn)
		require.True(t, ok)
		assert.Equal(t, "red", c.Values[0])
		assert.True(t, c.Missing[2])
	})
}

func TestReadCSVTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,score,name\n1,0.5,ann\n2,NA,bob\n"), 0o644))

	tbl, err := readCSVTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "score", "name"}, tbl.ColNames)
	assert.Equal(t, 2, tbl.NrOfRows())
	assert.IsType(t, &column.IntColumn{}, tbl.Columns[0])
	assert.IsType(t, &column.DoubleColumn{}, tbl.Columns[1])
	assert.IsType(t, &column.StringColumn{}, tbl.Columns[2])
}

func TestReadCSVTableRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n"), 0o644))

	_, err := readCSVTable(path)
	require.Error(t, err)
}
