package main

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/funjongwoo/fst/pkg/column"
	"github.com/funjongwoo/fst/pkg/config"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/table"
)

// readCSVTable loads a CSV file with a header row into a table. Column
// types are inferred per column: integer, then double, then boolean, then
// character. Empty cells and "NA" are missing values.
func readCSVTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "opening csv file")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeArgument, "parsing csv file")
	}
	if len(records) < 2 {
		return nil, fsterrors.New(fsterrors.ErrorTypeArgument, "csv file needs a header row and at least one data row")
	}

	names := records[0]
	rows := records[1:]

	columns := make([]column.Column, len(names))
	for c := range names {
		cells := make([]string, len(rows))
		for r, rec := range rows {
			if c >= len(rec) {
				return nil, fsterrors.Newf(fsterrors.ErrorTypeArgument, "row %d has fewer cells than the header", r+1)
			}
			cells[r] = rec[c]
		}
		columns[c] = inferColumn(cells)
	}

	return &table.Table{ColNames: names, Columns: columns}, nil
}

func isMissingCell(s string) bool {
	return s == "" || s == "NA"
}

func inferColumn(cells []string) column.Column {
	isInt, isDouble, isBool := true, true, true
	for _, s := range cells {
		if isMissingCell(s) {
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 32); err != nil {
				isInt = false
			}
		}
		if isDouble {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isDouble = false
			}
		}
		if isBool {
			switch strings.ToLower(s) {
			case "true", "false":
			default:
				isBool = false
			}
		}
	}

	switch {
	case isInt:
		values := make([]int32, len(cells))
		for i, s := range cells {
			if isMissingCell(s) {
				values[i] = column.MissingInt
				continue
			}
			v, _ := strconv.ParseInt(s, 10, 32)
			values[i] = int32(v)
		}
		return &column.IntColumn{Values: values}

	case isDouble:
		values := make([]float64, len(cells))
		for i, s := range cells {
			if isMissingCell(s) {
				values[i] = column.MissingDouble()
				continue
			}
			values[i], _ = strconv.ParseFloat(s, 64)
		}
		return &column.DoubleColumn{Values: values}

	case isBool:
		values := make([]int32, len(cells))
		for i, s := range cells {
			switch {
			case isMissingCell(s):
				values[i] = column.MissingInt
			case strings.EqualFold(s, "true"):
				values[i] = 1
			}
		}
		return &column.BoolColumn{Values: values}

	default:
		values := make([]string, len(cells))
		missing := make([]bool, len(cells))
		for i, s := range cells {
			if isMissingCell(s) {
				missing[i] = true
				continue
			}
			values[i] = s
		}
		return &column.StringColumn{Values: values, Missing: missing}
	}
}

// cell renders row i of a column for display; missing values print as NA.
func cell(col column.Column, i int) string {
	switch c := col.(type) {
	case *column.IntColumn:
		if c.Values[i] == column.MissingInt {
			return "NA"
		}
		return strconv.FormatInt(int64(c.Values[i]), 10)
	case *column.DoubleColumn:
		if math.IsNaN(c.Values[i]) {
			return "NA"
		}
		return strconv.FormatFloat(c.Values[i], 'g', -1, 64)
	case *column.BoolColumn:
		switch c.Values[i] {
		case column.MissingInt:
			return "NA"
		case 0:
			return "false"
		default:
			return "true"
		}
	case *column.StringColumn:
		if c.IsMissing(i) {
			return "NA"
		}
		return c.Values[i]
	case *column.FactorColumn:
		code := c.Codes[i]
		if code == column.MissingInt || int(code) >= len(c.Levels) {
			return "NA"
		}
		return c.Levels[code]
	default:
		return "NA"
	}
}

func printTable(cmd *cobra.Command, cfg *config.Config, tbl *table.Table) error {
	rows := tbl.NrOfRows()

	if cfg.JSONOutput {
		out := make(map[string][]string, len(tbl.ColNames))
		for i, name := range tbl.ColNames {
			cells := make([]string, rows)
			for r := 0; r < rows; r++ {
				cells[r] = cell(tbl.Columns[i], r)
			}
			out[name] = cells
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write(tbl.ColNames); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "writing output")
	}
	record := make([]string, len(tbl.Columns))
	for r := 0; r < rows; r++ {
		for c := range tbl.Columns {
			record[c] = cell(tbl.Columns[c], r)
		}
		if err := w.Write(record); err != nil {
			return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "writing output")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fsterrors.Wrap(err, fsterrors.ErrorTypeIO, "writing output")
	}
	return nil
}
