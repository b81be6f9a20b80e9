// Command fst stores, inspects and reads fst files from the command line.
//
// Exit codes: 0 success, 1 I/O error, 2 format or codec error, 3 argument
// error.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/funjongwoo/fst/pkg/config"
	"github.com/funjongwoo/fst/pkg/fsterrors"
	"github.com/funjongwoo/fst/pkg/logger"
	"github.com/funjongwoo/fst/pkg/table"
)

var version = "0.1.0"

func main() {
	// Load .env if present.
	_ = godotenv.Load()

	var (
		cfgPath  string
		logLevel string
		jsonOut  bool
	)

	root := &cobra.Command{
		Use:           "fst",
		Short:         "Ultra fast columnar storage for tabular datasets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")

	var cfg *config.Config
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if jsonOut {
			cfg.JSONOutput = true
		}
		return logger.Init(logger.Config{
			Level:    cfg.LogLevel,
			Encoding: cfg.LogEncoding,
		})
	}

	var (
		compression int
		keyCols     []string
	)
	storeCmd := &cobra.Command{
		Use:   "store <input.csv> <output.fst>",
		Short: "Convert a CSV file into an fst file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := compression
			if !cmd.Flags().Changed("compression") {
				level = cfg.Compression
			}
			tbl, err := readCSVTable(args[0])
			if err != nil {
				return err
			}
			tbl.KeyNames = keyCols
			result, err := table.Store(args[1], tbl, level)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d columns x %d rows (meta %d bytes)\n",
				len(tbl.Columns), tbl.NrOfRows(), result.MetaSize)
			return nil
		},
	}
	storeCmd.Flags().IntVar(&compression, "compression", 50, "compression level in 0..100")
	storeCmd.Flags().StringSliceVar(&keyCols, "key", nil, "key column names")

	metaCmd := &cobra.Command{
		Use:   "meta <file.fst>",
		Short: "Print the metadata of an fst file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := table.ReadMeta(args[0])
			if err != nil {
				return err
			}
			return printMeta(cmd, cfg, meta)
		},
	}

	var (
		columns []string
		fromRow int64
		toRow   int64
	)
	readCmd := &cobra.Command{
		Use:   "read <file.fst>",
		Short: "Read rows and columns from an fst file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := table.Read(args[0], columns, fromRow, toRow)
			if err != nil {
				return err
			}
			return printTable(cmd, cfg, tbl)
		},
	}
	readCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to read (default: all)")
	readCmd.Flags().Int64Var(&fromRow, "from", 0, "first row to read (0-based)")
	readCmd.Flags().Int64Var(&toRow, "to", 0, "row to stop before (0 = end of table)")

	root.AddCommand(storeCmd, metaCmd, readCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fst: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var fe *fsterrors.Error
	if errors.As(err, &fe) {
		return fe.Type.ExitCode()
	}
	return 3 // cobra argument errors
}

type metaOutput struct {
	Columns  int      `json:"columns"`
	Rows     int64    `json:"rows"`
	Version  uint32   `json:"version"`
	Legacy   bool     `json:"legacy,omitempty"`
	Names    []string `json:"names"`
	Types    []string `json:"types"`
	KeyNames []string `json:"keys,omitempty"`
}

func printMeta(cmd *cobra.Command, cfg *config.Config, meta *table.Meta) error {
	types := make([]string, len(meta.ColTypes))
	for i, t := range meta.ColTypes {
		types[i] = t.String()
	}

	if cfg.JSONOutput {
		out := metaOutput{
			Columns:  meta.NrOfCols,
			Rows:     meta.NrOfRows,
			Version:  meta.Version,
			Legacy:   meta.Legacy,
			Names:    meta.ColNames,
			Types:    types,
			KeyNames: meta.KeyNames,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "columns: %d\nrows: %d\nversion: %d\n", meta.NrOfCols, meta.NrOfRows, meta.Version)
	if meta.Legacy {
		fmt.Fprintln(w, "legacy: true")
	}
	for i, name := range meta.ColNames {
		fmt.Fprintf(w, "  %s (%s)\n", name, types[i])
	}
	if len(meta.KeyNames) > 0 {
		fmt.Fprintf(w, "keys: %v\n", meta.KeyNames)
	}
	return nil
}
