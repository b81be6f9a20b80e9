// Package metrics provides Prometheus instrumentation for the fst storage
// engine. Counters track block-level throughput on the write and read
// pipelines; the block counters are labeled by compression algorithm.
//
// Metrics are registered with promauto on the default registry; embedding
// applications expose them through their own /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksWritten counts compressed blocks emitted by the block streamer,
	// labeled by the algorithm that was actually used.
	BlocksWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fst_blocks_written_total",
			Help: "Total number of column blocks written",
		},
		[]string{"algorithm"},
	)

	// BlocksRead counts blocks decompressed by the block streamer.
	BlocksRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fst_blocks_read_total",
			Help: "Total number of column blocks read",
		},
		[]string{"algorithm"},
	)

	// BytesWritten counts compressed bytes written to fst files.
	BytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_bytes_written_total",
			Help: "Total compressed bytes written to fst files",
		},
	)

	// BytesRead counts compressed bytes read from fst files.
	BytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_bytes_read_total",
			Help: "Total compressed bytes read from fst files",
		},
	)

	// UncompressedBytesWritten counts payload bytes before compression,
	// allowing compression-ratio dashboards against BytesWritten.
	UncompressedBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_uncompressed_bytes_written_total",
			Help: "Total uncompressed payload bytes routed through the writer",
		},
	)

	// TablesStored counts successful table store operations.
	TablesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_tables_stored_total",
			Help: "Total number of tables successfully stored",
		},
	)

	// TablesRead counts successful table read operations.
	TablesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_tables_read_total",
			Help: "Total number of tables successfully read",
		},
	)

	// LegacyFallbacks counts reads that were served by the legacy reader.
	LegacyFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fst_legacy_fallbacks_total",
			Help: "Total number of reads dispatched to the legacy reader",
		},
	)
)
