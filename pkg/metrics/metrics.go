package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestedImages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_images_total",
		Help: "Total number of successfully decoded image ingestions",
	})

	ChunkMerges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunk_merges_total",
		Help: "Total number of chunk merge operations",
	})

	ChunkCoordinateMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunk_coordinate_mismatches_total",
		Help: "Total number of merges discarded due to a chunk key mismatch",
	})

	ChunkMergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chunk_merge_duration_seconds",
		Help:    "Duration of chunk extract and merge tasks in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	ChunksResident = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chunks_resident",
		Help: "Number of chunks currently held in memory",
	})

	TileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_fetches_total",
		Help: "Total number of tile fetches by extraction mode",
	}, []string{"mode"})
)
