// Package chunkstore holds the in-memory chunk cache and its mutation
// discipline: one bounded serial queue per chunk key, with lock-free reads
// against atomically replaced entries.
package chunkstore

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/geoforge/dyntile/internal/geoimage"
	"github.com/geoforge/dyntile/internal/raster"
	"github.com/geoforge/dyntile/internal/tilemath"
	"github.com/geoforge/dyntile/pkg/logger"
	"github.com/geoforge/dyntile/pkg/metrics"
)

// queueDepth bounds how many extract+merge tasks may wait per key before
// ingestion blocks.
const queueDepth = 100

type task struct {
	img *geoimage.GeoImage
	key ChunkKey
	wg  *sync.WaitGroup
}

// Store owns the chunk map and the per-key queues. Construct one at
// startup and share it by reference; it needs no teardown because chunks
// live only in memory.
type Store struct {
	chunkZoom int
	logger    logger.Logger

	chunks chunkMap

	mu     sync.Mutex
	queues map[ChunkKey]chan task
}

func New(chunkZoom int, l logger.Logger) *Store {
	return &Store{
		chunkZoom: chunkZoom,
		logger:    l,
		queues:    make(map[ChunkKey]chan task),
	}
}

// ChunkZoom is the fixed zoom ingested imagery is chunked at.
func (s *Store) ChunkZoom() int {
	return s.chunkZoom
}

// Get returns the current snapshot for a key. It never blocks: a read
// racing an in-flight merge observes either the previous or the new
// complete chunk, never a torn one.
func (s *Store) Get(key ChunkKey) (*Chunk, bool) {
	return s.chunks.Load(key)
}

// Snapshot returns a point-in-time list of all resident chunks.
func (s *Store) Snapshot() []*Chunk {
	var out []*Chunk
	s.chunks.Range(func(_ ChunkKey, c *Chunk) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Len reports the number of resident chunks.
func (s *Store) Len() int {
	n := 0
	s.chunks.Range(func(ChunkKey, *Chunk) bool {
		n++
		return true
	})
	return n
}

// Ingest enqueues one extract+merge task for every chunk key the image
// overlaps and returns immediately. The returned channel closes once all
// of this upload's tasks have been applied; fire-and-forget callers may
// discard it. Tasks for the same key are strictly ordered, tasks for
// distinct keys run concurrently.
func (s *Store) Ingest(img *geoimage.GeoImage) (int, <-chan struct{}) {
	r := tilemath.GeoRange(img.Origin, img.GeoExtents, s.chunkZoom)

	n := int(r.Xmax-r.Xmin+1) * int(r.Ymax-r.Ymin+1)
	wg := &sync.WaitGroup{}
	wg.Add(n)

	for x := r.Xmin; x <= r.Xmax; x++ {
		for y := r.Ymin; y <= r.Ymax; y++ {
			key := ChunkKey{X: x, Y: y}
			s.queueFor(key) <- task{img: img, key: key, wg: wg}
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	s.logger.Debug("ingest enqueued",
		"tasks", n, "xmin", r.Xmin, "xmax", r.Xmax, "ymin", r.Ymin, "ymax", r.Ymax)

	return n, done
}

// queueFor lazily creates the serial queue for a key. Queues are never
// removed, a known growth limitation of the memory-resident design.
func (s *Store) queueFor(key ChunkKey) chan task {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[key]
	if !ok {
		q = make(chan task, queueDepth)
		s.queues[key] = q
		go s.run(q)
	}
	return q
}

func (s *Store) run(q chan task) {
	for t := range q {
		s.apply(t)
		t.wg.Done()
	}
}

// apply runs inside a key's serial queue: extract the incoming chunk from
// the image, merge it into the existing entry if there is one, and replace
// the map entry in a single write.
func (s *Store) apply(t task) {
	start := time.Now()

	incoming := s.extractChunk(t.img, t.key)

	next := incoming
	if existing, ok := s.chunks.Load(t.key); ok {
		next = s.merge(existing, incoming)
	} else {
		metrics.ChunksResident.Inc()
	}
	s.chunks.Store(t.key, next)

	metrics.ChunkMerges.Inc()
	metrics.ChunkMergeDuration.Observe(time.Since(start).Seconds())
}

// extractChunk cuts the pixels of one chunk out of the image. The result
// always has exactly the ideal chunk pixel size: edges the image does not
// cover are padded with transparent pixels on the side that was clipped,
// and an image lying exactly on a chunk boundary yields a fully
// transparent chunk.
func (s *Store) extractChunk(img *geoimage.GeoImage, key ChunkKey) *Chunk {
	origin, extents := tilemath.TileGeoBounds(key.X, key.Y, s.chunkZoom)

	offX := int(math.Round(img.Scale[0] * (origin[0] - img.Origin[0])))
	offY := int(math.Round(img.Scale[1] * (origin[1] - img.Origin[1])))
	idealW := int(math.Round(img.Scale[0] * extents[0]))
	idealH := int(math.Round(img.Scale[1] * extents[1]))

	x0 := max(offX, 0)
	y0 := max(offY, 0)
	x1 := min(offX+idealW, img.PixelExtents.X)
	y1 := min(offY+idealH, img.PixelExtents.Y)

	if x1-x0 <= 0 || y1-y0 <= 0 {
		return &Chunk{
			Coords:       key,
			PixelExtents: image.Pt(idealW, idealH),
			Raster:       raster.New(idealW, idealH),
			UpdatedAt:    time.Now(),
		}
	}

	cut := raster.Crop(img.Raster, image.Rect(x0, y0, x1, y1))

	padL := max(-offX, 0)
	padT := max(-offY, 0)
	if padL > 0 || padT > 0 || x1-x0 < idealW || y1-y0 < idealH {
		cut = raster.Pad(cut, idealW, idealH, image.Pt(padL, padT))
	}

	return &Chunk{
		Coords:       key,
		PixelExtents: image.Pt(idealW, idealH),
		Raster:       cut,
		UpdatedAt:    time.Now(),
	}
}

// merge combines two chunks for the same key at the highest available
// resolution: both rasters are resized to the element-wise max extents and
// the incoming one is alpha-composited over the existing one. A key
// mismatch is a programming error; it is reported and the incoming chunk
// is kept, which loses the existing data but does not stall the queue.
func (s *Store) merge(existing, incoming *Chunk) *Chunk {
	if existing.Coords != incoming.Coords {
		s.logger.Error("chunk key mismatch during merge, keeping incoming chunk",
			"existing", existing.Coords, "incoming", incoming.Coords)
		metrics.ChunkCoordinateMismatches.Inc()
		return incoming
	}

	target := image.Pt(
		max(existing.PixelExtents.X, incoming.PixelExtents.X),
		max(existing.PixelExtents.Y, incoming.PixelExtents.Y),
	)

	merged := raster.Clone(raster.Resize(existing.Raster, target.X, target.Y))
	resizedIncoming := raster.Resize(incoming.Raster, target.X, target.Y)
	raster.CompositeOver(merged, resizedIncoming, image.Point{})

	return &Chunk{
		Coords:       existing.Coords,
		PixelExtents: target,
		Raster:       merged,
		UpdatedAt:    time.Now(),
	}
}
