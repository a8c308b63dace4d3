// Package render extracts served tiles from cached chunks: a sub-region of
// one chunk when the request is finer-zoomed than the chunk zoom, a
// composite of several chunks when coarser.
package render

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/geoforge/dyntile/internal/chunkstore"
	"github.com/geoforge/dyntile/internal/raster"
	"github.com/geoforge/dyntile/internal/tilemath"
	"github.com/geoforge/dyntile/pkg/metrics"
)

// Mode labels how a tile was produced, for metrics and logging.
type Mode string

const (
	ModeSingle    Mode = "single"
	ModeComposite Mode = "composite"
	ModeEmpty     Mode = "empty"
)

type Renderer struct {
	store    *chunkstore.Store
	tileSize int

	emptyOnce sync.Once
	empty     []byte
	emptyErr  error
}

func New(store *chunkstore.Store, tileSize int) *Renderer {
	return &Renderer{
		store:    store,
		tileSize: tileSize,
	}
}

// Tile renders tile (x, y) at the given zoom as PNG bytes, always exactly
// tileSize square. A tile with no backing chunk is not an error; it comes
// back as the cached transparent tile.
func (r *Renderer) Tile(x, y int64, zoom int) ([]byte, Mode, error) {
	chunkZoom := r.store.ChunkZoom()

	if zoom >= chunkZoom {
		px, py := tilemath.ParentAt(x, y, zoom, chunkZoom)
		chunk, ok := r.store.Get(chunkstore.ChunkKey{X: px, Y: py})
		if !ok {
			return r.emptyTile(ModeEmpty)
		}
		data, err := r.extractFromLargerChunk(chunk, x, y, zoom)
		if err != nil {
			return nil, ModeSingle, err
		}
		metrics.TileFetches.WithLabelValues(string(ModeSingle)).Inc()
		return data, ModeSingle, nil
	}

	zoomDifference := chunkZoom - zoom
	var backing []*chunkstore.Chunk
	for _, chunk := range r.store.Snapshot() {
		if tilemath.IsDescendant(chunk.Coords.X, chunk.Coords.Y, x, y, zoomDifference) {
			backing = append(backing, chunk)
		}
	}
	if len(backing) == 0 {
		return r.emptyTile(ModeEmpty)
	}
	data, err := r.compositeFromSmallerChunks(backing, x, y, zoom)
	if err != nil {
		return nil, ModeComposite, err
	}
	metrics.TileFetches.WithLabelValues(string(ModeComposite)).Inc()
	return data, ModeComposite, nil
}

// BackingChunks returns the chunks a tile would be rendered from, without
// rendering. The staleness resolver shares this with Tile so both agree on
// what "backing" means.
func (r *Renderer) BackingChunks(x, y int64, zoom int) []*chunkstore.Chunk {
	chunkZoom := r.store.ChunkZoom()

	if zoom >= chunkZoom {
		px, py := tilemath.ParentAt(x, y, zoom, chunkZoom)
		if chunk, ok := r.store.Get(chunkstore.ChunkKey{X: px, Y: py}); ok {
			return []*chunkstore.Chunk{chunk}
		}
		return nil
	}

	zoomDifference := chunkZoom - zoom
	var backing []*chunkstore.Chunk
	for _, chunk := range r.store.Snapshot() {
		if tilemath.IsDescendant(chunk.Coords.X, chunk.Coords.Y, x, y, zoomDifference) {
			backing = append(backing, chunk)
		}
	}
	return backing
}

// EmptyTile returns the fully transparent tile, encoded once per process.
func (r *Renderer) EmptyTile() ([]byte, error) {
	r.emptyOnce.Do(func() {
		r.empty, r.emptyErr = raster.EncodePNG(raster.New(r.tileSize, r.tileSize))
	})
	return r.empty, r.emptyErr
}

func (r *Renderer) emptyTile(mode Mode) ([]byte, Mode, error) {
	data, err := r.EmptyTile()
	if err != nil {
		return nil, mode, err
	}
	metrics.TileFetches.WithLabelValues(string(ModeEmpty)).Inc()
	return data, mode, nil
}

// extractFromLargerChunk cuts the requested tile out of its parent chunk.
// The sub-pixel offset is computed in floating point, widened to the
// containing integer rectangle (floor/ceil), resized, then cropped back to
// the tile with the fractional remainder as the inner offset. The two
// stages keep resampling consistent at non-integer chunk-to-tile scale
// ratios; the clamp absorbs floating point error at the edges.
func (r *Renderer) extractFromLargerChunk(chunk *chunkstore.Chunk, x, y int64, zoom int) ([]byte, error) {
	zoomDifference := zoom - r.store.ChunkZoom()

	// Pretend the chunk is addressed at the requested zoom.
	chunkXAtZ := chunk.Coords.X << uint(zoomDifference)
	chunkYAtZ := chunk.Coords.Y << uint(zoomDifference)
	chunkSpan := float64(int64(1) << uint(zoomDifference))

	pw := float64(chunk.PixelExtents.X)
	ph := float64(chunk.PixelExtents.Y)

	offX := float64(x-chunkXAtZ) / chunkSpan * pw
	offY := float64(y-chunkYAtZ) / chunkSpan * ph
	extX := pw / chunkSpan
	extY := ph / chunkSpan
	if extX <= 0 || extY <= 0 {
		return nil, fmt.Errorf("render: chunk %v has no pixels at zoom %d", chunk.Coords, zoom)
	}

	outerX0 := math.Floor(offX)
	outerY0 := math.Floor(offY)
	outerW := math.Ceil(offX+extX) - outerX0
	outerH := math.Ceil(offY+extY) - outerY0

	resizeW := int(math.Ceil(float64(r.tileSize) * outerW / extX))
	resizeH := int(math.Ceil(float64(r.tileSize) * outerH / extY))

	innerX := clamp(int(math.Round((offX-outerX0)/extX*float64(r.tileSize))), 0, resizeW-r.tileSize)
	innerY := clamp(int(math.Round((offY-outerY0)/extY*float64(r.tileSize))), 0, resizeH-r.tileSize)

	outer := raster.Crop(chunk.Raster, image.Rect(
		int(outerX0), int(outerY0),
		int(outerX0)+int(outerW), int(outerY0)+int(outerH),
	))
	resized := raster.Resize(outer, resizeW, resizeH)
	tile := raster.Crop(resized, image.Rect(innerX, innerY, innerX+r.tileSize, innerY+r.tileSize))

	return raster.EncodePNG(tile)
}

// compositeFromSmallerChunks scales every descendant chunk down to its
// share of the requested tile and alpha-composites them, in arbitrary
// order, over a transparent canvas.
func (r *Renderer) compositeFromSmallerChunks(chunks []*chunkstore.Chunk, x, y int64, zoom int) ([]byte, error) {
	zoomDifference := r.store.ChunkZoom() - zoom

	canvas := raster.New(r.tileSize, r.tileSize)

	for _, chunk := range chunks {
		size := r.tileSize >> uint(zoomDifference)
		if size <= 0 {
			// Too small to render at this zoom.
			continue
		}

		offX := int((chunk.Coords.X - x<<uint(zoomDifference)) * int64(r.tileSize) >> uint(zoomDifference))
		offY := int((chunk.Coords.Y - y<<uint(zoomDifference)) * int64(r.tileSize) >> uint(zoomDifference))

		scaled := raster.Resize(chunk.Raster, size, size)
		raster.CompositeOver(canvas, scaled, image.Pt(offX, offY))
	}

	return raster.EncodePNG(canvas)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
