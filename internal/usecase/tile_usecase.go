package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/geoforge/dyntile/internal/chunkstore"
	"github.com/geoforge/dyntile/internal/geoimage"
	"github.com/geoforge/dyntile/internal/render"
	"github.com/geoforge/dyntile/internal/repository/tilerecord"
	"github.com/geoforge/dyntile/internal/tilemath"
	"github.com/geoforge/dyntile/pkg/logger"
	"github.com/geoforge/dyntile/pkg/metrics"
)

// TileRef is one tile coordinate in a staleness response.
type TileRef struct {
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
	Z     int    `json:"z"`
	Layer string `json:"layer_name"`
}

type TileUseCase struct {
	store    *chunkstore.Store
	renderer *render.Renderer
	records  tilerecord.Repository
	logger   logger.Logger
}

func NewTileUseCase(store *chunkstore.Store, renderer *render.Renderer, records tilerecord.Repository, l logger.Logger) *TileUseCase {
	return &TileUseCase{
		store:    store,
		renderer: renderer,
		records:  records,
		logger:   l,
	}
}

// IngestImage decodes an uploaded GeoTIFF and enqueues its chunk merges.
// It returns once everything is enqueued; the channel closes when the
// upload is fully applied.
func (uc *TileUseCase) IngestImage(ctx context.Context, raw []byte) (int, <-chan struct{}, error) {
	img, err := geoimage.Decode(raw)
	if err != nil {
		return 0, nil, err
	}

	uc.logger.Info("ingesting image",
		"origin", img.Origin, "extents", img.GeoExtents,
		"width", img.PixelExtents.X, "height", img.PixelExtents.Y)

	n, done := uc.store.Ingest(img)
	metrics.IngestedImages.Inc()
	return n, done, nil
}

// FetchTile renders tile (x, y, zoom) for a client and records the serve.
// The tile record is written first and unconditionally, empty tiles
// included; that write is the other half of the staleness mechanism.
func (uc *TileUseCase) FetchTile(ctx context.Context, x, y int64, zoom int, layer, clientID string) ([]byte, error) {
	key := tilerecord.Key{X: x, Y: y, Z: zoom, Layer: layer, ClientID: clientID}
	if err := uc.records.Upsert(ctx, key, time.Now()); err != nil {
		// The serve still happens; the client just stays marked stale.
		uc.logger.Warn("failed to record tile fetch", "key", key, "error", err)
	}

	data, mode, err := uc.renderer.Tile(x, y, zoom)
	if err != nil {
		return nil, fmt.Errorf("render tile %d/%d/%d: %w", zoom, x, y, err)
	}

	uc.logger.Debug("tile served", "z", zoom, "x", x, "y", y, "mode", mode, "size", len(data))
	return data, nil
}

// UpdatedTiles lists the tiles in a bounding box a client should re-fetch:
// tiles with at least one backing chunk that either were never served to
// this client or whose backing changed after the last recorded serve. It
// never writes records, so checking for updates does not mark tiles seen.
func (uc *TileUseCase) UpdatedTiles(ctx context.Context, bbox tilemath.BBox, layer, clientID string) ([]TileRef, error) {
	r := tilemath.BBoxTileRange(bbox)

	stale := make([]TileRef, 0)
	for x := r.Xmin; x <= r.Xmax; x++ {
		for y := r.Ymin; y <= r.Ymax; y++ {
			backing := uc.renderer.BackingChunks(x, y, r.Zoom)
			if len(backing) == 0 {
				// Nothing to show yet.
				continue
			}

			servedAt, found, err := uc.records.Find(ctx, tilerecord.Key{
				X: x, Y: y, Z: r.Zoom, Layer: layer, ClientID: clientID,
			})
			if err != nil {
				return nil, fmt.Errorf("find tile record %d/%d/%d: %w", r.Zoom, x, y, err)
			}

			if !found || anyUpdatedAfter(backing, servedAt) {
				stale = append(stale, TileRef{X: x, Y: y, Z: r.Zoom, Layer: layer})
			}
		}
	}

	return stale, nil
}

func anyUpdatedAfter(chunks []*chunkstore.Chunk, at time.Time) bool {
	for _, c := range chunks {
		if c.UpdatedAt.After(at) {
			return true
		}
	}
	return false
}
