// Package tilemath converts between geodetic coordinates and Web-Mercator
// slippy-tile indices. All functions are pure.
package tilemath

import (
	"math"

	"github.com/paulmach/orb"
)

// LonToTileX turns a longitude into a tile x coordinate at the given zoom.
func LonToTileX(lon float64, zoom int) int64 {
	n := math.Exp2(float64(zoom))
	return int64(math.Floor((lon + 180.0) / 360.0 * n))
}

// LatToTileY turns a latitude into a tile y coordinate at the given zoom.
func LatToTileY(lat float64, zoom int) int64 {
	latRad := lat * (math.Pi / 180.0)
	n := math.Exp2(float64(zoom))
	return int64(math.Floor((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n))
}

// TileGeoBounds returns the geographic rectangle covered by tile (x, y) at
// the given zoom as a top-left origin and signed extents. The latitude
// extent is negative because tile rows grow southward; callers rely on the
// sign when deriving pixel scales.
func TileGeoBounds(x, y int64, zoom int) (origin, extents orb.Point) {
	n := math.Exp2(float64(zoom))

	lonPerX := 360.0 / n
	lon := float64(x)*lonPerX - 180.0

	alpha := 2.0 / n
	lat1 := math.Atan(math.Sinh(math.Pi*(1.0-float64(y)*alpha))) * (180.0 / math.Pi)
	lat2 := math.Atan(math.Sinh(math.Pi*(1.0-float64(y+1)*alpha))) * (180.0 / math.Pi)

	return orb.Point{lon, lat1}, orb.Point{lonPerX, lat2 - lat1}
}

// BBox is a geographic query rectangle with the zoom its tiles live at.
// Corner order is not significant; range computations normalize per axis.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
	Zoom           int
}

// TileRange is an inclusive rectangle of tile coordinates at a single zoom.
type TileRange struct {
	Xmin, Xmax int64
	Ymin, Ymax int64
	Zoom       int
}

// BBoxTileRange converts both bbox corners to tile coordinates and returns
// the normalized inclusive range.
func BBoxTileRange(b BBox) TileRange {
	x1 := LonToTileX(b.MinLon, b.Zoom)
	x2 := LonToTileX(b.MaxLon, b.Zoom)
	y1 := LatToTileY(b.MinLat, b.Zoom)
	y2 := LatToTileY(b.MaxLat, b.Zoom)

	return TileRange{
		Xmin: min(x1, x2),
		Xmax: max(x1, x2),
		Ymin: min(y1, y2),
		Ymax: max(y1, y2),
		Zoom: b.Zoom,
	}
}

// GeoRange is the ingestion form of BBoxTileRange: a top-left origin plus
// signed extents, as carried by a decoded geo-image.
func GeoRange(origin, extents orb.Point, zoom int) TileRange {
	return BBoxTileRange(BBox{
		MinLon: origin[0],
		MinLat: origin[1],
		MaxLon: origin[0] + extents[0],
		MaxLat: origin[1] + extents[1],
		Zoom:   zoom,
	})
}

// ParentAt maps a tile coordinate at zoom down to its ancestor at
// chunkZoom. Only defined for zoom >= chunkZoom.
func ParentAt(x, y int64, zoom, chunkZoom int) (int64, int64) {
	shift := uint(zoom - chunkZoom)
	return x >> shift, y >> shift
}

// IsDescendant reports whether tile (cx, cy) lies under tile (x, y)
// zoomDifference levels up.
func IsDescendant(cx, cy, x, y int64, zoomDifference int) bool {
	shift := uint(zoomDifference)
	return cx>>shift == x && cy>>shift == y
}
