// Package geoimage turns an uploaded GeoTIFF into a WGS84-georeferenced
// RGBA raster ready for chunking.
package geoimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
	"golang.org/x/image/tiff"

	"github.com/geoforge/dyntile/internal/raster"
)

// ErrDecode marks a malformed or unusable source image. No partial state
// is ever written when it is returned.
var ErrDecode = errors.New("geoimage: decode failed")

const epsgWGS84 = 4326

// GeoImage is a decoded source raster with its geographic placement.
// Extents and scale are signed: the latitude axis runs downward, so
// GeoExtents[1] and Scale[1] are negative. A GeoImage is owned by a single
// ingestion call and never shared.
type GeoImage struct {
	// Origin is the geographic top-left corner (lon, lat).
	Origin orb.Point
	// GeoExtents is the signed geographic width and height.
	GeoExtents orb.Point
	// PixelExtents is the raster size in pixels.
	PixelExtents image.Point
	// Scale is pixels per geographic degree on each axis.
	Scale [2]float64
	// Raster is the full image, alpha channel always present.
	Raster *image.NRGBA
}

// Decode parses the GeoTIFF container, reprojects its native bounding box
// to WGS84 and materializes the raster as NRGBA.
func Decode(raw []byte) (*GeoImage, error) {
	tags, err := parseGeoTags(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	code, err := tags.epsg()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	decoded, err := tiff.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img := raster.ToNRGBA(decoded)
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	// Native top-left and bottom-right corners. The tiepoint anchors
	// raster position (I, J) at model position (X, Y) with Y decreasing
	// downward at the tag's pixel scale.
	tlX := tags.tiepoint[3] - tags.tiepoint[0]*tags.pixelScale[0]
	tlY := tags.tiepoint[4] + tags.tiepoint[1]*tags.pixelScale[1]
	brX := tlX + float64(width)*tags.pixelScale[0]
	brY := tlY - float64(height)*tags.pixelScale[1]

	lon1, lat1, lon2, lat2, err := toWGS84(code, tlX, tlY, brX, brY)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	extents := orb.Point{lon2 - lon1, lat2 - lat1}
	if extents[0] == 0 || extents[1] == 0 {
		return nil, fmt.Errorf("%w: degenerate geographic extents", ErrDecode)
	}

	return &GeoImage{
		Origin:       orb.Point{lon1, lat1},
		GeoExtents:   extents,
		PixelExtents: image.Pt(width, height),
		Scale: [2]float64{
			float64(width) / extents[0],
			float64(height) / extents[1],
		},
		Raster: img,
	}, nil
}

func toWGS84(code int, tlX, tlY, brX, brY float64) (lon1, lat1, lon2, lat2 float64, err error) {
	if code == epsgWGS84 {
		return tlX, tlY, brX, brY, nil
	}

	from := wgs84.EPSG().Code(code)
	if from == nil {
		return 0, 0, 0, 0, fmt.Errorf("unsupported EPSG code %d", code)
	}
	transform := wgs84.Transform(from, wgs84.LonLat())

	lon1, lat1, _ = transform(tlX, tlY, 0)
	lon2, lat2, _ = transform(brX, brY, 0)
	return lon1, lat1, lon2, lat2, nil
}
