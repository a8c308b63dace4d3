package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoforge/dyntile/internal/tilemath"
)

// FetchTileRequest is the WMTS-flavored parameter set of GET /fetch. All
// fixed-value parameters default to their only accepted value and are
// rejected when anything else is sent.
type FetchTileRequest struct {
	Service       string `form:"SERVICE,default=WMTS" validate:"eq=WMTS"`
	RequestType   string `form:"REQUESTTYPE,default=GetTile" validate:"eq=GetTile"`
	Version       string `form:"VERSION,default=1.0.0" validate:"eq=1.0.0"`
	Layer         string `form:"LAYER" validate:"required"`
	Style         string `form:"STYLE,default=raster" validate:"eq=raster"`
	MimeType      string `form:"MIMETYPE,default=image/png" validate:"eq=image/png"`
	TileMatrixSet string `form:"TILEMATRIXSET,default=EPSG:900913" validate:"eq=EPSG:900913"`
	TileMatrix    string `form:"TILEMATRIX,default=EPSG:900913" validate:"eq=EPSG:900913"`
	TileCol       *int64 `form:"TILECOL" validate:"required"`
	TileRow       *int64 `form:"TILEROW" validate:"required"`
	Zoom          *int   `form:"ZOOM" validate:"required"`
}

// UpdatedTilesRequest is the parameter set of GET /dynamicboundingbox.
type UpdatedTilesRequest struct {
	Layer string `form:"LAYER" validate:"required"`
	BBox  string `form:"BBOX" validate:"required"`
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat,zoom". Corner order is not
// enforced; the tile math normalizes per axis.
func (r UpdatedTilesRequest) ParseBBox() (tilemath.BBox, error) {
	parts := strings.Split(r.BBox, ",")
	if len(parts) != 5 {
		return tilemath.BBox{}, fmt.Errorf("BBOX must be 5 comma separated numbers")
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return tilemath.BBox{}, fmt.Errorf("BBOX value %q is not numeric", parts[i])
		}
		vals[i] = v
	}

	zoom, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return tilemath.BBox{}, fmt.Errorf("BBOX zoom %q is not an integer", parts[4])
	}

	return tilemath.BBox{
		MinLon: vals[0],
		MinLat: vals[1],
		MaxLon: vals[2],
		MaxLat: vals[3],
		Zoom:   zoom,
	}, nil
}
