package geoimage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TIFF tags carrying the georeferencing of a classic GeoTIFF.
const (
	tagModelPixelScale  = 33550
	tagModelTiepoint    = 33922
	tagGeoKeyDirectory  = 34735
	geoKeyGeographicCRS = 2048
	geoKeyProjectedCRS  = 3072

	typeShort  = 3
	typeLong   = 4
	typeDouble = 12

	epsgUserDefined = 32767
)

// geoTags is the subset of a GeoTIFF IFD the adapter needs: pixel scale,
// the raster-to-model tiepoint and the CRS geokeys.
type geoTags struct {
	pixelScale [3]float64
	tiepoint   [6]float64
	geoKeys    map[uint16]uint16
}

// epsg resolves the source CRS code, preferring a projected CRS over a
// geographic one.
func (t *geoTags) epsg() (int, error) {
	if code, ok := t.geoKeys[geoKeyProjectedCRS]; ok && code != epsgUserDefined {
		return int(code), nil
	}
	if code, ok := t.geoKeys[geoKeyGeographicCRS]; ok && code != epsgUserDefined {
		return int(code), nil
	}
	return 0, fmt.Errorf("no usable CRS geokey")
}

// parseGeoTags walks the first IFD of a classic TIFF and collects the
// georeferencing tags. Raster decoding is left to the image library; this
// only reads the three tags it cannot provide.
func parseGeoTags(raw []byte) (*geoTags, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("truncated header")
	}

	var order binary.ByteOrder
	switch {
	case raw[0] == 'I' && raw[1] == 'I':
		order = binary.LittleEndian
	case raw[0] == 'M' && raw[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF container")
	}
	if order.Uint16(raw[2:4]) != 42 {
		return nil, fmt.Errorf("unsupported TIFF version")
	}

	ifdOffset := order.Uint32(raw[4:8])
	if int(ifdOffset)+2 > len(raw) {
		return nil, fmt.Errorf("IFD offset out of range")
	}

	count := int(order.Uint16(raw[ifdOffset : ifdOffset+2]))
	entries := raw[ifdOffset+2:]
	if len(entries) < count*12 {
		return nil, fmt.Errorf("truncated IFD")
	}

	tags := &geoTags{geoKeys: map[uint16]uint16{}}
	var haveScale, haveTiepoint, haveKeys bool

	for i := 0; i < count; i++ {
		entry := entries[i*12 : i*12+12]
		tag := order.Uint16(entry[0:2])
		typ := order.Uint16(entry[2:4])
		n := order.Uint32(entry[4:8])

		switch tag {
		case tagModelPixelScale:
			vals, err := readDoubles(raw, order, entry, typ, n)
			if err != nil {
				return nil, fmt.Errorf("ModelPixelScale: %v", err)
			}
			if len(vals) < 2 {
				return nil, fmt.Errorf("ModelPixelScale: want at least 2 values, got %d", len(vals))
			}
			copy(tags.pixelScale[:], vals)
			haveScale = true
		case tagModelTiepoint:
			vals, err := readDoubles(raw, order, entry, typ, n)
			if err != nil {
				return nil, fmt.Errorf("ModelTiepoint: %v", err)
			}
			if len(vals) < 6 {
				return nil, fmt.Errorf("ModelTiepoint: want at least 6 values, got %d", len(vals))
			}
			copy(tags.tiepoint[:], vals)
			haveTiepoint = true
		case tagGeoKeyDirectory:
			vals, err := readShorts(raw, order, entry, typ, n)
			if err != nil {
				return nil, fmt.Errorf("GeoKeyDirectory: %v", err)
			}
			// Header is {version, revision, minor, numKeys}; each key is
			// {id, location, count, value} with inline values at location 0.
			if len(vals) < 4 {
				return nil, fmt.Errorf("GeoKeyDirectory: truncated header")
			}
			numKeys := int(vals[3])
			for k := 0; k < numKeys && 4+k*4+3 < len(vals); k++ {
				id := vals[4+k*4]
				location := vals[4+k*4+1]
				value := vals[4+k*4+3]
				if location == 0 {
					tags.geoKeys[id] = value
				}
			}
			haveKeys = true
		}
	}

	if !haveScale || !haveTiepoint || !haveKeys {
		return nil, fmt.Errorf("missing georeferencing tags (scale=%t tiepoint=%t geokeys=%t)",
			haveScale, haveTiepoint, haveKeys)
	}
	return tags, nil
}

func valueBytes(raw []byte, order binary.ByteOrder, entry []byte, size int) ([]byte, error) {
	if size <= 4 {
		return entry[8 : 8+size], nil
	}
	offset := int(order.Uint32(entry[8:12]))
	if offset+size > len(raw) {
		return nil, fmt.Errorf("value offset out of range")
	}
	return raw[offset : offset+size], nil
}

func readDoubles(raw []byte, order binary.ByteOrder, entry []byte, typ uint16, n uint32) ([]float64, error) {
	if typ != typeDouble {
		return nil, fmt.Errorf("unexpected type %d", typ)
	}
	data, err := valueBytes(raw, order, entry, int(n)*8)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.Float64frombits(order.Uint64(data[i*8 : i*8+8]))
	}
	return vals, nil
}

func readShorts(raw []byte, order binary.ByteOrder, entry []byte, typ uint16, n uint32) ([]uint16, error) {
	switch typ {
	case typeShort:
	case typeLong:
		return nil, fmt.Errorf("unexpected LONG geokey directory")
	default:
		return nil, fmt.Errorf("unexpected type %d", typ)
	}
	data, err := valueBytes(raw, order, entry, int(n)*2)
	if err != nil {
		return nil, err
	}
	vals := make([]uint16, n)
	for i := range vals {
		vals[i] = order.Uint16(data[i*2 : i*2+2])
	}
	return vals, nil
}
