// Package raster wraps the image primitives the tile engine is built on:
// stretch-resize, crop, transparent padding, alpha compositing and PNG
// encoding, all over non-premultiplied RGBA buffers.
package raster

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// New returns a fully transparent buffer of the given size.
func New(width, height int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}

// ToNRGBA forces an image into non-premultiplied RGBA, adding an alpha
// channel if the source has none.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Bounds().Min == image.Pt(0, 0) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// Resize stretches src to exactly width x height, ignoring aspect ratio.
// Alpha is preserved.
func Resize(src *image.NRGBA, width, height int) *image.NRGBA {
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Crop copies the rectangle r out of src into a fresh buffer anchored at
// the origin.
func Crop(src *image.NRGBA, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

// Pad places src on a transparent width x height canvas at the given
// offset. Clipped edges of the original extent come out transparent.
func Pad(src *image.NRGBA, width, height int, at image.Point) *image.NRGBA {
	dst := New(width, height)
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
	return dst
}

// CompositeOver alpha-composites src over dst at the given offset,
// mutating dst. Later data wins where opaque; earlier data shows through
// transparent regions.
func CompositeOver(dst *image.NRGBA, src *image.NRGBA, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// Clone returns an independent copy of src.
func Clone(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// EncodePNG serializes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
