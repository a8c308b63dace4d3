package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func assertPixel(t *testing.T, img *image.NRGBA, x, y int, want color.NRGBA, tol float64) {
	t.Helper()
	got := img.NRGBAAt(x, y)
	assert.InDelta(t, want.R, got.R, tol, "R at (%d,%d)", x, y)
	assert.InDelta(t, want.G, got.G, tol, "G at (%d,%d)", x, y)
	assert.InDelta(t, want.B, got.B, tol, "B at (%d,%d)", x, y)
	assert.InDelta(t, want.A, got.A, tol, "A at (%d,%d)", x, y)
}

func TestNewIsTransparent(t *testing.T) {
	img := New(4, 4)
	for _, b := range img.Pix {
		require.Zero(t, b)
	}
}

func TestResize(t *testing.T) {
	src := solid(4, 4, red)

	same := Resize(src, 4, 4)
	assert.Same(t, src, same)

	up := Resize(src, 8, 8)
	assert.Equal(t, 8, up.Bounds().Dx())
	assert.Equal(t, 8, up.Bounds().Dy())
	assertPixel(t, up, 0, 0, red, 1)
	assertPixel(t, up, 7, 7, red, 1)

	down := Resize(src, 2, 2)
	assert.Equal(t, 2, down.Bounds().Dx())
	assertPixel(t, down, 1, 1, red, 1)
}

func TestCropAnchorsAtOrigin(t *testing.T) {
	src := New(4, 4)
	src.SetNRGBA(2, 1, blue)

	got := Crop(src, image.Rect(2, 1, 4, 3))

	assert.Equal(t, image.Rect(0, 0, 2, 2), got.Bounds())
	assertPixel(t, got, 0, 0, blue, 0)
	assertPixel(t, got, 1, 1, color.NRGBA{}, 0)
}

func TestCropCopies(t *testing.T) {
	src := solid(4, 4, red)
	got := Crop(src, src.Bounds())

	got.SetNRGBA(0, 0, blue)
	assertPixel(t, src, 0, 0, red, 0)
}

func TestPad(t *testing.T) {
	src := solid(2, 2, red)

	got := Pad(src, 4, 4, image.Pt(1, 1))

	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	assertPixel(t, got, 0, 0, color.NRGBA{}, 0)
	assertPixel(t, got, 1, 1, red, 0)
	assertPixel(t, got, 2, 2, red, 0)
	assertPixel(t, got, 3, 3, color.NRGBA{}, 0)
}

func TestCompositeOver(t *testing.T) {
	dst := solid(2, 2, red)
	src := New(2, 2)
	src.SetNRGBA(0, 0, blue)
	src.SetNRGBA(0, 1, blue)

	CompositeOver(dst, src, image.Point{})

	// Opaque source wins, transparent source shows the existing data.
	assertPixel(t, dst, 0, 0, blue, 0)
	assertPixel(t, dst, 0, 1, blue, 0)
	assertPixel(t, dst, 1, 0, red, 0)
	assertPixel(t, dst, 1, 1, red, 0)
}

func TestCloneIsIndependent(t *testing.T) {
	src := solid(2, 2, red)
	dup := Clone(src)

	dup.SetNRGBA(0, 0, blue)

	assertPixel(t, src, 0, 0, red, 0)
	assertPixel(t, dup, 0, 0, blue, 0)
}

func TestToNRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	rgba.Set(1, 1, red)

	got := ToNRGBA(rgba)

	assert.Equal(t, image.Pt(0, 0), got.Bounds().Min)
	assertPixel(t, got, 1, 1, red, 0)

	already := New(2, 2)
	assert.Same(t, already, ToNRGBA(already))
}

func TestEncodePNG(t *testing.T) {
	src := solid(3, 2, red)

	data, err := EncodePNG(src)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Bounds().Dx())
	assert.Equal(t, 2, decoded.Bounds().Dy())
}
