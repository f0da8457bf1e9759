package imaging

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"pixview/raster"
)

// Image owns an engine buffer and is the root View on it.
//
// Whole-image operations modify the buffer in place, so views and pixel
// handles stay attached to the same image. Operations that change the
// color type (Grayscale) make existing pixel handles fail with
// ErrStaleHandle.
type Image struct {
	View
}

func (img *Image) Color() raster.Descriptor {
	return img.buf.Descriptor()
}

// Dispose releases the pixel buffer. Every view and pixel derived from the
// image fails with ErrDisposed afterwards; dimensions stay readable.
func (img *Image) Dispose() {
	img.buf.Dispose()
}

func (img *Image) Disposed() bool {
	return img.buf.Disposed()
}

// Clone returns an independent deep copy.
func (img *Image) Clone() (*Image, error) {
	buf, err := img.buf.Clone()
	if err != nil {
		return nil, err
	}
	return img.ctx.wrap(buf), nil
}

// ConvertTo returns a copy of the image in another color type.
func (img *Image) ConvertTo(t raster.ColorType) (*Image, error) {
	buf, err := img.buf.ConvertTo(t)
	if err != nil {
		return nil, fmt.Errorf("could not convert to %s: %w", t, err)
	}
	return img.ctx.wrap(buf), nil
}

func (img *Image) Encode(w io.Writer, opts raster.EncodeOptions) error {
	return img.buf.Encode(w, opts)
}

// Bytes returns the raw channel data.
func (img *Image) Bytes() ([]byte, error) {
	return img.buf.Bytes()
}

func (img *Image) Crop(r image.Rectangle) error {
	return img.buf.Crop(r)
}

func (img *Image) Resize(w, h int, filter raster.FilterType) error {
	return img.buf.Resize(w, h, filter)
}

func (img *Image) ResizeExact(w, h int, filter raster.FilterType) error {
	return img.buf.ResizeExact(w, h, filter)
}

func (img *Image) Thumbnail(w, h int) error {
	return img.buf.Thumbnail(w, h)
}

func (img *Image) ThumbnailExact(w, h int) error {
	return img.buf.ThumbnailExact(w, h)
}

func (img *Image) Grayscale() error {
	return img.buf.Grayscale()
}

func (img *Image) Invert() error {
	return img.buf.Invert()
}

func (img *Image) Blur(sigma float64) error {
	return img.buf.Blur(sigma)
}

func (img *Image) Unsharpen(sigma float64, threshold int) error {
	return img.buf.Unsharpen(sigma, threshold)
}

func (img *Image) Filter3x3(kernel [9]float64) error {
	return img.buf.Filter3x3(kernel)
}

func (img *Image) AdjustContrast(contrast float64) error {
	return img.buf.AdjustContrast(contrast)
}

func (img *Image) Brighten(value int) error {
	return img.buf.Brighten(value)
}

func (img *Image) HueRotate(degrees float64) error {
	return img.buf.HueRotate(degrees)
}

func (img *Image) FlipH() error     { return img.buf.FlipH() }
func (img *Image) FlipV() error     { return img.buf.FlipV() }
func (img *Image) Rotate90() error  { return img.buf.Rotate90() }
func (img *Image) Rotate180() error { return img.buf.Rotate180() }
func (img *Image) Rotate270() error { return img.buf.Rotate270() }

// Quantize reduces the image to pal, with Floyd-Steinberg dithering if
// requested.
func (img *Image) Quantize(pal color.Palette, dither bool) error {
	return img.buf.Quantize(pal, dither)
}

// QuantizeWith maps every pixel through m.
func (img *Image) QuantizeWith(m color.Model) error {
	return img.buf.QuantizeWith(m)
}
