package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnknownFormat     = errors.New("unknown image format")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Format names an encoded image format. FormatUnknown asks Decode to sniff.
type Format uint8

const (
	FormatUnknown Format = iota
	PNG
	JPEG
	GIF
	BMP
	TIFF
	WebP
)

var formatNames = map[Format]string{
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	BMP:  "bmp",
	TIFF: "tiff",
	WebP: "webp",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat maps a format name (as registered with the image package,
// plus "jpg" and "tif") to a Format.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(name)
	switch name {
	case "jpg":
		return JPEG, nil
	case "tif":
		return TIFF, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// GuessFormat sniffs the format of an encoded image.
func GuessFormat(data []byte) (Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %w", ErrUnknownFormat, err)
	}
	return ParseFormat(name)
}

// DecodeDimensions reads the width and height of an encoded image without
// decoding its pixels.
func DecodeDimensions(data []byte) (int, int, error) {
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("could not read image header: %w", err)
	}
	return conf.Width, conf.Height, nil
}

// Decode decodes data into a new buffer. A hint other than FormatUnknown
// must match the sniffed format.
func Decode(data []byte, hint Format) (*Buffer, error) {
	found, err := GuessFormat(data)
	if err != nil {
		return nil, err
	}
	if hint != FormatUnknown && hint != found {
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrUnknownFormat, hint, found)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s image: %w", found, err)
	}
	return FromImage(img), nil
}

// FromImage copies img into a new buffer whose color type follows the
// decoded image's model.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	b := New(colorTypeOf(img), r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
	return b
}

type opaquer interface {
	Opaque() bool
}

func colorTypeOf(img image.Image) ColorType {
	opaque := false
	if o, ok := img.(opaquer); ok {
		opaque = o.Opaque()
	}

	switch v := img.(type) {
	case *image.Gray:
		return L8
	case *image.Gray16:
		return L16
	case *image.YCbCr, *image.CMYK:
		return Rgb8
	case *Buffer:
		return v.desc.Type
	}

	switch img.ColorModel() {
	case color.RGBA64Model, color.NRGBA64Model:
		if opaque {
			return Rgb16
		}
		return Rgba16
	}
	if opaque {
		return Rgb8
	}
	return Rgba8
}

// EncodeOptions selects the output format. Quality only applies to JPEG
// (1..100, 0 means 100).
type EncodeOptions struct {
	Format  Format
	Quality int
}

// Encode writes b in the requested format.
func (b *Buffer) Encode(w io.Writer, opts EncodeOptions) error {
	if b.disposed {
		return ErrDisposed
	}

	var err error
	switch opts.Format {
	case PNG:
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		err = enc.Encode(w, b)
	case JPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 100
		}
		err = jpeg.Encode(w, b, &jpeg.Options{Quality: quality})
	case GIF:
		err = gif.Encode(w, b, nil)
	case BMP:
		err = bmp.Encode(w, b)
	case TIFF:
		err = tiff.Encode(w, b, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", opts.Format, err)
	}
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
