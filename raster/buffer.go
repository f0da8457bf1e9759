package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

var (
	ErrDisposed    = errors.New("buffer has been disposed")
	ErrOutOfBounds = errors.New("coordinates out of bounds")
	ErrBitDepth    = errors.New("bit depth does not match buffer")
)

// Compile-time interface checks.
var (
	_ image.Image = (*Buffer)(nil)
	_ draw.Image  = (*Buffer)(nil)
)

// Buffer is an engine-owned pixel buffer. 8-bit color types store their
// channels in pix8, 16-bit ones in pix16, interleaved row by row.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	desc     Descriptor
	width    int
	height   int
	pix8     []uint8
	pix16    []uint16
	disposed bool
}

// New allocates a zeroed buffer. Non-positive dimensions yield an empty buffer.
func New(t ColorType, width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	b := &Buffer{desc: Describe(t), width: width, height: height}
	n := width * height * b.desc.ChannelCount
	if b.desc.BitDepth == 16 {
		b.pix16 = make([]uint16, n)
	} else {
		b.pix8 = make([]uint8, n)
	}
	return b
}

func (b *Buffer) ColorType() ColorType   { return b.desc.Type }
func (b *Buffer) Descriptor() Descriptor { return b.desc }
func (b *Buffer) Width() int             { return b.width }
func (b *Buffer) Height() int            { return b.height }

// Bounds implements image.Image. The origin is always (0, 0).
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Dispose releases the pixel storage. It is safe to call more than once;
// dimensions and color metadata stay readable afterwards.
func (b *Buffer) Dispose() {
	b.pix8, b.pix16 = nil, nil
	b.disposed = true
}

func (b *Buffer) Disposed() bool {
	return b.disposed
}

// Clone returns a deep copy.
func (b *Buffer) Clone() (*Buffer, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	c := &Buffer{desc: b.desc, width: b.width, height: b.height}
	if b.pix8 != nil {
		c.pix8 = append([]uint8(nil), b.pix8...)
	}
	if b.pix16 != nil {
		c.pix16 = append([]uint16(nil), b.pix16...)
	}
	return c, nil
}

// Bytes returns the raw channel data; 16-bit channels are little endian.
func (b *Buffer) Bytes() ([]byte, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	if b.desc.BitDepth == 8 {
		return append([]byte(nil), b.pix8...), nil
	}
	out := make([]byte, 0, len(b.pix16)*2)
	for _, v := range b.pix16 {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out, nil
}

// adopt takes over the storage of other, used by whole-image operations
// so that handles on b stay valid.
func (b *Buffer) adopt(other *Buffer) {
	b.desc, b.width, b.height = other.desc, other.width, other.height
	b.pix8, b.pix16 = other.pix8, other.pix16
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.width + x) * b.desc.ChannelCount
}

func (b *Buffer) check(x, y int) error {
	if b.disposed {
		return ErrDisposed
	}
	if !b.InBounds(x, y) {
		return fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfBounds, x, y, b.width, b.height)
	}
	return nil
}

// channels reads the pixel at (x, y) widened to uint16 without any scaling.
func (b *Buffer) channels(x, y int) []uint16 {
	n := b.desc.ChannelCount
	i := b.offset(x, y)
	out := make([]uint16, n)
	if b.desc.BitDepth == 16 {
		copy(out, b.pix16[i:i+n])
		return out
	}
	for c := range n {
		out[c] = uint16(b.pix8[i+c])
	}
	return out
}

// setChannels writes up to ChannelCount values, clamped to the bit depth.
func (b *Buffer) setChannels(x, y int, ch []uint16) {
	n := min(b.desc.ChannelCount, len(ch))
	i := b.offset(x, y)
	if b.desc.BitDepth == 16 {
		copy(b.pix16[i:i+n], ch[:n])
		return
	}
	for c := range n {
		b.pix8[i+c] = uint8(min(ch[c], 0xff))
	}
}

// Channels8 returns a copy of the channels of an 8-bit pixel.
func (b *Buffer) Channels8(x, y int) ([]uint8, error) {
	if err := b.check(x, y); err != nil {
		return nil, err
	}
	if b.desc.BitDepth != 8 {
		return nil, fmt.Errorf("%w: %s is not 8-bit", ErrBitDepth, b.desc.Type)
	}
	i := b.offset(x, y)
	return append([]uint8(nil), b.pix8[i:i+b.desc.ChannelCount]...), nil
}

// SetChannels8 overwrites the leading len(ch) channels of an 8-bit pixel;
// extra values are ignored and missing ones keep their current value.
func (b *Buffer) SetChannels8(x, y int, ch []uint8) error {
	if err := b.check(x, y); err != nil {
		return err
	}
	if b.desc.BitDepth != 8 {
		return fmt.Errorf("%w: %s is not 8-bit", ErrBitDepth, b.desc.Type)
	}
	i := b.offset(x, y)
	copy(b.pix8[i:i+b.desc.ChannelCount], ch)
	return nil
}

// Channels16 returns a copy of the channels of a 16-bit pixel.
func (b *Buffer) Channels16(x, y int) ([]uint16, error) {
	if err := b.check(x, y); err != nil {
		return nil, err
	}
	if b.desc.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s is not 16-bit", ErrBitDepth, b.desc.Type)
	}
	return b.channels(x, y), nil
}

// SetChannels16 is the 16-bit counterpart of SetChannels8.
func (b *Buffer) SetChannels16(x, y int, ch []uint16) error {
	if err := b.check(x, y); err != nil {
		return err
	}
	if b.desc.BitDepth != 16 {
		return fmt.Errorf("%w: %s is not 16-bit", ErrBitDepth, b.desc.Type)
	}
	i := b.offset(x, y)
	copy(b.pix16[i:i+b.desc.ChannelCount], ch)
	return nil
}

// InvertPixel replaces every color channel v with max-v. Alpha is kept.
func (b *Buffer) InvertPixel(x, y int) error {
	if err := b.check(x, y); err != nil {
		return err
	}
	b.invertAt(x, y)
	return nil
}

func (b *Buffer) invertAt(x, y int) {
	ch := b.channels(x, y)
	alpha := b.desc.AlphaIndex()
	for i := range ch {
		if i != alpha {
			ch[i] = b.desc.MaxValue() - ch[i]
		}
	}
	b.setChannels(x, y, ch)
}

// BlendPixel blends the pixel at (x2, y2) into the one at (x1, y1).
func (b *Buffer) BlendPixel(x1, y1, x2, y2 int) error {
	if err := b.check(x1, y1); err != nil {
		return err
	}
	if err := b.check(x2, y2); err != nil {
		return err
	}
	b.setChannels(x1, y1, blendChannels(b.desc, b.channels(x1, y1), b.channels(x2, y2)))
	return nil
}

// BlendPixelFrom blends the pixel at (sx, sy) of src into the one at (x, y)
// of b. When the color types differ the source pixel is converted first.
func (b *Buffer) BlendPixelFrom(x, y int, src *Buffer, sx, sy int) error {
	if err := b.check(x, y); err != nil {
		return err
	}
	if err := src.check(sx, sy); err != nil {
		return fmt.Errorf("blend source: %w", err)
	}
	other := src.channels(sx, sy)
	if src.desc.Type != b.desc.Type {
		other = b.desc.fromNRGBA64(src.desc.toNRGBA64(other))
	}
	b.setChannels(x, y, blendChannels(b.desc, b.channels(x, y), other))
	return nil
}

// blendChannels averages color channels, rounding down, and keeps the
// larger of the two alpha values.
func blendChannels(d Descriptor, dst, src []uint16) []uint16 {
	alpha := d.AlphaIndex()
	out := make([]uint16, len(dst))
	for i := range dst {
		if i == alpha {
			out[i] = max(dst[i], src[i])
			continue
		}
		out[i] = uint16((uint32(dst[i]) + uint32(src[i])) / 2)
	}
	return out
}

// ConvertPixel returns the pixel at (x, y) expressed in the target color
// type. The bit depth of the result is the target's.
func (b *Buffer) ConvertPixel(x, y int, target ColorType) ([]uint16, error) {
	if err := b.check(x, y); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, fmt.Errorf("unknown target color type %d", target)
	}
	return Describe(target).fromNRGBA64(b.desc.toNRGBA64(b.channels(x, y))), nil
}

// CopyWithin copies the pixels of r to the rectangle of the same size at
// dst. It reports false, without copying anything, when either rectangle
// does not fit in the buffer.
func (b *Buffer) CopyWithin(r image.Rectangle, dst image.Point) (bool, error) {
	if b.disposed {
		return false, ErrDisposed
	}
	if !fits(b, r) || !fits(b, r.Sub(r.Min).Add(dst)) {
		return false, nil
	}
	b.copyRegion(b, r, dst)
	return true, nil
}

// CopyRegion copies r of src into b with its top-left corner at dst.
func (b *Buffer) CopyRegion(src *Buffer, r image.Rectangle, dst image.Point) error {
	if b.disposed || src.disposed {
		return ErrDisposed
	}
	if !fits(src, r) {
		return fmt.Errorf("%w: source region %v not in %v", ErrOutOfBounds, r, src.Bounds())
	}
	if target := r.Sub(r.Min).Add(dst); !fits(b, target) {
		return fmt.Errorf("%w: target region %v not in %v", ErrOutOfBounds, target, b.Bounds())
	}
	b.copyRegion(src, r, dst)
	return nil
}

func (b *Buffer) copyRegion(src *Buffer, r image.Rectangle, dst image.Point) {
	if src == b && r.Overlaps(r.Sub(r.Min).Add(dst)) {
		tmp := New(src.desc.Type, r.Dx(), r.Dy())
		tmp.copyRegion(src, r, image.Point{})
		src, r = tmp, tmp.Bounds()
	}

	if src.desc.Type == b.desc.Type {
		n := b.desc.ChannelCount
		rowLen := r.Dx() * n
		for y := 0; y < r.Dy(); y++ {
			si := src.offset(r.Min.X, r.Min.Y+y)
			di := b.offset(dst.X, dst.Y+y)
			if b.desc.BitDepth == 16 {
				copy(b.pix16[di:di+rowLen], src.pix16[si:si+rowLen])
			} else {
				copy(b.pix8[di:di+rowLen], src.pix8[si:si+rowLen])
			}
		}
		return
	}

	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			ch := src.channels(r.Min.X+x, r.Min.Y+y)
			b.setChannels(dst.X+x, dst.Y+y, b.desc.fromNRGBA64(src.desc.toNRGBA64(ch)))
		}
	}
}

func fits(b *Buffer, r image.Rectangle) bool {
	return !r.Empty() && r.In(b.Bounds())
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	switch {
	case b.desc.Type == L8:
		return color.GrayModel
	case b.desc.Type == L16:
		return color.Gray16Model
	case b.desc.BitDepth == 16:
		return color.NRGBA64Model
	default:
		return color.NRGBAModel
	}
}

// At implements image.Image. Disposed buffers and out-of-range points
// report transparent black.
func (b *Buffer) At(x, y int) color.Color {
	if b.disposed || !b.InBounds(x, y) {
		return color.NRGBA64{}
	}
	ch := b.channels(x, y)
	switch b.desc.Type {
	case L8:
		return color.Gray{Y: uint8(ch[0])}
	case L16:
		return color.Gray16{Y: ch[0]}
	}
	c := b.desc.toNRGBA64(ch)
	if b.desc.BitDepth == 16 {
		return color.NRGBA64{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	return color.NRGBA{R: uint8(c[0] >> 8), G: uint8(c[1] >> 8), B: uint8(c[2] >> 8), A: uint8(c[3] >> 8)}
}

// Set implements draw.Image.
func (b *Buffer) Set(x, y int, c color.Color) {
	if b.disposed || !b.InBounds(x, y) {
		return
	}
	n := toNRGBA64(c)
	b.setChannels(x, y, b.desc.fromNRGBA64([4]uint16{n.R, n.G, n.B, n.A}))
}

// toNRGBA64 avoids the premultiplied round trip for non-premultiplied colors.
func toNRGBA64(c color.Color) color.NRGBA64 {
	switch v := c.(type) {
	case color.NRGBA64:
		return v
	case color.NRGBA:
		return color.NRGBA64{R: uint16(v.R) * 0x101, G: uint16(v.G) * 0x101, B: uint16(v.B) * 0x101, A: uint16(v.A) * 0x101}
	}
	return color.NRGBA64Model.Convert(c).(color.NRGBA64)
}

// Opaque reports whether every pixel is fully opaque. The PNG encoder
// uses it to drop the alpha channel.
func (b *Buffer) Opaque() bool {
	if b.disposed {
		return false
	}
	alpha := b.desc.AlphaIndex()
	if alpha < 0 {
		return true
	}
	n := b.desc.ChannelCount
	if b.desc.BitDepth == 16 {
		for i := alpha; i < len(b.pix16); i += n {
			if b.pix16[i] != 0xffff {
				return false
			}
		}
		return true
	}
	for i := alpha; i < len(b.pix8); i += n {
		if b.pix8[i] != 0xff {
			return false
		}
	}
	return true
}
