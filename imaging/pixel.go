package imaging

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"pixview/raster"
)

// ChannelFunc maps a single channel value.
type ChannelFunc func(v uint16) uint16

// Mapping applies Color to color channels and Alpha to the alpha channel.
// A nil Alpha drops the alpha channel from the result, so that applying the
// mapping leaves alpha untouched. A nil Color keeps color channels as they are.
type Mapping struct {
	Color ChannelFunc
	Alpha ChannelFunc
}

// Pixel is a handle on a single pixel. Pixels returned by a View point into
// the image and fail with ErrDisposed once it is disposed, or with
// ErrStaleHandle once its color type changes. Pixels made with
// Context.NewPixel own their channels.
type Pixel struct {
	ctx   *Context
	color raster.Descriptor
	src   source
}

func (p *Pixel) Color() raster.Descriptor {
	return p.color
}

// Independent reports whether the pixel owns its channels.
func (p *Pixel) Independent() bool {
	_, ok := p.src.(*independentSource)
	return ok
}

// Position returns the absolute position of an image-backed pixel.
func (p *Pixel) Position() (image.Point, bool) {
	if s, ok := p.src.(imageSource); ok {
		return image.Pt(s.x, s.y), true
	}
	return image.Point{}, false
}

// Channels returns a copy of the channel values.
func (p *Pixel) Channels() (Channels, error) {
	ch, err := p.src.read(p.color)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ch), nil
}

// SetChannels overwrites the leading len(ch) channels. Extra values are
// ignored and values above the channel maximum are clamped.
func (p *Pixel) SetChannels(ch Channels) error {
	return p.src.write(p.color, ch)
}

// Clone returns a free-standing copy.
func (p *Pixel) Clone() (*Pixel, error) {
	ch, err := p.Channels()
	if err != nil {
		return nil, err
	}
	return p.ctx.independent(p.color, ch), nil
}

// Map returns fn applied to every channel, alpha included.
func (p *Pixel) Map(fn ChannelFunc) (Channels, error) {
	return p.MapWith(Mapping{Color: fn, Alpha: fn})
}

func (p *Pixel) MapWith(m Mapping) (Channels, error) {
	ch, err := p.Channels()
	if err != nil {
		return nil, err
	}

	alpha := p.color.AlphaIndex()
	if alpha >= 0 && m.Alpha == nil {
		ch = ch[:alpha]
	}
	for i, v := range ch {
		switch {
		case i == alpha:
			ch[i] = m.Alpha(v)
		case m.Color != nil:
			ch[i] = m.Color(v)
		}
	}
	return ch, nil
}

func (p *Pixel) Apply(fn ChannelFunc) error {
	return p.ApplyWith(Mapping{Color: fn, Alpha: fn})
}

func (p *Pixel) ApplyWith(m Mapping) error {
	ch, err := p.MapWith(m)
	if err != nil {
		return err
	}
	return p.SetChannels(ch)
}

// Map2 combines the channels of p and other index by index.
func (p *Pixel) Map2(other *Pixel, fn func(a, b uint16) uint16) (Channels, error) {
	a, err := p.Channels()
	if err != nil {
		return nil, err
	}
	b, err := other.Channels()
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d and %d", ErrChannelLengthMismatch, len(a), len(b))
	}
	for i := range a {
		a[i] = fn(a[i], b[i])
	}
	return a, nil
}

func (p *Pixel) Apply2(other *Pixel, fn func(a, b uint16) uint16) error {
	ch, err := p.Map2(other, fn)
	if err != nil {
		return err
	}
	return p.SetChannels(ch)
}

// borrow exposes the pixel as an engine position. A free-standing pixel is
// copied into the scratch buffer for slot and the returned release copies it
// back and restores the pixel's own storage.
func (p *Pixel) borrow(slot int) (imageSource, func() error, error) {
	switch s := p.src.(type) {
	case imageSource:
		if err := s.check(p.color); err != nil {
			return imageSource{}, nil, err
		}
		return s, func() error { return nil }, nil
	case *independentSource:
		buf := p.ctx.scratch.borrow(p.color, slot)
		if err := writeChannels(buf, p.color, 0, 0, s.ch); err != nil {
			return imageSource{}, nil, err
		}
		borrowed := imageSource{buf: buf}
		p.src = borrowed
		release := func() error {
			p.src = s
			ch, err := readChannels(buf, p.color, 0, 0)
			if err != nil {
				return err
			}
			copy(s.ch, ch)
			return nil
		}
		return borrowed, release, nil
	default:
		panic(fmt.Sprintf("unexpected pixel source %T", s))
	}
}

// Invert replaces every color channel v with max-v. Alpha is kept.
func (p *Pixel) Invert() error {
	s, release, err := p.borrow(0)
	if err != nil {
		return err
	}
	err = s.buf.InvertPixel(s.x, s.y)
	if rerr := release(); err == nil {
		err = rerr
	}
	return err
}

// Blend averages p with other, rounding down, and keeps the larger alpha.
// The result is written to p. When the color types differ other is
// converted to p's type first.
func (p *Pixel) Blend(other *Pixel) error {
	if a, ok := p.src.(imageSource); ok {
		if b, ok := other.src.(imageSource); ok && a.buf == b.buf {
			if err := errors.Join(a.check(p.color), b.check(other.color)); err != nil {
				return err
			}
			return a.buf.BlendPixel(a.x, a.y, b.x, b.y)
		}
	}

	self, releaseSelf, err := p.borrow(0)
	if err != nil {
		return err
	}
	src, releaseOther, err := other.borrow(1)
	if err != nil {
		return errors.Join(err, releaseSelf())
	}

	err = self.buf.BlendPixelFrom(self.x, self.y, src.buf, src.x, src.y)
	if rerr := releaseSelf(); err == nil {
		err = rerr
	}
	if rerr := releaseOther(); err == nil {
		err = rerr
	}
	return err
}

// convert returns a free-standing copy of p in color type t.
func (p *Pixel) convert(t raster.ColorType) (*Pixel, error) {
	s, release, err := p.borrow(0)
	if err != nil {
		return nil, err
	}
	ch, err := s.buf.ConvertPixel(s.x, s.y, t)
	if rerr := release(); err == nil {
		err = rerr
	}
	if err != nil {
		return nil, err
	}
	return p.ctx.independent(raster.Describe(t), ch), nil
}

func (p *Pixel) depthType(t8, t16 raster.ColorType) raster.ColorType {
	if p.color.BitDepth == 16 {
		return t16
	}
	return t8
}

func (p *Pixel) ToLuma() (*Pixel, error) {
	return p.convert(p.depthType(raster.L8, raster.L16))
}

func (p *Pixel) ToLumaAlpha() (*Pixel, error) {
	return p.convert(p.depthType(raster.La8, raster.La16))
}

func (p *Pixel) ToRgb() (*Pixel, error) {
	return p.convert(p.depthType(raster.Rgb8, raster.Rgb16))
}

func (p *Pixel) ToRgba() (*Pixel, error) {
	return p.convert(p.depthType(raster.Rgba8, raster.Rgba16))
}

// ToBgr fails with ErrUnsupportedBitDepth for 16-bit pixels.
func (p *Pixel) ToBgr() (*Pixel, error) {
	if p.color.BitDepth == 16 {
		return nil, fmt.Errorf("%w: no 16-bit BGR layout", ErrUnsupportedBitDepth)
	}
	return p.convert(raster.Bgr8)
}

func (p *Pixel) ToBgra() (*Pixel, error) {
	if p.color.BitDepth == 16 {
		return nil, fmt.Errorf("%w: no 16-bit BGRA layout", ErrUnsupportedBitDepth)
	}
	return p.convert(raster.Bgra8)
}
