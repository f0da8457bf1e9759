package imaging

import (
	"fmt"

	"pixview/raster"
)

// Channels holds one value per channel, widened to 16 bits regardless of
// the bit depth of the pixel.
type Channels []uint16

// source is where a pixel's channels live: either a position in an engine
// buffer (imageSource) or a private slice (*independentSource).
type source interface {
	read(d raster.Descriptor) (Channels, error)
	write(d raster.Descriptor, ch Channels) error
	isSource()
}

type imageSource struct {
	buf  *raster.Buffer
	x, y int
}

// check fails when the buffer no longer has the color type d the handle
// was made with.
func (s imageSource) check(d raster.Descriptor) error {
	if t := s.buf.ColorType(); t != d.Type {
		return fmt.Errorf("%w: made for %s, image is now %s", ErrStaleHandle, d.Type, t)
	}
	return nil
}

func (s imageSource) read(d raster.Descriptor) (Channels, error) {
	if err := s.check(d); err != nil {
		return nil, err
	}
	return readChannels(s.buf, d, s.x, s.y)
}

func (s imageSource) write(d raster.Descriptor, ch Channels) error {
	if err := s.check(d); err != nil {
		return err
	}
	return writeChannels(s.buf, d, s.x, s.y, ch)
}

func (imageSource) isSource() {}

type independentSource struct {
	ch Channels
}

func (s *independentSource) read(raster.Descriptor) (Channels, error) {
	return s.ch, nil
}

// write copies the leading values of ch; trailing channels keep their value.
func (s *independentSource) write(d raster.Descriptor, ch Channels) error {
	maxValue := d.MaxValue()
	for i := range min(len(s.ch), len(ch)) {
		s.ch[i] = min(ch[i], maxValue)
	}
	return nil
}

func (*independentSource) isSource() {}

// readChannels and writeChannels pick the engine accessor for the bit depth.
func readChannels(buf *raster.Buffer, d raster.Descriptor, x, y int) (Channels, error) {
	if d.BitDepth == 16 {
		ch, err := buf.Channels16(x, y)
		return Channels(ch), err
	}

	ch, err := buf.Channels8(x, y)
	if err != nil {
		return nil, err
	}
	out := make(Channels, len(ch))
	for i, v := range ch {
		out[i] = uint16(v)
	}
	return out, nil
}

func writeChannels(buf *raster.Buffer, d raster.Descriptor, x, y int, ch Channels) error {
	if d.BitDepth == 16 {
		return buf.SetChannels16(x, y, ch)
	}

	out := make([]uint8, len(ch))
	for i, v := range ch {
		out[i] = uint8(min(v, 0xff))
	}
	return buf.SetChannels8(x, y, out)
}
