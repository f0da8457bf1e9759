package imaging

import (
	"fmt"
	"image"

	"pixview/raster"
)

// Context owns the scratch buffers used to run engine primitives on
// free-standing pixels. Images and pixels created by a Context keep a
// reference to it. A Context must not be shared between goroutines.
type Context struct {
	scratch scratchPool
}

func NewContext() *Context {
	return &Context{}
}

// Close releases the scratch buffers. Images created by the context are not
// affected; the pool is rebuilt if the context is used again.
func (c *Context) Close() {
	c.scratch.dispose()
}

// NewImage allocates a zeroed image.
func (c *Context) NewImage(t raster.ColorType, width, height int) (*Image, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown color type %d", t)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBounds, width, height)
	}
	return c.wrap(raster.New(t, width, height)), nil
}

// Decode decodes an encoded image. raster.FormatUnknown sniffs the format.
func (c *Context) Decode(data []byte, hint raster.Format) (*Image, error) {
	buf, err := raster.Decode(data, hint)
	if err != nil {
		return nil, err
	}
	return c.wrap(buf), nil
}

// FromImage copies any image.Image.
func (c *Context) FromImage(img image.Image) *Image {
	return c.wrap(raster.FromImage(img))
}

// NewPixel creates a free-standing pixel. ch must hold exactly one value
// per channel of t; values above the channel maximum are clamped.
func (c *Context) NewPixel(t raster.ColorType, ch Channels) (*Pixel, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown color type %d", t)
	}
	d := raster.Describe(t)
	if len(ch) != d.ChannelCount {
		return nil, fmt.Errorf("%w: %s has %d channels, got %d", ErrChannelLengthMismatch, t, d.ChannelCount, len(ch))
	}
	return c.independent(d, ch), nil
}

func (c *Context) independent(d raster.Descriptor, ch Channels) *Pixel {
	src := &independentSource{ch: make(Channels, d.ChannelCount)}
	src.write(d, ch)
	return &Pixel{ctx: c, color: d, src: src}
}

func (c *Context) wrap(buf *raster.Buffer) *Image {
	img := &Image{}
	img.View = View{ctx: c, buf: buf}
	return img
}

// scratchPool keeps two 1x1 buffers per color type. Slot 0 serves the
// receiver of an operation and slot 1 the other operand.
type scratchPool struct {
	pairs map[raster.ColorType]*[2]*raster.Buffer
}

func (p *scratchPool) borrow(d raster.Descriptor, slot int) *raster.Buffer {
	if p.pairs == nil {
		p.pairs = make(map[raster.ColorType]*[2]*raster.Buffer)
	}
	pair, ok := p.pairs[d.Type]
	if !ok {
		pair = &[2]*raster.Buffer{raster.New(d.Type, 1, 1), raster.New(d.Type, 1, 1)}
		p.pairs[d.Type] = pair
	}
	return pair[slot]
}

func (p *scratchPool) dispose() {
	for _, pair := range p.pairs {
		pair[0].Dispose()
		pair[1].Dispose()
	}
	p.pairs = nil
}
