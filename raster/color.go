package raster

import (
	"fmt"
	"strings"
)

// ColorType identifies the channel layout and bit depth of a buffer.
type ColorType uint8

const (
	// L8 is 8-bit luminance.
	L8 ColorType = iota
	// La8 is 8-bit luminance with an alpha channel.
	La8
	// Rgb8 holds 8-bit R, G and B channels.
	Rgb8
	// Rgba8 is 8-bit RGB with an alpha channel.
	Rgba8
	// Bgr8 holds 8-bit B, G and R channels.
	Bgr8
	// Bgra8 is 8-bit BGR with an alpha channel.
	Bgra8
	// L16 is 16-bit luminance.
	L16
	// La16 is 16-bit luminance with an alpha channel.
	La16
	// Rgb16 is 16-bit RGB.
	Rgb16
	// Rgba16 is 16-bit RGBA.
	Rgba16

	colorTypeCount
)

// Descriptor is the static metadata of a ColorType.
type Descriptor struct {
	Type          ColorType
	BitDepth      int
	ChannelCount  int
	HasAlpha      bool
	HasColor      bool
	BytesPerPixel int
}

var descriptorTable = [colorTypeCount]Descriptor{
	L8:     {Type: L8, BitDepth: 8, ChannelCount: 1, BytesPerPixel: 1},
	La8:    {Type: La8, BitDepth: 8, ChannelCount: 2, HasAlpha: true, BytesPerPixel: 2},
	Rgb8:   {Type: Rgb8, BitDepth: 8, ChannelCount: 3, HasColor: true, BytesPerPixel: 3},
	Rgba8:  {Type: Rgba8, BitDepth: 8, ChannelCount: 4, HasAlpha: true, HasColor: true, BytesPerPixel: 4},
	Bgr8:   {Type: Bgr8, BitDepth: 8, ChannelCount: 3, HasColor: true, BytesPerPixel: 3},
	Bgra8:  {Type: Bgra8, BitDepth: 8, ChannelCount: 4, HasAlpha: true, HasColor: true, BytesPerPixel: 4},
	L16:    {Type: L16, BitDepth: 16, ChannelCount: 1, BytesPerPixel: 2},
	La16:   {Type: La16, BitDepth: 16, ChannelCount: 2, HasAlpha: true, BytesPerPixel: 4},
	Rgb16:  {Type: Rgb16, BitDepth: 16, ChannelCount: 3, HasColor: true, BytesPerPixel: 6},
	Rgba16: {Type: Rgba16, BitDepth: 16, ChannelCount: 4, HasAlpha: true, HasColor: true, BytesPerPixel: 8},
}

var colorTypeNames = [colorTypeCount]string{
	L8: "L8", La8: "La8", Rgb8: "Rgb8", Rgba8: "Rgba8", Bgr8: "Bgr8", Bgra8: "Bgra8",
	L16: "L16", La16: "La16", Rgb16: "Rgb16", Rgba16: "Rgba16",
}

// Describe returns the descriptor of t. Unknown types yield the zero Descriptor.
func Describe(t ColorType) Descriptor {
	if !t.Valid() {
		return Descriptor{}
	}
	return descriptorTable[t]
}

func (t ColorType) Valid() bool {
	return t < colorTypeCount
}

func (t ColorType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ColorType(%d)", uint8(t))
	}
	return colorTypeNames[t]
}

// ParseColorType accepts the names returned by ColorType.String, case-insensitively.
func ParseColorType(s string) (ColorType, error) {
	for t, name := range colorTypeNames {
		if strings.EqualFold(name, s) {
			return ColorType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown color type %q", s)
}

// MaxValue is the largest channel value representable at the descriptor's bit depth.
func (d Descriptor) MaxValue() uint16 {
	if d.BitDepth == 16 {
		return 0xffff
	}
	return 0xff
}

// AlphaIndex returns the index of the alpha channel, or -1.
func (d Descriptor) AlphaIndex() int {
	if !d.HasAlpha {
		return -1
	}
	return d.ChannelCount - 1
}

// isBGR reports whether color channels are stored in reverse order.
func (d Descriptor) isBGR() bool {
	return d.Type == Bgr8 || d.Type == Bgra8
}

// toNRGBA64 widens raw channels to non-premultiplied 16-bit RGBA.
func (d Descriptor) toNRGBA64(ch []uint16) [4]uint16 {
	widen := func(v uint16) uint16 {
		if d.BitDepth == 8 {
			return v * 0x101
		}
		return v
	}

	var out [4]uint16
	out[3] = 0xffff
	if d.HasColor {
		r, g, b := ch[0], ch[1], ch[2]
		if d.isBGR() {
			r, b = b, r
		}
		out[0], out[1], out[2] = widen(r), widen(g), widen(b)
	} else {
		y := widen(ch[0])
		out[0], out[1], out[2] = y, y, y
	}
	if d.HasAlpha {
		out[3] = widen(ch[d.ChannelCount-1])
	}
	return out
}

// fromNRGBA64 narrows non-premultiplied 16-bit RGBA into raw channels of d.
func (d Descriptor) fromNRGBA64(c [4]uint16) []uint16 {
	narrow := func(v uint16) uint16 {
		if d.BitDepth == 8 {
			return uint16((uint32(v)*0xff + 0x7fff) / 0xffff)
		}
		return v
	}

	out := make([]uint16, d.ChannelCount)
	if d.HasColor {
		r, g, b := narrow(c[0]), narrow(c[1]), narrow(c[2])
		if d.isBGR() {
			r, b = b, r
		}
		out[0], out[1], out[2] = r, g, b
	} else {
		out[0] = narrow(luma(c[0], c[1], c[2]))
	}
	if d.HasAlpha {
		out[d.ChannelCount-1] = narrow(c[3])
	}
	return out
}

// luma uses the Rec. 709 coefficients.
func luma(r, g, b uint16) uint16 {
	return uint16((2126*uint64(r) + 7152*uint64(g) + 722*uint64(b) + 5000) / 10000)
}
