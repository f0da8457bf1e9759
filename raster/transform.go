package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"pixview/okcolor"

	"golang.org/x/image/draw"
)

var ErrInvalidSize = errors.New("invalid target size")

// FilterType selects the resampling kernel used by Resize.
type FilterType uint8

const (
	Nearest FilterType = iota
	Triangle
	CatmullRom
	Gaussian
	Lanczos3
)

var filterNames = [...]string{
	Nearest:    "nearest",
	Triangle:   "triangle",
	CatmullRom: "catmullrom",
	Gaussian:   "gaussian",
	Lanczos3:   "lanczos3",
}

func (f FilterType) String() string {
	if int(f) < len(filterNames) {
		return filterNames[f]
	}
	return fmt.Sprintf("FilterType(%d)", uint8(f))
}

func ParseFilterType(s string) (FilterType, error) {
	for f, name := range filterNames {
		if name == s {
			return FilterType(f), nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

var (
	gaussianKernel = &draw.Kernel{
		Support: 3,
		At: func(t float64) float64 {
			return math.Exp(-2*t*t) * math.Sqrt(2/math.Pi)
		},
	}
	lanczos3Kernel = &draw.Kernel{
		Support: 3,
		At: func(t float64) float64 {
			return sinc(t) * sinc(t/3)
		},
	}
)

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	t *= math.Pi
	return math.Sin(t) / t
}

func (f FilterType) scaler() draw.Scaler {
	switch f {
	case Nearest:
		return draw.NearestNeighbor
	case Triangle:
		return draw.BiLinear
	case Gaussian:
		return gaussianKernel
	case Lanczos3:
		return lanczos3Kernel
	default:
		return draw.CatmullRom
	}
}

// fitDimensions scales w x h to fit within nw x nh keeping the aspect ratio.
func fitDimensions(w, h, nw, nh int) (int, int) {
	ratio := min(float64(nw)/float64(w), float64(nh)/float64(h))
	return max(int(math.Round(float64(w)*ratio)), 1), max(int(math.Round(float64(h)*ratio)), 1)
}

func (b *Buffer) checkResize(w, h int) error {
	if b.disposed {
		return ErrDisposed
	}
	if w <= 0 || h <= 0 || b.width == 0 || b.height == 0 {
		return fmt.Errorf("%w: %dx%d to %dx%d", ErrInvalidSize, b.width, b.height, w, h)
	}
	return nil
}

func (b *Buffer) scale(w, h int, s draw.Scaler) {
	dst := New(b.desc.Type, w, h)
	s.Scale(dst, dst.Bounds(), b, b.Bounds(), draw.Src, nil)
	b.adopt(dst)
}

// Resize scales the image to fit within w x h, keeping its aspect ratio.
func (b *Buffer) Resize(w, h int, filter FilterType) error {
	if err := b.checkResize(w, h); err != nil {
		return err
	}
	w, h = fitDimensions(b.width, b.height, w, h)
	b.scale(w, h, filter.scaler())
	return nil
}

// ResizeExact scales the image to exactly w x h.
func (b *Buffer) ResizeExact(w, h int, filter FilterType) error {
	if err := b.checkResize(w, h); err != nil {
		return err
	}
	b.scale(w, h, filter.scaler())
	return nil
}

// Thumbnail is a faster, lower quality Resize.
func (b *Buffer) Thumbnail(w, h int) error {
	if err := b.checkResize(w, h); err != nil {
		return err
	}
	w, h = fitDimensions(b.width, b.height, w, h)
	b.scale(w, h, draw.ApproxBiLinear)
	return nil
}

func (b *Buffer) ThumbnailExact(w, h int) error {
	if err := b.checkResize(w, h); err != nil {
		return err
	}
	b.scale(w, h, draw.ApproxBiLinear)
	return nil
}

// remap builds a w x h buffer whose pixel (x, y) is taken from the
// position returned by src.
func (b *Buffer) remap(w, h int, src func(x, y int) (int, int)) {
	dst := New(b.desc.Type, w, h)
	for y := range h {
		for x := range w {
			sx, sy := src(x, y)
			dst.setChannels(x, y, b.channels(sx, sy))
		}
	}
	b.adopt(dst)
}

// Crop keeps the part of r that lies inside the image.
func (b *Buffer) Crop(r image.Rectangle) error {
	if b.disposed {
		return ErrDisposed
	}
	r = r.Intersect(b.Bounds())
	if r.Empty() {
		return fmt.Errorf("%w: crop %v outside %v", ErrOutOfBounds, r, b.Bounds())
	}
	b.remap(r.Dx(), r.Dy(), func(x, y int) (int, int) {
		return r.Min.X + x, r.Min.Y + y
	})
	return nil
}

func (b *Buffer) FlipH() error {
	if b.disposed {
		return ErrDisposed
	}
	w := b.width
	b.remap(b.width, b.height, func(x, y int) (int, int) { return w - 1 - x, y })
	return nil
}

func (b *Buffer) FlipV() error {
	if b.disposed {
		return ErrDisposed
	}
	h := b.height
	b.remap(b.width, b.height, func(x, y int) (int, int) { return x, h - 1 - y })
	return nil
}

// Rotate90 rotates clockwise by a quarter turn.
func (b *Buffer) Rotate90() error {
	if b.disposed {
		return ErrDisposed
	}
	h := b.height
	b.remap(b.height, b.width, func(x, y int) (int, int) { return y, h - 1 - x })
	return nil
}

func (b *Buffer) Rotate180() error {
	if b.disposed {
		return ErrDisposed
	}
	w, h := b.width, b.height
	b.remap(w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	return nil
}

// Rotate270 rotates counter-clockwise by a quarter turn.
func (b *Buffer) Rotate270() error {
	if b.disposed {
		return ErrDisposed
	}
	w := b.width
	b.remap(b.height, b.width, func(x, y int) (int, int) { return w - 1 - y, x })
	return nil
}

// ConvertTo returns a copy of the image in another color type.
func (b *Buffer) ConvertTo(t ColorType) (*Buffer, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	if !t.Valid() {
		return nil, fmt.Errorf("unknown target color type %d", t)
	}
	dst := New(t, b.width, b.height)
	if b.width > 0 && b.height > 0 {
		dst.copyRegion(b, b.Bounds(), image.Point{})
	}
	return dst, nil
}

// grayType is the luminance type with the same depth and alpha as t.
func grayType(d Descriptor) ColorType {
	switch {
	case d.BitDepth == 16 && d.HasAlpha:
		return La16
	case d.BitDepth == 16:
		return L16
	case d.HasAlpha:
		return La8
	default:
		return L8
	}
}

// Grayscale converts the image to luminance, keeping bit depth and alpha.
func (b *Buffer) Grayscale() error {
	g, err := b.ConvertTo(grayType(b.desc))
	if err != nil {
		return err
	}
	b.adopt(g)
	return nil
}

// Invert inverts every color channel of every pixel.
func (b *Buffer) Invert() error {
	if b.disposed {
		return ErrDisposed
	}
	for y := range b.height {
		for x := range b.width {
			b.invertAt(x, y)
		}
	}
	return nil
}

// mapColor rewrites the color channels of every pixel. Alpha is kept.
func (b *Buffer) mapColor(fn func(v uint16) uint16) {
	alpha := b.desc.AlphaIndex()
	for y := range b.height {
		for x := range b.width {
			ch := b.channels(x, y)
			for i := range ch {
				if i != alpha {
					ch[i] = fn(ch[i])
				}
			}
			b.setChannels(x, y, ch)
		}
	}
}

// Brighten adds value to every color channel, saturating at 0 and the maximum.
func (b *Buffer) Brighten(value int) error {
	if b.disposed {
		return ErrDisposed
	}
	maxValue := int(b.desc.MaxValue())
	b.mapColor(func(v uint16) uint16 {
		return uint16(min(max(int(v)+value, 0), maxValue))
	})
	return nil
}

// AdjustContrast changes contrast by the given percentage; negative values
// reduce it.
func (b *Buffer) AdjustContrast(contrast float64) error {
	if b.disposed {
		return ErrDisposed
	}
	maxValue := float64(b.desc.MaxValue())
	percent := math.Pow((100+contrast)/100, 2)
	b.mapColor(func(v uint16) uint16 {
		d := ((float64(v)/maxValue-0.5)*percent + 0.5) * maxValue
		return uint16(min(max(math.Round(d), 0), maxValue))
	})
	return nil
}

// HueRotate rotates the hue of every pixel by degrees in the Oklab space.
// Luminance images are left unchanged.
func (b *Buffer) HueRotate(degrees float64) error {
	if b.disposed {
		return ErrDisposed
	}
	if !b.desc.HasColor {
		return nil
	}
	for y := range b.height {
		for x := range b.width {
			c := b.desc.toNRGBA64(b.channels(x, y))
			lc := okcolor.FromSRGB(c[0], c[1], c[2], c[3]).LCh().RotateHue(degrees)
			r, g, bl := lc.Lab().SRGB()
			b.setChannels(x, y, b.desc.fromNRGBA64([4]uint16{r, g, bl, c[3]}))
		}
	}
	return nil
}

// Quantize maps every pixel to the nearest palette entry, optionally with
// Floyd-Steinberg error diffusion. The color type is kept.
func (b *Buffer) Quantize(pal color.Palette, dither bool) error {
	if b.disposed {
		return ErrDisposed
	}
	if len(pal) == 0 {
		return errors.New("empty palette")
	}
	r := b.Bounds()
	dst := image.NewPaletted(r, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, r, b, r.Min)
	} else {
		draw.Draw(dst, r, b, r.Min, draw.Src)
	}
	draw.Draw(b, r, dst, r.Min, draw.Src)
	return nil
}

// QuantizeWith converts every pixel through m, typically a perceptual
// palette matcher.
func (b *Buffer) QuantizeWith(m color.Model) error {
	if b.disposed {
		return ErrDisposed
	}
	for y := range b.height {
		for x := range b.width {
			b.Set(x, y, m.Convert(b.At(x, y)))
		}
	}
	return nil
}

// floats returns all raw channels as float64.
func (b *Buffer) floats() []float64 {
	out := make([]float64, b.width*b.height*b.desc.ChannelCount)
	if b.desc.BitDepth == 16 {
		for i, v := range b.pix16 {
			out[i] = float64(v)
		}
		return out
	}
	for i, v := range b.pix8 {
		out[i] = float64(v)
	}
	return out
}

// storeFloats rounds and clamps f into the raw channels. Channels for
// which keep returns true are left untouched.
func (b *Buffer) storeFloats(f []float64, keep func(c int) bool) {
	maxValue := float64(b.desc.MaxValue())
	n := b.desc.ChannelCount
	for i, v := range f {
		if keep != nil && keep(i%n) {
			continue
		}
		v = min(max(math.Round(v), 0), maxValue)
		if b.desc.BitDepth == 16 {
			b.pix16[i] = uint16(v)
		} else {
			b.pix8[i] = uint8(v)
		}
	}
}

func gaussianWeights(sigma float64) []float64 {
	radius := max(int(math.Ceil(3*sigma)), 1)
	weights := make([]float64, 2*radius+1)
	var sum float64
	for i := range weights {
		d := float64(i - radius)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

// blurred returns the raw channels convolved with a separable gaussian.
// Edges are extended.
func (b *Buffer) blurred(sigma float64) []float64 {
	weights := gaussianWeights(sigma)
	radius := len(weights) / 2
	n, w, h := b.desc.ChannelCount, b.width, b.height

	src := b.floats()
	tmp := make([]float64, len(src))
	for y := range h {
		for x := range w {
			for c := range n {
				var sum float64
				for k, wt := range weights {
					sx := clampIndex(x+k-radius, w)
					sum += wt * src[(y*w+sx)*n+c]
				}
				tmp[(y*w+x)*n+c] = sum
			}
		}
	}
	for y := range h {
		for x := range w {
			for c := range n {
				var sum float64
				for k, wt := range weights {
					sy := clampIndex(y+k-radius, h)
					sum += wt * tmp[(sy*w+x)*n+c]
				}
				src[(y*w+x)*n+c] = sum
			}
		}
	}
	return src
}

// Blur applies a gaussian blur to every channel. Non-positive sigma
// means 1.
func (b *Buffer) Blur(sigma float64) error {
	if b.disposed {
		return ErrDisposed
	}
	if sigma <= 0 {
		sigma = 1
	}
	b.storeFloats(b.blurred(sigma), nil)
	return nil
}

// Unsharpen sharpens color channels whose difference to the blurred image
// exceeds threshold.
func (b *Buffer) Unsharpen(sigma float64, threshold int) error {
	if b.disposed {
		return ErrDisposed
	}
	if sigma <= 0 {
		sigma = 1
	}
	blur := b.blurred(sigma)
	orig := b.floats()
	for i, v := range orig {
		diff := v - math.Round(blur[i])
		if math.Abs(diff) > float64(threshold) {
			orig[i] = v + diff
		}
	}
	b.storeFloats(orig, b.isAlpha)
	return nil
}

func (b *Buffer) isAlpha(c int) bool {
	return c == b.desc.AlphaIndex()
}

// Filter3x3 convolves color channels with a row-major 3x3 kernel
// normalised by its sum. Edges are extended.
func (b *Buffer) Filter3x3(kernel [9]float64) error {
	if b.disposed {
		return ErrDisposed
	}
	var sum float64
	for _, k := range kernel {
		sum += k
	}
	if sum == 0 {
		sum = 1
	}

	n, w, h := b.desc.ChannelCount, b.width, b.height
	src := b.floats()
	out := make([]float64, len(src))
	for y := range h {
		for x := range w {
			for c := range n {
				var acc float64
				for ky := range 3 {
					for kx := range 3 {
						sx, sy := clampIndex(x+kx-1, w), clampIndex(y+ky-1, h)
						acc += kernel[ky*3+kx] * src[(sy*w+sx)*n+c]
					}
				}
				out[(y*w+x)*n+c] = acc / sum
			}
		}
	}
	b.storeFloats(out, b.isAlpha)
	return nil
}
