package raster

import (
	"errors"
	"image"
	"slices"
	"testing"
)

// gradient returns an Rgba8 buffer whose channels encode the position.
func gradient(w, h int) *Buffer {
	b := New(Rgba8, w, h)
	for y := range h {
		for x := range w {
			b.SetChannels8(x, y, []uint8{uint8(x), uint8(y), uint8(x + y), 255})
		}
	}
	return b
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		t        ColorType
		depth    int
		channels int
		alpha    bool
		color    bool
		bpp      int
	}{
		{L8, 8, 1, false, false, 1},
		{La8, 8, 2, true, false, 2},
		{Rgb8, 8, 3, false, true, 3},
		{Bgra8, 8, 4, true, true, 4},
		{L16, 16, 1, false, false, 2},
		{Rgba16, 16, 4, true, true, 8},
	}

	for _, tt := range tests {
		d := Describe(tt.t)
		if d.BitDepth != tt.depth || d.ChannelCount != tt.channels || d.HasAlpha != tt.alpha ||
			d.HasColor != tt.color || d.BytesPerPixel != tt.bpp {
			t.Errorf("%s: unexpected descriptor %+v", tt.t, d)
		}
	}

	if d := Describe(ColorType(200)); d.ChannelCount != 0 {
		t.Errorf("Expected zero descriptor for unknown type, got %+v", d)
	}
}

func TestParseColorType(t *testing.T) {
	for ct := range colorTypeCount {
		got, err := ParseColorType(ct.String())
		if err != nil || got != ct {
			t.Errorf("Expected %s, got %s (%v)", ct, got, err)
		}
	}
	if got, err := ParseColorType("rgba16"); err != nil || got != Rgba16 {
		t.Errorf("Expected case-insensitive match, got %s (%v)", got, err)
	}
	if _, err := ParseColorType("cmyk"); err == nil {
		t.Error("Expected error for unknown name")
	}
}

func TestPartialWrite(t *testing.T) {
	b := New(Rgb8, 2, 2)
	if err := b.SetChannels8(1, 1, []uint8{142, 152, 115}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetChannels8(1, 1, []uint8{0, 0}); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Channels8(1, 1)
	if want := []uint8{0, 0, 115}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBitDepthMismatch(t *testing.T) {
	b := New(Rgb16, 1, 1)
	if _, err := b.Channels8(0, 0); !errors.Is(err, ErrBitDepth) {
		t.Errorf("Expected ErrBitDepth, got %v", err)
	}
	if err := New(L8, 1, 1).SetChannels16(0, 0, []uint16{1}); !errors.Is(err, ErrBitDepth) {
		t.Errorf("Expected ErrBitDepth, got %v", err)
	}
}

func TestOutOfBounds(t *testing.T) {
	b := New(L8, 3, 3)
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		if _, err := b.Channels8(p.X, p.Y); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("%v: expected ErrOutOfBounds, got %v", p, err)
		}
	}
}

func TestDispose(t *testing.T) {
	b := New(Rgb8, 4, 2)
	b.Dispose()
	b.Dispose()

	if !b.Disposed() {
		t.Error("Expected buffer to be disposed")
	}
	if b.Width() != 4 || b.Height() != 2 {
		t.Errorf("Expected dimensions to survive dispose, got %dx%d", b.Width(), b.Height())
	}
	if _, err := b.Channels8(0, 0); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
	if err := b.InvertPixel(0, 0); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
	if _, err := b.Bytes(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
}

func TestInvertPixel(t *testing.T) {
	b := New(Rgba8, 1, 1)
	b.SetChannels8(0, 0, []uint8{1, 1, 1, 1})
	b.InvertPixel(0, 0)
	got, _ := b.Channels8(0, 0)
	if want := []uint8{254, 254, 254, 1}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	b16 := New(L16, 1, 1)
	b16.SetChannels16(0, 0, []uint16{1000})
	b16.InvertPixel(0, 0)
	got16, _ := b16.Channels16(0, 0)
	if got16[0] != 0xffff-1000 {
		t.Errorf("Expected %d, got %d", 0xffff-1000, got16[0])
	}
}

func TestBlendPixel(t *testing.T) {
	b := New(Rgb8, 2, 1)
	b.SetChannels8(0, 0, []uint8{142, 152, 115})
	b.SetChannels8(1, 0, []uint8{165, 170, 148})
	if err := b.BlendPixel(0, 0, 1, 0); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Channels8(0, 0)
	if want := []uint8{153, 161, 131}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	other, _ := b.Channels8(1, 0)
	if want := []uint8{165, 170, 148}; !slices.Equal(other, want) {
		t.Errorf("Expected source pixel untouched, got %v", other)
	}
}

func TestBlendPixelFrom(t *testing.T) {
	dst := New(Rgba8, 1, 1)
	src := New(Rgba8, 1, 1)
	dst.SetChannels8(0, 0, []uint8{1, 1, 1, 1})
	src.SetChannels8(0, 0, []uint8{3, 3, 3, 3})
	if err := dst.BlendPixelFrom(0, 0, src, 0, 0); err != nil {
		t.Fatal(err)
	}
	got, _ := dst.Channels8(0, 0)
	if want := []uint8{2, 2, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBlendPixelFromConverts(t *testing.T) {
	dst := New(Rgb8, 1, 1)
	src := New(Bgr8, 1, 1)
	dst.SetChannels8(0, 0, []uint8{100, 0, 0})
	src.SetChannels8(0, 0, []uint8{0, 0, 200})
	dst.BlendPixelFrom(0, 0, src, 0, 0)
	got, _ := dst.Channels8(0, 0)
	if want := []uint8{150, 0, 0}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestConvertPixel(t *testing.T) {
	b := New(Rgb8, 1, 1)
	b.SetChannels8(0, 0, []uint8{255, 255, 255})

	tests := []struct {
		target ColorType
		want   []uint16
	}{
		{L8, []uint16{255}},
		{La8, []uint16{255, 255}},
		{Bgra8, []uint16{255, 255, 255, 255}},
		{Rgb16, []uint16{0xffff, 0xffff, 0xffff}},
		{L16, []uint16{0xffff}},
	}
	for _, tt := range tests {
		got, err := b.ConvertPixel(0, 0, tt.target)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.target, tt.want, got)
		}
	}
}

func TestCopyWithin(t *testing.T) {
	b := gradient(4, 4)
	ok, err := b.CopyWithin(image.Rect(0, 0, 2, 2), image.Pt(2, 2))
	if err != nil || !ok {
		t.Fatalf("Expected copy to succeed, got %v, %v", ok, err)
	}
	got, _ := b.Channels8(3, 3)
	if want := []uint8{1, 1, 2, 255}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	ok, err = b.CopyWithin(image.Rect(0, 0, 2, 2), image.Pt(3, 3))
	if err != nil || ok {
		t.Errorf("Expected copy outside the buffer to report false, got %v, %v", ok, err)
	}
}

func TestCopyWithinOverlap(t *testing.T) {
	b := New(L8, 4, 1)
	b.SetChannels8(0, 0, []uint8{1})
	b.SetChannels8(1, 0, []uint8{2})
	b.SetChannels8(2, 0, []uint8{3})
	b.CopyWithin(image.Rect(0, 0, 3, 1), image.Pt(1, 0))
	got, _ := b.Bytes()
	if want := []byte{1, 1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCopyRegion(t *testing.T) {
	src := gradient(4, 4)
	dst := New(Rgba8, 2, 2)
	if err := dst.CopyRegion(src, image.Rect(2, 2, 4, 4), image.Point{}); err != nil {
		t.Fatal(err)
	}
	got, _ := dst.Channels8(1, 1)
	if want := []uint8{3, 3, 6, 255}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if err := dst.CopyRegion(src, image.Rect(0, 0, 3, 3), image.Point{}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestBytes16(t *testing.T) {
	b := New(L16, 2, 1)
	b.SetChannels16(0, 0, []uint16{0x0102})
	b.SetChannels16(1, 0, []uint16{0xa0b0})
	got, _ := b.Bytes()
	if want := []byte{0x02, 0x01, 0xb0, 0xa0}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestClampOnWrite(t *testing.T) {
	b := New(Rgb8, 1, 1)
	b.setChannels(0, 0, []uint16{300, 10, 0xffff})
	got, _ := b.Channels8(0, 0)
	if want := []uint8{255, 10, 255}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOpaque(t *testing.T) {
	b := gradient(2, 2)
	if !b.Opaque() {
		t.Error("Expected opaque gradient")
	}
	b.SetChannels8(1, 1, []uint8{0, 0, 0, 10})
	if b.Opaque() {
		t.Error("Expected translucent pixel to be detected")
	}
	if !New(Rgb8, 1, 1).Opaque() {
		t.Error("Expected type without alpha to be opaque")
	}
}
