package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"pixview/raster"
)

func TestScratchPoolReusesBuffers(t *testing.T) {
	var p scratchPool
	d := raster.Describe(raster.Rgba8)

	a0 := p.borrow(d, 0)
	a1 := p.borrow(d, 1)
	if a0 == a1 {
		t.Fatal("Expected distinct buffers per slot")
	}
	if p.borrow(d, 0) != a0 || p.borrow(d, 1) != a1 {
		t.Error("Expected the same buffer for the same color and slot")
	}
	if p.borrow(raster.Describe(raster.L16), 0) == a0 {
		t.Error("Expected separate buffers per color type")
	}
	if a0.Width() != 1 || a0.Height() != 1 || a0.ColorType() != raster.Rgba8 {
		t.Errorf("Unexpected scratch buffer %dx%d %s", a0.Width(), a0.Height(), a0.ColorType())
	}

	p.dispose()
	if !a0.Disposed() || !a1.Disposed() {
		t.Error("Expected dispose to release the scratch buffers")
	}
	if p.borrow(d, 0) == a0 {
		t.Error("Expected a fresh buffer after dispose")
	}
}

func TestContextCloseKeepsPixelsUsable(t *testing.T) {
	ctx := NewContext()
	px, _ := ctx.NewPixel(raster.Rgb8, Channels{142, 152, 115})
	if err := px.Invert(); err != nil {
		t.Fatal(err)
	}
	ctx.Close()
	if err := px.Invert(); err != nil {
		t.Fatalf("Expected pool to be rebuilt after Close, got %v", err)
	}
	assertChannels(t, px, Channels{142, 152, 115})
}

func TestNewImage(t *testing.T) {
	ctx := NewContext()
	img, err := ctx.NewImage(raster.La16, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := img.Dimensions(); w != 3 || h != 2 {
		t.Errorf("Expected 3x2, got %dx%d", w, h)
	}
	if img.Color().Type != raster.La16 {
		t.Errorf("Expected La16, got %s", img.Color().Type)
	}

	if _, err := ctx.NewImage(raster.Rgb8, 0, 2); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("Expected ErrInvalidBounds, got %v", err)
	}
	if _, err := ctx.NewImage(raster.ColorType(42), 1, 1); err == nil {
		t.Error("Expected error for unknown color type")
	}
}

func TestNewPixel(t *testing.T) {
	ctx := NewContext()
	px, err := ctx.NewPixel(raster.Rgb8, Channels{300, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	assertChannels(t, px, Channels{255, 1, 2})
	if !px.Independent() {
		t.Error("Expected free-standing pixel")
	}
	if _, ok := px.Position(); ok {
		t.Error("Expected no position for a free-standing pixel")
	}

	if _, err := ctx.NewPixel(raster.Rgba8, Channels{1, 2, 3}); !errors.Is(err, ErrChannelLengthMismatch) {
		t.Errorf("Expected ErrChannelLengthMismatch, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 6})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	ctx := NewContext()
	img, err := ctx.Decode(buf.Bytes(), raster.PNG)
	if err != nil {
		t.Fatal(err)
	}
	px, _ := img.GetPixel(image.Pt(1, 1))
	assertChannels(t, px, Channels{9, 8, 7, 6})

	if _, err := ctx.Decode(buf.Bytes(), raster.JPEG); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}
