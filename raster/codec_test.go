package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"png": PNG, "JPEG": JPEG, "jpg": JPEG, "gif": GIF, "bmp": BMP, "tif": TIFF, "tiff": TIFF, "webp": WebP,
	}
	for name, want := range tests {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("%s: expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := ParseFormat("xcf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestDecodeOpaqueRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(20 * y), B: 7, A: 255})
		}
	}
	data := encodePNG(t, img)

	if f, err := GuessFormat(data); err != nil || f != PNG {
		t.Errorf("Expected png, got %s (%v)", f, err)
	}
	if w, h, err := DecodeDimensions(data); err != nil || w != 3 || h != 2 {
		t.Errorf("Expected 3x2, got %dx%d (%v)", w, h, err)
	}

	b, err := Decode(data, FormatUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if b.ColorType() != Rgb8 {
		t.Errorf("Expected Rgb8, got %s", b.ColorType())
	}
	got, _ := b.Channels8(2, 1)
	if want := []uint8{20, 20, 7}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDecodeColorTypes(t *testing.T) {
	translucent := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	tests := []struct {
		name string
		img  image.Image
		want ColorType
	}{
		{"gray", image.NewGray(image.Rect(0, 0, 1, 1)), L8},
		{"gray16", image.NewGray16(image.Rect(0, 0, 1, 1)), L16},
		{"translucent", translucent, Rgba8},
	}
	for _, tt := range tests {
		b, err := Decode(encodePNG(t, tt.img), PNG)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if b.ColorType() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, b.ColorType())
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("definitely not an image"), FormatUnknown); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}

	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))
	if _, err := Decode(data, JPEG); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat for mismatched hint, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := gradient(5, 3)
	for _, f := range []Format{PNG, BMP, TIFF} {
		var buf bytes.Buffer
		if err := src.Encode(&buf, EncodeOptions{Format: f}); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		got, err := Decode(buf.Bytes(), f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		want, _ := src.Channels8(4, 2)
		px, err := got.ConvertPixel(4, 2, Rgba8)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if px[0] != uint16(want[0]) || px[1] != uint16(want[1]) || px[2] != uint16(want[2]) {
			t.Errorf("%s: expected %v, got %v", f, want, px)
		}
	}
}

func TestEncodeLossy(t *testing.T) {
	src := gradient(8, 8)
	for _, f := range []Format{JPEG, GIF} {
		var buf bytes.Buffer
		if err := src.Encode(&buf, EncodeOptions{Format: f, Quality: 80}); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if w, h, err := DecodeDimensions(buf.Bytes()); err != nil || w != 8 || h != 8 {
			t.Errorf("%s: expected 8x8, got %dx%d (%v)", f, w, h, err)
		}
	}
}

func TestEncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := gradient(1, 1).Encode(&buf, EncodeOptions{Format: WebP}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}
