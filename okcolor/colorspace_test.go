package okcolor

import (
	"image/color"
	"math"
	"testing"
)

func near(a, b uint16, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func TestSRGBRoundTrip(t *testing.T) {
	tests := []color.NRGBA64{
		{R: 0, G: 0, B: 0, A: 0xffff},
		{R: 0xffff, G: 0xffff, B: 0xffff, A: 0xffff},
		{R: 0xffff, G: 0, B: 0, A: 0x8000},
		{R: 0x1234, G: 0xabcd, B: 0x5678, A: 0xffff},
		{R: 142 * 0x101, G: 152 * 0x101, B: 115 * 0x101, A: 0xffff},
	}

	for _, c := range tests {
		lab := FromSRGB(c.R, c.G, c.B, c.A)
		r, g, b := lab.SRGB()
		if !near(r, c.R, 2) || !near(g, c.G, 2) || !near(b, c.B, 2) {
			t.Errorf("Expected %v, got %v %v %v", c, r, g, b)
		}
		if lab.Alpha != c.A {
			t.Errorf("Expected alpha %d, got %d", c.A, lab.Alpha)
		}
	}
}

func TestWhiteAndGray(t *testing.T) {
	white := FromSRGB(0xffff, 0xffff, 0xffff, 0xffff)
	if math.Abs(white.L-1) > 1e-3 {
		t.Errorf("Expected white lightness 1, got %f", white.L)
	}

	gray := FromSRGB(0x8000, 0x8000, 0x8000, 0xffff).LCh()
	if gray.C > 1e-3 {
		t.Errorf("Expected gray to have no chroma, got %f", gray.C)
	}
}

func TestRotateHueFullTurn(t *testing.T) {
	lc := FromSRGB(0xffff, 0x4000, 0x2000, 0xffff).LCh()
	back := lc.RotateHue(360).Lab()
	r, g, b := back.SRGB()
	if !near(r, 0xffff, 2) || !near(g, 0x4000, 2) || !near(b, 0x2000, 2) {
		t.Errorf("Expected hue rotation by 360 degrees to be identity, got %d %d %d", r, g, b)
	}
}

func TestRotateHueChangesColor(t *testing.T) {
	red := FromSRGB(0xffff, 0, 0, 0xffff).LCh()
	r, g, _ := red.RotateHue(120).Lab().SRGB()
	if r >= g {
		t.Errorf("Expected rotated red to lean green, got r=%d g=%d", r, g)
	}
}

func TestClipStaysInGamut(t *testing.T) {
	lc := LCh{L: 0.7, C: 0.9, H: 1, Alpha: 0xffff}
	if inGamut(lc.Lab().linear()) {
		t.Fatal("Expected test color to be out of gamut")
	}
	clipped := lc.clip()
	if !inGamut(clipped.Lab().linear()) {
		t.Errorf("Expected clipped color in gamut, got %+v", clipped)
	}
	if clipped.L != lc.L || clipped.H != lc.H {
		t.Errorf("Expected lightness and hue to be kept, got %+v", clipped)
	}
}

func TestLabModel(t *testing.T) {
	c := LabModel.Convert(color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	if _, ok := c.(Lab); !ok {
		t.Fatalf("Expected Lab, got %T", c)
	}
	r, g, b, a := c.RGBA()
	want := color.NRGBA{R: 10, G: 200, B: 30, A: 255}
	wr, wg, wb, wa := want.RGBA()
	if !near(uint16(r), uint16(wr), 2) || !near(uint16(g), uint16(wg), 2) || !near(uint16(b), uint16(wb), 2) || a != wa {
		t.Errorf("Expected %v, got %d %d %d %d", want, r, g, b, a)
	}
}
