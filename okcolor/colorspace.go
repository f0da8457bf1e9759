// based on:
// https://bottosson.github.io/posts/oklab/

package okcolor

import (
	"image/color"
	"math"
)

// Lab is a color in the Oklab space with a straight (non-premultiplied) alpha.
type Lab struct {
	L     float64 // perceived lightness, 0..1
	A     float64 // green/red
	B     float64 // blue/yellow
	Alpha uint16
}

// LCh is the polar form of Lab. H is in radians.
type LCh struct {
	L     float64
	C     float64 // chroma
	H     float64 // hue
	Alpha uint16
}

var (
	LabModel = color.ModelFunc(func(c color.Color) color.Color { return toLab(c) })
	LChModel = color.ModelFunc(func(c color.Color) color.Color { return toLab(c).LCh() })
)

func toLab(c color.Color) Lab {
	switch lc := c.(type) {
	case Lab:
		return lc
	case LCh:
		return lc.Lab()
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return FromSRGB(n.R, n.G, n.B, n.A)
}

// FromSRGB converts 16-bit gamma encoded sRGB channels.
func FromSRGB(r, g, b, alpha uint16) Lab {
	lin := LinearFromSRGB(r, g, b)
	l := math.Cbrt(0.4122214708*lin[0] + 0.5363325363*lin[1] + 0.0514459929*lin[2])
	m := math.Cbrt(0.2119034982*lin[0] + 0.6806995451*lin[1] + 0.1073969566*lin[2])
	s := math.Cbrt(0.0883024619*lin[0] + 0.2817188376*lin[1] + 0.6299787005*lin[2])

	return Lab{
		L:     0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A:     1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B:     0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
		Alpha: alpha,
	}
}

// linear returns the color in linear sRGB, possibly outside [0, 1].
func (lc Lab) linear() [3]float64 {
	l := lc.L + 0.3963377774*lc.A + 0.2158037573*lc.B
	m := lc.L - 0.1055613458*lc.A - 0.0638541728*lc.B
	s := lc.L - 0.0894841775*lc.A - 1.2914855480*lc.B
	l, m, s = l*l*l, m*m*m, s*s*s

	return [3]float64{
		+4.0767416621*l - 3.3077115913*m + 0.2309699292*s,
		-1.2684380046*l + 2.6097574011*m - 0.3413193965*s,
		-0.0041960863*l - 0.7034186147*m + 1.7076147010*s,
	}
}

// SRGB returns 16-bit gamma encoded sRGB channels. Colors outside the gamut
// lose chroma at constant lightness and hue until they fit.
func (lc Lab) SRGB() (r, g, b uint16) {
	lin := lc.linear()
	if !inGamut(lin) {
		lin = lc.LCh().clip().Lab().linear()
	}
	return SRGBFromLinear(lin)
}

// RGBA implements color.Color.
func (lc Lab) RGBA() (uint32, uint32, uint32, uint32) {
	r, g, b := lc.SRGB()
	return color.NRGBA64{R: r, G: g, B: b, A: lc.Alpha}.RGBA()
}

func (lc Lab) LCh() LCh {
	return LCh{
		L:     lc.L,
		C:     math.Hypot(lc.A, lc.B),
		H:     math.Atan2(lc.B, lc.A),
		Alpha: lc.Alpha,
	}
}

// Distance is the squared euclidean distance between two colors, alpha
// included on the 0..1 scale.
func (lc Lab) Distance(o Lab) float64 {
	dL, da, db := lc.L-o.L, lc.A-o.A, lc.B-o.B
	dA := (float64(lc.Alpha) - float64(o.Alpha)) / 0xffff
	return dL*dL + da*da + db*db + dA*dA
}

func (lc LCh) Lab() Lab {
	return Lab{
		L:     lc.L,
		A:     lc.C * math.Cos(lc.H),
		B:     lc.C * math.Sin(lc.H),
		Alpha: lc.Alpha,
	}
}

func (lc LCh) RGBA() (uint32, uint32, uint32, uint32) {
	return lc.Lab().RGBA()
}

// RotateHue turns the hue by the given angle in degrees.
func (lc LCh) RotateHue(degrees float64) LCh {
	lc.H = math.Remainder(lc.H+degrees*math.Pi/180, 2*math.Pi)
	return lc
}

const clipSteps = 24

// clip bisects the chroma down to the gamut boundary.
func (lc LCh) clip() LCh {
	lc.L = min(max(lc.L, 0), 1)
	lo, hi := 0.0, lc.C
	for range clipSteps {
		mid := (lo + hi) / 2
		if inGamut(LCh{L: lc.L, C: mid, H: lc.H}.Lab().linear()) {
			lo = mid
		} else {
			hi = mid
		}
	}
	lc.C = lo
	return lc
}

const gamutEps = 1e-7

func inGamut(lin [3]float64) bool {
	for _, v := range lin {
		if v < -gamutEps || v > 1+gamutEps {
			return false
		}
	}
	return true
}
