package palette

import (
	"image/color"
	"math"

	"pixview/okcolor"
)

// Perceptual matches colors to a palette by distance in the Oklab space
// rather than in sRGB. It implements color.Model.
type Perceptual struct {
	pal color.Palette
	lab []okcolor.Lab
}

var _ color.Model = (*Perceptual)(nil)

func NewPerceptual(pal color.Palette) *Perceptual {
	p := &Perceptual{pal: pal, lab: make([]okcolor.Lab, len(pal))}
	for i, c := range pal {
		p.lab[i] = okcolor.LabModel.Convert(c).(okcolor.Lab)
	}
	return p
}

// Index returns the index of the palette entry closest to c.
func (p *Perceptual) Index(c color.Color) int {
	lc := okcolor.LabModel.Convert(c).(okcolor.Lab)
	ret, best := 0, math.MaxFloat64
	for i, v := range p.lab {
		d := lc.Distance(v)
		if d < best {
			if d == 0 {
				return i
			}
			ret, best = i, d
		}
	}
	return ret
}

// Convert returns the closest palette entry, or c itself for an empty palette.
func (p *Perceptual) Convert(c color.Color) color.Color {
	if len(p.pal) == 0 {
		return c
	}
	return p.pal[p.Index(c)]
}
