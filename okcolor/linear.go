package okcolor

import "math"

// LinearFromSRGB removes the sRGB transfer curve from 16-bit channels.
func LinearFromSRGB(r, g, b uint16) [3]float64 {
	return [3]float64{toLinear(float64(r) / 0xffff), toLinear(float64(g) / 0xffff), toLinear(float64(b) / 0xffff)}
}

// SRGBFromLinear applies the sRGB transfer curve and rounds to 16 bits.
// Input is clamped to [0, 1].
func SRGBFromLinear(lin [3]float64) (r, g, b uint16) {
	enc := func(x float64) uint16 {
		return uint16(math.Round(fromLinear(min(max(x, 0), 1)) * 0xffff))
	}
	return enc(lin[0]), enc(lin[1]), enc(lin[2])
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	}
	return x / 12.92
}

const invGamma = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, invGamma)*1.055 - 0.055
	}
	return x * 12.92
}
