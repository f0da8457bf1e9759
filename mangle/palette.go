package mangle

import (
	"image/color"
	"log/slog"

	"pixview/imaging"
	"pixview/palette"
)

func repalette(logger *slog.Logger, img *imaging.Image, pal color.Palette, dither, perceptual bool) error {
	logger.Info("applying palette", "colors", len(pal), "dither", dither, "perceptual", perceptual)
	if perceptual {
		return img.QuantizeWith(palette.NewPerceptual(pal))
	}
	return img.Quantize(pal, dither)
}
