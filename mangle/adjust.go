package mangle

import (
	"fmt"
	"image"
	"log/slog"

	"pixview/imaging"
)

// adjust applies the color adjustments in a fixed order: grayscale, hue,
// contrast, brightness, inversion, blur.
func (c *CLICmd) adjust(logger *slog.Logger, img *imaging.Image) error {
	if c.Grayscale {
		logger.Info("converting to grayscale")
		if err := img.Grayscale(); err != nil {
			return fmt.Errorf("could not convert to grayscale: %w", err)
		}
	}

	if c.Hue != 0 {
		logger.Info("rotating hue", "degrees", c.Hue)
		if err := img.HueRotate(c.Hue); err != nil {
			return fmt.Errorf("could not rotate hue: %w", err)
		}
	}

	if c.Contrast != 0 {
		logger.Info("adjusting contrast", "percent", c.Contrast)
		if err := img.AdjustContrast(c.Contrast); err != nil {
			return fmt.Errorf("could not adjust contrast: %w", err)
		}
	}

	if c.Region != nil && (c.Brighten != 0 || c.Invert) {
		return c.adjustRegion(logger, img)
	}

	if c.Brighten != 0 {
		logger.Info("brightening", "value", c.Brighten)
		if err := img.Brighten(c.Brighten); err != nil {
			return fmt.Errorf("could not brighten: %w", err)
		}
	}

	if c.Invert {
		logger.Info("inverting")
		if err := img.Invert(); err != nil {
			return fmt.Errorf("could not invert: %w", err)
		}
	}

	if c.Blur > 0 {
		logger.Info("blurring", "sigma", c.Blur)
		if err := img.Blur(c.Blur); err != nil {
			return fmt.Errorf("could not blur: %w", err)
		}
	}
	return nil
}

// adjustRegion brightens and inverts pixel by pixel inside the part of
// c.region that overlaps the image, then blurs the whole image.
func (c *CLICmd) adjustRegion(logger *slog.Logger, img *imaging.Image) error {
	region := c.region.Intersect(img.Bounds())
	if region.Empty() {
		logger.Warn("region outside image, skipping", "region", c.region)
	} else if err := c.adjustView(logger, img, region); err != nil {
		return fmt.Errorf("could not adjust region: %w", err)
	}

	if c.Blur > 0 {
		logger.Info("blurring", "sigma", c.Blur)
		return img.Blur(c.Blur)
	}
	return nil
}

func (c *CLICmd) adjustView(logger *slog.Logger, img *imaging.Image, region image.Rectangle) error {
	view, err := img.SubImage(region)
	if err != nil {
		return err
	}
	logger.Info("adjusting region", "region", region, "brighten", c.Brighten, "invert", c.Invert)

	maxValue := int(img.Color().MaxValue())
	brighten := func(v uint16) uint16 {
		return uint16(min(max(int(v)+c.Brighten, 0), maxValue))
	}

	it := view.Pixels()
	for it.Next() {
		px := it.Pixel()
		if c.Brighten != 0 {
			if err := px.ApplyWith(imaging.Mapping{Color: brighten}); err != nil {
				return err
			}
		}
		if c.Invert {
			if err := px.Invert(); err != nil {
				return err
			}
		}
	}
	return it.Err()
}
