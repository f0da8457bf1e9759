package mangle

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"pixview/imaging"
	"pixview/raster"
)

// resize scales img to width x height. A zero dimension keeps the source
// size. When cropping, the source is first trimmed to the destination
// aspect ratio; otherwise the image is fitted inside the destination and,
// if fillColor is set, centered on a canvas of exactly that size.
func resize(logger *slog.Logger, ctx *imaging.Context, img *imaging.Image, width, height int, crop bool, fillColor color.Color, filter raster.FilterType) (*imaging.Image, error) {
	srcWidth := float64(img.Width())
	srcHeight := float64(img.Height())

	destWidth := float64(width)
	if destWidth == 0 {
		destWidth = srcWidth
	}

	destHeight := float64(height)
	if destHeight == 0 {
		destHeight = srcHeight
	}

	if (srcWidth == destWidth) && (srcHeight == destHeight) {
		return img, nil
	}

	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	if crop {
		srcBounds := img.Bounds()
		if srcAR < destAR {
			dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
			srcBounds.Min.Y += dh
			srcBounds.Max.Y -= dh
		} else if srcAR > destAR {
			dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
			srcBounds.Min.X += dw
			srcBounds.Max.X -= dw
		}

		logger.Info("cropping", "bounds", srcBounds)
		if err := img.Crop(srcBounds); err != nil {
			return nil, err
		}
		logger.Info("resizing", "width", int(destWidth), "height", int(destHeight))
		return img, img.ResizeExact(int(destWidth), int(destHeight), filter)
	}

	if err := img.Resize(int(destWidth), int(destHeight), filter); err != nil {
		return nil, err
	}
	logger.Info("resizing", "width", img.Width(), "height", img.Height())
	if fillColor == nil || (img.Width() == int(destWidth) && img.Height() == int(destHeight)) {
		return img, nil
	}

	canvas, err := fill(ctx, img.Color(), int(destWidth), int(destHeight), fillColor)
	if err != nil {
		return nil, err
	}
	offset := image.Pt((canvas.Width()-img.Width())/2, (canvas.Height()-img.Height())/2)
	if err := canvas.CopyFrom(&img.View, offset); err != nil {
		canvas.Dispose()
		return nil, err
	}
	return canvas, nil
}

// fill returns an RGBA canvas of the given size painted with c, at the bit
// depth of the image that will be placed on it.
func fill(ctx *imaging.Context, like raster.Descriptor, width, height int, c color.Color) (*imaging.Image, error) {
	ct, ch := raster.Rgba8, imaging.Channels{}
	if like.BitDepth == 16 {
		n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
		ct, ch = raster.Rgba16, imaging.Channels{n.R, n.G, n.B, n.A}
	} else {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		ch = imaging.Channels{uint16(n.R), uint16(n.G), uint16(n.B), uint16(n.A)}
	}

	canvas, err := ctx.NewImage(ct, width, height)
	if err != nil {
		return nil, err
	}
	px, err := ctx.NewPixel(ct, ch)
	if err != nil {
		return nil, err
	}

	it := canvas.Pixels()
	for it.Next() {
		if err := canvas.PutPixel(it.Position(), px); err != nil {
			return nil, err
		}
	}
	return canvas, it.Err()
}
