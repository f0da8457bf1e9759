package probe

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pixview/imaging"
	"pixview/raster"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	File    string   `arg:"" type:"existingfile" help:"Image to inspect"`
	Points  []string `arg:"" optional:"" help:"Positions to sample as x,y, relative to the region if one is given. Defaults to the corners and the center"`
	Region  []int    `help:"Sample inside x,y,width,height" sep:","`
	Invert  bool     `help:"Also show the inverted value of every sample"`
	Blend   string   `help:"Also show every sample blended with the pixel at x,y"`
	Convert string   `help:"Also show every sample converted to this layout" enum:"none,luma,lumaalpha,rgb,rgba,bgr,bgra" default:"none"`

	points []image.Point    `kong:"-"`
	region *image.Rectangle `kong:"-"`
	blend  *image.Point     `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	for _, s := range c.Points {
		p, err := parsePoint(s)
		if err != nil {
			return err
		}
		c.points = append(c.points, p)
	}

	if c.Region != nil {
		if len(c.Region) != 4 || c.Region[2] <= 0 || c.Region[3] <= 0 {
			return fmt.Errorf("invalid region %v, should be x,y,width,height", c.Region)
		}
		r := image.Rect(c.Region[0], c.Region[1], c.Region[0]+c.Region[2], c.Region[1]+c.Region[3])
		c.region = &r
	}

	if c.Blend != "" {
		p, err := parsePoint(c.Blend)
		if err != nil {
			return err
		}
		c.blend = &p
	}
	return nil
}

func (c *CLICmd) Run() error {
	logger := slog.Default().With("file", c.File)

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	format, err := raster.GuessFormat(data)
	if err != nil {
		return err
	}
	w, h, err := raster.DecodeDimensions(data)
	if err != nil {
		return err
	}
	logger.Info("image", "format", format, "width", w, "height", h)

	ctx := imaging.NewContext()
	defer ctx.Close()

	img, err := ctx.Decode(data, format)
	if err != nil {
		return err
	}
	defer img.Dispose()

	d := img.Color()
	logger.Info("color", "type", d.Type, "channels", d.ChannelCount, "depth", d.BitDepth, "alpha", d.HasAlpha)

	samples, err := Probe(img, Options{
		Points:  c.points,
		Region:  c.region,
		Invert:  c.Invert,
		Blend:   c.blend,
		Convert: c.Convert,
	})
	for _, s := range samples {
		s.log(logger)
	}
	return err
}

// Options selects what Probe samples and which derived values it computes.
type Options struct {
	Points  []image.Point
	Region  *image.Rectangle
	Invert  bool
	Blend   *image.Point
	Convert string
}

// Sample is one probed pixel. Derived values are computed on free-standing
// copies, so the image is never modified.
type Sample struct {
	Local     image.Point
	Absolute  image.Point
	Channels  imaging.Channels
	Inverted  imaging.Channels
	Blended   imaging.Channels
	Converted imaging.Channels
	Err       error
}

func (s Sample) log(logger *slog.Logger) {
	if s.Err != nil {
		logger.Warn("sample", "at", s.Local, "error", s.Err)
		return
	}
	attrs := []any{"at", s.Local, "absolute", s.Absolute, "channels", s.Channels}
	if s.Inverted != nil {
		attrs = append(attrs, "inverted", s.Inverted)
	}
	if s.Blended != nil {
		attrs = append(attrs, "blended", s.Blended)
	}
	if s.Converted != nil {
		attrs = append(attrs, "converted", s.Converted)
	}
	logger.Info("sample", attrs...)
}

// Probe samples img at opts.Points, or at the corners and center of the
// sampled view when no points are given. A point outside the image yields a
// Sample with Err set instead of failing the whole probe.
func Probe(img *imaging.Image, opts Options) ([]Sample, error) {
	view := &img.View
	if opts.Region != nil {
		var err error
		if view, err = img.SubImage(*opts.Region); err != nil {
			return nil, err
		}
	}

	var blend *imaging.Pixel
	if opts.Blend != nil {
		var err error
		if blend, err = view.GetPixel(*opts.Blend); err != nil {
			return nil, fmt.Errorf("could not read blend pixel: %w", err)
		}
	}

	points := opts.Points
	if len(points) == 0 {
		w, h := view.Dimensions()
		points = []image.Point{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}, {w / 2, h / 2}}
	}

	samples := make([]Sample, 0, len(points))
	for _, p := range points {
		s := Sample{Local: p, Absolute: view.ToAbsolute(p)}
		s.Err = sample(view, p, blend, opts, &s)
		samples = append(samples, s)
	}
	return samples, nil
}

func sample(view *imaging.View, p image.Point, blend *imaging.Pixel, opts Options, s *Sample) error {
	px, err := view.GetPixel(p)
	if err != nil {
		return err
	}
	if s.Channels, err = px.Channels(); err != nil {
		return err
	}

	if opts.Invert {
		inv, err := px.Clone()
		if err != nil {
			return err
		}
		if err = inv.Invert(); err != nil {
			return err
		}
		if s.Inverted, err = inv.Channels(); err != nil {
			return err
		}
	}

	if blend != nil {
		mixed, err := px.Clone()
		if err != nil {
			return err
		}
		if err = mixed.Blend(blend); err != nil {
			return err
		}
		if s.Blended, err = mixed.Channels(); err != nil {
			return err
		}
	}

	if opts.Convert != "" && opts.Convert != "none" {
		conv, err := convert(px, opts.Convert)
		if err != nil {
			return err
		}
		if s.Converted, err = conv.Channels(); err != nil {
			return err
		}
	}
	return nil
}

func convert(px *imaging.Pixel, layout string) (*imaging.Pixel, error) {
	switch layout {
	case "luma":
		return px.ToLuma()
	case "lumaalpha":
		return px.ToLumaAlpha()
	case "rgb":
		return px.ToRgb()
	case "rgba":
		return px.ToRgba()
	case "bgr":
		return px.ToBgr()
	case "bgra":
		return px.ToBgra()
	}
	return nil, fmt.Errorf("unknown layout %q", layout)
}

func parsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("invalid position %q, should be x,y", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return image.Point{}, fmt.Errorf("invalid position %q, should be x,y", s)
	}
	return image.Pt(x, y), nil
}
