package mangle

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"pixview/imaging"
	"pixview/palette"
	"pixview/parallel"
	"pixview/raster"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan       string            `help:"Source folder to scan" default:"."`
	Dest       string            `help:"Destination folder for processed pictures. Relative to scan dir if not absolute. If same as scan dir, will overwrite source files." default:"mangled"`
	Resize     bool              `help:"Resize image" default:"false" group:"resize"`
	Width      int               `help:"Max width" group:"resize"`
	Height     int               `help:"Max height" group:"resize"`
	Crop       bool              `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Fill       string            `help:"If given and not cropping, will fill background with this color to maintain destination aspect ratio" group:"resize"`
	Filter     string            `help:"Resampling filter" enum:"nearest,triangle,catmullrom,gaussian,lanczos3" default:"catmullrom" group:"resize"`
	Grayscale  bool              `help:"Convert to grayscale" default:"false" group:"adjust"`
	Invert     bool              `help:"Invert colors" default:"false" group:"adjust"`
	Brighten   int               `help:"Add this value to every color channel" group:"adjust"`
	Contrast   float64           `help:"Contrast change in percent" group:"adjust"`
	Blur       float64           `help:"Gaussian blur sigma" group:"adjust"`
	Hue        float64           `help:"Rotate hue by this many degrees" group:"adjust"`
	Region     []int             `help:"Restrict invert and brighten to x,y,width,height" sep:"," group:"adjust"`
	Palette    string            `help:"Palette name (${palettes}) or PAL file in RIFF format to apply" group:"palette"`
	Dither     bool              `help:"Apply dithering" default:"false" group:"palette"`
	Perceptual bool              `help:"Match palette colors in Oklab instead of sRGB; ignores dithering" default:"false" group:"palette"`
	Format     string            `help:"Output format of mangled image. If prefixed with 'unsup:' will convert only unsupported formats" enum:"same,gif,unsup:gif,jpeg,unsup:jpeg,png,unsup:png,bmp,unsup:bmp,tiff,unsup:tiff" default:"unsup:png"`
	Quality    int               `help:"JPEG quality" default:"100"`
	FillColor  color.Color       `kong:"-"`
	pal        color.Palette     `kong:"-"`
	filter     raster.FilterType `kong:"-"`
	region     image.Rectangle   `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case (c.Width < 0):
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case (c.Height < 0):
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case (c.Width == 0) && (c.Height == 0):
			return fmt.Errorf("no resize dimensions given")
		case c.Crop && ((c.Width == 0) || (c.Height == 0)):
			return fmt.Errorf("cropping needs both width and height")
		}
	}

	if c.filter, err = raster.ParseFilterType(c.Filter); err != nil {
		return err
	}

	if (!c.Crop) && (c.Fill != "") {
		if c.FillColor, err = parseHexColor(c.Fill); err != nil {
			return err
		}
	}

	if c.Region != nil {
		if len(c.Region) != 4 || c.Region[2] <= 0 || c.Region[3] <= 0 {
			return fmt.Errorf("invalid region %v, should be x,y,width,height", c.Region)
		}
		c.region = image.Rect(c.Region[0], c.Region[1], c.Region[0]+c.Region[2], c.Region[1]+c.Region[3])
	}

	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("invalid JPEG quality: %d", c.Quality)
	}

	if c.Palette != "" {
		if c.pal, err = palette.Load(c.Palette); err != nil {
			return err
		}
	}

	return nil
}

func (c *CLICmd) Run(pool *parallel.Pool) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		pool.Go(func() {
			filePath := filepath.Join(c.Scan, fileName)
			logger := slog.Default().With("file", filePath)

			if err := c.process(logger, filePath, fileName); err != nil {
				errCount.Add(1)
				logger.Error("could not mangle image", "error", err)
				return
			}
			processedCount.Add(1)
		})
	}

	pool.Wait()

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

// process runs the whole pipeline for one file. Every call gets its own
// imaging context so tasks never share scratch buffers.
func (c *CLICmd) process(logger *slog.Logger, filePath, fileName string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}

	imgType, err := raster.GuessFormat(data)
	if err != nil {
		return err
	}

	ctx := imaging.NewContext()
	defer ctx.Close()

	img, err := ctx.Decode(data, imgType)
	if err != nil {
		return err
	}
	defer img.Dispose()
	logger.Debug("decoded", "format", imgType, "color", img.Color().Type, "width", img.Width(), "height", img.Height())

	if c.Resize {
		if img, err = resize(logger, ctx, img, c.Width, c.Height, c.Crop, c.FillColor, c.filter); err != nil {
			return fmt.Errorf("could not resize image: %w", err)
		}
		defer img.Dispose()
	}

	if err = c.adjust(logger, img); err != nil {
		return err
	}

	if c.pal != nil {
		palLog := logger.With("palette", c.Palette)
		if err = repalette(palLog, img, c.pal, c.Dither, c.Perceptual); err != nil {
			return fmt.Errorf("could not change image palette: %w", err)
		}
	}

	if err = save(img, imgType, c.Format, c.Quality, c.Dest, fileName); err != nil {
		return fmt.Errorf("could not save image to %q: %w", c.Dest, err)
	}
	return nil
}

func parseHexColor(s string) (color.Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("invalid fill color, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA")
	}

	var digits []uint8
	for _, r := range hex {
		var d uint8
		switch {
		case r >= '0' && r <= '9':
			d = uint8(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint8(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = uint8(r-'A') + 10
		default:
			return nil, fmt.Errorf("invalid hex digit %q in fill color %q", r, s)
		}
		digits = append(digits, d)
	}

	c := color.NRGBA{A: 0xff}
	switch len(digits) {
	case 3, 4:
		c.R, c.G, c.B = digits[0]*0x11, digits[1]*0x11, digits[2]*0x11
		if len(digits) == 4 {
			c.A = digits[3] * 0x11
		}
	case 6, 8:
		c.R, c.G, c.B = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		if len(digits) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
	default:
		return nil, fmt.Errorf("invalid fill color, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA")
	}
	return c, nil
}

func outputFormat(imgType raster.Format, outType string) (raster.Format, error) {
	outType, unsupOnly := strings.CutPrefix(outType, "unsup:")
	if outType == "same" || (unsupOnly && imgType != raster.WebP) {
		return imgType, nil
	}
	return raster.ParseFormat(outType)
}

func save(img *imaging.Image, imgType raster.Format, outType string, quality int, destDir, srcName string) (err error) {
	format, err := outputFormat(imgType, outType)
	if err != nil {
		return err
	}

	oldExt := filepath.Ext(srcName)
	destName := fmt.Sprintf("%s.%s", srcName[:len(srcName)-len(oldExt)], format)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		} else {
			os.Remove(outFile.Name())
		}
	}()

	if err = img.Encode(outFile, raster.EncodeOptions{Format: format, Quality: quality}); err != nil {
		return fmt.Errorf("could not encode destination %q: %w", destName, err)
	}

	canRename = true
	return nil
}
