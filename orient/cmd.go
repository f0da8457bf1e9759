package orient

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"pixview/parallel"
	"pixview/raster"

	"github.com/alecthomas/kong"
)

// Orientation classifies an image by its aspect ratio.
type Orientation uint8

const (
	Landscape Orientation = iota
	Portrait
	Square
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Square:
		return "square"
	default:
		return "landscape"
	}
}

// Classify reads only the image header. Square images count as landscape
// unless square is set.
func Classify(data []byte, square bool) (Orientation, error) {
	w, h, err := raster.DecodeDimensions(data)
	if err != nil {
		return Landscape, err
	}
	switch {
	case h > w:
		return Portrait, nil
	case h == w && square:
		return Square, nil
	default:
		return Landscape, nil
	}
}

type OpParams struct {
	Scan      string `help:"Source folder to scan" default:"."`
	Portrait  string `help:"Destination folder for portrait images" default:"portrait"`
	Landscape string `help:"Destination folder for landscape images" default:"landscape"`
	Square    string `help:"Destination folder for square images. Square images go to the landscape folder if empty"`
}

func (p *OpParams) dest(o Orientation) string {
	switch o {
	case Portrait:
		return p.Portrait
	case Square:
		return p.Square
	default:
		return p.Landscape
	}
}

type CLICmd struct {
	Cp struct {
		OpParams
	} `cmd:"" help:"Copy images to their respective folders"`
	Mv struct {
		OpParams
	} `cmd:"" help:"Move images to their respective folders"`
}

func (c *CLICmd) params(subCmd string) (*OpParams, fileOp) {
	if subCmd == "mv" {
		return &c.Mv.OpParams, moveFile
	}
	return &c.Cp.OpParams, copyFile
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	conf, _ := c.params(kctx.Selected().Name)

	scanDir, err := filepath.Abs(conf.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", conf.Scan, err)
	}
	conf.Scan = scanDir

	for _, dir := range []*string{&conf.Portrait, &conf.Landscape, &conf.Square} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(scanDir, *dir)
		}
	}

	return nil
}

func (c *CLICmd) Run(kctx *kong.Context, pool *parallel.Pool) error {
	conf, op := c.params(kctx.Selected().Name)
	return sortFiles(conf, op, pool)
}

func sortFiles(conf *OpParams, op fileOp, pool *parallel.Pool) error {
	for _, dir := range []string{conf.Portrait, conf.Landscape, conf.Square} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create destination folder %q: %w", dir, err)
		}
	}

	files, err := os.ReadDir(conf.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", conf.Scan, err)
	}

	var counts [3]atomic.Uint64
	var errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		name := filepath.Join(conf.Scan, file.Name())
		pool.Go(func() {
			logger := slog.Default().With("file", name)

			data, err := os.ReadFile(name)
			if err != nil {
				errCount.Add(1)
				logger.Error("could not open image", "error", err)
				return
			}
			o, err := Classify(data, conf.Square != "")
			if err != nil {
				errCount.Add(1)
				logger.Error("could not read image", "error", err)
				return
			}

			dest := filepath.Join(conf.dest(o), file.Name())
			if err = op(logger, name, dest); err != nil {
				errCount.Add(1)
				logger.Error("could not operate image", "to", dest, "error", err)
				return
			}
			counts[o].Add(1)
		})
	}
	pool.Wait()

	errs := errCount.Load()
	portraits, landscapes, squares := counts[Portrait].Load(), counts[Landscape].Load(), counts[Square].Load()
	slog.Info("stats", "portraits", portraits, "landscapes", landscapes, "squares", squares,
		"errors", errs, "total", portraits+landscapes+squares)

	if errs > 0 {
		return fmt.Errorf("error processing %d files", errs)
	}
	return nil
}
