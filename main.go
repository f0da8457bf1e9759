package main

import (
	"log/slog"
	"os"
	"strings"

	"pixview/mangle"
	"pixview/orient"
	"pixview/palette"
	"pixview/parallel"
	"pixview/probe"

	"github.com/alecthomas/kong"
)

var cli struct {
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	LogJSON  bool   `help:"Log in JSON format" name:"log-json"`
	Workers  int    `help:"Number of parallel workers, 0 uses all CPUs" default:"0"`

	Mangle mangle.CLICmd `cmd:"" help:"Process all images in a folder"`
	Orient orient.CLICmd `cmd:"" help:"Sort images into folders by orientation"`
	Probe  probe.CLICmd  `cmd:"" help:"Print the color layout and pixel values of an image"`
}

func setupLogger(level string, json bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if json {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("pixview"),
		kong.Description("Inspect and process images pixel by pixel."),
		kong.UsageOnError(),
		kong.Vars{"palettes": strings.Join(palette.Names(), ", ")},
	)

	setupLogger(cli.LogLevel, cli.LogJSON)

	pool := parallel.Start(cli.Workers)
	defer pool.Wait()

	err := kctx.Run(pool)
	kctx.FatalIfErrorf(err)
}
