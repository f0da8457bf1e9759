package palette

import (
	"fmt"
	"image/color"
	stdpalette "image/color/palette"
	"os"
	"slices"
	"strings"
)

func grays(n int) color.Palette {
	pal := make(color.Palette, n)
	for i := range n {
		pal[i] = color.Gray{Y: uint8(i * 255 / (n - 1))}
	}
	return pal
}

var vga16 = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xff},
	color.RGBA{0x00, 0x00, 0xaa, 0xff},
	color.RGBA{0x00, 0xaa, 0x00, 0xff},
	color.RGBA{0x00, 0xaa, 0xaa, 0xff},
	color.RGBA{0xaa, 0x00, 0x00, 0xff},
	color.RGBA{0xaa, 0x00, 0xaa, 0xff},
	color.RGBA{0xaa, 0x55, 0x00, 0xff},
	color.RGBA{0xaa, 0xaa, 0xaa, 0xff},
	color.RGBA{0x55, 0x55, 0x55, 0xff},
	color.RGBA{0x55, 0x55, 0xff, 0xff},
	color.RGBA{0x55, 0xff, 0x55, 0xff},
	color.RGBA{0x55, 0xff, 0xff, 0xff},
	color.RGBA{0xff, 0x55, 0x55, 0xff},
	color.RGBA{0xff, 0x55, 0xff, 0xff},
	color.RGBA{0xff, 0xff, 0x55, 0xff},
	color.RGBA{0xff, 0xff, 0xff, 0xff},
}

var named = map[string]color.Palette{
	"bw":     grays(2),
	"gray4":  grays(4),
	"gray16": grays(16),
	"vga16":  vga16,
	"web216": stdpalette.WebSafe,
	"plan9":  stdpalette.Plan9,
}

// Names lists the built-in palettes.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load returns a built-in palette by name or, failing that, the palettes of
// a RIFF PAL file merged into one.
func Load(nameOrPath string) (color.Palette, error) {
	if pal, ok := named[strings.ToLower(nameOrPath)]; ok {
		return slices.Clone(pal), nil
	}

	f, err := os.Open(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", nameOrPath, err)
	}
	defer f.Close()

	pals, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("could not read palette file %q: %w", nameOrPath, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("palette file %q has no colors", nameOrPath)
	}
	return res, nil
}
