package host

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/nf/c8/chip8"
)

var (
	white = colornames.White
	black = colornames.Black
)

// ParseColor resolves an SVG colour name ("lime", "darkslategray") or a
// #rrggbb triple. An empty name yields def.
func ParseColor(name string, def color.RGBA) (color.RGBA, error) {
	if name == "" {
		return def, nil
	}
	if hex, ok := strings.CutPrefix(name, "#"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || len(hex) != 6 {
			return def, errors.Errorf("invalid colour %q", name)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return def, errors.Errorf("unknown colour %q", name)
	}
	return c, nil
}

// FrameImage renders f at scale pixels per display pixel.
func FrameImage(f Frame, scale int, fg, bg color.Color) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := image.NewPaletted(image.Rect(0, 0, chip8.Width, chip8.Height), color.Palette{bg, fg})
	for _, p := range f.Pixels {
		if p.On {
			src.SetColorIndex(p.X, p.Y, 1)
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, chip8.Width*scale, chip8.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG encodes img to w as a PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return errors.Wrap(png.Encode(w, img), "encoding png")
}
