package host

import (
	"image"
	"image/color"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/draw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/c8/chip8"
)

type gui struct {
	scale  int
	fg, bg color.RGBA

	buf   screen.Buffer
	tex   screen.Texture
	frame int // number of the frame held in buf
}

func (g *gui) run(r *Runner, exit <-chan bool) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "c8",
			Width:  chip8.Width * g.scale,
			Height: chip8.Height * g.scale,
		})
		if err != nil {
			runErr = err
			return
		}
		defer w.Release()

		type update struct{}
		go func() {
			t := time.NewTicker(time.Second / time.Duration(r.cfg.FPS))
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-exit:
					w.Send(update{})
					return
				}
			}
		}()

		if err := g.alloc(s); err != nil {
			runErr = err
			return
		}
		defer g.release()

		var (
			sz    size.Event
			dirty bool
		)
		for {
			e := w.NextEvent()

			select {
			case <-exit:
				return
			default:
			}

			switch e := e.(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				dirty = true

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case key.Event:
				if e.Code == key.CodeEscape {
					return
				}
				switch e.Direction {
				case key.DirPress:
					r.keys.Press(e.Rune)
				case key.DirRelease:
					r.keys.Release(e.Rune)
				}

			case paint.Event:
				dirty = true

			case update:
				if f := r.LastFrame(); f.N != g.frame {
					g.frame = f.N
					draw.Draw(g.buf.RGBA(), g.buf.Bounds(), FrameImage(f, g.scale, g.fg, g.bg), image.Point{}, draw.Src)
					dirty = true
				}
				if dirty {
					g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
					w.Scale(sz.Bounds(), g.tex, g.tex.Bounds(), draw.Src, nil)
					w.Publish()
					dirty = false
				}

			case error:
				log.Print(e)
			}
		}
	})
	return runErr
}

func (g *gui) alloc(s screen.Screen) (err error) {
	sz := image.Point{chip8.Width * g.scale, chip8.Height * g.scale}
	if g.buf, err = s.NewBuffer(sz); err != nil {
		return
	}
	g.tex, err = s.NewTexture(sz)
	return
}

func (g *gui) release() {
	if g.tex != nil {
		g.tex.Release()
	}
	if g.buf != nil {
		g.buf.Release()
	}
}
