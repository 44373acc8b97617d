package host

import (
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nf/c8/chip8"
)

// Terminals report key presses but not releases, so a pressed key is
// held for keyHold or until the terminal repeats it.
const keyHold = 200 * time.Millisecond

type terminal struct {
	fg, bg    color.RGBA
	newScreen func() (tcell.Screen, error)

	held  map[rune]time.Time // release deadlines
	frame int
	sound bool
}

func tcellScreen() (tcell.Screen, error) { return tcell.NewScreen() }

func (t *terminal) run(r *Runner, exit <-chan bool) error {
	s, err := t.newScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	s.HideCursor()
	s.Clear()

	var (
		events = make(chan tcell.Event)
		done   = make(chan bool)
	)
	defer close(done)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	tick := time.NewTicker(time.Second / time.Duration(r.cfg.FPS))
	defer tick.Stop()
	for {
		select {
		case <-exit:
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !t.key(r.keys, ev, time.Now()) {
					return nil
				}
			case *tcell.EventResize:
				s.Sync()
				t.frame = 0
			}
		case now := <-tick.C:
			t.expire(r.keys, now)
			if f := r.LastFrame(); f.N != t.frame {
				t.frame = f.N
				t.render(s, f)
				if f.Sound && !t.sound {
					s.Beep()
				}
				t.sound = f.Sound
				s.Show()
			}
		}
	}
}

// key handles a key event and reports whether the display should stay open.
func (t *terminal) key(keys *Keypad, ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		if t.held == nil {
			t.held = map[rune]time.Time{}
		}
		keys.Press(ev.Rune())
		t.held[ev.Rune()] = now.Add(keyHold)
	}
	return true
}

func (t *terminal) expire(keys *Keypad, now time.Time) {
	for r, deadline := range t.held {
		if now.After(deadline) {
			keys.Release(r)
			delete(t.held, r)
		}
	}
}

// render draws two display rows per terminal row using the upper half
// block, with the top pixel as foreground and the bottom as background.
func (t *terminal) render(s tcell.Screen, f Frame) {
	on := tcell.NewRGBColor(int32(t.fg.R), int32(t.fg.G), int32(t.fg.B))
	off := tcell.NewRGBColor(int32(t.bg.R), int32(t.bg.G), int32(t.bg.B))
	pick := func(lit bool) tcell.Color {
		if lit {
			return on
		}
		return off
	}
	for y := 0; y < chip8.Height; y += 2 {
		for x := 0; x < chip8.Width; x++ {
			st := tcell.StyleDefault.
				Foreground(pick(f.On(x, y))).
				Background(pick(f.On(x, y+1)))
			s.SetContent(x, y/2, '▀', nil, st)
		}
	}
}
