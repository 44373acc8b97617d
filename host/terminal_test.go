package host

import (
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/retroenv/retrogolib/assert"

	"github.com/nf/c8/chip8"
)

func TestTerminalRender(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	assert.NoError(t, s.Init())
	defer s.Fini()
	s.SetSize(64, 16)

	term := &terminal{
		fg: color.RGBA{R: 0xff, A: 0xff},
		bg: color.RGBA{B: 0xff, A: 0xff},
	}
	term.render(s, testFrame([2]int{0, 0}, [2]int{5, 3}, [2]int{63, 31}))

	var (
		on  = tcell.NewRGBColor(0xff, 0, 0)
		off = tcell.NewRGBColor(0, 0, 0xff)
	)
	for _, c := range []struct {
		x, y   int
		fg, bg tcell.Color
	}{
		{0, 0, on, off},
		{1, 0, off, off},
		{5, 1, off, on},
		{63, 15, off, on},
	} {
		r, _, st, _ := s.GetContent(c.x, c.y)
		fg, bg, _ := st.Decompose()
		assert.Equal(t, '▀', r)
		assert.True(t, fg == c.fg && bg == c.bg)
	}
}

func TestTerminalKeys(t *testing.T) {
	keys, err := NewKeypad(nil)
	assert.NoError(t, err)
	term := &terminal{}
	now := time.Now()

	assert.True(t, term.key(keys, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), now))
	assert.True(t, keys.State().IsPressed(0x4))

	term.expire(keys, now.Add(keyHold/2))
	assert.True(t, keys.State().IsPressed(0x4))

	// A repeat extends the hold.
	term.key(keys, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), now.Add(keyHold/2))
	term.expire(keys, now.Add(keyHold+time.Millisecond))
	assert.True(t, keys.State().IsPressed(0x4))

	term.expire(keys, now.Add(2*keyHold))
	assert.False(t, keys.State().IsPressed(0x4))
	assert.Len(t, term.held, 0)

	assert.False(t, term.key(keys, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), now))
	assert.False(t, term.key(keys, tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), now))
}

func TestTerminalRun(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	r, err := NewRunner(Config{Display: DisplayTerminal, FPS: 1000})
	assert.NoError(t, err)
	m := chip8.NewMachine()
	m.Screen.Set(0, 0, true)
	r.publish(m)

	ready := make(chan bool)
	term := &terminal{
		fg: white,
		bg: black,
		newScreen: func() (tcell.Screen, error) {
			return &readyScreen{SimulationScreen: sim, ready: ready}, nil
		},
	}
	exit := make(chan bool)
	done := make(chan error)
	go func() { done <- term.run(r, exit) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("terminal screen was not initialized")
	}
	waitFor(t, func() bool {
		cells, w, _ := sim.GetContents()
		return w > 0 && len(cells) > 0 && len(cells[0].Runes) > 0 && cells[0].Runes[0] == '▀'
	})
	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		close(exit)
		t.Fatal("terminal did not close on Escape")
	}
}

// readyScreen closes ready once the screen has been initialized, so the
// test goroutine does not read the screen while Init is still writing it.
type readyScreen struct {
	tcell.SimulationScreen
	ready chan bool
}

func (s *readyScreen) Init() error {
	err := s.SimulationScreen.Init()
	close(s.ready)
	return err
}
