// Package host drives a chip8.Machine in real time: it steps the machine at
// a fixed instruction rate, ticks its timers, feeds it keypad input and
// presents its display in a window or a terminal.
package host

import (
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nf/c8/chip8"
)

// Display selects how frames are presented.
type Display int

const (
	DisplayGUI      Display = iota // shiny window
	DisplayTerminal                // tcell half-block rendering
	DisplayNone                    // headless; frames are only published
)

// Config holds the Runner settings.
type Config struct {
	Display Display
	Dev     bool // keep running after a halt and accept Swap

	Speed int // instructions per frame
	FPS   int // frames (and timer ticks) per second
	Scale int // window pixels per display pixel

	Foreground, Background string // colour names or #rrggbb

	Layout map[rune]byte // physical to logical keys; nil means DefaultLayout

	// StateFunc, if set, is called from the execution goroutine whenever
	// the machine changes state. The machine must not be retained.
	StateFunc func(*chip8.Machine, StateKind)
}

type StateKind int

const (
	ClearState StateKind = iota // running normally
	QuietState                  // periodic update, no change
	DebugState                  // reached the debug address
	BreakState                  // stopped at the break address
	PauseState                  // paused or single-stepped
	HaltState                   // machine halted
)

// Frame is a published snapshot of the display.
type Frame struct {
	N      int // frame number; zero before the first frame
	Pixels []chip8.Pixel
	Sound  bool // sound timer active
}

// On reports whether the pixel at (x, y) is lit.
func (f Frame) On(x, y int) bool {
	i := y*chip8.Width + x
	return x >= 0 && x < chip8.Width && i >= 0 && i < len(f.Pixels) && f.Pixels[i].On
}

type Runner struct {
	cfg  Config
	keys *Keypad

	swap     chan *chip8.Machine
	swapDone chan bool
	debug    chan debugCmd
	done     chan bool // closed when the execution loop returns

	mu    sync.Mutex
	frame Frame
}

type debugCmd struct {
	cmd  string
	addr uint16
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Speed <= 0 {
		cfg.Speed = 10
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 10
	}
	keys, err := NewKeypad(cfg.Layout)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		keys:     keys,
		swap:     make(chan *chip8.Machine),
		swapDone: make(chan bool),
		debug:    make(chan debugCmd),
		done:     make(chan bool),
	}, nil
}

// Keypad returns the keypad that feeds the machine.
func (r *Runner) Keypad() *Keypad { return r.keys }

// LastFrame returns the most recently published frame.
func (r *Runner) LastFrame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *Runner) publish(m *chip8.Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = Frame{
		N:      r.frame.N + 1,
		Pixels: m.Screen.Pixels(),
		Sound:  m.Sound > 0,
	}
}

func newMachine(rom []byte) (*chip8.Machine, error) {
	m := chip8.NewMachine()
	if err := m.Load(rom); err != nil {
		return nil, errors.Wrap(err, "loading program")
	}
	return m, nil
}

// Swap replaces the running machine with a fresh one running rom.
// It may only be used in dev mode, while Run is executing.
func (r *Runner) Swap(rom []byte) error {
	if !r.cfg.Dev {
		panic("Swap called while not running in dev mode")
	}
	m, err := newMachine(rom)
	if err != nil {
		return err
	}
	select {
	case r.swap <- m:
		<-r.swapDone
	case <-r.done:
	}
	return nil
}

// Debug sends a command to the execution loop:
//
//	b, break   stop before executing addr (zero clears)
//	d, debug   report state when reaching addr (zero clears)
//	p, pause   stop executing
//	c, cont    resume executing
//	s, step    execute one instruction while paused
//	exit       stop the machine; Run returns
func (r *Runner) Debug(cmd string, addr uint16) {
	select {
	case r.debug <- debugCmd{cmd, addr}:
	case <-r.done:
	}
}

// Run loads rom and executes it until the display is closed, the exit
// command is received or, outside dev mode, the machine halts.
// The display runs on the calling goroutine. Run may be called only once.
func (r *Runner) Run(rom []byte) error {
	m, err := newMachine(rom)
	if err != nil {
		return err
	}
	fg, err := ParseColor(r.cfg.Foreground, white)
	if err != nil {
		return err
	}
	bg, err := ParseColor(r.cfg.Background, black)
	if err != nil {
		return err
	}
	var d display
	switch r.cfg.Display {
	case DisplayGUI:
		d = &gui{scale: r.cfg.Scale, fg: fg, bg: bg}
	case DisplayTerminal:
		d = &terminal{fg: fg, bg: bg, newScreen: tcellScreen}
	default:
		d = headless{}
	}

	var (
		quit    = make(chan bool)
		execErr = make(chan error, 1)
	)
	go func() {
		execErr <- r.loop(m, quit)
		close(r.done)
	}()
	dispErr := d.run(r, r.done)
	close(quit)
	<-r.done
	if dispErr != nil {
		return dispErr
	}
	return <-execErr
}

type display interface {
	// run presents frames until the user closes the display or exit is
	// closed.
	run(r *Runner, exit <-chan bool) error
}

type headless struct{}

func (headless) run(r *Runner, exit <-chan bool) error {
	<-exit
	return nil
}

// session is the execution state owned by the loop goroutine.
type session struct {
	m        *chip8.Machine
	brk, dbg uint16 // zero when unset
	paused   bool
	halted   bool
	resume   bool // skip the break check for the next instruction
}

func (r *Runner) loop(m *chip8.Machine, quit <-chan bool) error {
	t := time.NewTicker(time.Second / time.Duration(r.cfg.FPS))
	defer t.Stop()

	s := &session{m: m}
	r.publish(m)
	r.state(m, ClearState)
	for {
		select {
		case <-quit:
			return nil

		case m := <-r.swap:
			s.m, s.paused, s.halted, s.resume = m, false, false, false
			r.publish(m)
			r.state(m, ClearState)
			r.swapDone <- true

		case c := <-r.debug:
			if c.cmd == "exit" {
				return nil
			}
			r.command(s, c)

		case <-t.C:
			if err := r.runFrame(s, r.keys.State()); err != nil {
				if !r.cfg.Dev {
					return err
				}
				log.Printf("chip8: %v", err)
			}
		}
	}
}

func (r *Runner) command(s *session, c debugCmd) {
	switch c.cmd {
	case "b", "break":
		s.brk = c.addr
	case "d", "debug":
		s.dbg = c.addr
	case "p", "pause":
		if !s.halted {
			s.paused = true
			r.state(s.m, PauseState)
		}
	case "c", "cont":
		if s.paused {
			s.paused, s.resume = false, true
			r.state(s.m, ClearState)
		}
	case "s", "step":
		if !s.paused || s.halted {
			return
		}
		s.resume = true
		if err := r.step(s, r.keys.State()); err != nil {
			log.Printf("chip8: %v", err)
			return
		}
		r.publish(s.m)
		r.state(s.m, PauseState)
	default:
		log.Printf("unknown debug command %q", c.cmd)
	}
}

// runFrame executes up to Speed instructions, ticks the timers and
// publishes the display. Nothing happens while paused or halted.
func (r *Runner) runFrame(s *session, keys chip8.Keypad) error {
	if s.paused || s.halted {
		return nil
	}
	for i := 0; i < r.cfg.Speed && !s.paused; i++ {
		if err := r.step(s, keys); err != nil {
			r.publish(s.m)
			return err
		}
	}
	if !s.paused {
		s.m.Tick()
	}
	r.publish(s.m)
	r.state(s.m, QuietState)
	return nil
}

func (r *Runner) step(s *session, keys chip8.Keypad) error {
	pc := s.m.PC
	if s.brk != 0 && pc == s.brk && !s.resume {
		s.paused = true
		r.state(s.m, BreakState)
		return nil
	}
	s.resume = false
	if s.dbg != 0 && pc == s.dbg {
		r.state(s.m, DebugState)
	}
	if err := s.m.Step(keys); err != nil {
		s.halted = true
		r.state(s.m, HaltState)
		return err
	}
	return nil
}

func (r *Runner) state(m *chip8.Machine, k StateKind) {
	if f := r.cfg.StateFunc; f != nil {
		f(m, k)
	}
}
