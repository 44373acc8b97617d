package host

import (
	"sync"
	"unicode"

	"github.com/pkg/errors"

	"github.com/nf/c8/chip8"
)

// DefaultLayout maps the left-hand block of a QWERTY keyboard onto the
// hexadecimal keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var DefaultLayout = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// Keypad tracks which physical keys are held and reports the
// corresponding logical key state. It is safe for concurrent use.
type Keypad struct {
	layout map[rune]byte

	mu   sync.Mutex
	down map[rune]bool
}

// NewKeypad returns a Keypad using layout, or DefaultLayout if layout is
// nil. Layout keys are matched case-insensitively.
func NewKeypad(layout map[rune]byte) (*Keypad, error) {
	if layout == nil {
		layout = DefaultLayout
	}
	k := &Keypad{
		layout: make(map[rune]byte, len(layout)),
		down:   map[rune]bool{},
	}
	for r, key := range layout {
		if key > 0xf {
			return nil, errors.Errorf("key %q mapped to invalid key %#x", r, key)
		}
		k.layout[unicode.ToLower(r)] = key
	}
	return k, nil
}

// Press marks r as held. Runes outside the layout are ignored.
func (k *Keypad) Press(r rune) {
	r = unicode.ToLower(r)
	if _, ok := k.layout[r]; !ok {
		return
	}
	k.mu.Lock()
	k.down[r] = true
	k.mu.Unlock()
}

func (k *Keypad) Release(r rune) {
	k.mu.Lock()
	delete(k.down, unicode.ToLower(r))
	k.mu.Unlock()
}

// Update replaces the set of held keys with pressed.
func (k *Keypad) Update(pressed []rune) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.down = map[rune]bool{}
	for _, r := range pressed {
		r = unicode.ToLower(r)
		if _, ok := k.layout[r]; ok {
			k.down[r] = true
		}
	}
}

// State returns a snapshot of the logical keys.
func (k *Keypad) State() chip8.KeyState {
	k.mu.Lock()
	defer k.mu.Unlock()
	var s chip8.KeyState
	for r := range k.down {
		s[k.layout[r]] = true
	}
	return s
}
