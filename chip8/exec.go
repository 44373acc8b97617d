// Package chip8 provides an implementation of a CHIP-8 virtual machine,
// called Machine, that can be used to execute CHIP-8 programs.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Memory layout.
const (
	MemSize        = 0x1000
	ProgramStart   = 0x200
	MaxProgramSize = MemSize - ProgramStart
)

// Machine is an implementation of a CHIP-8 CPU together with its memory,
// timers and display.
type Machine struct {
	V      [16]byte
	I      uint16
	PC     uint16
	Mem    [MemSize]byte
	Stack  Stack
	Delay  byte
	Sound  byte
	Screen FrameBuffer

	// Rand supplies the bytes used by Random.
	Rand func() byte
}

// Keypad reports the state of the sixteen logical keys.
type Keypad interface {
	IsPressed(key byte) bool
}

// KeyState is a Keypad snapshot indexed by logical key.
type KeyState [16]bool

// IsPressed implements Keypad. Keys above 0xF are never pressed.
func (k KeyState) IsPressed(key byte) bool {
	return int(key) < len(k) && k[key]
}

// NewMachine returns a Machine with the digit font loaded and PC at 0x200.
func NewMachine() *Machine {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	m := &Machine{
		PC:   ProgramStart,
		Rand: func() byte { return byte(r.Intn(0x100)) },
	}
	copy(m.Mem[:], font[:])
	return m
}

// ErrProgramTooLarge is returned by Load for programs that do not fit
// between ProgramStart and the end of memory.
var ErrProgramTooLarge = errors.New("program too large")

// Load copies rom into memory at ProgramStart.
// If rom is too large the Machine is left unchanged.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrProgramTooLarge, len(rom), MaxProgramSize)
	}
	copy(m.Mem[ProgramStart:], rom)
	return nil
}

// Fetch returns the instruction word at PC.
func (m *Machine) Fetch() (uint16, error) {
	if int(m.PC)+1 >= MemSize {
		return 0, HaltError{HaltCode: InvalidAddress, Addr: m.PC}
	}
	return short(m.Mem[m.PC], m.Mem[m.PC+1]), nil
}

// Step fetches, decodes and executes the instruction at PC.
func (m *Machine) Step(keys Keypad) error {
	w, err := m.Fetch()
	if err != nil {
		return err
	}
	op, err := Decode(w)
	if err != nil {
		return HaltError{HaltCode: InvalidOpcode, Addr: m.PC, Word: w}
	}
	return m.Exec(op, keys)
}

// Tick decrements both timers, stopping at zero.
// It should be called at 60Hz regardless of how many instructions run.
func (m *Machine) Tick() {
	if m.Delay > 0 {
		m.Delay--
	}
	if m.Sound > 0 {
		m.Sound--
	}
}

// Exec executes op as if it were the instruction at PC and advances PC.
// A nil keys behaves as a keypad with no keys down. Exec only returns a
// non-nil error if op triggers a halt condition, in which case PC is left
// pointing at the offending instruction.
func (m *Machine) Exec(op Op, keys Keypad) (err error) {
	opPC := m.PC
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(HaltCode); ok {
				m.PC = opPC
				err = HaltError{
					HaltCode: code,
					Addr:     opPC,
					Word:     short(m.Mem[opPC%MemSize], m.Mem[(opPC+1)%MemSize]),
					Op:       op,
				}
			} else {
				panic(e)
			}
		}
	}()
	if keys == nil {
		keys = KeyState{}
	}

	next := m.PC + 2
	skipIf := func(cond bool) {
		if cond {
			next += 2
		}
	}

	switch op := op.(type) {
	case Clear:
		m.Screen.Clear()
	case Return:
		next = m.Stack.pop()
	case Jump:
		next = op.Addr
	case Call:
		if op.Addr >= MemSize || int(m.PC) >= MemSize {
			panic(InvalidAddress)
		}
		// The return address, not the address of the Call itself.
		m.Stack.push(m.PC + 2)
		next = op.Addr
	case SkipEq:
		skipIf(m.V[op.X] == op.Byte)
	case SkipNeq:
		skipIf(m.V[op.X] != op.Byte)
	case SkipRegEq:
		skipIf(m.V[op.X] == m.V[op.Y])
	case SkipRegNeq:
		skipIf(m.V[op.X] != m.V[op.Y])
	case Load:
		m.V[op.X] = op.Byte
	case Add:
		m.V[op.X] += op.Byte
	case LoadReg:
		m.V[op.X] = m.V[op.Y]
	case Or:
		m.V[op.X] |= m.V[op.Y]
	case And:
		m.V[op.X] &= m.V[op.Y]
	case Xor:
		m.V[op.X] ^= m.V[op.Y]
	case AddReg:
		sum := uint16(m.V[op.X]) + uint16(m.V[op.Y])
		m.V[op.X] = byte(sum)
		m.V[Flag] = boolByte(sum > 0xff)
	case Sub:
		m.sub(op.X, op.X, op.Y)
	case SubReverse:
		m.sub(op.X, op.Y, op.X)
	case ShiftRight:
		v := m.V[op.X]
		m.V[Flag] = v & 0x01
		m.V[op.X] = v >> 1
	case ShiftLeft:
		v := m.V[op.X]
		m.V[Flag] = v >> 7
		m.V[op.X] = v << 1
	case LoadIndex:
		m.I = op.Addr
	case JumpIndexed:
		next = uint16(m.V[0]) + op.Addr
	case Random:
		m.V[op.X] = m.Rand() & op.Byte
	case Draw:
		m.draw(m.V[op.X], m.V[op.Y], op.N)
	case SkipKeyPressed:
		skipIf(keys.IsPressed(m.V[op.X]))
	case SkipKeyNotPressed:
		skipIf(!keys.IsPressed(m.V[op.X]))
	case GetDelay:
		m.V[op.X] = m.Delay
	case WaitKey:
		next = m.PC
		for k := byte(0); k < 16; k++ {
			if keys.IsPressed(k) {
				m.V[op.X] = k
				next += 2
				break
			}
		}
	case SetDelay:
		m.Delay = m.V[op.X]
	case SetSound:
		m.Sound = m.V[op.X]
	case AddToIndex:
		i := uint32(m.I) + uint32(m.V[op.X])
		if i >= MemSize {
			panic(AddressOverflow)
		}
		m.I = uint16(i)
	case LoadDigitSprite:
		d := m.V[op.X]
		if d > 0xf {
			panic(InvalidDigit)
		}
		m.I = uint16(d) * FontSize
	case StoreBCD:
		b := m.span(m.I, 3)
		v := m.V[op.X]
		b[0], b[1], b[2] = v/100, v/10%10, v%10
	case StoreRegs:
		copy(m.span(m.I, int(op.X)+1), m.V[:op.X+1])
	case LoadRegs:
		copy(m.V[:op.X+1], m.span(m.I, int(op.X)+1))
	default:
		panic(fmt.Errorf("internal error: %v not implemented", op))
	}

	m.PC = next
	return nil
}

// sub stores V[a]-V[b] in V[dst]. VF is set first, to 1 only when V[a]
// is strictly greater than V[b].
func (m *Machine) sub(dst, a, b Reg) {
	va, vb := m.V[a], m.V[b]
	m.V[Flag] = boolByte(va > vb)
	m.V[dst] = va - vb
}

func (m *Machine) draw(x, y, n byte) {
	sprite := m.span(m.I, int(n))
	m.V[Flag] = 0
	for row, bits := range sprite {
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			if m.Screen.Set(int(x)+col, int(y)+row, true) {
				m.V[Flag] = 1
			}
		}
	}
}

// span returns the n bytes of memory starting at addr.
func (m *Machine) span(addr uint16, n int) []byte {
	if int(addr)+n > MemSize {
		panic(MemoryOverflow)
	}
	return m.Mem[int(addr) : int(addr)+n]
}

// HaltError is returned by Step and Exec when execution cannot continue.
type HaltError struct {
	HaltCode
	Addr uint16 // address of the offending instruction
	Word uint16 // instruction word at Addr
	Op   Op     // nil if Word could not be decoded
}

func (e HaltError) Error() string {
	if e.Op == nil {
		return fmt.Sprintf("%s (%.4x) at %.4x", e.HaltCode, e.Word, e.Addr)
	}
	return fmt.Sprintf("%s executing %s at %.4x", e.HaltCode, e.Op, e.Addr)
}

func (e HaltError) Unwrap() error { return e.HaltCode }

// HaltCode signifies the type of condition that halted execution.
type HaltCode byte

const (
	InvalidOpcode HaltCode = iota + 1
	StackOverflow
	StackUnderflow
	InvalidAddress
	AddressOverflow
	MemoryOverflow
	InvalidDigit
)

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		InvalidOpcode:   "invalid opcode",
		StackOverflow:   "stack overflow",
		StackUnderflow:  "stack underflow",
		InvalidAddress:  "invalid address",
		AddressOverflow: "address overflow",
		MemoryOverflow:  "memory overflow",
		InvalidDigit:    "invalid digit",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

func (c HaltCode) Error() string { return c.String() }

func short(hi, lo byte) uint16 {
	return uint16(hi)<<8 + uint16(lo)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
