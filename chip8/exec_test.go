package chip8

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestNewMachine(t *testing.T) {
	m := NewMachine()
	for i := range m.Mem {
		w := byte(0)
		if i < len(font) {
			w = font[i]
		}
		if g := m.Mem[i]; g != w {
			t.Errorf("Mem[%.4x] == %.2x, want %.2x", i, g, w)
		}
	}
	if m.PC != ProgramStart {
		t.Errorf("PC is %.4x, want %.4x", m.PC, ProgramStart)
	}
	if m.V != [16]byte{} || m.I != 0 || m.Stack.Ptr != 0 || m.Delay != 0 || m.Sound != 0 {
		t.Errorf("machine state not zeroed: V=%v I=%x SP=%d DT=%d ST=%d",
			m.V, m.I, m.Stack.Ptr, m.Delay, m.Sound)
	}
}

func TestLoad(t *testing.T) {
	for _, size := range []int{0, 1, 0x100, MaxProgramSize} {
		t.Run(fmt.Sprintf("%.4x", size), func(t *testing.T) {
			m := NewMachine()
			if err := m.Load(bytes.Repeat([]byte{1}, size)); err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			for i := ProgramStart; i < MemSize; i++ {
				w := byte(0)
				if i < ProgramStart+size {
					w = 1
				}
				if g := m.Mem[i]; g != w {
					t.Fatalf("Mem[%.4x] == %.2x, want %.2x", i, g, w)
				}
			}
		})
	}

	m := NewMachine()
	m.Mem[ProgramStart] = 0x42
	before := *m
	err := m.Load(bytes.Repeat([]byte{1}, MaxProgramSize+1))
	if !errors.Is(err, ErrProgramTooLarge) {
		t.Fatalf("Load of oversized program returned %v, want %v", err, ErrProgramTooLarge)
	}
	if m.Mem != before.Mem || m.PC != before.PC {
		t.Errorf("oversized Load mutated the machine")
	}
}

func TestExec(t *testing.T) {
	c := newExecTestCase
	for i, c := range []*execTestCase{
		c(Return{}).stack(0x300).want().stack().pc(0x300),
		c(Return{}).stack(0x300, 0x400).want().stack(0x300).pc(0x400),
		c(Jump{0x345}).want().pc(0x345),
		c(Call{0x345}).want().stack(0x202).pc(0x345),
		c(Call{0x345}).stack(0x300).want().stack(0x300, 0x202).pc(0x345),
		c(Call{0x4b}).pc(0x37).want().stack(0x39).pc(0x4b),

		c(SkipEq{1, 5}).v(1, 5).want().pc(0x204),
		c(SkipEq{1, 6}).v(1, 5),
		c(SkipNeq{1, 6}).v(1, 5).want().pc(0x204),
		c(SkipNeq{1, 5}).v(1, 5),
		c(SkipRegEq{0, 5}).v(0, 5).v(5, 5).want().pc(0x204),
		c(SkipRegEq{0, 5}).v(0, 5).v(5, 6),
		c(SkipRegNeq{0, 5}).v(0, 5).v(5, 6).want().pc(0x204),
		c(SkipRegNeq{0, 5}).v(0, 5).v(5, 5),

		c(Load{6, 124}).want().v(6, 124),
		c(Add{9, 10}).v(9, 10).want().v(9, 20),
		c(Add{9, 2}).v(9, 0xff).v(0xf, 7).want().v(9, 1),
		c(LoadReg{1, 5}).v(5, 11).want().v(1, 11),
		c(Or{0xa, 0xb}).v(0xa, 0b10100).v(0xb, 0b01010).want().v(0xa, 0b11110),
		c(And{3, 4}).v(3, 0b10011).v(4, 0b01110).want().v(3, 0b00010),
		c(Xor{0, 1}).v(0, 0b110).v(1, 0b101).want().v(0, 0b011),

		c(AddReg{1, 2}).v(1, 5).v(2, 6).want().v(1, 11).v(0xf, 0),
		c(AddReg{1, 2}).v(1, 128).v(2, 128).want().v(1, 0).v(0xf, 1),
		c(AddReg{1, 2}).v(1, 0xff).v(2, 1).v(0xf, 0).want().v(1, 0).v(0xf, 1),
		c(AddReg{1, 2}).v(1, 0xfe).v(2, 1).v(0xf, 1).want().v(1, 0xff).v(0xf, 0),

		c(Sub{2, 1}).v(2, 6).v(1, 5).want().v(2, 1).v(0xf, 1),
		c(Sub{1, 2}).v(1, 5).v(2, 6).want().v(1, 255).v(0xf, 0),
		c(Sub{1, 2}).v(1, 5).v(2, 5).v(0xf, 1).want().v(1, 0).v(0xf, 0),
		c(SubReverse{1, 2}).v(1, 5).v(2, 6).want().v(1, 1).v(0xf, 1),
		c(SubReverse{2, 1}).v(1, 5).v(2, 6).want().v(2, 255).v(0xf, 0),
		c(SubReverse{1, 2}).v(1, 5).v(2, 5).v(0xf, 1).want().v(1, 0).v(0xf, 0),

		c(ShiftRight{6}).v(6, 0b101).want().v(6, 0b010).v(0xf, 1),
		c(ShiftRight{6}).v(6, 0b110).v(0xf, 1).want().v(6, 0b011).v(0xf, 0),
		c(ShiftLeft{1}).v(1, 0b11111111).want().v(1, 0b11111110).v(0xf, 1),
		c(ShiftLeft{1}).v(1, 0b01111111).v(0xf, 1).want().v(1, 0b11111110).v(0xf, 0),

		c(LoadIndex{0x123}).want().i(0x123),
		c(JumpIndexed{0x300}).v(0, 4).want().pc(0x304),
		c(Random{3, 0x0f}).want().v(3, 0x0b),
		c(Random{3, 0x00}).v(3, 0x55).want().v(3, 0),

		c(SkipKeyPressed{1}).v(1, 3).keys(3).want().pc(0x204),
		c(SkipKeyPressed{1}).v(1, 3).keys(4),
		c(SkipKeyPressed{1}).v(1, 0x13).keys(3),
		c(SkipKeyNotPressed{1}).v(1, 3).keys(4).want().pc(0x204),
		c(SkipKeyNotPressed{1}).v(1, 3).keys(3),

		c(GetDelay{6}).delay(21).want().v(6, 21),
		c(WaitKey{5}).want().pc(0x200),
		c(WaitKey{5}).keys(0xa).want().v(5, 0xa),
		c(WaitKey{5}).keys(0xc, 0x2).want().v(5, 0x2),
		c(SetDelay{0xd}).v(0xd, 34).want().delay(34),
		c(SetSound{0xc}).v(0xc, 68).want().sound(68),

		c(AddToIndex{3}).i(0x200).v(3, 5).want().i(0x205),
		c(AddToIndex{3}).i(0xffe).v(3, 1).want().i(0xfff),
		c(LoadDigitSprite{0}).v(0, 2).want().i(10),
		c(LoadDigitSprite{0}).v(0, 0xf).want().i(75),
		c(StoreBCD{3}).i(0x300).v(3, 123).want().mem(0x300, 1, 2, 3),
		c(StoreBCD{3}).i(0x300).v(3, 7).mem(0x300, 9, 9, 9).want().mem(0x300, 0, 0, 7),
		c(StoreBCD{3}).i(0xffd).v(3, 255).want().mem(0xffd, 2, 5, 5),
		c(StoreRegs{3}).i(0x300).v(0, 1).v(1, 2).v(2, 3).v(3, 4).v(4, 5).
			want().mem(0x300, 1, 2, 3, 4),
		c(StoreRegs{0xf}).i(0xff0).v(0xf, 9).want().mem(0xfff, 9),
		c(LoadRegs{2}).i(0x300).mem(0x300, 7, 8, 9, 10).want().v(0, 7).v(1, 8).v(2, 9),

		c(Return{}).want().pc(0x200).
			error(HaltError{HaltCode: StackUnderflow, Addr: 0x200, Op: Return{}}),
		c(Call{0x300}).stack(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15).want().pc(0x200).
			error(HaltError{HaltCode: StackOverflow, Addr: 0x200, Op: Call{0x300}}),
		c(Call{MemSize}).want().pc(0x200).
			error(HaltError{HaltCode: InvalidAddress, Addr: 0x200, Op: Call{MemSize}}),
		c(AddToIndex{3}).i(0xfff).v(3, 1).want().pc(0x200).
			error(HaltError{HaltCode: AddressOverflow, Addr: 0x200, Op: AddToIndex{3}}),
		c(LoadDigitSprite{0}).v(0, 0x10).want().pc(0x200).
			error(HaltError{HaltCode: InvalidDigit, Addr: 0x200, Op: LoadDigitSprite{0}}),
		c(StoreBCD{3}).i(0xffe).want().pc(0x200).
			error(HaltError{HaltCode: MemoryOverflow, Addr: 0x200, Op: StoreBCD{3}}),
		c(StoreRegs{1}).i(0xfff).want().pc(0x200).
			error(HaltError{HaltCode: MemoryOverflow, Addr: 0x200, Op: StoreRegs{1}}),
		c(LoadRegs{1}).i(0xfff).want().pc(0x200).
			error(HaltError{HaltCode: MemoryOverflow, Addr: 0x200, Op: LoadRegs{1}}),
		c(Draw{0, 0, 5}).i(0xffe).v(0xf, 1).want().pc(0x200).
			error(HaltError{HaltCode: MemoryOverflow, Addr: 0x200, Op: Draw{0, 0, 5}}),
	} {
		t.Run(fmt.Sprintf("%s_%d", c.op, i), func(t *testing.T) {
			if err := c.m.Exec(c.op, c.k); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if g, w := c.m.V, c.w.V; g != w {
				t.Errorf("registers are\n\t%v\nwant\n\t%v", g, w)
			}
			if g, w := c.m.I, c.w.I; g != w {
				t.Errorf("I is %.4x, want %.4x", g, w)
			}
			if g, w := c.m.Stack, c.w.Stack; !stackEq(g, w) {
				t.Errorf("stack is %v, want %v", g, w)
			}
			if g, w := c.m.Mem, c.w.Mem; g != w {
				for i := 0; i < len(g) && i < len(w); i++ {
					if g[i] != w[i] {
						t.Errorf("memory[%.4x] = %.2x, want %.2x", i, g[i], w[i])
					}
				}
			}
			if g, w := c.m.Delay, c.w.Delay; g != w {
				t.Errorf("delay timer is %d, want %d", g, w)
			}
			if g, w := c.m.Sound, c.w.Sound; g != w {
				t.Errorf("sound timer is %d, want %d", g, w)
			}
			if g, w := c.m.PC, c.w.PC; g != w {
				t.Errorf("PC is %x, want %x", g, w)
			}
		})
	}
}

func TestStep(t *testing.T) {
	m := NewMachine()
	// 200: CALL 206
	// 202: JP 202
	// 204: (data)
	// 206: RET
	if err := m.Load([]byte{0x22, 0x06, 0x12, 0x02, 0x00, 0x00, 0x00, 0xee}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []struct {
		pc    uint16
		depth int
	}{
		{0x206, 1},
		{0x202, 0},
		{0x202, 0},
	} {
		if err := m.Step(nil); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
		if m.PC != want.pc || m.Stack.Depth() != want.depth {
			t.Fatalf("after step PC=%.4x depth=%d, want PC=%.4x depth=%d",
				m.PC, m.Stack.Depth(), want.pc, want.depth)
		}
	}
}

func TestStepHalts(t *testing.T) {
	m := NewMachine()
	m.Mem[0x200], m.Mem[0x201] = 0xff, 0xff
	err := m.Step(nil)
	if want := (HaltError{HaltCode: InvalidOpcode, Addr: 0x200, Word: 0xffff}); err != want {
		t.Errorf("got error %v, want %v", err, want)
	}
	if !errors.Is(err, InvalidOpcode) {
		t.Errorf("errors.Is(%v, InvalidOpcode) is false", err)
	}
	if m.PC != 0x200 {
		t.Errorf("PC is %.4x, want 0200", m.PC)
	}

	m = NewMachine()
	m.Mem[0x200], m.Mem[0x201] = 0x00, 0xee
	err = m.Step(nil)
	if !errors.Is(err, StackUnderflow) {
		t.Errorf("got error %v, want %v", err, StackUnderflow)
	}
	if h, ok := err.(HaltError); !ok || h.Word != 0x00ee {
		t.Errorf("got error %#v, want HaltError with word 00ee", err)
	}

	m = NewMachine()
	m.V[0] = 0xff
	m.Mem[0x200], m.Mem[0x201] = 0xbf, 0xff // JP V0, 0xfff
	if err := m.Step(nil); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if err := m.Step(nil); !errors.Is(err, InvalidAddress) {
		t.Errorf("fetch past memory returned %v, want %v", err, InvalidAddress)
	}
}

func TestWaitKey(t *testing.T) {
	m := NewMachine()
	m.Mem[0x200], m.Mem[0x201] = 0xf3, 0x0a // LD V3, K
	var keys KeyState
	for i := 0; i < 5; i++ {
		if err := m.Step(keys); err != nil {
			t.Fatal(err)
		}
		if m.PC != 0x200 {
			t.Fatalf("PC moved to %.4x with no key pressed", m.PC)
		}
	}
	keys[0xb] = true
	if err := m.Step(keys); err != nil {
		t.Fatal(err)
	}
	if m.PC != 0x202 || m.V[3] != 0xb {
		t.Errorf("PC=%.4x V3=%x, want PC=0202 V3=b", m.PC, m.V[3])
	}
}

func TestStackDepth(t *testing.T) {
	m := NewMachine()
	for i := 0; i < 15; i++ {
		if err := m.Exec(Call{0x200}, nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := m.Exec(Call{0x200}, nil); !errors.Is(err, StackOverflow) {
		t.Fatalf("16th call returned %v, want %v", err, StackOverflow)
	}
	for i := 0; i < 15; i++ {
		if err := m.Exec(Return{}, nil); err != nil {
			t.Fatalf("return %d: %v", i, err)
		}
	}
	if err := m.Exec(Return{}, nil); !errors.Is(err, StackUnderflow) {
		t.Fatalf("extra return returned %v, want %v", err, StackUnderflow)
	}
}

func TestTick(t *testing.T) {
	m := NewMachine()
	m.Delay, m.Sound = 5, 11
	m.Tick()
	if m.Delay != 4 || m.Sound != 10 {
		t.Errorf("after tick DT=%d ST=%d, want 4 10", m.Delay, m.Sound)
	}
	for i := 0; i < 300; i++ {
		m.Tick()
	}
	if m.Delay != 0 || m.Sound != 0 {
		t.Errorf("after many ticks DT=%d ST=%d, want 0 0", m.Delay, m.Sound)
	}
}

func TestDraw(t *testing.T) {
	m := NewMachine()
	m.I = 0x300
	m.Mem[0x300] = 0xff
	m.Mem[0x301] = 0x81
	draw := Draw{X: 1, Y: 2, N: 2}
	m.V[1], m.V[2] = 10, 5

	lit := func() (n int) {
		for _, p := range m.Screen.Pixels() {
			if p.On {
				n++
			}
		}
		return n
	}

	if err := m.Exec(draw, nil); err != nil {
		t.Fatal(err)
	}
	if m.V[0xf] != 0 {
		t.Errorf("first draw VF = %d, want 0", m.V[0xf])
	}
	for x := 10; x < 18; x++ {
		if !m.Screen.At(x, 5) {
			t.Errorf("pixel (%d, 5) is off, want on", x)
		}
	}
	if !m.Screen.At(10, 6) || !m.Screen.At(17, 6) || m.Screen.At(11, 6) {
		t.Errorf("second sprite row drawn incorrectly")
	}
	if n := lit(); n != 10 {
		t.Errorf("%d pixels lit, want 10", n)
	}

	m.PC = 0x200
	if err := m.Exec(draw, nil); err != nil {
		t.Fatal(err)
	}
	if m.V[0xf] != 1 {
		t.Errorf("second draw VF = %d, want 1", m.V[0xf])
	}
	if n := lit(); n != 0 {
		t.Errorf("%d pixels lit after redraw, want 0", n)
	}
}

func TestDrawWraps(t *testing.T) {
	m := NewMachine()
	m.I = 0x300
	m.Mem[0x300] = 0xc0
	m.Mem[0x301] = 0x80
	m.V[0], m.V[1] = 63, 31
	if err := m.Exec(Draw{0, 1, 2}, nil); err != nil {
		t.Fatal(err)
	}
	for _, p := range [][2]int{{63, 31}, {0, 31}, {63, 0}} {
		if !m.Screen.At(p[0], p[1]) {
			t.Errorf("pixel %v is off, want on", p)
		}
	}
	if m.V[0xf] != 0 {
		t.Errorf("VF = %d, want 0", m.V[0xf])
	}
}

func TestDrawDigit(t *testing.T) {
	m := NewMachine()
	m.V[0] = 0x0
	if err := m.Exec(LoadDigitSprite{0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Exec(Draw{1, 1, FontSize}, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"####",
		"#..#",
		"#..#",
		"#..#",
		"####",
	}
	for y, row := range want {
		for x, c := range row {
			if g, w := m.Screen.At(x, y), c == '#'; g != w {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

type execTestCase struct {
	op   Op
	k    KeyState
	m, w *Machine
	err  error
	set  *Machine
}

func newExecTestCase(op Op) *execTestCase {
	c := &execTestCase{op: op}
	c.m = newTestMachine()
	c.w = newTestMachine()
	c.w.PC += 2
	c.set = c.m
	return c
}

func newTestMachine() *Machine {
	m := NewMachine()
	m.Rand = func() byte { return 0xab }
	return m
}

// Setters apply to both machines until want is called, so that the
// expectations only need to list what the instruction changes.
func (c *execTestCase) each(f func(m *Machine)) *execTestCase {
	f(c.set)
	if c.set == c.m {
		f(c.w)
	}
	return c
}

func (c *execTestCase) v(r Reg, b byte) *execTestCase {
	return c.each(func(m *Machine) { m.V[r] = b })
}

func (c *execTestCase) i(addr uint16) *execTestCase {
	return c.each(func(m *Machine) { m.I = addr })
}

func (c *execTestCase) mem(addr uint16, bytes ...byte) *execTestCase {
	return c.each(func(m *Machine) { copy(m.Mem[addr:], bytes) })
}

func (c *execTestCase) stack(addrs ...uint16) *execTestCase {
	return c.each(func(m *Machine) { setStack(&m.Stack, addrs) })
}

func (c *execTestCase) delay(v byte) *execTestCase {
	return c.each(func(m *Machine) { m.Delay = v })
}

func (c *execTestCase) sound(v byte) *execTestCase {
	return c.each(func(m *Machine) { m.Sound = v })
}

func (c *execTestCase) pc(addr uint16) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) keys(keys ...byte) *execTestCase {
	for _, k := range keys {
		c.k[k] = true
	}
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

func setStack(s *Stack, addrs []uint16) {
	for i, a := range addrs {
		s.Addrs[i+1] = a
	}
	s.Ptr = byte(len(addrs))
}

func stackEq(a, b Stack) bool {
	if a.Ptr != b.Ptr {
		return false
	}
	for i := 1; i <= int(a.Ptr); i++ {
		if a.Addrs[i] != b.Addrs[i] {
			return false
		}
	}
	return true
}
