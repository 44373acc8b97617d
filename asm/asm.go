// Package asm implements an assembler for CHIP-8 programs written in the
// classic mnemonic syntax, for example:
//
//	start:	LD V0, 0x0A	; digit
//		LD F, V0
//		DRW V1, V2, 5
//		JP start
//
// Numbers may be decimal, hexadecimal (0x1F or #1F) or binary (0b1010).
// DB and DW emit raw bytes and big-endian words.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/nf/c8/chip8"
)

// Program is the result of assembling a source file.
type Program struct {
	ROM     []byte            // loaded at chip8.ProgramStart
	Symbols map[string]uint16 // label addresses
}

// Assemble assembles src. The name is used in error messages.
func Assemble(name, src string) (*Program, error) {
	tree, err := parser.ParseString(name, src+"\n")
	if err != nil {
		return nil, err
	}
	a := &assembler{syms: map[string]uint16{}}
	if err := a.layout(tree); err != nil {
		return nil, err
	}
	var rom []byte
	for _, l := range tree.Lines {
		if l.Stmt == nil {
			continue
		}
		b, err := a.encode(l.Stmt)
		if err != nil {
			return nil, err
		}
		rom = append(rom, b...)
	}
	if len(rom) > chip8.MaxProgramSize {
		return nil, errors.Wrapf(chip8.ErrProgramTooLarge, "%s: %d bytes (max %d)", name, len(rom), chip8.MaxProgramSize)
	}
	return &Program{ROM: rom, Symbols: a.syms}, nil
}

type assembler struct {
	syms map[string]uint16
}

// layout assigns an address to every label.
func (a *assembler) layout(tree *source) error {
	pc := chip8.ProgramStart
	for _, l := range tree.Lines {
		if l.Label != "" {
			if _, ok := keywords[strings.ToUpper(l.Label)]; ok || isReg(l.Label) {
				return errorf(l.Pos, "label %q is a reserved word", l.Label)
			}
			if _, ok := a.syms[l.Label]; ok {
				return errorf(l.Pos, "label %q redefined", l.Label)
			}
			if pc > 0xffff {
				return errorf(l.Pos, "label %q past end of memory", l.Label)
			}
			a.syms[l.Label] = uint16(pc)
		}
		if s := l.Stmt; s != nil {
			switch strings.ToUpper(s.Mnemonic) {
			case "DB":
				pc += len(s.Operands)
			case "DW":
				pc += 2 * len(s.Operands)
			default:
				pc += 2
			}
		}
	}
	return nil
}

func (a *assembler) encode(s *statement) ([]byte, error) {
	args := make([]arg, len(s.Operands))
	for i, o := range s.Operands {
		v, err := a.resolve(o)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	ops := &operands{args: args}
	switch mn := strings.ToUpper(s.Mnemonic); mn {
	case "DB", "DW":
		if len(args) == 0 {
			return nil, errorf(s.Pos, "%s needs at least one operand", mn)
		}
		var b []byte
		for i, v := range args {
			if v.kind != num {
				return nil, errorf(v.pos, "%s operand must be a number", mn)
			}
			if mn == "DB" {
				b = append(b, ops.byte(i))
			} else {
				w := ops.num(i, 0xffff, "word")
				b = append(b, byte(w>>8), byte(w))
			}
		}
		return b, ops.err
	default:
		op, err := instruction(s, mn, ops)
		if err != nil {
			return nil, err
		}
		w := chip8.Encode(op)
		return []byte{byte(w >> 8), byte(w)}, nil
	}
}

func instruction(s *statement, mn string, o *operands) (chip8.Op, error) {
	var op chip8.Op
	switch mn {
	case "CLS":
		if o.match() {
			op = chip8.Clear{}
		}
	case "RET":
		if o.match() {
			op = chip8.Return{}
		}
	case "JP":
		switch {
		case o.match(num):
			op = chip8.Jump{Addr: o.addr(0)}
		case o.match(reg, num) && o.args[0].val == 0:
			op = chip8.JumpIndexed{Addr: o.addr(1)}
		}
	case "CALL":
		if o.match(num) {
			op = chip8.Call{Addr: o.addr(0)}
		}
	case "SE":
		switch {
		case o.match(reg, num):
			op = chip8.SkipEq{X: o.reg(0), Byte: o.byte(1)}
		case o.match(reg, reg):
			op = chip8.SkipRegEq{X: o.reg(0), Y: o.reg(1)}
		}
	case "SNE":
		switch {
		case o.match(reg, num):
			op = chip8.SkipNeq{X: o.reg(0), Byte: o.byte(1)}
		case o.match(reg, reg):
			op = chip8.SkipRegNeq{X: o.reg(0), Y: o.reg(1)}
		}
	case "LD":
		switch {
		case o.match(reg, num):
			op = chip8.Load{X: o.reg(0), Byte: o.byte(1)}
		case o.match(reg, reg):
			op = chip8.LoadReg{X: o.reg(0), Y: o.reg(1)}
		case o.match(index, num):
			op = chip8.LoadIndex{Addr: o.addr(1)}
		case o.match(reg, delay):
			op = chip8.GetDelay{X: o.reg(0)}
		case o.match(reg, key):
			op = chip8.WaitKey{X: o.reg(0)}
		case o.match(delay, reg):
			op = chip8.SetDelay{X: o.reg(1)}
		case o.match(sound, reg):
			op = chip8.SetSound{X: o.reg(1)}
		case o.match(digit, reg):
			op = chip8.LoadDigitSprite{X: o.reg(1)}
		case o.match(bcd, reg):
			op = chip8.StoreBCD{X: o.reg(1)}
		case o.match(indirect, reg):
			op = chip8.StoreRegs{X: o.reg(1)}
		case o.match(reg, indirect):
			op = chip8.LoadRegs{X: o.reg(0)}
		}
	case "ADD":
		switch {
		case o.match(reg, num):
			op = chip8.Add{X: o.reg(0), Byte: o.byte(1)}
		case o.match(reg, reg):
			op = chip8.AddReg{X: o.reg(0), Y: o.reg(1)}
		case o.match(index, reg):
			op = chip8.AddToIndex{X: o.reg(1)}
		}
	case "OR", "AND", "XOR", "SUB", "SUBN":
		if o.match(reg, reg) {
			x, y := o.reg(0), o.reg(1)
			op = map[string]chip8.Op{
				"OR":   chip8.Or{X: x, Y: y},
				"AND":  chip8.And{X: x, Y: y},
				"XOR":  chip8.Xor{X: x, Y: y},
				"SUB":  chip8.Sub{X: x, Y: y},
				"SUBN": chip8.SubReverse{X: x, Y: y},
			}[mn]
		}
	case "SHR", "SHL":
		// An optional second register is accepted and ignored.
		if o.match(reg) || o.match(reg, reg) {
			if mn == "SHR" {
				op = chip8.ShiftRight{X: o.reg(0)}
			} else {
				op = chip8.ShiftLeft{X: o.reg(0)}
			}
		}
	case "RND":
		if o.match(reg, num) {
			op = chip8.Random{X: o.reg(0), Byte: o.byte(1)}
		}
	case "DRW":
		if o.match(reg, reg, num) {
			op = chip8.Draw{X: o.reg(0), Y: o.reg(1), N: o.nibble(2)}
		}
	case "SKP":
		if o.match(reg) {
			op = chip8.SkipKeyPressed{X: o.reg(0)}
		}
	case "SKNP":
		if o.match(reg) {
			op = chip8.SkipKeyNotPressed{X: o.reg(0)}
		}
	default:
		return nil, errorf(s.Pos, "unknown instruction %q", s.Mnemonic)
	}
	if o.err != nil {
		return nil, o.err
	}
	if op == nil {
		return nil, errorf(s.Pos, "invalid operands for %s", mn)
	}
	return op, nil
}

type kind int

const (
	num      kind = iota // literal or label address
	reg                  // V0..VF
	index                // I
	indirect             // [I]
	delay                // DT
	sound                // ST
	key                  // K
	digit                // F
	bcd                  // B
)

var keywords = map[string]kind{
	"I":  index,
	"DT": delay,
	"ST": sound,
	"K":  key,
	"F":  digit,
	"B":  bcd,
}

type arg struct {
	kind kind
	val  int
	pos  lexer.Position
}

func (a *assembler) resolve(o *operand) (arg, error) {
	v := arg{pos: o.Pos}
	switch {
	case o.Number != nil:
		n, err := parseNumber(*o.Number)
		if err != nil {
			return v, errorf(o.Pos, "bad number %q", *o.Number)
		}
		v.kind, v.val = num, n
	case o.Indirect != "":
		if strings.ToUpper(o.Indirect) != "I" {
			return v, errorf(o.Pos, "only [I] may be used indirectly, not [%s]", o.Indirect)
		}
		v.kind = indirect
	case isReg(o.Name):
		n, _ := strconv.ParseUint(o.Name[1:], 16, 8)
		v.kind, v.val = reg, int(n)
	default:
		if k, ok := keywords[strings.ToUpper(o.Name)]; ok {
			v.kind = k
			break
		}
		addr, ok := a.syms[o.Name]
		if !ok {
			return v, errorf(o.Pos, "undefined label %q", o.Name)
		}
		v.kind, v.val = num, int(addr)
	}
	return v, nil
}

func isReg(s string) bool {
	if len(s) != 2 || (s[0] != 'V' && s[0] != 'v') {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 8)
	return err == nil
}

func parseNumber(s string) (int, error) {
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		s, base = s[2:], 2
	}
	n, err := strconv.ParseUint(s, base, 16)
	return int(n), err
}

// operands accessors record the first range error in err.
type operands struct {
	args []arg
	err  error
}

func (o *operands) match(kinds ...kind) bool {
	if len(o.args) != len(kinds) {
		return false
	}
	for i, k := range kinds {
		if o.args[i].kind != k {
			return false
		}
	}
	return true
}

func (o *operands) num(i, max int, what string) int {
	a := o.args[i]
	if a.val > max && o.err == nil {
		o.err = errorf(a.pos, "%s %#x out of range (max %#x)", what, a.val, max)
	}
	return a.val
}

func (o *operands) addr(i int) uint16 { return uint16(o.num(i, 0xfff, "address")) }

func (o *operands) byte(i int) byte { return byte(o.num(i, 0xff, "byte")) }

func (o *operands) nibble(i int) byte { return byte(o.num(i, 0xf, "sprite height")) }

func (o *operands) reg(i int) chip8.Reg { return chip8.Reg(o.args[i].val) }

func errorf(pos lexer.Position, format string, args ...any) error {
	return errors.Errorf("%s: %s", pos, fmt.Sprintf(format, args...))
}
