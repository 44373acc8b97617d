package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/nf/c8/chip8"
)

// disassemble writes one line per instruction word of rom, preceded by
// any labels at that address. Words that do not decode are shown as DW.
func disassemble(w io.Writer, rom []byte, syms symbols) error {
	b := bufio.NewWriter(w)
	for i := 0; i < len(rom); i += 2 {
		addr := uint16(chip8.ProgramStart + i)
		for _, s := range syms.forAddr(addr) {
			fmt.Fprintf(b, "%s:\n", s.label)
		}
		if i+1 == len(rom) {
			fmt.Fprintf(b, "%.3x  %.2x    DB 0x%.2X\n", addr, rom[i], rom[i])
			break
		}
		word := uint16(rom[i])<<8 | uint16(rom[i+1])
		text := fmt.Sprintf("DW 0x%.4X", word)
		if op, err := chip8.Decode(word); err == nil {
			text = op.String()
			if a, ok := target(op); ok {
				if ss := syms.forAddr(a); len(ss) > 0 {
					text += "\t; " + ss[0].label
				}
			}
		}
		fmt.Fprintf(b, "%.3x  %.4x  %s\n", addr, word, text)
	}
	return errors.Wrap(b.Flush(), "writing listing")
}

// target returns the address operand of op, if it has one.
func target(op chip8.Op) (uint16, bool) {
	switch op := op.(type) {
	case chip8.Jump:
		return op.Addr, true
	case chip8.Call:
		return op.Addr, true
	case chip8.LoadIndex:
		return op.Addr, true
	case chip8.JumpIndexed:
		return op.Addr, true
	}
	return 0, false
}
