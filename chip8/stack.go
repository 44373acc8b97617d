package chip8

import (
	"fmt"
	"strings"
)

// Stack is the CHIP-8 call stack. Ptr indexes the most recently pushed
// return address (the address following a Call); slot 0 is never written, so Ptr == 0 means empty and
// Ptr never exceeds len(Addrs)-1.
type Stack struct {
	Addrs [16]uint16
	Ptr   byte
}

func (s *Stack) push(a uint16) {
	if int(s.Ptr) == len(s.Addrs)-1 {
		panic(StackOverflow)
	}
	s.Ptr++
	s.Addrs[s.Ptr] = a
}

func (s *Stack) pop() uint16 {
	if s.Ptr == 0 {
		panic(StackUnderflow)
	}
	a := s.Addrs[s.Ptr]
	s.Ptr--
	return a
}

// Depth reports the number of return addresses on the stack.
func (s *Stack) Depth() int { return int(s.Ptr) }

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range s.Addrs[1 : s.Ptr+1] {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "%.3x", a)
	}
	b.WriteByte(' ')
	b.WriteByte(')')
	return b.String()
}
