package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type symbols []symbol

func newSymbols(m map[string]uint16) symbols {
	ss := make(symbols, 0, len(m))
	for label, addr := range m {
		ss = append(ss, symbol{addr: addr, label: label})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].addr != ss[j].addr {
			return ss[i].addr < ss[j].addr
		}
		return ss[i].label < ss[j].label
	})
	return ss
}

func (s symbols) forAddr(addr uint16) (ss []symbol) {
	i := sort.Search(len(s), func(i int) bool { return s[i].addr >= addr })
	for ; i < len(s); i++ {
		if s[i].addr != addr {
			break
		}
		ss = append(ss, s[i])
	}
	return ss
}

func (s symbols) withLabelPrefix(prefix string) (ss []symbol) {
	for _, sym := range s {
		if strings.HasPrefix(sym.label, prefix) {
			ss = append(ss, sym)
		}
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].label < ss[j].label })
	return ss
}

// resolve returns the symbol for a label or a hexadecimal address.
func (s symbols) resolve(arg string) (symbol, bool) {
	for _, sym := range s {
		if sym.label == arg {
			return sym, true
		}
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 16)
	if err != nil {
		return symbol{}, false
	}
	addr := uint16(n)
	if ss := s.forAddr(addr); len(ss) > 0 {
		return ss[0], true
	}
	return symbol{addr: addr, label: fmt.Sprintf("%.3x", addr)}, true
}

type symbol struct {
	addr  uint16
	label string
}

func (s symbol) String() string { return fmt.Sprintf("%s (%.3x)", s.label, s.addr) }
