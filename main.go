// Command c8 executes CHIP-8 programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/pkg/errors"

	"github.com/nf/c8/asm"
	"github.com/nf/c8/host"
)

func main() {
	log.SetPrefix("c8: ")
	log.SetFlags(0)

	var (
		cliFlag    = flag.Bool("cli", false, "disable GUI features (draw the display in the terminal)")
		devFlag    = flag.Bool("dev", false, "enable developer mode (live re-build and run a .asm program)")
		debugFlag  = flag.Bool("debug", false, "enable debugger (implies -dev)")
		disasmFlag = flag.Bool("disasm", false, "print a disassembly of the program and exit")

		speedFlag = flag.Int("speed", 10, "instructions executed per frame")
		fpsFlag   = flag.Int("fps", 60, "frames and timer ticks per second")
		scaleFlag = flag.Int("scale", 10, "window pixels per display pixel")
		fgFlag    = flag.String("fg", "white", "foreground `colour` (name or #rrggbb)")
		bgFlag    = flag.String("bg", "black", "background `colour` (name or #rrggbb)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <program.ch8 | program.asm>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [flags] <-dev | -debug> <program.asm>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -disasm <program.ch8 | program.asm>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	cfg := host.Config{
		Display:    host.DisplayGUI,
		Speed:      *speedFlag,
		FPS:        *fpsFlag,
		Scale:      *scaleFlag,
		Foreground: *fgFlag,
		Background: *bgFlag,
	}
	if *cliFlag {
		cfg.Display = host.DisplayTerminal
	}

	if *disasmFlag {
		rom, syms, err := load(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		if err := disassemble(os.Stdout, rom, syms); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *devFlag || *debugFlag {
		if err := devMode(cfg, *debugFlag, flag.Arg(0)); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err := run(cfg, flag.Arg(0))

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg host.Config, file string) error {
	rom, _, err := load(file)
	if err != nil {
		return err
	}
	r, err := host.NewRunner(cfg)
	if err != nil {
		return err
	}
	return r.Run(rom)
}

// load reads a program image, assembling it first if it is a .asm source.
func load(file string) ([]byte, symbols, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", file)
	}
	if filepath.Ext(file) != ".asm" {
		return b, nil, nil
	}
	p, err := asm.Assemble(filepath.Base(file), string(b))
	if err != nil {
		return nil, nil, err
	}
	return p.ROM, newSymbols(p.Symbols), nil
}
