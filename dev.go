package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/pkg/errors"

	"github.com/nf/c8/host"
)

// devMode runs file, rebuilding and swapping in the new program whenever
// the file changes. If debug is set the debugger takes over the terminal.
func devMode(cfg host.Config, debug bool, file string) error {
	file = filepath.Clean(file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(file)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(file))
	}

	cfg.Dev = true
	var d *debugger
	if debug {
		if d, err = newDebugger(cfg); err != nil {
			return err
		}
		cfg.StateFunc = d.StateFunc
		if cfg.Display == host.DisplayTerminal {
			cfg.Display = host.DisplayNone
		}
	}
	runner, err := host.NewRunner(cfg)
	if err != nil {
		return err
	}

	quit := make(chan bool)
	if d != nil {
		d.run = runner
		log.SetPrefix("")
		log.SetOutput(d.log)
		go func() {
			if err := d.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("c8: ")
			close(quit)
			runner.Debug("exit", 0)
		}()
		defer d.app.Stop()
	}

	romCh := make(chan []byte)
	go func() {
		started := false
		run := time.After(1 * time.Millisecond)
		for {
			select {
			case <-run:
				log.Printf("dev: build %s", filepath.Base(file))
				rom, syms, err := load(file)
				if err != nil {
					log.Printf("dev: %v", err)
					break
				}
				if d != nil {
					d.setSymbols(syms)
				}
				if !started {
					log.Printf("dev: start")
					select {
					case romCh <- rom:
					case <-quit:
						return
					}
					started = true
				} else {
					log.Printf("dev: reset")
					if err := runner.Swap(rom); err != nil {
						log.Printf("dev: %v", err)
					}
				}
			case ev := <-watcher.Event:
				if ev.Name == file && !ev.IsAttrib() {
					run = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("dev: watcher: %v", err)
			}
		}
	}()

	select {
	case rom := <-romCh:
		return runner.Run(rom)
	case <-quit:
		return nil
	}
}
