package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cgrier/lc3vm/internal/cli"
	"github.com/cgrier/lc3vm/internal/log"
	"github.com/cgrier/lc3vm/internal/monitor"
	"github.com/cgrier/lc3vm/internal/vm"
)

// Executor runs object files through the machine.
func Executor() cli.Command {
	return &executor{}
}

type executor struct {
	help      bool
	debug     bool
	randomize bool
	silent    bool
	input     string
	dump      string
	memory    string
}

func (executor) Description() string {
	return "run one or more object files"
}

func (executor) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `exec [options] program.obj ... main.obj

Loads one or more object files into the machine and runs the last one as the
main program. The other files are loaded first, typically the OS image or
library routines a program depends on.`)

	return err
}

func (ex *executor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)

	fs.BoolVar(&ex.help, "help", false, "print usage and exit")
	fs.BoolVar(&ex.debug, "debug", false, "enable debug hooks; break at the initial user PC")
	fs.BoolVar(&ex.randomize, "randomize", false, "seed R0..R7 with randomness before start")
	fs.BoolVar(&ex.silent, "silent", false, "suppress the display buffer and halt banner")
	fs.StringVar(&ex.input, "input", "", "scripted keyboard `input`")
	fs.StringVar(&ex.dump, "dump", "", "comma-separated `addresses` to print after halt")
	fs.StringVar(&ex.memory, "memory", "", "comma-separated `addr,val,...` pairs to pre-set")

	return fs
}

// Run loads and executes the program files named in args, the last of which is main.
func (ex *executor) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if ex.help {
		_ = ex.Usage(stdout)
		return 0
	}

	if len(args) == 0 {
		logger.Error("exec: missing main object file")
		return 1
	}

	if ex.debug {
		log.LogLevel.Set(log.Debug)
	}

	dispCh := make(chan rune, 1)

	opts := []vm.OptionFn{
		vm.WithLogger(logger),
		monitor.WithDefaultSystemImage(),
		vm.WithDisplayListener(func(displayed byte) {
			dispCh <- rune(displayed)
		}),
	}

	if ex.input != "" {
		opts = append(opts, vm.WithScriptedInput(ex.input))
	}

	machine := vm.New(opts...)

	if ex.randomize {
		randomizeRegisters(machine)
	}

	if ex.memory != "" {
		if err := pokeMemory(machine, ex.memory); err != nil {
			logger.Error("exec: bad -memory argument", "err", err)
			return 1
		}
	}

	if err := ex.loadFiles(machine, args, logger); err != nil {
		return 1
	}

	if ex.debug {
		breakpoints := vm.Breakpoints{}
		breakpoints.Break(machine.PC)

		if err := machine.RunUntil(ctx, breakpoints, nil); err != nil {
			logger.Error("exec: debug break failed", "err", err)
			return 1
		}

		logger.Info("breakpoint", "PC", machine.PC, "machine", machine.String())
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	ctx, cancelTimeout := context.WithTimeout(ctx, 10*time.Second)
	defer cancelTimeout()

	go func() {
		for {
			select {
			case disp := <-dispCh:
				if !ex.silent {
					fmt.Fprintf(stdout, "%c", disp)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func(cancel context.CancelCauseFunc) {
		err := machine.Run(ctx)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("exec: timeout")
		case err != nil:
			cancel(err)
			return
		}

		cancel(context.Canceled)
	}(cancel)

	<-ctx.Done()

	close(dispCh)

	exitCode := 0

	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("exec: timeout")
		exitCode = 1
	case errors.Is(err, context.Canceled):
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			logger.Error("exec: program error", "err", cause)
			exitCode = 1
		}
	}

	if !ex.silent {
		logger.Info("exec: halted", "MCR", fmt.Sprintf("%#04x", machine.Mem.MCR), "PC", fmt.Sprintf("%#04x", machine.PC))
	}

	if ex.dump != "" {
		dumpMemory(stdout, machine, ex.dump)
	}

	return exitCode
}

// loadFiles loads each object file in order. A failure to read or decode a non-main file is logged
// and the file is skipped; a failure on the last (main) file is fatal.
func (ex *executor) loadFiles(machine *vm.LC3, files []string, logger *log.Logger) error {
	loader := vm.NewLoader(machine)

	for i, fn := range files {
		main := i == len(files)-1

		obj, err := readObjectFile(fn)
		if err != nil {
			logger.Error("exec: could not read object file", "file", fn, "err", err)

			if main {
				return err
			}

			continue
		}

		base, err := loader.Load(obj)
		if err != nil {
			logger.Error("exec: could not load object file", "file", fn, "err", err)

			if main {
				return err
			}

			continue
		}

		if main {
			machine.PC = base
		}
	}

	return nil
}

func readObjectFile(fn string) (vm.ObjectCode, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return vm.ObjectCode{}, err
	}

	return vm.ReadObjectCode(b)
}

func randomizeRegisters(machine *vm.LC3) {
	for i := range machine.REG {
		machine.REG[i] = vm.Word(rand.Intn(1 << 16))
	}
}

func pokeMemory(machine *vm.LC3, spec string) error {
	fields := strings.Split(spec, ",")
	if len(fields)%2 != 0 {
		return fmt.Errorf("exec: -memory requires addr,val pairs")
	}

	loader := vm.NewLoader(machine)

	for i := 0; i < len(fields); i += 2 {
		addr, err := strconv.ParseUint(strings.TrimSpace(fields[i]), 0, 16)
		if err != nil {
			return fmt.Errorf("exec: bad address %q: %w", fields[i], err)
		}

		val, err := strconv.ParseUint(strings.TrimSpace(fields[i+1]), 0, 16)
		if err != nil {
			return fmt.Errorf("exec: bad value %q: %w", fields[i+1], err)
		}

		obj := vm.ObjectCode{
			Orig: vm.Word(addr),
			Code: []vm.Word{vm.Word(val)},
		}

		if _, err := loader.Load(obj); err != nil {
			return fmt.Errorf("exec: could not poke memory: %w", err)
		}
	}

	return nil
}

func dumpMemory(out io.Writer, machine *vm.LC3, spec string) {
	view := machine.Mem.View()

	for _, field := range strings.Split(spec, ",") {
		addr, err := strconv.ParseUint(strings.TrimSpace(field), 0, 16)
		if err != nil {
			fmt.Fprintf(out, "dump: bad address %q: %s\n", field, err)
			continue
		}

		fmt.Fprintf(out, "%#04x: %#04x\n", addr, view[vm.Word(addr)])
	}
}
