package vm

import (
	"context"
	"fmt"

	"github.com/cgrier/lc3vm/internal/log"
)

// LC3 is the whole machine: the register file and program counter, the current instruction, and
// the memory/MMIO image it operates on.
type LC3 struct {
	PC  Word
	REG [8]Word
	IR  Instruction

	Mem *Memory

	log *log.Logger
}

// OptionFn configures a machine at construction. late is false the first time an option runs
// (before the machine reaches its default boot state) and true the second time (after), so an
// option that depends on boot state — like seeding the scripted input buffer — can ask for the
// late pass.
type OptionFn func(vm *LC3, late bool) error

// New builds a machine already in its default boot state: user mode, PC at UserSpaceLow, R6
// pointing at the top of the user stack. This is the observable effect of running the OS image's
// bootstrap routine (set PSR/PC, push, RTI) without actually stepping through it.
func New(opts ...OptionFn) *LC3 {
	vm := &LC3{
		Mem: NewMemory(),
		log: log.DefaultLogger(),
	}

	for _, opt := range opts {
		if err := opt(vm, false); err != nil {
			vm.log.Error("option failed", "err", err)
		}
	}

	vm.PC = UserSpaceLow
	vm.Mem.PSR = PSRBootUser
	vm.REG[SP] = vm.Mem.usp

	for _, opt := range opts {
		if err := opt(vm, true); err != nil {
			vm.log.Error("option failed", "err", err)
		}
	}

	return vm
}

// WithLogger configures the machine's logger.
func WithLogger(logger *log.Logger) OptionFn {
	return func(vm *LC3, late bool) error {
		if !late {
			vm.log = logger
		}

		return nil
	}
}

// WithSystemPrivileges boots the machine in supervisor mode with R6 at the supervisor stack,
// instead of the default user-mode boot state. Used by tests that poke instructions directly and
// don't want access checks in the way.
func WithSystemPrivileges() OptionFn {
	return func(vm *LC3, late bool) error {
		if late {
			vm.Mem.PSR &^= PSRUser
			vm.REG[SP] = vm.Mem.ssp
		}

		return nil
	}
}

// WithDisplayListener registers a callback invoked with every byte written to DDR.
func WithDisplayListener(fn func(byte)) OptionFn {
	return func(vm *LC3, late bool) error {
		if !late {
			vm.Mem.onOutput = fn
		}

		return nil
	}
}

// WithScriptedInput seeds the keyboard's scripted input buffer.
func WithScriptedInput(input string) OptionFn {
	return func(vm *LC3, late bool) error {
		if late {
			vm.Mem.ScriptInput(input)
		}

		return nil
	}
}

func (vm *LC3) String() string {
	return fmt.Sprintf("LC3(PC:%#04x,PSR:%s,SP:%#04x)", vm.PC, vm.Mem.PSR, vm.REG[SP])
}

// Run steps the machine until it halts, the context is cancelled, or a host-level error occurs.
func (vm *LC3) Run(ctx context.Context) error {
	for vm.Mem.Running() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := vm.Step(); err != nil {
			return err
		}
	}

	return nil
}
