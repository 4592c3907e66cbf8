package vm

// debug.go implements the synchronous debug hooks: single stepping (Step, defined in exec.go),
// running until a predicate or breakpoint matches, and register/memory inspection. The debugger
// is assumed to be a synchronous caller; nothing here is safe to call concurrently with Step/Run.

import "context"

// Breakpoints is a set of addresses that stop RunUntil once PC reaches them.
type Breakpoints map[Word]struct{}

func (b Breakpoints) Break(addr Word) { b[addr] = struct{}{} }
func (b Breakpoints) Clear(addr Word) { delete(b, addr) }
func (b Breakpoints) Has(addr Word) bool {
	_, ok := b[addr]
	return ok
}

// RunUntil steps the machine until predicate(PC) reports true, a breakpoint is reached, the
// machine halts, or the context is cancelled. It checks PC before fetching, so a breakpoint set
// at the machine's current PC stops immediately, before any instruction runs.
func (vm *LC3) RunUntil(ctx context.Context, breakpoints Breakpoints, predicate func(pc Word) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !vm.Mem.Running() {
			return nil
		}

		if predicate != nil && predicate(vm.PC) {
			return nil
		}

		if breakpoints.Has(vm.PC) {
			vm.log.Debug("breakpoint", "PC", vm.PC)
			return nil
		}

		if err := vm.Step(); err != nil {
			return err
		}
	}
}
