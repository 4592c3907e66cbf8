package vm

// Vector table bases: traps occupy the first page, interrupts/exceptions the second, per the
// data model's 0x0000-0x00FF / 0x0100-0x01FF split.
const (
	TrapVectorBase      Word = 0x0000
	ExceptionVectorBase Word = 0x0100
)

// enterVector is the privileged dispatch sequence shared by TRAP and every exception: if the
// machine is in user mode, swap R6 for the supervisor stack and clear the privilege bit; then
// push the old PSR and the return PC onto the (now supervisor) stack and transfer control to the
// routine named by the vector table at base+code.
//
// TRAP reaches this code even from supervisor mode: the push still happens, just with no stack
// swap, so a trap invoked by OS code is idempotent with one invoked by a user program.
func (vm *LC3) enterVector(base, code, returnPC Word) error {
	oldPSR := vm.Mem.PSR

	if !oldPSR.Privileged() {
		vm.Mem.usp = vm.REG[SP]
		vm.REG[SP] = vm.Mem.ssp
		vm.Mem.PSR &^= PSRUser
	}

	vm.REG[SP]--
	if err := vm.Mem.Store(vm.REG[SP], Word(oldPSR)); err != nil {
		return err
	}

	vm.REG[SP]--
	if err := vm.Mem.Store(vm.REG[SP], returnPC); err != nil {
		return err
	}

	target, err := vm.Mem.Load(base + code)
	if err != nil {
		return err
	}

	vm.log.Debug("vector", "base", base, "code", code, "target", target)
	vm.PC = target

	return nil
}

// raise dispatches a guest exception through the exception vector table. The return address is
// always the engine's current PC: by the time any opcode executes, Step has already incremented
// PC past the faulting instruction, which is exactly the "faulting instruction's successor"
// address the architecture requires.
func (vm *LC3) raise(code ExceptionCode) error {
	return vm.enterVector(ExceptionVectorBase, Word(code), vm.PC)
}

// execRTI returns from a trap or exception handler. Executing RTI outside supervisor mode is
// itself a privilege violation. Otherwise it pops PC then PSR; if the restored PSR is user mode,
// R6 is handed back to the user stack and the supervisor pointer is saved to its shadow cell.
func (vm *LC3) execRTI() error {
	if !vm.Mem.PSR.Privileged() {
		return ErrPrivilegeViolation
	}

	pc, err := vm.Mem.Load(vm.REG[SP])
	if err != nil {
		return err
	}

	vm.REG[SP]++

	psrWord, err := vm.Mem.Load(vm.REG[SP])
	if err != nil {
		return err
	}

	vm.REG[SP]++

	vm.PC = pc
	vm.Mem.PSR = ProcessorStatus(psrWord)

	if !vm.Mem.PSR.Privileged() {
		vm.Mem.ssp = vm.REG[SP]
		vm.REG[SP] = vm.Mem.usp
	}

	return nil
}
