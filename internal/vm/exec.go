package vm

import "errors"

// checkAccess enforces the user-mode address-space boundary: user-mode code may only touch
// [UserSpaceLow, IOPageLow); supervisor code may touch anything. It is applied to every fetch and
// every explicit memory operand.
func (vm *LC3) checkAccess(addr Word) error {
	if vm.Mem.PSR.Privileged() {
		return nil
	}

	if addr < UserSpaceLow || addr >= IOPageLow {
		return ErrAccessViolation
	}

	return nil
}

// Step executes a single instruction: refresh the keyboard's ready bit, fetch, decode, execute. A
// guest fault raised anywhere in that sequence is redirected through the exception vector table
// and does not propagate to the caller; only a genuine host-level failure does.
func (vm *LC3) Step() error {
	vm.Mem.refreshKeyboard()

	if err := vm.checkAccess(vm.PC); err != nil {
		return vm.fault(err)
	}

	word, err := vm.Mem.Load(vm.PC)
	if err != nil {
		return err
	}

	vm.PC++
	vm.IR = Instruction(word)

	if err := vm.execute(vm.IR); err != nil {
		return vm.fault(err)
	}

	return nil
}

// fault redirects a guest Fault through the exception vector table; any other error is a host
// failure and propagates unchanged.
func (vm *LC3) fault(err error) error {
	var f *Fault
	if errors.As(err, &f) {
		return vm.raise(f.Code)
	}

	return err
}

func (vm *LC3) execute(ir Instruction) error {
	switch ir.Opcode() {
	case OpADD:
		return vm.execADD(ir)
	case OpAND:
		return vm.execAND(ir)
	case OpNOT:
		return vm.execNOT(ir)
	case OpBR:
		return vm.execBR(ir)
	case OpJMP:
		return vm.execJMP(ir)
	case OpJSR:
		return vm.execJSR(ir)
	case OpLD:
		return vm.execLD(ir)
	case OpLDI:
		return vm.execLDI(ir)
	case OpLDR:
		return vm.execLDR(ir)
	case OpLEA:
		return vm.execLEA(ir)
	case OpST:
		return vm.execST(ir)
	case OpSTI:
		return vm.execSTI(ir)
	case OpSTR:
		return vm.execSTR(ir)
	case OpTRAP:
		return vm.execTRAP(ir)
	case OpRTI:
		return vm.execRTI()
	default:
		return ErrIllegalOpcode
	}
}

func (vm *LC3) operand2(ir Instruction) Word {
	if ir.ImmFlag() {
		return ir.Imm5()
	}

	return vm.REG[ir.SR2()]
}

func (vm *LC3) execADD(ir Instruction) error {
	result := vm.REG[ir.SR1()] + vm.operand2(ir)
	vm.REG[ir.DR()] = result
	vm.Mem.PSR.SetNZ(result)

	return nil
}

func (vm *LC3) execAND(ir Instruction) error {
	result := vm.REG[ir.SR1()] & vm.operand2(ir)
	vm.REG[ir.DR()] = result
	vm.Mem.PSR.SetNZ(result)

	return nil
}

func (vm *LC3) execNOT(ir Instruction) error {
	result := ^vm.REG[ir.SR1()]
	vm.REG[ir.DR()] = result
	vm.Mem.PSR.SetNZ(result)

	return nil
}

// execBR branches when the condition codes intersect the instruction's nzp mask. An nzp of 0
// (all clear) never intersects anything and is a no-op; 0b111 always does.
func (vm *LC3) execBR(ir Instruction) error {
	if vm.Mem.PSR.Any(ir.NZP()) {
		vm.PC += ir.Offset9()
	}

	return nil
}

// execJMP also implements RET, which is simply JMP R7.
func (vm *LC3) execJMP(ir Instruction) error {
	vm.PC = vm.REG[ir.SR1()]
	return nil
}

func (vm *LC3) execJSR(ir Instruction) error {
	vm.REG[R7] = vm.PC

	if ir.JSRFlag() {
		vm.PC += ir.Offset11()
	} else {
		vm.PC = vm.REG[ir.SR1()]
	}

	return nil
}

func (vm *LC3) execLD(ir Instruction) error {
	addr := vm.PC + ir.Offset9()
	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	val, err := vm.Mem.Load(addr)
	if err != nil {
		return err
	}

	vm.REG[ir.DR()] = val
	vm.Mem.PSR.SetNZ(val)

	return nil
}

// execLDI dereferences a pointer in memory: the pointer's own address and the address it holds
// must both pass the access check before the load completes.
func (vm *LC3) execLDI(ir Instruction) error {
	ptr := vm.PC + ir.Offset9()
	if err := vm.checkAccess(ptr); err != nil {
		return err
	}

	addr, err := vm.Mem.Load(ptr)
	if err != nil {
		return err
	}

	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	val, err := vm.Mem.Load(addr)
	if err != nil {
		return err
	}

	vm.REG[ir.DR()] = val
	vm.Mem.PSR.SetNZ(val)

	return nil
}

func (vm *LC3) execLDR(ir Instruction) error {
	addr := vm.REG[ir.SR1()] + ir.Offset6()
	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	val, err := vm.Mem.Load(addr)
	if err != nil {
		return err
	}

	vm.REG[ir.DR()] = val
	vm.Mem.PSR.SetNZ(val)

	return nil
}

// execLEA computes an effective address but never dereferences it, so it needs no access check.
func (vm *LC3) execLEA(ir Instruction) error {
	addr := vm.PC + ir.Offset9()
	vm.REG[ir.DR()] = addr
	vm.Mem.PSR.SetNZ(addr)

	return nil
}

func (vm *LC3) execST(ir Instruction) error {
	addr := vm.PC + ir.Offset9()
	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	return vm.Mem.Store(addr, vm.REG[ir.DR()])
}

// execSTI dereferences a pointer in memory: both the pointer's address and the address it holds
// must pass the access check before anything is written. If the target check fails, the pointer
// itself is never written to, only read.
func (vm *LC3) execSTI(ir Instruction) error {
	ptr := vm.PC + ir.Offset9()
	if err := vm.checkAccess(ptr); err != nil {
		return err
	}

	addr, err := vm.Mem.Load(ptr)
	if err != nil {
		return err
	}

	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	return vm.Mem.Store(addr, vm.REG[ir.DR()])
}

func (vm *LC3) execSTR(ir Instruction) error {
	addr := vm.REG[ir.SR1()] + ir.Offset6()
	if err := vm.checkAccess(addr); err != nil {
		return err
	}

	return vm.Mem.Store(addr, vm.REG[ir.DR()])
}

func (vm *LC3) execTRAP(ir Instruction) error {
	return vm.enterVector(TrapVectorBase, ir.TrapVec(), vm.PC)
}
