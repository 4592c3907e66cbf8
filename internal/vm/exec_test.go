package vm

import "testing"

func poke(t *testing.T, cpu *LC3, addr Word, ir Instruction) {
	t.Helper()

	if err := cpu.Mem.Store(addr, ir.Encode()); err != nil {
		t.Fatalf("store: %s", err)
	}
}

func TestExecADDImmediate(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.PC = 0x3000
	cpu.REG[R1] = 3

	poke(t, cpu, cpu.PC, NewInstruction(OpADD, Word(R2)<<9|Word(R1)<<6|0x20|0x1B)) // imm5 = #-5

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if int16(cpu.REG[R2]) != -2 {
		t.Errorf("R2: want -2 got %d", int16(cpu.REG[R2]))
	}

	if !cpu.Mem.PSR.Negative() {
		t.Error("want N set")
	}
}

func TestExecANDRegisterMode(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.PC = 0x3000
	cpu.REG[R1] = 0x0F0F
	cpu.REG[R2] = 0x00FF

	poke(t, cpu, cpu.PC, NewInstruction(OpAND, Word(R0)<<9|Word(R1)<<6|Word(R2)))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.REG[R0] != 0x000F {
		t.Errorf("R0: want 0x000f got %#04x", cpu.REG[R0])
	}
}

func TestExecNOT(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.PC = 0x3000
	cpu.REG[R1] = 0x00FF

	poke(t, cpu, cpu.PC, NewInstruction(OpNOT, Word(R0)<<9|Word(R1)<<6|0x3F))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.REG[R0] != 0xFF00 {
		t.Errorf("R0: want 0xff00 got %#04x", cpu.REG[R0])
	}

	if !cpu.Mem.PSR.Negative() {
		t.Error("want N set")
	}
}

func TestExecBRConditionMatrix(t *testing.T) {
	for _, tc := range []struct {
		name string
		val  Word
		cond Condition
	}{
		{"negative", 0xFFFF, CondNegative},
		{"zero", 0, CondZero},
		{"positive", 1, CondPositive},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			for nzp := Condition(0); nzp < 8; nzp++ {
				nzp := nzp

				t.Run(nzp.String(), func(t *testing.T) {
					h := NewTestHarness(t)
					cpu := h.Make()

					cpu.PC = 0x3000
					cpu.REG[R0] = tc.val

					// ADD R0, R0, #0 sets condition codes without changing the value.
					poke(t, cpu, cpu.PC, NewInstruction(OpADD, Word(R0)<<9|Word(R0)<<6|0x20))

					br := NewInstruction(OpBR, Word(nzp)<<9|0x002)
					poke(t, cpu, cpu.PC+1, br)

					if err := cpu.Step(); err != nil { // ADD
						t.Fatalf("step: %s", err)
					}

					before := cpu.PC

					if err := cpu.Step(); err != nil { // BR
						t.Fatalf("step: %s", err)
					}

					taken := cpu.PC != before+1
					want := nzp&tc.cond != 0

					if taken != want {
						t.Errorf("nzp:%s cond:%s: want taken=%t got=%t", nzp, tc.cond, want, taken)
					}
				})
			}
		})
	}
}

func TestExecLDRAccessViolationAborts(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.Mem.PSR |= PSRUser
	cpu.REG[SP] = 0xFE00
	cpu.PC = 0x3000
	cpu.REG[R0] = 0x0000 // out of [0x3000, 0xFE00)

	poke(t, cpu, cpu.PC, NewInstruction(OpLDR, Word(R1)<<9|Word(R0)<<6))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.PC == 0x3001 {
		t.Error("want PC redirected to the exception vector, not falling through")
	}

	if cpu.Mem.PSR.Privileged() != true {
		t.Error("want supervisor mode entered by the access violation")
	}
}

func TestExecLDIRequiresBothAddressesInRange(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.Mem.PSR |= PSRUser
	cpu.REG[SP] = 0xFE00
	cpu.PC = 0x3000

	// the pointer cell itself, at 0x3001, holds an out-of-range target.
	if err := cpu.Mem.Store(0x3001, 0x0000); err != nil {
		t.Fatalf("store: %s", err)
	}

	poke(t, cpu, cpu.PC, NewInstruction(OpLDI, Word(R0)<<9|0x000))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.Mem.PSR.Privileged() != true {
		t.Error("want access violation entered because the dereferenced address is out of range")
	}
}

func TestExecSTIAbortLeavesTargetUnwritten(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.Mem.PSR |= PSRUser
	cpu.REG[SP] = 0xFE00
	cpu.PC = 0x3000
	cpu.REG[R0] = 0xBEEF

	if err := cpu.Mem.Store(0x3001, 0x0000); err != nil { // pointer targets an invalid address
		t.Fatalf("store: %s", err)
	}

	poke(t, cpu, cpu.PC, NewInstruction(OpSTI, Word(R0)<<9|0x000))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	got, _ := cpu.Mem.Load(0x0000)
	if got == 0xBEEF {
		t.Error("want the aborted STI to leave the target address unwritten")
	}
}

func TestExecJSRAndJMP(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.PC = 0x3000

	poke(t, cpu, cpu.PC, NewInstruction(OpJSR, 1<<11|0x005)) // JSR PCoffset11=5

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.REG[R7] != 0x3001 {
		t.Errorf("R7: want 0x3001 got %#04x", cpu.REG[R7])
	}

	if cpu.PC != 0x3006 {
		t.Errorf("PC: want 0x3006 got %#04x", cpu.PC)
	}

	poke(t, cpu, cpu.PC, NewInstruction(OpJMP, Word(R7)<<6)) // RET

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.PC != 0x3001 {
		t.Errorf("PC after RET: want 0x3001 got %#04x", cpu.PC)
	}
}

func TestExecReservedOpcodeIsIllegal(t *testing.T) {
	h := NewTestHarness(t)
	cpu := h.Make()

	cpu.Mem.PSR |= PSRUser
	cpu.REG[SP] = 0xFE00
	cpu.PC = 0x3000

	poke(t, cpu, cpu.PC, NewInstruction(OpReserved, 0))

	if err := cpu.Step(); err != nil {
		t.Fatalf("step: %s", err)
	}

	if cpu.Mem.PSR.Privileged() != true {
		t.Error("want the illegal-opcode exception entered")
	}
}
