package vm

import "testing"

func TestInstructionFields(t *testing.T) {
	// ADD R2, R1, #-5 : 0001 010 001 1 11011
	ir := NewInstruction(OpADD, 0b010_001_1_11011)

	if ir.Opcode() != OpADD {
		t.Errorf("opcode: want ADD got %s", ir.Opcode())
	}

	if ir.DR() != R2 {
		t.Errorf("DR: want R2 got %s", ir.DR())
	}

	if ir.SR1() != R1 {
		t.Errorf("SR1: want R1 got %s", ir.SR1())
	}

	if !ir.ImmFlag() {
		t.Error("ImmFlag: want true")
	}

	if int16(ir.Imm5()) != -5 {
		t.Errorf("Imm5: want -5 got %d", int16(ir.Imm5()))
	}
}

func TestInstructionAddRegisterMode(t *testing.T) {
	// ADD R0, R1, R2 : 0001 000 001 0 00 010
	ir := NewInstruction(OpADD, 0b000_001_0_00_010)

	if ir.ImmFlag() {
		t.Error("ImmFlag: want false")
	}

	if ir.SR2() != R2 {
		t.Errorf("SR2: want R2 got %s", ir.SR2())
	}
}

func TestInstructionBROffset(t *testing.T) {
	nzp := Word(0b110)                  // n and z
	offset9 := Word(0x1FE)              // -2, two's complement in 9 bits
	ir := NewInstruction(OpBR, nzp<<9|offset9)

	if ir.NZP() != CondNegative|CondZero {
		t.Errorf("NZP: want nz got %s", ir.NZP())
	}

	if int16(ir.Offset9()) != -2 {
		t.Errorf("Offset9: want -2 got %d", int16(ir.Offset9()))
	}
}

func TestInstructionJSR(t *testing.T) {
	jsr := NewInstruction(OpJSR, 1<<11|1) // JSR, PCoffset11=1
	if !jsr.JSRFlag() {
		t.Error("JSRFlag: want true for JSR")
	}

	jsrr := NewInstruction(OpJSR, Word(R1)<<6) // JSRR R1
	if jsrr.JSRFlag() {
		t.Error("JSRFlag: want false for JSRR")
	}

	if jsrr.SR1() != R1 {
		t.Errorf("SR1: want R1 got %s", jsrr.SR1())
	}
}

func TestInstructionTrapVec(t *testing.T) {
	ir := NewInstruction(OpTRAP, 0x25)
	if ir.TrapVec() != 0x25 {
		t.Errorf("TrapVec: want 0x25 got %#02x", ir.TrapVec())
	}
}

func TestConditionString(t *testing.T) {
	if (CondNegative | CondZero).String() != "nz" {
		t.Errorf("want nz got %s", (CondNegative | CondZero).String())
	}

	if Condition(0).String() != "-" {
		t.Errorf("want - got %s", Condition(0).String())
	}
}
