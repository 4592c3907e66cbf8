// Package monitor builds the OS ROM image: the fixed table of trap and
// exception vectors plus the handler routines they point to. The table is
// generated by a small label-resolving builder rather than hand-transcribed,
// the same way an assembler would produce it from source.
package monitor

import (
	"fmt"

	"github.com/cgrier/lc3vm/internal/vm"
)

// romSize is the size of the fixed OS image, word-addressed from 0x0000.
const romSize = 0x500

type fixupKind int

const (
	fixupWord fixupKind = iota // raw absolute address, used by vector tables
	fixupPCOffset9
	fixupPCOffset11
)

type fixup struct {
	addr  vm.Word
	label string
	kind  fixupKind
	op    vm.Opcode
	bits  vm.Word // DR/SR/NZP bits already shifted into position
}

// builder assembles a contiguous region of the ROM image, resolving label
// references (branch/load/vector targets) in a final pass once every label
// in the region has been emitted.
type builder struct {
	base   vm.Word
	words  []vm.Word
	labels map[string]vm.Word
	fixups []fixup
}

func newBuilder(base vm.Word) *builder {
	return &builder{base: base, labels: map[string]vm.Word{}}
}

func (b *builder) pc() vm.Word { return b.base + vm.Word(len(b.words)) }

// label records the address of the next word emitted.
func (b *builder) label(name string) {
	b.labels[name] = b.pc()
}

func (b *builder) emit(w vm.Word) vm.Word {
	addr := b.pc()
	b.words = append(b.words, w)

	return addr
}

func (b *builder) instr(op vm.Opcode, operands vm.Word) vm.Word {
	return b.emit(vm.NewInstruction(op, operands).Encode())
}

// string emits one word per byte followed by a zero terminator, the format
// PUTS and the handler banners expect.
func (b *builder) string(s string) vm.Word {
	addr := b.pc()

	for _, c := range []byte(s) {
		b.emit(vm.Word(c))
	}

	b.emit(0)

	return addr
}

// word emits a literal constant.
func (b *builder) word(w vm.Word) vm.Word { return b.emit(w) }

// ref reserves a placeholder word that will hold label's address once every
// label in the region is known, for vector-table slots.
func (b *builder) ref(label string) vm.Word {
	addr := b.emit(0)
	b.fixups = append(b.fixups, fixup{addr: addr, label: label, kind: fixupWord})

	return addr
}

func (b *builder) pcOffset9(op vm.Opcode, bits vm.Word, label string) vm.Word {
	addr := b.emit(0)
	b.fixups = append(b.fixups, fixup{addr: addr, label: label, kind: fixupPCOffset9, op: op, bits: bits})

	return addr
}

func (b *builder) pcOffset11(op vm.Opcode, bits vm.Word, label string) vm.Word {
	addr := b.emit(0)
	b.fixups = append(b.fixups, fixup{addr: addr, label: label, kind: fixupPCOffset11, op: op, bits: bits})

	return addr
}

// Instruction helpers. Register-to-register forms need no fixup since they
// carry no label reference.

func (b *builder) addImm(dr, sr1 vm.GPR, imm5 vm.Word) vm.Word {
	return b.instr(vm.OpADD, vm.Word(dr)<<9|vm.Word(sr1)<<6|0x20|(imm5&0x1F))
}

func (b *builder) addReg(dr, sr1, sr2 vm.GPR) vm.Word {
	return b.instr(vm.OpADD, vm.Word(dr)<<9|vm.Word(sr1)<<6|vm.Word(sr2))
}

func (b *builder) andImm(dr, sr1 vm.GPR, imm5 vm.Word) vm.Word {
	return b.instr(vm.OpAND, vm.Word(dr)<<9|vm.Word(sr1)<<6|0x20|(imm5&0x1F))
}

func (b *builder) andReg(dr, sr1, sr2 vm.GPR) vm.Word {
	return b.instr(vm.OpAND, vm.Word(dr)<<9|vm.Word(sr1)<<6|vm.Word(sr2))
}

func (b *builder) ldr(dr, base, offset6 vm.GPR) vm.Word {
	return b.instr(vm.OpLDR, vm.Word(dr)<<9|vm.Word(base)<<6|(vm.Word(offset6)&0x3F))
}

func (b *builder) ldrOff(dr, base vm.GPR, offset6 vm.Word) vm.Word {
	return b.instr(vm.OpLDR, vm.Word(dr)<<9|vm.Word(base)<<6|(offset6&0x3F))
}

func (b *builder) str(sr, base vm.GPR, offset6 vm.Word) vm.Word {
	return b.instr(vm.OpSTR, vm.Word(sr)<<9|vm.Word(base)<<6|(offset6&0x3F))
}

func (b *builder) jmp(sr1 vm.GPR) vm.Word {
	return b.instr(vm.OpJMP, vm.Word(sr1)<<6)
}

func (b *builder) trap(vec8 vm.Word) vm.Word {
	return b.instr(vm.OpTRAP, vec8&0xFF)
}

func (b *builder) rti() vm.Word {
	return b.instr(vm.OpRTI, 0)
}

// imm5 masks a signed Go int into the 5-bit two's-complement field ADD/AND
// immediates carry; doing the wraparound at runtime, not as a constant
// conversion, sidesteps Go's constant-overflow check for negative literals.
func imm5(n int) vm.Word { return vm.Word(n) & 0x1F }

// push/pop follow the teacher's own stack convention: R6 predecrements on
// push, postincrements on pop.
func (b *builder) push(r vm.GPR) {
	b.addImm(vm.SP, vm.SP, imm5(-1))
	b.str(r, vm.SP, 0)
}

func (b *builder) pop(r vm.GPR) {
	b.ldrOff(r, vm.SP, 0)
	b.addImm(vm.SP, vm.SP, 1)
}

// Label-bearing forms.

func (b *builder) lea(dr vm.GPR, label string) vm.Word {
	return b.pcOffset9(vm.OpLEA, vm.Word(dr)<<9, label)
}

func (b *builder) ld(dr vm.GPR, label string) vm.Word {
	return b.pcOffset9(vm.OpLD, vm.Word(dr)<<9, label)
}

func (b *builder) ldi(dr vm.GPR, label string) vm.Word {
	return b.pcOffset9(vm.OpLDI, vm.Word(dr)<<9, label)
}

func (b *builder) sti(sr vm.GPR, label string) vm.Word {
	return b.pcOffset9(vm.OpSTI, vm.Word(sr)<<9, label)
}

func (b *builder) br(cond vm.Condition, label string) vm.Word {
	return b.pcOffset9(vm.OpBR, vm.Word(cond)<<9, label)
}

// resolve patches every fixup now that all labels in the region are known
// and returns the finished words.
func (b *builder) resolve() ([]vm.Word, error) {
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("monitor: undefined label %q", f.label)
		}

		idx := f.addr - b.base

		switch f.kind {
		case fixupWord:
			b.words[idx] = target

		case fixupPCOffset9:
			offset := (target - (f.addr + 1)) & 0x1FF
			b.words[idx] = vm.NewInstruction(f.op, f.bits|offset).Encode()

		case fixupPCOffset11:
			offset := (target - (f.addr + 1)) & 0x7FF
			b.words[idx] = vm.NewInstruction(f.op, f.bits|offset).Encode()
		}
	}

	return b.words, nil
}
