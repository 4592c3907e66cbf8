package monitor

import "github.com/cgrier/lc3vm/internal/vm"

// Build assembles the full OS ROM image: the trap and exception/interrupt
// vector tables followed by the handler bodies they point to. The returned
// slice never exceeds romSize words; callers place it at address 0.
func Build() ([]vm.Word, error) {
	b := newBuilder(0)

	buildVectorTables(b)
	buildTraps(b)
	buildExceptions(b)

	words, err := b.resolve()
	if err != nil {
		return nil, err
	}

	if len(words) > romSize {
		return nil, errROMOverflow(len(words))
	}

	return words, nil
}

// buildVectorTables reserves the 256-entry trap table at 0x000 and the
// 256-entry exception/interrupt table at 0x100, filling every slot with a
// forward reference resolved once the handler bodies below define their
// labels.
func buildVectorTables(b *builder) {
	for v := 0; v < 256; v++ {
		switch vm.Word(v) {
		case vecGETC:
			b.ref("getc")
		case vecOUT:
			b.ref("out")
		case vecPUTS:
			b.ref("puts")
		case vecIN:
			b.ref("in")
		case vecPUTSP:
			b.ref("putsp")
		case vecHALT:
			b.ref("halt")
		default:
			b.ref("badTrap")
		}
	}

	for v := 0; v < 256; v++ {
		switch vm.ExceptionCode(v) {
		case vm.ExcPrivilegeViolation:
			b.ref("privilegeViolation")
		case vm.ExcIllegalOpcode:
			b.ref("illegalOpcode")
		case vm.ExcAccessViolation:
			b.ref("accessViolation")
		default:
			b.ref("badInterrupt")
		}
	}
}

// Trap vector numbers, matching spec.md's TRAP x20-x25 enumeration.
const (
	vecGETC  vm.Word = 0x20
	vecOUT   vm.Word = 0x21
	vecPUTS  vm.Word = 0x22
	vecIN    vm.Word = 0x23
	vecPUTSP vm.Word = 0x24
	vecHALT  vm.Word = 0x25
)

type romOverflowError int

func (e romOverflowError) Error() string {
	return "monitor: ROM image overflowed its 0x500-word budget"
}

func errROMOverflow(n int) error { return romOverflowError(n) }
