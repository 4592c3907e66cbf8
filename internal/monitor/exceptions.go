package monitor

import "github.com/cgrier/lc3vm/internal/vm"

// buildExceptions emits the three named exception handlers (privilege
// violation, illegal opcode, access violation) and the Bad-Interrupt
// handler every other exception/interrupt vector points to. Each follows
// the same three-instruction shape as _examples/original_source/lc3sim.c's
// handlers: print a banner, then HALT.
func buildExceptions(b *builder) {
	buildHandler(b, "privilegeViolation", "msgPrivilegeViolation", "\n\nPrivilege mode exception!\n\n")
	buildHandler(b, "illegalOpcode", "msgIllegalOpcode", "\n\nIllegal instruction exception!\n\n")
	buildHandler(b, "accessViolation", "msgAccessViolation", "\n\nAccess violation exception!\n\n")
	buildHandler(b, "badInterrupt", "msgBadInterrupt", "\n\nUnhandled interrupt!\n\n")
}

func buildHandler(b *builder, label, msgLabel, msg string) {
	b.label(label)
	b.lea(vm.R0, msgLabel)
	b.trap(vecPUTS)
	b.trap(vecHALT)
	b.label(msgLabel)
	b.string(msg)
}
