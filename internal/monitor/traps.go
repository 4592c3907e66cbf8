package monitor

import "github.com/cgrier/lc3vm/internal/vm"

// buildTraps emits the six TRAP routines named in the data model (GETC, OUT,
// PUTS, IN, PUTSP, HALT), the Bad-Trap handler every unused trap vector
// points to, and the bootstrap routine that seeds the initial user PSR/PC
// and RTIs into user mode. Control flow, register discipline (push/pop
// around any register a routine clobbers beyond its return value), and the
// GETC/OUT/PUTS/IN bodies follow _examples/original_source/lc3sim.c's
// OSProgram table; PUTSP has no working body there (its slot is a bare RTI
// stub) so it is authored fresh here, masking off the low byte and recovering
// the high byte by repeated subtraction since the base ISA has no shift
// instruction.
func buildTraps(b *builder) {
	buildBadTrap(b)
	buildHalt(b)
	buildGetc(b)
	buildOut(b)
	buildPuts(b)
	buildIn(b)
	buildPutsp(b)
	buildBootstrap(b)
}

func buildBadTrap(b *builder) {
	b.label("badTrap")
	b.lea(vm.R0, "msgBadTrap")
	b.trap(vecPUTS)
	b.trap(vecHALT)
	b.label("msgBadTrap")
	b.string("\nBad trap executed!\n")
}

func buildHalt(b *builder) {
	b.label("halt")
	b.lea(vm.R0, "msgHalt")
	b.trap(vecPUTS)
	b.ldi(vm.R0, "haltMCR")
	b.ld(vm.R1, "haltMask15")
	b.andReg(vm.R0, vm.R0, vm.R1)
	b.sti(vm.R0, "haltMCR")
	b.label("haltSpin") // clearing MCR already stops Run; this just mirrors the hardware's own idle loop
	b.br(vm.CondNegative|vm.CondZero|vm.CondPositive, "haltSpin")
	b.label("haltMCR")
	b.word(vm.MCRAddr)
	b.label("haltMask15")
	b.word(0x7FFF)
	b.label("msgHalt")
	b.string("\n\nHalting!\n\n")
}

func buildGetc(b *builder) {
	b.label("getc")
	b.label("getcWait")
	b.ldi(vm.R0, "getcKBSR")
	b.br(vm.CondZero|vm.CondPositive, "getcWait") // spin while not ready
	b.ldi(vm.R0, "getcKBDR")
	b.rti()
	b.label("getcKBSR")
	b.word(vm.KBSRAddr)
	b.label("getcKBDR")
	b.word(vm.KBDRAddr)
}

func buildOut(b *builder) {
	b.label("out")
	b.push(vm.R1)
	b.label("outWait")
	b.ldi(vm.R1, "outDSR")
	b.br(vm.CondZero|vm.CondPositive, "outWait") // spin while display not ready
	b.sti(vm.R0, "outDDR")
	b.pop(vm.R1)
	b.rti()
	b.label("outDSR")
	b.word(vm.DSRAddr)
	b.label("outDDR")
	b.word(vm.DDRAddr)
}

func buildPuts(b *builder) {
	b.label("puts")
	b.push(vm.R0)
	b.push(vm.R1)
	b.addImm(vm.R1, vm.R0, 0) // R1 = R0, walk the copy so R0 is free for TRAP OUT
	b.label("putsLoop")
	b.ldrOff(vm.R0, vm.R1, 0)
	b.br(vm.CondZero, "putsDone")
	b.trap(vecOUT)
	b.addImm(vm.R1, vm.R1, 1)
	b.br(vm.CondNegative|vm.CondZero|vm.CondPositive, "putsLoop")
	b.label("putsDone")
	b.pop(vm.R1)
	b.pop(vm.R0)
	b.rti()
}

func buildIn(b *builder) {
	b.label("in")
	b.lea(vm.R0, "inPrompt")
	b.trap(vecPUTS)
	b.trap(vecGETC)
	b.trap(vecOUT) // echo the character read
	b.push(vm.R0)
	b.andImm(vm.R0, vm.R0, 0)
	b.addImm(vm.R0, vm.R0, 10) // newline
	b.trap(vecOUT)
	b.pop(vm.R0)
	b.rti()
	b.label("inPrompt")
	b.string("Enter a character: ")
}

// buildPutsp unpacks each memory word into its low byte, then (if nonzero)
// its high byte, through TRAP OUT, stopping at the first zero byte in
// either position.
func buildPutsp(b *builder) {
	b.label("putsp")
	b.push(vm.R0)
	b.push(vm.R1)
	b.push(vm.R2)
	b.push(vm.R3)
	b.push(vm.R4)
	b.push(vm.R5)
	b.ld(vm.R1, "putspMask255")
	b.ld(vm.R5, "putspNeg256")
	b.addImm(vm.R4, vm.R0, 0) // R4 walks the string; R0 is free for TRAP OUT

	b.label("putspLoop")
	b.ldrOff(vm.R2, vm.R4, 0)
	b.andReg(vm.R0, vm.R2, vm.R1) // low byte
	b.br(vm.CondZero, "putspDone")
	b.trap(vecOUT)

	b.andImm(vm.R3, vm.R3, 0) // high-byte count, via repeated subtraction of 256
	b.label("putspHiLoop")
	b.addReg(vm.R2, vm.R2, vm.R5)
	b.br(vm.CondNegative, "putspHiDone")
	b.addImm(vm.R3, vm.R3, 1)
	b.br(vm.CondNegative|vm.CondZero|vm.CondPositive, "putspHiLoop")
	b.label("putspHiDone")
	b.addImm(vm.R3, vm.R3, 0) // set NZP from the recovered high byte
	b.br(vm.CondZero, "putspDone")
	b.addImm(vm.R0, vm.R3, 0)
	b.trap(vecOUT)

	b.addImm(vm.R4, vm.R4, 1)
	b.br(vm.CondNegative|vm.CondZero|vm.CondPositive, "putspLoop")

	b.label("putspDone")
	b.pop(vm.R5)
	b.pop(vm.R4)
	b.pop(vm.R3)
	b.pop(vm.R2)
	b.pop(vm.R1)
	b.pop(vm.R0)
	b.rti()

	b.label("putspMask255")
	b.word(0x00FF)
	b.label("putspNeg256")
	b.word(0xFF00) // -256
}

// buildBootstrap reproduces the original's OS_START entry: load the
// supervisor stack, push the initial user PC and PSR, and RTI into user
// mode. vm.New establishes the same end state directly rather than
// executing this routine (see machine.go), but the routine is still part
// of the ROM's observable image.
func buildBootstrap(b *builder) {
	b.label("bootstrap")
	b.ld(vm.SP, "bootSSP")
	b.ld(vm.R0, "bootPSR") // pushed first: RTI pops PC before PSR, so PC must end up on top
	b.push(vm.R0)
	b.ld(vm.R0, "bootPC")
	b.push(vm.R0)
	b.rti()
	b.label("bootPSR")
	b.word(vm.Word(vm.PSRBootUser))
	b.label("bootSSP")
	b.word(vm.UserSpaceLow)
	b.label("bootPC")
	b.word(vm.UserSpaceLow)
}
