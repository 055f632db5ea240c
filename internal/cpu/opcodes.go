package cpu

// branchIf takes the relative branch fetched into c.operandAddr when take
// is true, recording whether it crossed a page so the dispatcher can charge
// the right number of cycles. All eight conditional branches share this.
func (c *CPU) branchIf(take bool) {
	if !take {
		return
	}
	c.branchTaken = true
	target := c.pc + c.operandAddr
	c.branchPageCrossed = target&0xff00 != c.pc&0xff00
	c.pc = target
}

// storeOrWrite writes r back to the accumulator for accumulator-mode shifts
// and rotates, or to memory otherwise. ASL/LSR/ROL/ROR all share this.
func (c *CPU) storeOrWrite(r uint8) {
	if c.addrMode == addrModeACC {
		c.regA = r
		return
	}
	c.bus.Write8(c.operandAddr, r)
}

// Add with Carry: A = A + M + C. Flags: C, Z, N, V.
func (c *CPU) adc() {
	a := c.regA
	r16 := uint16(a) + uint16(c.operandValue)
	if c.getFlag(flagCBit) {
		r16++
	}
	r8 := uint8(r16)
	c.setFlag(flagCBit, r16 > 0xff)
	c.setNZ(r8)
	c.setFlag(flagVBit, (a^r8)&(c.operandValue^r8)&0x80 != 0)
	c.regA = r8
}

// Logical AND: A = A & M. Flags: Z, N.
func (c *CPU) and() {
	c.regA &= c.operandValue
	c.setNZ(c.regA)
}

// Arithmetic Shift Left: C <- bit7, (A or M) <<= 1. Flags: C, Z, N.
func (c *CPU) asl() {
	c.setFlag(flagCBit, c.operandValue&0x80 != 0)
	r := c.operandValue << 1
	c.setNZ(r)
	c.storeOrWrite(r)
}

// Branch if Carry Clear.
func (c *CPU) bcc() { c.branchIf(!c.getFlag(flagCBit)) }

// Branch if Carry Set.
func (c *CPU) bcs() { c.branchIf(c.getFlag(flagCBit)) }

// Branch if Equal (Z set).
func (c *CPU) beq() { c.branchIf(c.getFlag(flagZBit)) }

// Bit Test: Z <- (A&M)==0, N <- M bit7, V <- M bit6. A is unmodified.
func (c *CPU) bit() {
	c.setFlag(flagZBit, c.regA&c.operandValue == 0)
	c.setFlag(flagNBit, c.operandValue&0x80 != 0)
	c.setFlag(flagVBit, c.operandValue&0x40 != 0)
}

// Branch if Minus (N set).
func (c *CPU) bmi() { c.branchIf(c.getFlag(flagNBit)) }

// Branch if Not Equal (Z clear).
func (c *CPU) bne() { c.branchIf(!c.getFlag(flagZBit)) }

// Branch if Positive (N clear).
func (c *CPU) bpl() { c.branchIf(!c.getFlag(flagNBit)) }

// Force Interrupt. This core does not service interrupts on its own (see
// IRQPending), so BRK does not vector through 0xFFFE the way a full system
// would: it pushes PC and status with B set, exactly as hardware does, and
// then halts — the dispatcher reports Halted and stops stepping.
func (c *CPU) brk() {
	c.pc++
	c.stackPush16(c.pc)
	c.setFlag(flagBBit, true)
	c.setFlag(flagUBit, true)
	c.stackPush8(c.status)
	c.setFlag(flagIBit, true)
	c.halted = true
	c.haltReason = "BRK"
}

// Branch if Overflow Clear.
func (c *CPU) bvc() { c.branchIf(!c.getFlag(flagVBit)) }

// Branch if Overflow Set.
func (c *CPU) bvs() { c.branchIf(c.getFlag(flagVBit)) }

// Clear Carry Flag.
func (c *CPU) clc() { c.setFlag(flagCBit, false) }

// Clear Decimal Mode flag. Decimal arithmetic itself is out of scope; this
// still flips the bit since programs can read it back.
func (c *CPU) cld() { c.setFlag(flagDBit, false) }

// Clear Interrupt Disable.
func (c *CPU) cli() { c.setFlag(flagIBit, false) }

// Clear Overflow Flag.
func (c *CPU) clv() { c.setFlag(flagVBit, false) }

// compare is the shared C/Z/N logic behind CMP, CPX and CPY: an 8-bit
// wraparound subtraction gives the same Z/N bit pattern as a signed 16-bit
// difference would, and carry is simply reg >= operand.
func (c *CPU) compare(reg uint8) {
	c.setFlag(flagCBit, reg >= c.operandValue)
	c.setNZ(reg - c.operandValue)
}

// Compare (against A).
func (c *CPU) cmp() { c.compare(c.regA) }

// Compare X Register.
func (c *CPU) cpx() { c.compare(c.regX) }

// Compare Y Register.
func (c *CPU) cpy() { c.compare(c.regY) }

// Decrement Memory. Flags: Z, N.
func (c *CPU) dec() {
	r := c.operandValue - 1
	c.setNZ(r)
	c.bus.Write8(c.operandAddr, r)
}

// Decrement X Register.
func (c *CPU) dex() {
	c.regX--
	c.setNZ(c.regX)
}

// Decrement Y Register.
func (c *CPU) dey() {
	c.regY--
	c.setNZ(c.regY)
}

// Exclusive OR: A = A ^ M. Flags: Z, N.
func (c *CPU) eor() {
	c.regA ^= c.operandValue
	c.setNZ(c.regA)
}

// Increment Memory. Flags: Z, N.
func (c *CPU) inc() {
	r := c.operandValue + 1
	c.setNZ(r)
	c.bus.Write8(c.operandAddr, r)
}

// Increment X Register.
func (c *CPU) inx() {
	c.regX++
	c.setNZ(c.regX)
}

// Increment Y Register.
func (c *CPU) iny() {
	c.regY++
	c.setNZ(c.regY)
}

// Jump: PC <- address.
func (c *CPU) jmp() {
	c.pc = c.operandAddr
}

// Jump to Subroutine: pushes the address of JSR's last byte (so RTS can
// increment past it) then jumps.
func (c *CPU) jsr() {
	c.pc--
	c.stackPush16(c.pc)
	c.pc = c.operandAddr
}

// Load Accumulator. Flags: Z, N.
func (c *CPU) lda() {
	c.regA = c.operandValue
	c.setNZ(c.regA)
}

// Load X Register. Flags: Z, N.
func (c *CPU) ldx() {
	c.regX = c.operandValue
	c.setNZ(c.regX)
}

// Load Y Register. Flags: Z, N.
func (c *CPU) ldy() {
	c.regY = c.operandValue
	c.setNZ(c.regY)
}

// Logical Shift Right: C <- bit0, (A or M) >>= 1. Flags: C, Z, N.
func (c *CPU) lsr() {
	c.setFlag(flagCBit, c.operandValue&0x01 != 0)
	r := c.operandValue >> 1
	c.setNZ(r)
	c.storeOrWrite(r)
}

// No Operation.
func (c *CPU) nop() {}

// Logical Inclusive OR: A = A | M. Flags: Z, N.
func (c *CPU) ora() {
	c.regA |= c.operandValue
	c.setNZ(c.regA)
}

// Push Accumulator.
func (c *CPU) pha() { c.stackPush8(c.regA) }

// Push Processor Status. B and U are pushed set, matching a non-interrupt
// push on real hardware.
func (c *CPU) php() { c.stackPush8(c.status | flagBBit | flagUBit) }

// Pull Accumulator. Flags: Z, N.
func (c *CPU) pla() {
	c.regA = c.stackPop8()
	c.setNZ(c.regA)
}

// Pull Processor Status.
func (c *CPU) plp() { c.restoreStatus(c.stackPop8()) }

// Rotate Left: new bit0 <- old C, C <- old bit7. Flags: C, Z, N.
func (c *CPU) rol() {
	carryIn := uint8(0)
	if c.getFlag(flagCBit) {
		carryIn = 1
	}
	c.setFlag(flagCBit, c.operandValue&0x80 != 0)
	r := c.operandValue<<1 | carryIn
	c.setNZ(r)
	c.storeOrWrite(r)
}

// Rotate Right: new bit7 <- old C, C <- old bit0. Flags: C, Z, N.
func (c *CPU) ror() {
	carryIn := uint8(0)
	if c.getFlag(flagCBit) {
		carryIn = 0x80
	}
	c.setFlag(flagCBit, c.operandValue&0x01 != 0)
	r := c.operandValue>>1 | carryIn
	c.setNZ(r)
	c.storeOrWrite(r)
}

// Return from Interrupt: status then PC off the stack.
func (c *CPU) rti() {
	c.restoreStatus(c.stackPop8())
	c.pc = c.stackPop16()
}

// Return from Subroutine: PC off the stack, then past JSR's pushed byte.
func (c *CPU) rts() {
	c.pc = c.stackPop16()
	c.pc++
}

// Subtract with Carry: A = A - M - (1-C), computed as A + ^M + C so the
// same overflow/carry logic as ADC applies to the ones'-complement operand.
func (c *CPU) sbc() {
	a := c.regA
	inverted := ^c.operandValue
	r16 := uint16(a) + uint16(inverted)
	if c.getFlag(flagCBit) {
		r16++
	}
	r8 := uint8(r16)
	c.setFlag(flagCBit, r16 > 0xff)
	c.setNZ(r8)
	c.setFlag(flagVBit, (a^r8)&(inverted^r8)&0x80 != 0)
	c.regA = r8
}

// Set Carry Flag.
func (c *CPU) sec() { c.setFlag(flagCBit, true) }

// Set Decimal Flag.
func (c *CPU) sed() { c.setFlag(flagDBit, true) }

// Set Interrupt Disable.
func (c *CPU) sei() { c.setFlag(flagIBit, true) }

// Store Accumulator.
func (c *CPU) sta() { c.bus.Write8(c.operandAddr, c.regA) }

// Store X Register.
func (c *CPU) stx() { c.bus.Write8(c.operandAddr, c.regX) }

// Store Y Register.
func (c *CPU) sty() { c.bus.Write8(c.operandAddr, c.regY) }

// Transfer Accumulator to X. Flags: Z, N.
func (c *CPU) tax() {
	c.regX = c.regA
	c.setNZ(c.regX)
}

// Transfer Accumulator to Y. Flags: Z, N.
func (c *CPU) tay() {
	c.regY = c.regA
	c.setNZ(c.regY)
}

// Transfer Stack Pointer to X. Flags: Z, N.
func (c *CPU) tsx() {
	c.regX = c.sp
	c.setNZ(c.regX)
}

// Transfer X to Accumulator. Flags: Z, N.
func (c *CPU) txa() {
	c.regA = c.regX
	c.setNZ(c.regA)
}

// Transfer X to Stack Pointer. Flags: none.
func (c *CPU) txs() { c.sp = c.regX }

// Transfer Y to Accumulator. Flags: Z, N.
func (c *CPU) tya() {
	c.regA = c.regY
	c.setNZ(c.regA)
}
