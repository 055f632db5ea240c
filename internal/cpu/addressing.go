package cpu

// fetch resolves the operand address and/or value for mode, leaving the
// result in c.operandAddr/c.operandValue and flagging c.pageCrossed when an
// indexed read crosses a page boundary. PC is left pointing at the byte
// after the instruction's encoding, ready for the opcode handler or the
// next Step.
func (c *CPU) fetch(mode addrMode) {
	switch mode {
	case addrModeIMM:
		// Operand is the byte following the opcode.
		// Example: LDA #$10
		c.operandAddr = c.pc
		c.pc++
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeZP:
		// Operand lives in the first 256 bytes of memory.
		// Example: LDA $10
		c.operandAddr = uint16(c.bus.Read8(c.pc))
		c.pc++
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeZPX:
		// Zero page base plus X, wrapping within the page.
		// Example: LDA $10,X
		c.operandAddr = uint16(c.bus.Read8(c.pc) + c.regX)
		c.pc++
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeZPY:
		// Zero page base plus Y, wrapping within the page.
		// Example: LDX $10,Y
		c.operandAddr = uint16(c.bus.Read8(c.pc) + c.regY)
		c.pc++
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeABS:
		// Full 16-bit address.
		// Example: LDA $1234
		c.operandAddr = c.bus.Read16(c.pc)
		c.pc += 2
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeABSX:
		// Full 16-bit address plus X; an extra cycle is owed when this
		// crosses into a different page, charged by the dispatcher.
		base := c.bus.Read16(c.pc)
		c.pc += 2
		c.operandAddr = base + uint16(c.regX)
		c.operandValue = c.bus.Read8(c.operandAddr)
		c.pageCrossed = base&0xff00 != c.operandAddr&0xff00

	case addrModeABSY:
		// Full 16-bit address plus Y; same page-cross accounting as ABSX.
		base := c.bus.Read16(c.pc)
		c.pc += 2
		c.operandAddr = base + uint16(c.regY)
		c.operandValue = c.bus.Read8(c.operandAddr)
		c.pageCrossed = base&0xff00 != c.operandAddr&0xff00

	case addrModeIND:
		// Address is read from a 16-bit pointer. Only JMP uses this mode,
		// and it reproduces the hardware's page-wrap bug: if the pointer's
		// low byte is 0xFF, the high byte is fetched from the start of the
		// same page instead of the next one.
		ptr := c.bus.Read16(c.pc)
		c.pc += 2
		hiAddr := (ptr & 0xff00) | uint16(uint8(ptr)+1)
		lo := uint16(c.bus.Read8(ptr))
		hi := uint16(c.bus.Read8(hiAddr))
		c.operandAddr = lo | hi<<8

	case addrModeINDX:
		// Zero page base plus X, wrapping within the page, gives the
		// address of a 16-bit pointer (itself confined to the zero page).
		// Example: LDA ($10,X)
		base := uint16(c.bus.Read8(c.pc) + c.regX)
		c.pc++
		lo := uint16(c.bus.Read8(base & 0x00ff))
		hi := uint16(c.bus.Read8((base + 1) & 0x00ff))
		c.operandAddr = lo | hi<<8
		c.operandValue = c.bus.Read8(c.operandAddr)

	case addrModeINDY:
		// Zero page pointer, dereferenced first, then Y is added to the
		// result. Page-cross accounting is on the post-index address.
		// Example: LDA ($10),Y
		zp := uint16(c.bus.Read8(c.pc))
		c.pc++
		lo := uint16(c.bus.Read8(zp))
		hi := uint16(c.bus.Read8((zp + 1) & 0x00ff))
		base := lo | hi<<8
		c.operandAddr = base + uint16(c.regY)
		c.operandValue = c.bus.Read8(c.operandAddr)
		c.pageCrossed = base&0xff00 != c.operandAddr&0xff00

	case addrModeREL:
		// Signed 8-bit offset from the address of the next instruction,
		// used only by branches. Sign-extended into operandAddr so the
		// branch handler can just add it to PC.
		offset := uint16(c.bus.Read8(c.pc))
		c.pc++
		if offset&0x80 != 0 {
			offset |= 0xff00
		}
		c.operandAddr = offset

	case addrModeACC:
		// Operand is the accumulator itself; no memory access.
		c.operandValue = c.regA

	case addrModeIMP:
		// No operand at all.
	}
}
