// Package cpu implements a cycle-budgeted MOS 6502 instruction decoder and
// executor. It knows nothing about ROM formats, video, audio or input — it
// reads and writes bytes through a Bus and advances its own registers and
// flags one documented opcode at a time.
package cpu

import (
	"fmt"
	"log"
)

// Bus is the CPU's only view of the outside world: a flat 64 KiB address
// space. Anything that can satisfy this interface — RAM, a mapper, a test
// double — can sit behind a CPU.
type Bus interface {
	Read8(addr uint16) uint8
	Read16(addr uint16) uint16
	Write8(addr uint16, data uint8)
	Write16(addr uint16, data uint16)
}

const (
	// The stack lives in the fixed page $0100-$01FF; sp is the low byte.
	stackPageAddr = 0x0100

	resetVectorAddr = 0xfffc
	irqVectorAddr   = 0xfffe
	nmiVectorAddr   = 0xfffa
)

const (
	flagCBit = uint8(1 << 0) // Carry
	flagZBit = uint8(1 << 1) // Zero
	flagIBit = uint8(1 << 2) // Interrupt Disable
	flagDBit = uint8(1 << 3) // Decimal Mode (unused: decimal arithmetic is out of scope)
	flagBBit = uint8(1 << 4) // Break Command
	flagUBit = uint8(1 << 5) // Unused, always reads 1
	flagVBit = uint8(1 << 6) // Overflow
	flagNBit = uint8(1 << 7) // Negative
)

type addrMode uint8

const (
	addrModeIMM addrMode = iota + 1
	addrModeZP
	addrModeZPX
	addrModeZPY
	addrModeABS
	addrModeABSX
	addrModeABSY
	addrModeIND
	addrModeINDX
	addrModeINDY
	addrModeREL
	addrModeACC
	addrModeIMP
)

// RunState reports whether the CPU can still execute instructions.
type RunState int

const (
	Running RunState = iota
	Halted
)

func (s RunState) String() string {
	if s == Halted {
		return "HALTED"
	}
	return "RUNNING"
}

// CPU holds MOS 6502 register and flag state plus the per-instruction
// scratch fields the addressing-mode fetchers and opcode handlers share.
// It is not safe for concurrent use; one goroutine drives Step/Run at a
// time, same as the hardware it models.
type CPU struct {
	regA uint8
	regX uint8
	regY uint8
	sp   uint8
	pc   uint16
	status uint8

	bus Bus

	instructions [256]instruction

	totalCycles uint64

	halted     bool
	haltReason string

	// IRQPending is the reserved interrupt hook spec.md keeps out of scope:
	// nothing in this module ever sets it. A future PPU/APU could poll it
	// and call IRQ/NMI, but Step never checks it on its own.
	IRQPending bool

	// Scratch state for the instruction currently executing, reset at the
	// top of every Step.
	addrMode          addrMode
	operandAddr       uint16
	operandValue      uint8
	pageCrossed       bool
	branchTaken       bool
	branchPageCrossed bool
}

// NewCPU builds a CPU wired to bus and resets it, matching real hardware's
// power-on behavior: PC is loaded from the reset vector immediately.
func NewCPU(bus Bus) *CPU {
	c := &CPU{bus: bus}
	table, err := buildInstructionTable()
	if err != nil {
		// The opcode matrix is embedded at build time; a parse failure here
		// is a programming error, not a runtime condition callers recover
		// from.
		log.Fatalf("cpu: building opcode table: %v", err)
	}
	c.instructions = table
	c.Reset()
	return c
}

// ConnectBus rewires the CPU to a different Bus without otherwise touching
// its state. Mirrors the harness use case of swapping memory images between
// runs of the same CPU.
func (c *CPU) ConnectBus(bus Bus) {
	c.bus = bus
}

func (c *CPU) getFlag(flag uint8) bool {
	return c.status&flag != 0
}

func (c *CPU) setFlag(flag uint8, v bool) {
	if v {
		c.status |= flag
		return
	}
	c.status &^= flag
}

func (c *CPU) setNZ(v uint8) {
	c.setFlag(flagZBit, v == 0)
	c.setFlag(flagNBit, v&0x80 != 0)
}

func (c *CPU) stackPush8(data uint8) {
	c.bus.Write8(stackPageAddr+uint16(c.sp), data)
	c.sp--
}

func (c *CPU) stackPush16(data uint16) {
	c.stackPush8(uint8(data >> 8))
	c.stackPush8(uint8(data & 0xff))
}

func (c *CPU) stackPop8() uint8 {
	c.sp++
	return c.bus.Read8(stackPageAddr + uint16(c.sp))
}

func (c *CPU) stackPop16() uint16 {
	lo := uint16(c.stackPop8())
	hi := uint16(c.stackPop8())
	return lo | hi<<8
}

// restoreStatus loads the processor status from a pulled byte, forcing the
// unused bit back to 1 the way real hardware always reads it.
func (c *CPU) restoreStatus(v uint8) {
	c.status = v | flagUBit
}

// Step decodes and executes exactly one instruction at PC, returning how
// many cycles it cost and whether the CPU is still able to run afterward.
// Cycle debits are computed here, once, from the opcode table and the
// pageCrossed/branchTaken state the fetch and opcode functions set — no
// opcode handler increments a cycle counter itself.
func (c *CPU) Step() (spent uint8, state RunState) {
	if c.halted {
		return 0, Halted
	}

	c.pageCrossed = false
	c.branchTaken = false
	c.branchPageCrossed = false

	opcodePC := c.pc
	opcode := c.bus.Read8(c.pc)
	c.pc++

	instr := c.instructions[opcode]
	if !instr.valid {
		c.halted = true
		c.haltReason = fmt.Sprintf("unknown opcode 0x%02X at 0x%04X", opcode, opcodePC)
		log.Printf("cpu: halting: %s", c.haltReason)
		return 0, Halted
	}

	c.addrMode = instr.mode
	c.fetch(instr.mode)
	instr.fn(c)

	spent = instr.cycles
	if instr.pagePenalty && c.pageCrossed {
		spent++
	}
	if c.branchTaken {
		spent++
		if c.branchPageCrossed {
			spent++
		}
	}
	c.totalCycles += uint64(spent)

	if c.halted {
		return spent, Halted
	}
	return spent, Running
}

// Run donates budget cycles to the CPU, stepping whole instructions until
// the budget is exhausted or the CPU halts. It can spend slightly more than
// budget — an instruction is never interrupted partway through. Each call
// starts from budget alone: cycles spent past one call's budget are not
// deducted from the next call's.
func (c *CPU) Run(budget int) (spent int, state RunState) {
	state = Running
	for budget > 0 {
		var s uint8
		s, state = c.Step()
		spent += int(s)
		budget -= int(s)
		if state == Halted {
			return spent, state
		}
	}
	return spent, state
}

// State reports whether the CPU is still running and, if not, why.
func (c *CPU) State() (state RunState, reason string) {
	if c.halted {
		return Halted, c.haltReason
	}
	return Running, ""
}

// TotalCycles is a monotonic count of every cycle ever spent, unlike the
// signed donate/spend balance Run works with. Useful for nestest-style
// cycle-accurate traces.
func (c *CPU) TotalCycles() uint64 {
	return c.totalCycles
}

// Reset reloads PC from the reset vector and puts registers in their
// documented power-on state. This is the soft reset a running system
// issues; SetInstructionPointer/SetStackPointer below are for a test
// harness pinning state directly instead.
func (c *CPU) Reset() {
	c.regA = 0
	c.regX = 0
	c.regY = 0
	c.status = flagUBit | flagIBit
	c.sp = 0xfd
	c.pc = c.bus.Read16(resetVectorAddr)
	c.halted = false
	c.haltReason = ""
}

// SetInstructionPointer pins PC directly, bypassing the reset vector. Used
// by harnesses (and the -ip CLI flag) to start execution at a known address.
func (c *CPU) SetInstructionPointer(pc uint16) {
	c.pc = pc
}

// SetStackPointer pins SP directly. sp is a 16-bit value whose low byte is
// the architectural stack pointer — matching the -sp CLI flag, which takes
// a full page-1 address (e.g. 0x01FF) rather than just the low byte.
func (c *CPU) SetStackPointer(sp uint16) {
	c.sp = uint8(sp & 0xff)
}

// IRQ is the maskable-interrupt entry sequence. Nothing in this module
// calls it automatically; it exists so a future interrupt source can.
func (c *CPU) IRQ() {
	if c.getFlag(flagIBit) {
		return
	}
	c.stackPush16(c.pc)
	c.stackPush8((c.status &^ flagBBit) | flagUBit)
	c.setFlag(flagIBit, true)
	c.pc = c.bus.Read16(irqVectorAddr)
	c.totalCycles += 7
}

// NMI is the non-maskable-interrupt entry sequence, unmaskable by the I
// flag unlike IRQ. Same caveat: nothing calls it automatically.
func (c *CPU) NMI() {
	c.stackPush16(c.pc)
	c.stackPush8((c.status &^ flagBBit) | flagUBit)
	c.setFlag(flagIBit, true)
	c.pc = c.bus.Read16(nmiVectorAddr)
	c.totalCycles += 8
}

// String renders the packed status byte as "NV-BDIZC"-style letters, a set
// bit shown as its letter and a clear bit as a dash. Used by the debug UI
// and by tests asserting on flag state at a glance.
func (c *CPU) String() string {
	letters := [8]byte{'C', 'Z', 'I', 'D', 'B', '-', 'V', 'N'}
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		bit := uint8(1) << uint8(7-i)
		if letters[7-i] == '-' || c.status&bit == 0 {
			buf[i] = '-'
		} else {
			buf[i] = letters[7-i]
		}
	}
	return string(buf)
}

// Registers returns a snapshot of A, X, Y, SP, PC and the status byte, for
// harnesses and tests that want the whole register file at once instead of
// poking at individual getters.
func (c *CPU) Registers() (a, x, y, sp uint8, pc uint16, status uint8) {
	return c.regA, c.regX, c.regY, c.sp, c.pc, c.status
}
