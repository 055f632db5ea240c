// Package bus implements the core's flat 64 KiB address space: a single
// byte array with no mirroring, mapping or I/O side effects, addressable
// uniformly by any client that only knows the cpu.Bus interface.
package bus

const memSizeBytes = 0x10000

// Memory is a flat 64 KiB address space. The zero value is 64 KiB of
// zeroed bytes, ready to use.
type Memory struct {
	ram [memSizeBytes]uint8
}

// New returns a zeroed 64 KiB address space.
func New() *Memory {
	return &Memory{}
}

func (m *Memory) Read8(addr uint16) uint8 {
	return m.ram[addr]
}

func (m *Memory) Read16(addr uint16) uint16 {
	lo := uint16(m.Read8(addr))
	hi := uint16(m.Read8(addr + 1))
	return lo | hi<<8
}

func (m *Memory) Write8(addr uint16, data uint8) {
	m.ram[addr] = data
}

func (m *Memory) Write16(addr uint16, data uint16) {
	m.Write8(addr, uint8(data&0xff))
	m.Write8(addr+1, uint8(data>>8))
}

// LoadAt copies data into the address space starting at addr, wrapping at
// the end of the 64 KiB space rather than panicking — callers that want to
// reject an oversized or out-of-range image should check len(data) and addr
// themselves first.
func (m *Memory) LoadAt(addr uint16, data []uint8) {
	for i, b := range data {
		m.ram[(uint32(addr)+uint32(i))&0xffff] = b
	}
}

// LoadROM reads up to 65,535 bytes from a flat binary image and copies them
// into memory starting at address 0, per spec.md §6's bus-trait surface.
func (m *Memory) LoadROM(data []uint8) {
	if len(data) > memSizeBytes-1 {
		data = data[:memSizeBytes-1]
	}
	m.LoadAt(0x0000, data)
}
