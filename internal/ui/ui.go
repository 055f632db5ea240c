// Package ui is a debug front-end for the core: an ebiten window that
// donates one frame's worth of cycles to the CPU per tick and renders its
// registers, flags and a disassembly window around PC. There is no
// framebuffer or palette here — video output is out of scope for the
// core (spec.md §1) and the debug overlay is the entire screen.
package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/sixfiveohtwo/core/internal/cpu"
	"github.com/sixfiveohtwo/core/internal/scheduler"
)

const (
	screenWidth  = 520
	screenHeight = 360

	// disasmWindow is how many addresses on either side of PC are checked
	// for a decoded instruction to show.
	disasmWindow = 8
)

// UI wraps a *cpu.CPU and the Bus it runs against. Update() is the
// scheduler shell of spec.md §4.7 made concrete for an interactive
// session: ebiten's own 60 TPS loop is the frame clock, and each tick
// donates scheduler.CyclesPerFrame cycles the same way a headless run's
// scheduler.Runner would.
type UI struct {
	cpu    *cpu.CPU
	disasm map[uint16]string

	paused   bool
	stepOnce bool
}

// New builds a UI over an already-initialized CPU. bus is only used once,
// to pre-render a disassembly of the whole address space for the
// scrolling instruction window; the CPU itself is read through cpu's own
// accessors thereafter.
func New(c *cpu.CPU, bus cpu.Bus) *UI {
	return &UI{
		cpu:    c,
		disasm: c.Disassemble(bus, 0x0000, 0x10000),
	}
}

// Update donates one frame of cycles unless paused, and honors the two
// debug keys: P toggles pause, R single-steps one instruction while
// paused.
func (ui *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		ui.paused = !ui.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		ui.stepOnce = true
	}

	if state, _ := ui.cpu.State(); state == cpu.Halted {
		return nil
	}

	switch {
	case ui.stepOnce:
		ui.cpu.Step()
		ui.stepOnce = false
	case !ui.paused:
		ui.cpu.Run(scheduler.CyclesPerFrame)
	}
	return nil
}

// Draw renders the register file, flag string and a disassembly window
// centered on PC. It never touches ui.cpu's state.
func (ui *UI) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 24, 28, 255})

	a, x, y, sp, pc, _ := ui.cpu.Registers()
	state, reason := ui.cpu.State()

	var b strings.Builder
	fmt.Fprintf(&b, " FPS: %0.0f   TPS: %0.0f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	fmt.Fprintf(&b, " STATE: %s", state)
	if reason != "" {
		fmt.Fprintf(&b, " (%s)", reason)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, " STATUS: %s\n", ui.cpu.String())
	fmt.Fprintf(&b, " PC: $%04X\n", pc)
	fmt.Fprintf(&b, " A:  $%02X [%3d]\n", a, a)
	fmt.Fprintf(&b, " X:  $%02X [%3d]\n", x, x)
	fmt.Fprintf(&b, " Y:  $%02X [%3d]\n", y, y)
	fmt.Fprintf(&b, " SP: $%02X\n", sp)
	fmt.Fprintf(&b, " CYCLES: %d\n\n", ui.cpu.TotalCycles())

	for addr := int(pc) - disasmWindow; addr < int(pc); addr++ {
		if addr < 0 {
			continue
		}
		if line, ok := ui.disasm[uint16(addr)]; ok {
			b.WriteString("  " + line + "\n")
		}
	}
	if line, ok := ui.disasm[pc]; ok {
		b.WriteString("> " + line + "\n")
	}
	for addr := int(pc) + 1; addr <= int(pc)+disasmWindow; addr++ {
		if addr > 0xffff {
			break
		}
		if line, ok := ui.disasm[uint16(addr)]; ok {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n P: pause/resume   R: single-step while paused\n")

	ebitenutil.DebugPrintAt(screen, b.String(), 8, 8)
}

// Layout fixes the debug window to a constant size; there is no game
// framebuffer to scale against.
func (ui *UI) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// RunUI opens the ebiten window and blocks until it's closed or the CPU
// halts and the user closes the window.
func RunUI(ui *UI) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("6502 core debugger")
	ebiten.SetTPS(scheduler.FramesPerSecond)
	return ebiten.RunGame(ui)
}
