// Command m6502 is the thin outer shell around the core: it loads a flat
// ROM image into the 64 KiB address space, pins initial register state,
// and either runs the CPU to completion headless or hands it to the
// ebiten-backed debug UI. Everything interesting (decode, execute, cycle
// accounting) lives in internal/cpu; this file only wires flags to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/profile"

	"github.com/sixfiveohtwo/core/internal/bus"
	"github.com/sixfiveohtwo/core/internal/config"
	"github.com/sixfiveohtwo/core/internal/cpu"
	"github.com/sixfiveohtwo/core/internal/scheduler"
	"github.com/sixfiveohtwo/core/internal/ui"
)

func main() {
	fs := flag.NewFlagSet("m6502", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	romPath := fs.String("r", "", "ROM file to load at address 0x0000 (required)")
	ipHex := fs.String("ip", "", "initial program counter, hex")
	spHex := fs.String("sp", "", "initial stack pointer, hex (full page-1 address, e.g. 01FF)")
	cfgPath := fs.String("config", "", "optional YAML harness descriptor (initial PC/SP, memory fixups)")
	headless := fs.Bool("headless", false, "run to completion without opening the debug UI")
	doProfile := fs.Bool("profile", false, "wrap the run in a CPU profile written to a temporary directory")

	switch err := fs.Parse(os.Args[1:]); {
	case err == flag.ErrHelp:
		os.Exit(0)
	case err != nil:
		os.Exit(0)
	}

	if *romPath == "" {
		printUsage(fs)
		os.Exit(0)
	}

	if *doProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	mem := bus.New()

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("m6502: reading ROM %s: %v", *romPath, err)
	}
	if len(rom) > 0x10000 {
		log.Fatalf("m6502: ROM %s is %d bytes, larger than the 64 KiB address space", *romPath, len(rom))
	}
	mem.LoadAt(0x0000, rom)

	harness, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("m6502: loading config %s: %v", *cfgPath, err)
	}
	if err := harness.Apply(mem); err != nil {
		log.Fatalf("m6502: applying config fixups: %v", err)
	}

	c := cpu.NewCPU(mem)

	if harness.InitialPC != nil {
		c.SetInstructionPointer(*harness.InitialPC)
	}
	if harness.InitialSP != nil {
		c.SetStackPointer(*harness.InitialSP)
	}
	if *ipHex != "" {
		pc, err := parseHex16(*ipHex)
		if err != nil {
			log.Fatalf("m6502: -ip %q: %v", *ipHex, err)
		}
		c.SetInstructionPointer(pc)
	}
	if *spHex != "" {
		sp, err := parseHex16(*spHex)
		if err != nil {
			log.Fatalf("m6502: -sp %q: %v", *spHex, err)
		}
		c.SetStackPointer(sp)
	}

	if *headless {
		runHeadless(c)
		return
	}

	if err := ui.RunUI(ui.New(c, mem)); err != nil {
		log.Fatalf("m6502: ui: %v", err)
	}
}

// runHeadless drives the CPU at the core's documented frame cadence
// (scheduler.CyclesPerFrame donated scheduler.FramesPerSecond times a
// second) until it halts, then prints the final register file. This is
// the same donation loop the debug UI's Update drives, just without a
// window to render into.
func runHeadless(c *cpu.CPU) {
	donate := func(budget int) (spent int, halted bool, status string) {
		spent, state := c.Run(budget)
		_, reason := c.State()
		return spent, state == cpu.Halted, reason
	}

	r := scheduler.NewRunner(donate, scheduler.CyclesPerFrame, time.Second/scheduler.FramesPerSecond, nil)
	if err := r.Run(context.Background()); err != nil && err != context.Canceled {
		log.Fatalf("m6502: scheduler: %v", err)
	}

	a, x, y, sp, pc, _ := c.Registers()
	state, reason := c.State()
	fmt.Printf("%s: A=$%02X X=$%02X Y=$%02X SP=$%02X PC=$%04X status=%s cycles=%d",
		state, a, x, y, sp, pc, c.String(), c.TotalCycles())
	if reason != "" {
		fmt.Printf(" (%s)", reason)
	}
	fmt.Println()
}

func parseHex16(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("not a 16-bit hex value: %w", err)
	}
	return uint16(v), nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: m6502 -r <rom> [-ip <hex>] [-sp <hex>] [-config <path>] [-headless] [-profile]")
	fs.PrintDefaults()
}
