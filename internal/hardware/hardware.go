// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hardware wires the pin, spibus and mcp3208 packages into the
// concrete GPIO/SPI/ADC/driver collection a running server needs, built from
// a validated config.Configuration (spec §4.9, §9 "shared driver
// collection"). It offers one factory per runtime target: Real for an actual
// single-board computer and Dummy for in-memory testing.
package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/mcp3208"
	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
	"github.com/rice-eclipse/slonk/internal/spibus"
)

// GuardedADC serializes reads against one MCP3208, per spec §5: "Each ADC:
// individually mutexed."
type GuardedADC struct {
	mu     sync.Mutex
	reader *mcp3208.Reader
}

// NewGuardedADC wraps reader for exclusive access. Exposed so tests and
// alternate wiring (e.g. assembling a Hardware directly from test doubles
// via New) can build a GuardedADC without going through Real/Dummy.
func NewGuardedADC(reader *mcp3208.Reader) *GuardedADC {
	return &GuardedADC{reader: reader}
}

// Read acquires exclusive access to the ADC and performs one channel read.
func (g *GuardedADC) Read(channel int) (uint16, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reader.Read(channel)
}

// DriverBank is the single-mutex shared collection of every configured
// driver output, per spec §9: modeling drivers behind per-driver mutexes was
// rejected because the driver-status listener needs a consistent snapshot.
type DriverBank struct {
	mu      sync.Mutex
	drivers []driverEntry
}

type driverEntry struct {
	config.Driver
	line pin.Line
}

func newDriverBank(entries []driverEntry) *DriverBank {
	return &DriverBank{drivers: entries}
}

// NewDriverBank assembles a DriverBank from configuration entries and their
// already-constructed lines, in parallel order. Exposed so tests can wire
// arbitrary pin.Line doubles (e.g. pin.Dummy) without going through
// Real/Dummy's config-driven pin numbering.
func NewDriverBank(drivers []config.Driver, lines []pin.Line) *DriverBank {
	entries := make([]driverEntry, len(drivers))
	for i, d := range drivers {
		entries[i] = driverEntry{Driver: d, line: lines[i]}
	}
	return newDriverBank(entries)
}

// New assembles a Hardware from already-constructed pieces, bypassing the
// config-driven Real/Dummy factories. Exposed for tests that need an ADC
// backed by a fixed or scripted reader (e.g. an mcp3208.Reader over a
// spibus.Stub) rather than a real or always-zero dummy pin stack.
func New(drivers *DriverBank, adcs []*GuardedADC, heartbeat pin.Line) *Hardware {
	return &Hardware{Drivers: drivers, ADCs: adcs, Heartbeat: heartbeat}
}

// Len returns the number of configured drivers.
func (b *DriverBank) Len() int { return len(b.drivers) }

// Write sets the logic level of the driver at id under exclusive access.
// Returns slonkerr.DriverOutOfBounds if id is not a valid driver index.
func (b *DriverBank) Write(id int, level bool) error {
	if id < 0 || id >= len(b.drivers) {
		return &slonkerr.DriverOutOfBounds{DriverID: id}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drivers[id].line.Write(level)
}

// Levels reads every driver's current logic level under one exclusive
// acquisition, for a consistent snapshot (spec §4.6, §5).
func (b *DriverBank) Levels() ([]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := make([]bool, len(b.drivers))
	for i, d := range b.drivers {
		l, err := d.line.Read()
		if err != nil {
			return nil, err
		}
		levels[i] = l
	}
	return levels, nil
}

// IsProtected reports whether the driver at id is marked protected in
// configuration, refusing unsupervised dashboard actuation (spec §9 open
// question, resolved in DESIGN.md: protected drivers reject direct Actuate).
func (b *DriverBank) IsProtected(id int) (bool, error) {
	if id < 0 || id >= len(b.drivers) {
		return false, &slonkerr.DriverOutOfBounds{DriverID: id}
	}
	return b.drivers[id].Protected, nil
}

// Hardware is the complete set of live GPIO/SPI/ADC/driver handles a running
// server operates on.
type Hardware struct {
	Drivers   *DriverBank
	ADCs      []*GuardedADC
	Heartbeat pin.Line
}

// outputFactory and inputFactory let Real and Dummy share the wiring logic
// below while differing only in how a pin.Line is produced.
type outputFactory func(num int) (pin.Line, error)
type inputFactory func(num int) (pin.Line, error)

// Real constructs a Hardware backed by actual single-board computer GPIO
// pins, resolved through periph's gpioreg. Callers must have already called
// periph's host.Init (or hostextra.Init) before invoking Real.
func Real(cfg *config.Configuration) (*Hardware, error) {
	outs := func(num int) (pin.Line, error) { return pin.NewRealOutput(num) }
	ins := func(num int) (pin.Line, error) { return pin.NewRealInput(num) }
	return build(cfg, outs, ins)
}

// Dummy constructs a Hardware backed entirely by in-memory pin.Dummy lines,
// for tests and offline operation. Every line starts low.
func Dummy(cfg *config.Configuration) (*Hardware, error) {
	outs := func(int) (pin.Line, error) { return pin.NewDummy(false), nil }
	ins := func(int) (pin.Line, error) { return pin.NewDummy(false), nil }
	return build(cfg, outs, ins)
}

func build(cfg *config.Configuration, outs outputFactory, ins inputFactory) (*Hardware, error) {
	clk, err := outs(cfg.SPIClk)
	if err != nil {
		return nil, err
	}
	mosi, err := outs(cfg.SPIMosi)
	if err != nil {
		return nil, err
	}
	miso, err := ins(cfg.SPIMiso)
	if err != nil {
		return nil, err
	}
	period := time.Second / time.Duration(cfg.SPIFrequencyClk)
	bus := spibus.New(period, clk, mosi, miso)

	adcs := make([]*GuardedADC, len(cfg.ADCCS))
	for i, csNum := range cfg.ADCCS {
		cs, err := outs(csNum)
		if err != nil {
			return nil, err
		}
		dev := spibus.NewDevice(bus, cs)
		reader, err := mcp3208.New(dev, period)
		if err != nil {
			return nil, err
		}
		adcs[i] = NewGuardedADC(reader)
	}

	entries := make([]driverEntry, len(cfg.Drivers))
	for i, d := range cfg.Drivers {
		line, err := outs(d.Pin)
		if err != nil {
			return nil, err
		}
		entries[i] = driverEntry{Driver: d, line: line}
	}

	heartbeat, err := outs(cfg.PinHeartbeat)
	if err != nil {
		return nil, err
	}

	return &Hardware{
		Drivers:   newDriverBank(entries),
		ADCs:      adcs,
		Heartbeat: heartbeat,
	}, nil
}

// ADC returns the GuardedADC at index i, or a *slonkerr.Hardware error if i
// is not a configured ADC.
func (h *Hardware) ADC(i int) (*GuardedADC, error) {
	if i < 0 || i >= len(h.ADCs) {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf("adc index %d out of range 0..%d", i, len(h.ADCs))}
	}
	return h.ADCs[i], nil
}
