// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spibus implements a bit-banged SPI master (spec §4.3): a clock,
// MOSI and MISO trio shared by multiple devices, each adding its own chip
// select. Grounded on the teacher pack's hand-rolled bit-banged bus idiom
// (other_examples' google-periph bitbang I2C master: mutex-guarded manual
// clock toggling over gpio.PinIO with half-cycle time.Sleep), re-expressed
// for SPI's CS/CLK/MOSI/MISO trio.
package spibus

import (
	"sync"
	"time"

	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// Bus is a bit-banged SPI master. It is shared by multiple Devices, each
// bringing their own chip-select; every Transfer acquires the bus for its
// whole duration to keep the bit-banged sequence atomic (spec §5).
type Bus struct {
	mu     sync.Mutex
	period time.Duration // T: one full clock cycle
	clk    pin.Line
	mosi   pin.Line
	miso   pin.Line
}

// New returns a Bus with clock period period (1/frequency) driving clk,
// mosi and miso.
func New(period time.Duration, clk, mosi, miso pin.Line) *Bus {
	return &Bus{period: period, clk: clk, mosi: mosi, miso: miso}
}

// Device couples a Bus with the chip-select line of one attached peripheral.
type Device struct {
	bus *Bus
	cs  pin.Line
}

// NewDevice returns a Device on bus, selected by cs.
func NewDevice(bus *Bus, cs pin.Line) *Device {
	return &Device{bus: bus, cs: cs}
}

// Transfer performs a full-duplex exchange of out and in, which must be of
// equal length. It implements spec §4.3's 3-phase bit-bang protocol under
// exclusive access to the bus.
func (d *Device) Transfer(out, in []byte) error {
	if len(out) != len(in) {
		return &slonkerr.Hardware{Message: "spibus: transfer buffers must be equal length"}
	}

	d.bus.mu.Lock()
	defer d.bus.mu.Unlock()

	if err := d.cs.Write(false); err != nil {
		return &slonkerr.Hardware{Message: "spibus: drive CS low: " + err.Error()}
	}
	defer func() { _ = d.cs.Write(true) }()

	half := d.bus.period / 2
	for i := range out {
		var inByte byte
		for bit := 7; bit >= 0; bit-- {
			outBit := (out[i]>>uint(bit))&1 == 1
			if err := d.bus.mosi.Write(outBit); err != nil {
				return &slonkerr.Hardware{Message: "spibus: drive MOSI: " + err.Error()}
			}
			time.Sleep(half)

			if err := d.bus.clk.Write(true); err != nil {
				return &slonkerr.Hardware{Message: "spibus: raise CLK: " + err.Error()}
			}
			sample, err := d.bus.miso.Read()
			if err != nil {
				return &slonkerr.Hardware{Message: "spibus: sample MISO: " + err.Error()}
			}
			if sample {
				inByte |= 1 << uint(bit)
			}
			time.Sleep(half)

			if err := d.bus.clk.Write(false); err != nil {
				return &slonkerr.Hardware{Message: "spibus: lower CLK: " + err.Error()}
			}
		}
		in[i] = inByte
	}

	return nil
}
