// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp3208 implements the MCP3208 12-bit, 8-channel single-ended ADC
// read protocol (spec §4.3) over a bit-banged SPI device.
package mcp3208

import (
	"fmt"
	"time"

	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// MinFrequencyHz is the ADC's minimum operating clock frequency.
const MinFrequencyHz = 10_000

// Transferer is satisfied by *spibus.Device and by test doubles.
type Transferer interface {
	Transfer(out, in []byte) error
}

// Reader performs single-ended reads against one MCP3208 over dev.
//
// The command framing used here: the first outgoing byte carries the start
// bit in bit 0 with the rest don't-care; the second byte encodes
// single-ended mode in bit 7 and the 3-bit channel number in bits 6-4; the
// third byte is don't-care. On the response side, the device echoes garbage
// during the command byte, drives bit 4 of the second incoming byte low as
// its null bit, then the low nibble (bits 3-0) of that same byte carries the
// result's high four bits and the third incoming byte its low eight bits,
// MSB-first. This is one of the two
// documented framings referenced by spec §4.3/§9; a differently-framed
// implementation would disagree with this one on where the null bit falls.
type Reader struct {
	dev Transferer
}

// New returns a Reader over dev. period is the bus's configured clock
// period; New asserts it is strictly below 1/MinFrequencyHz, enforcing the
// ADC's minimum operating frequency (spec §4.3).
func New(dev Transferer, period time.Duration) (*Reader, error) {
	maxPeriod := time.Second / time.Duration(MinFrequencyHz)
	if period >= maxPeriod {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf(
			"mcp3208: clock period %s is not strictly below %s (minimum %d Hz)", period, maxPeriod, MinFrequencyHz)}
	}
	return &Reader{dev: dev}, nil
}

// Read performs a single-ended conversion on channel (0..=7) and returns the
// 12-bit result widened to uint16.
func (r *Reader) Read(channel int) (uint16, error) {
	if channel < 0 || channel > 7 {
		return 0, &slonkerr.Hardware{Message: fmt.Sprintf("mcp3208: channel %d out of range 0..=7", channel)}
	}

	out := []byte{
		0b0000_0001,                               // start bit
		0b1000_0000 | byte(channel)<<4,            // single-ended mode + channel
		0x00,
	}
	in := make([]byte, 3)
	if err := r.dev.Transfer(out, in); err != nil {
		return 0, err
	}

	// in[1] bit 4 (0x10) is the null bit, driven low by the ADC between its
	// acknowledgement phase and its data phase; bits 3-0 of in[1] hold the
	// high nibble of the 12-bit result and in[2] holds the low byte.
	if in[1]&0x10 != 0 {
		return 0, &slonkerr.Hardware{Message: "mcp3208: no null bit received"}
	}

	value := uint16(in[1]&0x0F)<<8 | uint16(in[2])
	return value, nil
}
