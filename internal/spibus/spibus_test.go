// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

import (
	"testing"
	"time"

	"github.com/rice-eclipse/slonk/internal/pin"
)

// fixedMiso drives MISO from a fixed bit source, ignoring writes.
type fixedMiso struct {
	bits []bool
	idx  int
}

func (f *fixedMiso) Read() (bool, error) {
	if f.idx >= len(f.bits) {
		return false, nil
	}
	b := f.bits[f.idx]
	f.idx++
	return b, nil
}

func (f *fixedMiso) Write(bool) error { return nil }

func bitsOf(bytes []byte) []bool {
	var bits []bool
	for _, b := range bytes {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1 == 1)
		}
	}
	return bits
}

func TestTransferDrivesCSAndClocksEveryBit(t *testing.T) {
	clk := pin.NewDummy(false)
	mosi := pin.NewDummy(false)
	miso := &fixedMiso{bits: bitsOf([]byte{0xA5})}
	cs := pin.NewDummy(true)

	bus := New(time.Microsecond, clk, mosi, miso)
	dev := NewDevice(bus, cs)

	out := []byte{0xFF}
	in := make([]byte, 1)
	if err := dev.Transfer(out, in); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if in[0] != 0xA5 {
		t.Errorf("in[0] = %#x, want 0xA5", in[0])
	}

	csHistory := cs.History()
	if len(csHistory) < 3 || csHistory[len(csHistory)-2] != false || csHistory[len(csHistory)-1] != true {
		t.Errorf("cs history = %v, want to end with [false, true]", csHistory)
	}

	clkHistory := clk.History()
	// 8 bits => 8 rising + 8 falling edges, plus the seed value.
	if len(clkHistory) != 17 {
		t.Errorf("len(clk history) = %d, want 17", len(clkHistory))
	}
}

func TestTransferRejectsMismatchedLengths(t *testing.T) {
	clk := pin.NewDummy(false)
	mosi := pin.NewDummy(false)
	miso := pin.NewDummy(false)
	cs := pin.NewDummy(true)
	bus := New(time.Microsecond, clk, mosi, miso)
	dev := NewDevice(bus, cs)

	if err := dev.Transfer([]byte{1, 2}, []byte{1}); err == nil {
		t.Fatal("expected error for mismatched buffer lengths")
	}
}
