// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hardware

import (
	"errors"
	"testing"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/mcp3208"
	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
	"github.com/rice-eclipse/slonk/internal/spibus"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		SPIMosi:         26,
		SPIMiso:         25,
		SPIClk:          24,
		SPIFrequencyClk: 50_000,
		ADCCS:           []int{20},
		PinHeartbeat:    0,
		Drivers: []config.Driver{
			{Label: "OXI_FILL", Pin: 22},
			{Label: "IGNITER", Pin: 23, Protected: true},
		},
	}
}

func TestDummyBuildsDriverBankAndADCs(t *testing.T) {
	hw, err := Dummy(testConfig())
	if err != nil {
		t.Fatalf("Dummy() error = %v", err)
	}
	if hw.Drivers.Len() != 2 {
		t.Fatalf("Drivers.Len() = %d, want 2", hw.Drivers.Len())
	}
	if len(hw.ADCs) != 1 {
		t.Fatalf("len(ADCs) = %d, want 1", len(hw.ADCs))
	}

	levels, err := hw.Drivers.Levels()
	if err != nil {
		t.Fatalf("Levels() error = %v", err)
	}
	if levels[0] != false || levels[1] != false {
		t.Errorf("initial Levels() = %v, want all false", levels)
	}

	if err := hw.Drivers.Write(0, true); err != nil {
		t.Fatalf("Write(0, true) error = %v", err)
	}
	levels, err = hw.Drivers.Levels()
	if err != nil {
		t.Fatalf("Levels() error = %v", err)
	}
	if !levels[0] {
		t.Errorf("Levels()[0] = false after Write(0, true)")
	}
}

func TestDriverBankRejectsOutOfBoundsWrite(t *testing.T) {
	hw, err := Dummy(testConfig())
	if err != nil {
		t.Fatalf("Dummy() error = %v", err)
	}
	err = hw.Drivers.Write(5, true)
	var oob *slonkerr.DriverOutOfBounds
	if !errors.As(err, &oob) {
		t.Errorf("Write(5, true) error = %v, want *slonkerr.DriverOutOfBounds", err)
	}
}

func TestDriverBankIsProtected(t *testing.T) {
	hw, err := Dummy(testConfig())
	if err != nil {
		t.Fatalf("Dummy() error = %v", err)
	}
	protected, err := hw.Drivers.IsProtected(1)
	if err != nil {
		t.Fatalf("IsProtected(1) error = %v", err)
	}
	if !protected {
		t.Error("IsProtected(1) = false, want true")
	}
	protected, err = hw.Drivers.IsProtected(0)
	if err != nil {
		t.Fatalf("IsProtected(0) error = %v", err)
	}
	if protected {
		t.Error("IsProtected(0) = true, want false")
	}
}

func TestNewAssemblesHardwareFromTestDoubles(t *testing.T) {
	stub := &spibus.Stub{Incoming: []byte{0xFF, 0x00, 0x64}}
	reader, err := mcp3208.New(stub, time.Microsecond)
	if err != nil {
		t.Fatalf("mcp3208.New() error = %v", err)
	}
	adc := NewGuardedADC(reader)

	drivers := []config.Driver{{Label: "IGNITER", Pin: 20}}
	bank := NewDriverBank(drivers, []pin.Line{pin.NewDummy(false)})
	hw := New(bank, []*GuardedADC{adc}, pin.NewDummy(false))

	got, err := hw.ADC(0)
	if err != nil {
		t.Fatalf("ADC(0) error = %v", err)
	}
	value, err := got.Read(0)
	if err != nil {
		t.Fatalf("Read(0) error = %v", err)
	}
	if value != 100 {
		t.Errorf("Read(0) = %d, want 100", value)
	}
}

func TestADCOutOfRange(t *testing.T) {
	hw, err := Dummy(testConfig())
	if err != nil {
		t.Fatalf("Dummy() error = %v", err)
	}
	if _, err := hw.ADC(3); err == nil {
		t.Fatal("ADC(3) error = nil, want error for out-of-range index")
	}
}
