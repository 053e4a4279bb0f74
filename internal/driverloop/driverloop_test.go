// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driverloop

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/dashboard"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/state"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		FrequencyStatus: 1000,
		Drivers: []config.Driver{
			{Label: "OXI_FILL", Pin: 20},
			{Label: "FUEL_FILL", Pin: 21},
		},
	}
}

func testHardware(t *testing.T, cfg *config.Configuration, levels []bool) *hardware.Hardware {
	t.Helper()
	lines := make([]pin.Line, len(levels))
	for i, l := range levels {
		lines[i] = pin.NewDummy(l)
	}
	drivers := hardware.NewDriverBank(cfg.Drivers, lines)
	return hardware.New(drivers, nil, pin.NewDummy(false))
}

func TestSampleWritesCSVRow(t *testing.T) {
	cfg := testConfig()
	hw := testHardware(t, cfg, []bool{true, false})
	guard := state.New(state.Standby)
	var log bytes.Buffer

	l := New(cfg, hw, guard, nil, &log, nil)
	l.sample()

	got := log.String()
	if !strings.HasSuffix(got, "true,false,\n") {
		t.Errorf("log row = %q, want to end with %q", got, "true,false,\n")
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("log = %q, want exactly one row", got)
	}
}

func TestSampleSendsDriverValueToDashboard(t *testing.T) {
	cfg := testConfig()
	hw := testHardware(t, cfg, []bool{true, true})
	guard := state.New(state.Standby)
	var log, sentLog, live bytes.Buffer

	dash := dashboard.New(&sentLog)
	dash.SetChannel(&live)

	l := New(cfg, hw, guard, dash, &log, nil)
	l.sample()

	if !strings.Contains(live.String(), `"type":"DriverValue"`) {
		t.Errorf("live writer = %q, want a DriverValue message", live.String())
	}
	if !strings.Contains(live.String(), `"values":[true,true]`) {
		t.Errorf("live writer = %q, want values [true,true]", live.String())
	}
}

func TestSampleAppendsToSentLogWithNoLiveClient(t *testing.T) {
	cfg := testConfig()
	hw := testHardware(t, cfg, []bool{true, false})
	guard := state.New(state.Standby)
	var log, sentLog bytes.Buffer

	dash := dashboard.New(&sentLog)
	l := New(cfg, hw, guard, dash, &log, nil)
	l.sample()

	if !strings.Contains(sentLog.String(), `"type":"DriverValue"`) {
		t.Errorf("sent-log = %q, want a DriverValue row even with no live dashboard client", sentLog.String())
	}
}

func TestRunExitsOnQuit(t *testing.T) {
	cfg := testConfig()
	cfg.FrequencyStatus = 100_000 // fast loop so the test doesn't stall
	hw := testHardware(t, cfg, []bool{false, false})
	guard := state.New(state.Standby)
	var log bytes.Buffer

	l := New(cfg, hw, guard, nil, &log, nil)

	if err := guard.MoveTo(state.Quit); err != nil {
		t.Fatalf("MoveTo(Quit) error = %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not exit after Quit")
	}
}
