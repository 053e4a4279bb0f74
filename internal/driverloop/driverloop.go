// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package driverloop implements the driver status listener (spec §4.6): at
// a configured period, read every driver's logic level under one exclusive
// acquisition, log a CSV row, and forward the snapshot to the dashboard.
// Grounded on original_source/src/data.rs's driver_status_listen.
package driverloop

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/console"
	"github.com/rice-eclipse/slonk/internal/dashboard"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/state"
)

// Listener periodically samples every configured driver's logic level.
type Listener struct {
	hw    *hardware.Hardware
	guard *state.Guard
	dash  *dashboard.Channel
	log   io.Writer
	console *console.Logger
	period time.Duration
}

// New returns a Listener sampling at the frequency configured in
// cfg.FrequencyStatus, writing CSV rows to log.
func New(cfg *config.Configuration, hw *hardware.Hardware, guard *state.Guard, dash *dashboard.Channel, log io.Writer, logger *console.Logger) *Listener {
	return &Listener{
		hw:      hw,
		guard:   guard,
		dash:    dash,
		log:     log,
		console: logger,
		period:  time.Duration(float64(time.Second) / cfg.FrequencyStatus),
	}
}

// Run samples and logs driver state until the controller reaches Quit.
func (l *Listener) Run() error {
	for l.guard.Status() != state.Quit {
		l.sample()
		time.Sleep(l.period)
	}
	return nil
}

// sample reads every driver's level under one exclusive acquisition (spec
// §4.6, §5: a consistent snapshot, not a read racing concurrent Actuates),
// writes the CSV row, and forwards the snapshot to the dashboard.
func (l *Listener) sample() {
	levels, err := l.hw.Drivers.Levels()
	if err != nil {
		l.warnf("driverloop: read driver levels: %v", err)
		return
	}

	now := time.Now()
	var row strings.Builder
	fmt.Fprintf(&row, "%d,", now.UnixNano())
	for _, level := range levels {
		fmt.Fprintf(&row, "%t,", level)
	}
	row.WriteByte('\n')
	if _, err := io.WriteString(l.log, row.String()); err != nil {
		l.warnf("driverloop: write driver status log: %v", err)
	}

	if l.dash != nil {
		if err := l.dash.Send(dashboard.DriverValue{Values: levels}); err != nil {
			l.warnf("driverloop: send telemetry: %v", err)
		}
	}
}

func (l *Listener) warnf(format string, args ...any) {
	if l.console != nil {
		l.console.Warnf(format, args...)
	}
}
