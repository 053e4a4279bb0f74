// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensorloop implements the per-sensor-group acquisition listener
// (spec §4.5): sampling, calibrated rolling averages, out-of-band automatic
// emergency stop, telemetry batching and log flushing. Grounded on
// original_source/src/data.rs's sensor_listen.
package sensorloop

import (
	"fmt"
	"io"
	"time"

	"github.com/rice-eclipse/slonk/internal/command"
	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/console"
	"github.com/rice-eclipse/slonk/internal/dashboard"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/state"
)

// reading is one raw ADC sample taken at a point in time.
type reading struct {
	at  time.Time
	raw uint16
}

// sensorState is the per-sensor runtime state of spec §3: the unflushed log
// queue, the rolling average (seeded at the configured range's midpoint, or
// 0 if unranged), and the latest yet-unsent reading.
type sensorState struct {
	queue      []reading
	rollingAvg float64
	latest     *reading
}

// Listener is one sensor group's acquisition loop, identified by its index
// groupID into the configuration's sensor_groups list.
type Listener struct {
	groupID int
	group   config.SensorGroup
	cfg     *config.Configuration
	hw      *hardware.Hardware
	guard   *state.Guard
	dash    *dashboard.Channel
	exec    *command.Executor
	logs    []io.Writer // parallel to group.Sensors
	console *console.Logger

	states []sensorState
	lastTx time.Time
}

// New returns a Listener for sensor group groupID. logs must have one entry
// per sensor in the group, in order, open for appending CSV rows.
func New(groupID int, cfg *config.Configuration, hw *hardware.Hardware, guard *state.Guard, dash *dashboard.Channel, exec *command.Executor, logs []io.Writer, logger *console.Logger) *Listener {
	group := cfg.SensorGroups[groupID]
	states := make([]sensorState, len(group.Sensors))
	for i, s := range group.Sensors {
		if s.Range != nil {
			states[i].rollingAvg = (s.Range[0] + s.Range[1]) / 2
		}
	}
	return &Listener{
		groupID: groupID,
		group:   group,
		cfg:     cfg,
		hw:      hw,
		guard:   guard,
		dash:    dash,
		exec:    exec,
		logs:    logs,
		console: logger,
		states:  states,
		lastTx:  time.Now(),
	}
}

// Run executes the listener's loop until the controller state reaches Quit.
func (l *Listener) Run() error {
	standbyPeriod := periodFor(l.group.FrequencyStandby)
	ignitionPeriod := periodFor(l.group.FrequencyIgnition)
	transmissionPeriod := periodFor(l.group.FrequencyTransmission)

	for l.guard.Status() != state.Quit {
		l.sample()
		l.transmit(transmissionPeriod)
		l.flushLogs()

		if l.guard.Status() == state.Standby {
			time.Sleep(standbyPeriod)
		} else {
			time.Sleep(ignitionPeriod)
		}
	}
	return nil
}

func periodFor(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

// sample reads every sensor in the group once, updates its rolling average,
// and raises an automatic emergency stop if the average has left the
// configured safe range (spec §4.5 steps 1-2).
func (l *Listener) sample() {
	for i, sensor := range l.group.Sensors {
		adc, err := l.hw.ADC(sensor.ADC)
		if err != nil {
			l.warnf("sensor %s/%s: %v", l.group.Label, sensor.Label, err)
			continue
		}
		raw, err := adc.Read(sensor.Channel)
		if err != nil {
			l.warnf("sensor %s/%s: read failed: %v", l.group.Label, sensor.Label, err)
			continue
		}

		now := time.Now()
		st := &l.states[i]
		st.queue = append(st.queue, reading{at: now, raw: raw})
		st.latest = &reading{at: now, raw: raw}

		width := float64(sensor.Window())
		calibrated := float64(raw)*sensor.CalibrationSlope + sensor.CalibrationIntercept
		st.rollingAvg = (st.rollingAvg*(width-1) + calibrated) / width

		if sensor.Range != nil && (st.rollingAvg < sensor.Range[0] || st.rollingAvg > sensor.Range[1]) {
			exec := l.exec
			logger := l.console
			label := sensor.Label
			avg := st.rollingAvg
			go func() {
				if err := exec.EmergencyStop(); err != nil && logger != nil {
					logger.Warnf("sensor %s: automatic estop failed: %v", label, err)
				}
			}()
			l.warnf("sensor %s out of range (rolling average %.3f)", label, avg)
		}
	}
}

// transmit implements spec §4.5 step 3: emit a SensorValue for every sensor
// with a yet-unsent reading once the transmission period has elapsed, then
// reset the buffer regardless of whether a client was connected to receive
// it.
func (l *Listener) transmit(period time.Duration) {
	if time.Since(l.lastTx) < period {
		return
	}

	if l.dash != nil && l.dash.HasTarget() {
		var readings []dashboard.SensorReading
		for i, st := range l.states {
			if st.latest == nil {
				continue
			}
			readings = append(readings, dashboard.SensorReading{
				SensorID: i,
				Reading:  st.latest.raw,
				Time: dashboard.Timestamp{
					SecsSinceEpoch:  uint64(st.latest.at.Unix()),
					NanosSinceEpoch: uint32(st.latest.at.Nanosecond()),
				},
			})
		}
		if err := l.dash.Send(dashboard.SensorValue{GroupID: l.groupID, Readings: readings}); err != nil {
			l.warnf("sensor group %s: send telemetry: %v", l.group.Label, err)
		}
	}

	for i := range l.states {
		l.states[i].latest = nil
	}
	l.lastTx = time.Now()
}

// flushLogs implements spec §4.5 step 4: any sensor whose queue has reached
// the configured log-buffer threshold is flushed to its own CSV file.
func (l *Listener) flushLogs() {
	for i := range l.states {
		st := &l.states[i]
		if len(st.queue) < l.cfg.LogBufferSize {
			continue
		}
		for _, r := range st.queue {
			line := fmt.Sprintf("%d,%d\n", r.at.UnixNano(), r.raw)
			if _, err := io.WriteString(l.logs[i], line); err != nil {
				l.warnf("sensor %s/%s: write log: %v", l.group.Label, l.group.Sensors[i].Label, err)
				break
			}
		}
		st.queue = st.queue[:0]
	}
}

func (l *Listener) warnf(format string, args ...any) {
	if l.console != nil {
		l.console.Warnf(format, args...)
	}
}
