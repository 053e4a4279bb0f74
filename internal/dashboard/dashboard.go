// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dashboard implements the outbound telemetry channel to the
// external operator dashboard (spec §4.4): an optional live writer, plus an
// always-present append-only sent-log. Grounded on
// original_source/src/outgoing.rs's DashChannel, the two-writer variant
// spec.md §9 selects as canonical.
package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// Timestamp is the wire shape for a point in time relative to the UNIX
// epoch, used throughout outgoing messages (spec §6).
type Timestamp struct {
	SecsSinceEpoch  uint64 `json:"secs_since_epoch"`
	NanosSinceEpoch uint32 `json:"nanos_since_epoch"`
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	now := time.Now()
	return Timestamp{
		SecsSinceEpoch:  uint64(now.Unix()),
		NanosSinceEpoch: uint32(now.Nanosecond()),
	}
}

// ConfigMessage is sent once to a newly connected dashboard client, carrying
// the complete controller configuration.
type ConfigMessage struct {
	Config *config.Configuration
}

// MarshalJSON implements json.Marshaler.
func (m ConfigMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string                 `json:"type"`
		Config *config.Configuration `json:"config"`
	}{Type: "Config", Config: m.Config})
}

// SensorReading is one sensor's yet-unsent reading within a SensorValue
// message.
type SensorReading struct {
	SensorID int
	Reading  uint16
	Time     Timestamp
}

// MarshalJSON implements json.Marshaler.
func (r SensorReading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SensorID int       `json:"sensor_id"`
		Reading  uint16    `json:"reading"`
		Time     Timestamp `json:"time"`
	}{SensorID: r.SensorID, Reading: r.Reading, Time: r.Time})
}

// SensorValue carries raw ADC readings for one sensor group (spec §4.4,
// §4.5 step 3).
type SensorValue struct {
	GroupID  int
	Readings []SensorReading
}

// MarshalJSON implements json.Marshaler.
func (m SensorValue) MarshalJSON() ([]byte, error) {
	readings := m.Readings
	if readings == nil {
		readings = []SensorReading{}
	}
	return json.Marshal(struct {
		Type     string          `json:"type"`
		GroupID  int             `json:"group_id"`
		Readings []SensorReading `json:"readings"`
	}{Type: "SensorValue", GroupID: m.GroupID, Readings: readings})
}

// DriverValue carries the logic level of every driver, in configuration
// order (spec §4.4, §4.6).
type DriverValue struct {
	Values []bool
}

// MarshalJSON implements json.Marshaler.
func (m DriverValue) MarshalJSON() ([]byte, error) {
	values := m.Values
	if values == nil {
		values = []bool{}
	}
	return json.Marshal(struct {
		Type   string `json:"type"`
		Values []bool `json:"values"`
	}{Type: "DriverValue", Values: values})
}

// Channel is the outbound telemetry channel: an optional live writer to a
// connected dashboard client, and a mandatory append-only sent-log. Per
// spec §4.4 and §5, the live writer is guarded by a reader/writer lock so
// the hot path (has_target, before send) is non-blocking with respect to
// other senders, while the sent-log has its own mutex.
type Channel struct {
	liveMu sync.RWMutex
	live   io.Writer

	sentMu  sync.Mutex
	sentLog io.Writer
}

// New returns a Channel with no live target, writing its sent-log to
// sentLog.
func New(sentLog io.Writer) *Channel {
	return &Channel{sentLog: sentLog}
}

// SetChannel installs w as the live writer, or clears it if w is nil.
func (c *Channel) SetChannel(w io.Writer) {
	c.liveMu.Lock()
	defer c.liveMu.Unlock()
	c.live = w
}

// HasTarget reports whether a live writer is currently installed.
func (c *Channel) HasTarget() bool {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	return c.live != nil
}

// Send serializes msg to JSON and writes it to the live target (if any) and
// unconditionally to the sent-log. A live-write failure silently drops the
// live target, per spec §4.4: "failure to write the live writer is NOT
// reported to the caller." A sent-log write failure IS reported, since the
// sent-log is mandatory.
func (c *Channel) Send(msg json.Marshaler) error {
	encoded, err := msg.MarshalJSON()
	if err != nil {
		return &slonkerr.Hardware{Message: fmt.Sprintf("dashboard: encode message: %v", err)}
	}

	c.liveMu.Lock()
	if c.live != nil {
		if _, err := c.live.Write(encoded); err != nil {
			c.live = nil
		}
	}
	c.liveMu.Unlock()

	c.sentMu.Lock()
	defer c.sentMu.Unlock()
	line := fmt.Sprintf("%d,%s\n", time.Now().UnixNano(), encoded)
	if _, err := io.WriteString(c.sentLog, line); err != nil {
		return &slonkerr.Io{Kind: "sent-log", Cause: err}
	}
	return nil
}
