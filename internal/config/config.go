// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the controller's immutable, validated configuration
// record and the loader that produces it. Loading and schema validation sit
// outside the core's runtime scope, but the core consumes the types defined
// here directly.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// MinADCChannel and MaxADCChannel bound a sensor's ADC channel (spec §3
// invariant 2).
const (
	MinADCChannel = 0
	MaxADCChannel = 7
)

// MinSPIFrequencyHz is the minimum SPI clock frequency the MCP3208 ADC
// requires to operate correctly (spec §3 invariant 4).
const MinSPIFrequencyHz = 10_000

// reservedPins are pin identifiers that may never be assigned to a driver,
// SPI trio member or ADC chip-select: either outside the allowed GPIO range,
// or reserved for EEPROM per spec §3 invariant 3. GPIO 1 (ID_SC) is the
// single-board computer's HAT EEPROM clock line and is never available for
// general use.
var reservedPins = map[int]bool{
	1: true,
}

const (
	minPin = 0
	maxPin = 27
)

// Driver is a digital output line controlling an external actuator.
type Driver struct {
	Label          string `json:"label"`
	ActuateLabel   string `json:"actuate_label"`
	DeactuateLabel string `json:"deactuate_label"`
	Pin            int    `json:"pin"`
	Protected      bool   `json:"protected"`
}

// Sensor is a single calibrated analog channel within a SensorGroup.
type Sensor struct {
	Label               string   `json:"label"`
	Color               string   `json:"color,omitempty"`
	Units               string   `json:"units"`
	Range               *[2]float64 `json:"range,omitempty"`
	CalibrationSlope    float64  `json:"calibration_slope"`
	CalibrationIntercept float64 `json:"calibration_intercept"`
	RollingAverageWidth uint32   `json:"rolling_average_width,omitempty"`
	ADC                 int      `json:"adc"`
	Channel             int      `json:"channel"`
}

// Window returns the sensor's configured rolling-average width, defaulting
// to 1 when unset (spec §3).
func (s Sensor) Window() uint32 {
	if s.RollingAverageWidth == 0 {
		return 1
	}
	return s.RollingAverageWidth
}

// SensorGroup is a set of sensors sampled together by one listener thread.
type SensorGroup struct {
	Label                 string   `json:"label"`
	FrequencyStandby      float64  `json:"frequency_standby"`
	FrequencyIgnition     float64  `json:"frequency_ignition"`
	FrequencyTransmission float64  `json:"frequency_transmission"`
	Sensors               []Sensor `json:"sensors"`
}

// Duration is a JSON-encodable {secs,nanos} duration, matching the wire
// format spec §6 prescribes for Sleep actions.
type Duration struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

// AsTime converts the duration to a time.Duration.
func (d Duration) AsTime() time.Duration {
	return time.Duration(d.Secs)*time.Second + time.Duration(d.Nanos)*time.Nanosecond
}

// ActionType discriminates the Action tagged union.
type ActionType string

// Action tag values.
const (
	ActionActuate ActionType = "Actuate"
	ActionSleep   ActionType = "Sleep"
)

// Action is one step of a scripted ignition or estop sequence: either
// Actuate{driver_id, value} or Sleep{duration}.
type Action struct {
	Type     ActionType
	DriverID int
	Value    bool
	Duration Duration
}

// actuateWire and sleepWire are the two wire shapes an Action discriminates
// between, per spec §3/§6.
type actuateWire struct {
	Type     ActionType `json:"type"`
	DriverID int        `json:"driver_id"`
	Value    bool       `json:"value"`
}

type sleepWire struct {
	Type     ActionType `json:"type"`
	Duration Duration   `json:"duration"`
}

// MarshalJSON implements json.Marshaler.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionActuate:
		return json.Marshal(actuateWire{Type: ActionActuate, DriverID: a.DriverID, Value: a.Value})
	case ActionSleep:
		return json.Marshal(sleepWire{Type: ActionSleep, Duration: a.Duration})
	default:
		return nil, fmt.Errorf("config: unknown action type %q", a.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Action) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag.Type {
	case ActionActuate:
		var w actuateWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*a = Action{Type: ActionActuate, DriverID: w.DriverID, Value: w.Value}
	case ActionSleep:
		var w sleepWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*a = Action{Type: ActionSleep, Duration: w.Duration}
	default:
		return fmt.Errorf("config: unknown action type %q", tag.Type)
	}
	return nil
}

// Configuration is the controller's complete, immutable runtime
// configuration.
type Configuration struct {
	FrequencyStatus float64       `json:"frequency_status"`
	LogBufferSize   int           `json:"log_buffer_size"`
	SPIMosi         int           `json:"spi_mosi"`
	SPIMiso         int           `json:"spi_miso"`
	SPIClk          int           `json:"spi_clk"`
	SPIFrequencyClk int           `json:"spi_frequency_clk"`
	ADCCS           []int         `json:"adc_cs"`
	PinHeartbeat    int           `json:"pin_heartbeat"`
	PreIgniteTimeMs uint64        `json:"pre_ignite_time_ms"`
	PostIgniteTimeMs uint64       `json:"post_ignite_time_ms"`
	Drivers         []Driver      `json:"drivers"`
	SensorGroups    []SensorGroup `json:"sensor_groups"`
	IgnitionSequence []Action     `json:"ignition_sequence"`
	EstopSequence    []Action     `json:"estop_sequence"`
}

// PreIgniteTime returns the configured pre-ignition hold as a time.Duration.
func (c *Configuration) PreIgniteTime() time.Duration {
	return time.Duration(c.PreIgniteTimeMs) * time.Millisecond
}

// PostIgniteTime returns the configured post-ignition hold as a
// time.Duration.
func (c *Configuration) PostIgniteTime() time.Duration {
	return time.Duration(c.PostIgniteTimeMs) * time.Millisecond
}

// Parse decodes and validates a Configuration from r.
func Parse(r io.Reader) (*Configuration, error) {
	var cfg Configuration
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, &malformed{fmt.Sprintf("invalid json: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and validates a Configuration from the file at path.
func Load(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &malformed{fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	defer f.Close()
	return Parse(f)
}

type malformed struct{ cause string }

func (e *malformed) Error() string { return fmt.Sprintf("malformed configuration: %s", e.cause) }

// Cause returns the human-readable cause, for callers that want to wrap this
// into slonkerr.MalformedConfig without an import cycle.
func (e *malformed) Cause() string { return e.cause }
