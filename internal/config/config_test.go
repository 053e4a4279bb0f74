// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const fullConfigJSON = `{
	"frequency_status": 10,
	"log_buffer_size": 50,
	"sensor_groups": [
		{
			"label": "FAST",
			"frequency_standby": 10,
			"frequency_ignition": 1000,
			"frequency_transmission": 10,
			"sensors": [
				{
					"label": "LC_MAIN",
					"units": "lb",
					"calibration_intercept": 0.34,
					"calibration_slope": 33.2,
					"rolling_average_width": 5,
					"adc": 0,
					"channel": 0
				},
				{
					"label": "PT_FEED",
					"units": "psi",
					"range": [-500, 3000],
					"calibration_intercept": 92.3,
					"calibration_slope": -302.4,
					"rolling_average_width": 4,
					"adc": 0,
					"channel": 1
				}
			]
		}
	],
	"drivers": [
		{
			"label": "OXI_FILL",
			"actuate_label": "OPEN",
			"deactuate_label": "CLOSE",
			"pin": 22,
			"protected": false
		}
	],
	"ignition_sequence": [
		{"type": "Actuate", "driver_id": 0, "value": true},
		{"type": "Sleep", "duration": {"secs": 10, "nanos": 0}},
		{"type": "Actuate", "driver_id": 0, "value": false}
	],
	"estop_sequence": [
		{"type": "Actuate", "driver_id": 0, "value": false}
	],
	"spi_mosi": 26,
	"spi_miso": 25,
	"spi_clk": 24,
	"spi_frequency_clk": 50000,
	"adc_cs": [20],
	"pin_heartbeat": 0,
	"pre_ignite_time_ms": 500,
	"post_ignite_time_ms": 500
}`

func TestFullConfig(t *testing.T) {
	cfg, err := Parse(strings.NewReader(fullConfigJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.SPIFrequencyClk != 50000 {
		t.Errorf("SPIFrequencyClk = %d, want 50000", cfg.SPIFrequencyClk)
	}
	if len(cfg.IgnitionSequence) != 3 {
		t.Fatalf("len(IgnitionSequence) = %d, want 3", len(cfg.IgnitionSequence))
	}
	last := cfg.IgnitionSequence[2]
	if last.Type != ActionActuate || last.DriverID != 0 || last.Value != false {
		t.Errorf("last ignition action = %+v, want Actuate{driver_id:0,value:false}", last)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg, err := Parse(strings.NewReader(fullConfigJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	cfg2, err := Parse(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}

	reencoded, err := json.Marshal(cfg2)
	if err != nil {
		t.Fatalf("re-Marshal() error = %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("round-trip mismatch:\n%s\nvs\n%s", encoded, reencoded)
	}
}

func TestValidateRejectsSlowClock(t *testing.T) {
	cfg := &Configuration{SPIFrequencyClk: 5000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for clock below minimum")
	}
}

func TestValidateRejectsBadChannel(t *testing.T) {
	cfg := &Configuration{
		SPIFrequencyClk: 50000,
		SPIMosi:         10, SPIMiso: 11, SPIClk: 12,
		ADCCS: []int{20},
		SensorGroups: []SensorGroup{{
			Sensors: []Sensor{{ADC: 0, Channel: 9}},
		}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range channel")
	}
}

func TestValidateRejectsDuplicatePin(t *testing.T) {
	cfg := &Configuration{
		SPIFrequencyClk: 50000,
		SPIMosi:         10, SPIMiso: 11, SPIClk: 10,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate pin")
	}
}
