// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import "fmt"

// Validate enforces spec §3's invariants 2–4 and the pin rules of §6. It
// returns a *malformed error describing the first violation found.
func (c *Configuration) Validate() error {
	if c.SPIFrequencyClk < MinSPIFrequencyHz {
		return &malformed{fmt.Sprintf("spi_frequency_clk %d is below the minimum %d Hz required by the ADC", c.SPIFrequencyClk, MinSPIFrequencyHz)}
	}

	used := map[int]string{}
	claim := func(pin int, owner string) error {
		if reservedPins[pin] || pin < minPin || pin > maxPin {
			return &malformed{fmt.Sprintf("pin %d (%s) is reserved", pin, owner)}
		}
		if prev, ok := used[pin]; ok {
			return &malformed{fmt.Sprintf("pin %d used by both %s and %s", pin, prev, owner)}
		}
		used[pin] = owner
		return nil
	}

	if err := claim(c.SPIMosi, "spi_mosi"); err != nil {
		return err
	}
	if err := claim(c.SPIMiso, "spi_miso"); err != nil {
		return err
	}
	if err := claim(c.SPIClk, "spi_clk"); err != nil {
		return err
	}
	if err := claim(c.PinHeartbeat, "pin_heartbeat"); err != nil {
		return err
	}
	for i, cs := range c.ADCCS {
		if err := claim(cs, fmt.Sprintf("adc_cs[%d]", i)); err != nil {
			return err
		}
	}
	for i, d := range c.Drivers {
		if err := claim(d.Pin, fmt.Sprintf("drivers[%d] (%s)", i, d.Label)); err != nil {
			return err
		}
	}

	for gi, group := range c.SensorGroups {
		for si, sensor := range group.Sensors {
			if sensor.ADC < 0 || sensor.ADC >= len(c.ADCCS) {
				return &malformed{fmt.Sprintf("sensor_groups[%d].sensors[%d] (%s) references nonexistent adc %d", gi, si, sensor.Label, sensor.ADC)}
			}
			if sensor.Channel < MinADCChannel || sensor.Channel > MaxADCChannel {
				return &malformed{fmt.Sprintf("sensor_groups[%d].sensors[%d] (%s) channel %d out of range 0..=7", gi, si, sensor.Label, sensor.Channel)}
			}
		}
	}

	checkActions := func(seqName string, actions []Action) error {
		for i, a := range actions {
			if a.Type == ActionActuate && (a.DriverID < 0 || a.DriverID >= len(c.Drivers)) {
				return &malformed{fmt.Sprintf("%s[%d] references nonexistent driver %d", seqName, i, a.DriverID)}
			}
		}
		return nil
	}
	if err := checkActions("ignition_sequence", c.IgnitionSequence); err != nil {
		return err
	}
	if err := checkActions("estop_sequence", c.EstopSequence); err != nil {
		return err
	}

	return nil
}
