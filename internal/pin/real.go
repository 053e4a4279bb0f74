// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pin

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"

	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// RealLine is a Line backed by an actual single-board computer GPIO,
// resolved through periph's gpioreg by its BCM number. This is the same
// shape as the teacher's syncPin implementing gpio.PinIO, inverted: here we
// adapt a real gpio.PinIO down to our minimal Line capability.
type RealLine struct {
	p      gpio.PinIO
	output bool
}

// NewRealOutput resolves the GPIO pin numbered num and configures it as a
// digital output, initially low.
func NewRealOutput(num int) (*RealLine, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", num))
	if p == nil {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf("no such gpio pin GPIO%d", num)}
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf("configure GPIO%d as output: %v", num, err)}
	}
	return &RealLine{p: p, output: true}, nil
}

// NewRealInput resolves the GPIO pin numbered num and configures it as a
// pulled-up digital input.
func NewRealInput(num int) (*RealLine, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", num))
	if p == nil {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf("no such gpio pin GPIO%d", num)}
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, &slonkerr.Hardware{Message: fmt.Sprintf("configure GPIO%d as input: %v", num, err)}
	}
	return &RealLine{p: p, output: false}, nil
}

// Read implements Line.
func (r *RealLine) Read() (bool, error) {
	return r.p.Read() == gpio.High, nil
}

// Write implements Line.
func (r *RealLine) Write(level bool) error {
	if !r.output {
		return &slonkerr.Hardware{Message: fmt.Sprintf("%s is not configured as an output", r.p)}
	}
	l := gpio.Low
	if level {
		l = gpio.High
	}
	if err := r.p.Out(l); err != nil {
		return &slonkerr.Hardware{Message: fmt.Sprintf("write %s: %v", r.p, err)}
	}
	return nil
}
