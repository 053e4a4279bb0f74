// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package command

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/console"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
	"github.com/rice-eclipse/slonk/internal/state"
)

// Executor runs parsed Commands against the controller's hardware and state
// guard, logging every request and completion to the command log (spec
// §4.7). Grounded on original_source/src/execution.rs's handle_command,
// emergency_stop and actuate_driver, generalized to the full Ignition
// sequence the original left as a todo!().
type Executor struct {
	cfg    *config.Configuration
	hw     *hardware.Hardware
	guard  *state.Guard
	log    *console.Logger
	cmdLog io.Writer
}

// NewExecutor returns an Executor writing request/finish rows to cmdLog and
// warnings to log.
func NewExecutor(cfg *config.Configuration, hw *hardware.Hardware, guard *state.Guard, log *console.Logger, cmdLog io.Writer) *Executor {
	return &Executor{cfg: cfg, hw: hw, guard: guard, log: log, cmdLog: cmdLog}
}

// Execute dispatches cmd per spec §4.7: a request row is written first,
// then the command is run, then a finish row is written.
func (e *Executor) Execute(cmd Command) error {
	if err := e.logRow("request", cmd); err != nil {
		return err
	}

	var execErr error
	switch cmd.Type {
	case TypeActuate:
		execErr = e.Actuate(cmd.DriverID, cmd.Value)
	case TypeIgnition:
		execErr = e.Ignition()
	case TypeEmergencyStop:
		execErr = e.EmergencyStop()
	default:
		execErr = fmt.Errorf("command: unknown command type %q", cmd.Type)
	}

	if err := e.logRow("finish", cmd); err != nil {
		return err
	}
	return execErr
}

func (e *Executor) logRow(phase string, cmd Command) error {
	encoded, err := cmd.MarshalJSON()
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%d,%s,%s\n", time.Now().UnixNano(), phase, encoded)
	if _, err := io.WriteString(e.cmdLog, line); err != nil {
		return &slonkerr.Io{Kind: "command-log", Cause: err}
	}
	return nil
}

// Actuate sets driver driverID to level. Direct actuation of a driver
// flagged "protected" in configuration is refused, per DESIGN.md's
// resolution of spec §9's open question on the protected flag.
func (e *Executor) Actuate(driverID int, level bool) error {
	protected, err := e.hw.Drivers.IsProtected(driverID)
	if err != nil {
		return err
	}
	if protected {
		return &slonkerr.DriverOutOfBounds{DriverID: driverID}
	}
	return e.hw.Drivers.Write(driverID, level)
}

// Ignition runs the scripted pre-ignite/ignite/post-ignite/standby
// sequence. Any illegal transition aborts it immediately (spec §4.7, §9
// "ignition sequence preemption").
func (e *Executor) Ignition() error {
	if err := e.guard.MoveTo(state.PreIgnite); err != nil {
		return err
	}
	time.Sleep(e.cfg.PreIgniteTime())

	if err := e.guard.MoveTo(state.Ignite); err != nil {
		return err
	}
	e.runActions(e.cfg.IgnitionSequence)

	if err := e.guard.MoveTo(state.PostIgnite); err != nil {
		return err
	}
	time.Sleep(e.cfg.PostIgniteTime())

	return e.guard.MoveTo(state.Standby)
}

// EmergencyStop transitions to EStopping and runs the scripted estop
// sequence. If another task is already estopping, the IllegalTransition is
// swallowed as success and the sequence is NOT re-run (spec §5 "only the
// first to move_to(EStopping) runs the scripted sequence").
func (e *Executor) EmergencyStop() error {
	if err := e.guard.MoveTo(state.EStopping); err != nil {
		var illegal *slonkerr.IllegalTransition
		if errors.As(err, &illegal) && illegal.From == state.EStopping.String() {
			return nil
		}
		return err
	}

	e.runActions(e.cfg.EstopSequence)

	return e.guard.MoveTo(state.Standby)
}

// runActions executes a scripted action sequence in order. Individual
// Actuate failures are logged and do not stop subsequent actions (spec §5
// "emergency-stop concurrency").
func (e *Executor) runActions(actions []config.Action) {
	for _, a := range actions {
		switch a.Type {
		case config.ActionActuate:
			if err := e.hw.Drivers.Write(a.DriverID, a.Value); err != nil && e.log != nil {
				e.log.Warnf("command: action sequence actuate driver %d failed: %v", a.DriverID, err)
			}
		case config.ActionSleep:
			time.Sleep(a.Duration.AsTime())
		}
	}
}
