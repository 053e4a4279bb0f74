// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package slonkerr defines the controller's closed error taxonomy.
//
// Every kind named in the design's error handling section has a matching
// type here so callers can dispatch on it with errors.As instead of string
// matching.
package slonkerr

import "fmt"

// Poison reports that a shared lock was left in an invalid state by a
// panicked holder. Always fatal at the point it surfaces.
type Poison struct {
	Resource string
}

func (e *Poison) Error() string {
	return fmt.Sprintf("slonk: lock poisoned on %s", e.Resource)
}

// MalformedConfig reports a configuration that failed schema or validation
// rules.
type MalformedConfig struct {
	Cause string
}

func (e *MalformedConfig) Error() string {
	return fmt.Sprintf("slonk: malformed configuration: %s", e.Cause)
}

// MalformedCommand reports a received command object that could not be
// decoded. The offending bytes are retained for diagnostics.
type MalformedCommand struct {
	Bytes []byte
	Cause string
}

func (e *MalformedCommand) Error() string {
	return fmt.Sprintf("slonk: malformed command (%s): %q", e.Cause, e.Bytes)
}

// SourceClosed reports that the incoming command stream ended before a full
// JSON object was read.
type SourceClosed struct{}

func (e *SourceClosed) Error() string {
	return "slonk: command source closed"
}

// IllegalTransition reports a move_to that is not present in the state
// graph.
type IllegalTransition struct {
	From, To string
}

func (e *IllegalTransition) Error() string {
	return fmt.Sprintf("slonk: illegal transition from %s to %s", e.From, e.To)
}

// DriverOutOfBounds reports a command that referenced a driver index beyond
// the configured list, or a protected driver rejected for direct
// actuation.
type DriverOutOfBounds struct {
	DriverID int
}

func (e *DriverOutOfBounds) Error() string {
	return fmt.Sprintf("slonk: driver %d out of bounds or protected", e.DriverID)
}

// Hardware reports a low-level GPIO/SPI error, including ADC null-bit
// validation failure. Never fatal by itself.
type Hardware struct {
	Message string
}

func (e *Hardware) Error() string {
	return fmt.Sprintf("slonk: hardware error: %s", e.Message)
}

// Io reports a file or TCP write failure.
type Io struct {
	Kind  string
	Cause error
}

func (e *Io) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("slonk: io error (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("slonk: io error (%s)", e.Kind)
}

func (e *Io) Unwrap() error {
	return e.Cause
}

// Args reports a missing or invalid command-line argument.
type Args struct {
	Message string
}

func (e *Args) Error() string {
	return fmt.Sprintf("slonk: %s", e.Message)
}
