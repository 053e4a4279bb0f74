// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package command defines the controller's incoming command type and the
// brace-depth parser that extracts one at a time from the dashboard's TCP
// stream (spec §4.8), grounded on
// original_source/src/incoming.rs's Command::parse, re-targeted at spec.md's
// wire schema.
package command

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// Type discriminates the Command tagged union.
type Type string

// Command tag values (spec §6).
const (
	TypeActuate       Type = "Actuate"
	TypeIgnition      Type = "Ignition"
	TypeEmergencyStop Type = "EmergencyStop"
)

// Command is one parsed request from the dashboard.
type Command struct {
	Type     Type
	DriverID int
	Value    bool
}

// actuateWire is the wire shape of an Actuate command.
type actuateWire struct {
	Type     Type `json:"type"`
	DriverID int  `json:"driver_id"`
	Value    bool `json:"value"`
}

// tagOnlyWire is the wire shape of Ignition and EmergencyStop, which carry
// no payload beyond their tag.
type tagOnlyWire struct {
	Type Type `json:"type"`
}

// MarshalJSON implements json.Marshaler, used both for the TCP wire format
// and for rendering a command into the command log (spec §6's
// "<command-string>").
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case TypeActuate:
		return json.Marshal(actuateWire{Type: TypeActuate, DriverID: c.DriverID, Value: c.Value})
	case TypeIgnition, TypeEmergencyStop:
		return json.Marshal(tagOnlyWire{Type: c.Type})
	default:
		return nil, fmt.Errorf("command: unknown command type %q", c.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Command) UnmarshalJSON(data []byte) error {
	var tag tagOnlyWire
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag.Type {
	case TypeActuate:
		var w actuateWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*c = Command{Type: TypeActuate, DriverID: w.DriverID, Value: w.Value}
	case TypeIgnition:
		*c = Command{Type: TypeIgnition}
	case TypeEmergencyStop:
		*c = Command{Type: TypeEmergencyStop}
	default:
		return fmt.Errorf("command: unknown command type %q", tag.Type)
	}
	return nil
}

// Parse reads one top-level JSON object from r by tracking brace depth with
// string-literal and backslash-escape awareness, then decodes it as a
// Command. It does not require newline-delimited input: the dashboard's
// outgoing stream is a bare concatenation of JSON objects (spec §6).
func Parse(r *bufio.Reader) (Command, error) {
	var buffer []byte
	depth := 0
	inString := false
	escaped := false

	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return Command{}, &slonkerr.SourceClosed{}
		}
		if err != nil {
			return Command{}, &slonkerr.Io{Kind: "command-stream", Cause: err}
		}
		buffer = append(buffer, b)

		switch b {
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				if depth == 0 {
					return Command{}, &slonkerr.MalformedCommand{Bytes: buffer, Cause: "unbalanced closing brace"}
				}
				depth--
				if depth == 0 {
					goto decode
				}
			}
		case '"':
			if !escaped {
				inString = !inString
			}
		}
		escaped = b == '\\' && !escaped
	}

decode:
	var cmd Command
	if err := json.Unmarshal(buffer, &cmd); err != nil {
		return Command{}, &slonkerr.MalformedCommand{Bytes: buffer, Cause: err.Error()}
	}
	return cmd, nil
}
