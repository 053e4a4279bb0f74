// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package state implements the controller's single synchronization point for
// operating mode: the state guard of spec §4.1.
package state

import (
	"sync"

	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// Status is one of the controller's operating modes.
type Status int

// The full set of operating modes (spec §3).
const (
	Standby Status = iota
	PreIgnite
	Ignite
	PostIgnite
	EStopping
	Quit
)

func (s Status) String() string {
	switch s {
	case Standby:
		return "Standby"
	case PreIgnite:
		return "PreIgnite"
	case Ignite:
		return "Ignite"
	case PostIgnite:
		return "PostIgnite"
	case EStopping:
		return "EStopping"
	case Quit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Guard owns the current operating mode and enforces the legal transition
// graph of spec §3 invariant 1. It holds no other state and is the single
// synchronization point for mode.
type Guard struct {
	mu    sync.RWMutex
	state Status
}

// New returns a Guard initialized to state.
func New(initial Status) *Guard {
	return &Guard{state: initial}
}

// Status returns the current state. Non-blocking with respect to other
// readers.
func (g *Guard) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// legal reports whether the transition from -> to is present in the state
// graph of spec §3 invariant 1:
//
//	Standby -> PreIgnite -> Ignite -> PostIgnite -> Standby
//	Standby -> Quit
//	any non-Quit, non-EStopping state -> EStopping -> Standby
//
// EStopping -> EStopping is deliberately NOT legal: a second concurrent
// estop initiator must observe IllegalTransition and treat it as success
// (spec §4.1, §5), so the transition is rejected rather than a no-op accept.
func legal(from, to Status) bool {
	switch to {
	case PreIgnite, Quit:
		return from == Standby
	case Ignite:
		return from == PreIgnite
	case PostIgnite:
		return from == Ignite
	case Standby:
		return from == EStopping || from == PostIgnite
	case EStopping:
		return from != Quit && from != EStopping
	default:
		return false
	}
}

// MoveTo atomically tests the current state against the legal transition
// table and either installs target or rejects with IllegalTransition.
//
// Callers must treat IllegalTransition as informative, not fatal: in
// particular, an emergency-stop initiator that observes an
// EStopping -> EStopping rejection should proceed as if it had succeeded,
// since another thread is already handling the stop.
func (g *Guard) MoveTo(target Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	from := g.state
	if !legal(from, target) {
		return &slonkerr.IllegalTransition{From: from.String(), To: target.String()}
	}
	g.state = target
	return nil
}
