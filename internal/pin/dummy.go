// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pin

import "sync"

// Dummy is an in-memory Line used by tests and the no-hardware dummy
// factory. It records every write into an ordered history and Read returns
// the last-written value, matching spec §4.2's test variant.
type Dummy struct {
	mu      sync.Mutex
	history []bool
	current bool
}

// NewDummy returns a Dummy initialized to level.
func NewDummy(level bool) *Dummy {
	return &Dummy{current: level, history: []bool{level}}
}

// Read implements Line. It returns the last-written value.
func (d *Dummy) Read() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

// Write implements Line. It appends level to the write history.
func (d *Dummy) Write(level bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = level
	d.history = append(d.history, level)
	return nil
}

// History returns a copy of every value ever written to this line, in
// write order, including the seed value passed to NewDummy.
func (d *Dummy) History() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]bool, len(d.history))
	copy(out, d.history)
	return out
}
