// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package server

import (
	"time"

	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/state"
)

// heartbeat toggles line in the fixed true/false/true/false pattern of spec
// §4.9's supplemented heartbeat task, until the controller reaches Quit.
// Grounded on original_source/src/heartbeat.rs's heartbeat.
func heartbeat(line pin.Line, guard *state.Guard) error {
	for guard.Status() != state.Quit {
		if err := line.Write(true); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)

		if err := line.Write(false); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)

		if err := line.Write(true); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)

		if err := line.Write(false); err != nil {
			return err
		}
		time.Sleep(850 * time.Millisecond)
	}
	return nil
}
