// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package server

import (
	"testing"
	"time"

	"github.com/rice-eclipse/slonk/internal/pin"
	"github.com/rice-eclipse/slonk/internal/state"
)

func TestHeartbeatTogglesUntilQuit(t *testing.T) {
	line := pin.NewDummy(false)
	guard := state.New(state.Standby)

	done := make(chan error, 1)
	go func() { done <- heartbeat(line, guard) }()

	time.Sleep(120 * time.Millisecond)
	if err := guard.MoveTo(state.Quit); err != nil {
		t.Fatalf("MoveTo(Quit) error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("heartbeat() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat() did not exit after Quit")
	}

	history := line.History()
	if len(history) < 3 {
		t.Fatalf("history = %v, want at least 3 entries", history)
	}
	// After the seed value, every toggle alternates true/false.
	for i := 2; i < len(history); i++ {
		if history[i] == history[i-1] {
			t.Errorf("history[%d] = %v, want alternation with history[%d] = %v", i, history[i], i-1, history[i-1])
		}
	}
}
