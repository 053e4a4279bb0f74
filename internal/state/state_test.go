// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package state

import (
	"errors"
	"testing"

	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

func TestIllegalTransitionFromStandby(t *testing.T) {
	g := New(Standby)
	err := g.MoveTo(Ignite)

	var ite *slonkerr.IllegalTransition
	if !errors.As(err, &ite) {
		t.Fatalf("MoveTo(Ignite) error = %v, want IllegalTransition", err)
	}
	if ite.From != "Standby" || ite.To != "Ignite" {
		t.Errorf("IllegalTransition = %+v, want from Standby to Ignite", ite)
	}
	if g.Status() != Standby {
		t.Errorf("Status() = %v, want Standby unchanged", g.Status())
	}
}

func TestFullIgnitionCycle(t *testing.T) {
	g := New(Standby)
	steps := []Status{PreIgnite, Ignite, PostIgnite, Standby}
	for _, s := range steps {
		if err := g.MoveTo(s); err != nil {
			t.Fatalf("MoveTo(%v) error = %v", s, err)
		}
	}
}

func TestEStopFromAnyNonQuitState(t *testing.T) {
	for _, start := range []Status{Standby, PreIgnite, Ignite, PostIgnite} {
		g := New(start)
		if err := g.MoveTo(EStopping); err != nil {
			t.Errorf("from %v: MoveTo(EStopping) error = %v", start, err)
		}
	}
}

func TestEStoppingIsDeduplicated(t *testing.T) {
	g := New(Standby)
	if err := g.MoveTo(EStopping); err != nil {
		t.Fatalf("first MoveTo(EStopping) error = %v", err)
	}
	err := g.MoveTo(EStopping)
	var ite *slonkerr.IllegalTransition
	if !errors.As(err, &ite) {
		t.Fatalf("second MoveTo(EStopping) error = %v, want IllegalTransition", err)
	}
}

func TestQuitOnlyFromStandby(t *testing.T) {
	g := New(Ignite)
	if err := g.MoveTo(Quit); err == nil {
		t.Fatal("expected IllegalTransition for Ignite -> Quit")
	}
	g2 := New(Standby)
	if err := g2.MoveTo(Quit); err != nil {
		t.Fatalf("Standby -> Quit error = %v", err)
	}
}
