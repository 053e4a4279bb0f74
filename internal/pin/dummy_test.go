// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pin

import (
	"reflect"
	"testing"
)

func TestDummyRecordsHistory(t *testing.T) {
	d := NewDummy(false)
	if err := d.Write(true); err != nil {
		t.Fatalf("Write(true) error = %v", err)
	}
	if err := d.Write(false); err != nil {
		t.Fatalf("Write(false) error = %v", err)
	}

	got, err := d.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != false {
		t.Errorf("Read() = %v, want false", got)
	}

	want := []bool{false, true, false}
	if !reflect.DeepEqual(d.History(), want) {
		t.Errorf("History() = %v, want %v", d.History(), want)
	}
}
