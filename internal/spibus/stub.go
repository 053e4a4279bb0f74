// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

// Stub is a Device double that returns a fixed sequence of incoming bytes
// regardless of what is sent, for exercising mcp3208.Reader without real
// hardware.
type Stub struct {
	// Incoming is the full byte sequence MISO will yield across successive
	// Transfer calls, one call consuming len(in) bytes from the front.
	Incoming []byte
	Sent     [][]byte
}

// Transfer implements the same shape as Device.Transfer.
func (s *Stub) Transfer(out, in []byte) error {
	cp := make([]byte, len(out))
	copy(cp, out)
	s.Sent = append(s.Sent, cp)

	for i := range in {
		if len(s.Incoming) == 0 {
			in[i] = 0
			continue
		}
		in[i] = s.Incoming[0]
		s.Incoming = s.Incoming[1:]
	}
	return nil
}
