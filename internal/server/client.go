// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"

	"github.com/rice-eclipse/slonk/internal/command"
	"github.com/rice-eclipse/slonk/internal/console"
	"github.com/rice-eclipse/slonk/internal/dashboard"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// handleClient owns one connected dashboard client for the duration of its
// connection: it installs conn as the live telemetry target, sends the
// current configuration, and dispatches parsed commands until the client
// disconnects or a fatal I/O error occurs (spec §4.9's per-client loop,
// grounded on original_source/src/server.rs's handle_client).
func handleClient(conn net.Conn, dash *dashboard.Channel, exec *command.Executor, log *console.Logger, cfg json.Marshaler) error {
	defer conn.Close()
	dash.SetChannel(conn)

	if err := dash.Send(cfg); err != nil {
		log.Warnf("server: send initial config to %s: %v", conn.RemoteAddr(), err)
	}

	r := bufio.NewReader(conn)
	for {
		cmd, err := command.Parse(r)
		if err != nil {
			var closed *slonkerr.SourceClosed
			var malformed *slonkerr.MalformedCommand
			switch {
			case errors.As(err, &closed):
				log.Infof("server: dashboard %s disconnected", conn.RemoteAddr())
				return nil
			case errors.As(err, &malformed):
				log.Warnf("server: received invalid command from %s: %v", conn.RemoteAddr(), err)
				continue
			default:
				log.Warnf("server: i/o error reading from %s: %v", conn.RemoteAddr(), err)
				return err
			}
		}

		switch cmd.Type {
		case command.TypeIgnition, command.TypeEmergencyStop:
			// Spawned so the reader stays responsive: an Ignition sequence runs
			// for multiple seconds, and a dashboard-issued EmergencyStop sent
			// during it must be read and dispatched immediately rather than
			// queued behind it (spec §4.7).
			go func(cmd command.Command) {
				if err := exec.Execute(cmd); err != nil {
					log.Warnf("server: command %+v failed: %v", cmd, err)
				}
			}(cmd)
		default:
			if err := exec.Execute(cmd); err != nil {
				log.Warnf("server: command %+v failed: %v", cmd, err)
			}
		}
	}
}
