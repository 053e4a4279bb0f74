// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package server wires every other package into the running controller
// process: hardware acquisition, log file creation, the sensor/driver
// listener and heartbeat goroutines, and the TCP dashboard accept loop
// (spec §4.9). Grounded on original_source/src/server.rs's run/handle_client,
// generalized from its generic MakeHardware dependency-injection trait to
// Go's hardware.Real/hardware.Dummy factory functions.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rice-eclipse/slonk/internal/command"
	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/console"
	"github.com/rice-eclipse/slonk/internal/dashboard"
	"github.com/rice-eclipse/slonk/internal/driverloop"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/sensorloop"
	"github.com/rice-eclipse/slonk/internal/state"
)

// ListenAddress is the fixed TCP address the dashboard accept loop binds to
// (spec §4.4, §6).
const ListenAddress = "0.0.0.0:2707"

// HardwareFactory constructs a Hardware from configuration: hardware.Real
// for production, hardware.Dummy for offline operation.
type HardwareFactory func(cfg *config.Configuration) (*hardware.Hardware, error)

// Server holds every long-lived handle the running controller needs.
type Server struct {
	cfg   *config.Configuration
	hw    *hardware.Hardware
	guard *state.Guard
	log   *console.Logger
	dash  *dashboard.Channel
	exec  *command.Executor
	files *logFiles
}

// New acquires hardware via makeHardware, creates every log file under
// logsDir (spec §6's layout), and returns an assembled Server ready to Run.
func New(cfg *config.Configuration, logsDir string, makeHardware HardwareFactory) (*Server, error) {
	files, err := createLogFiles(logsDir, cfg)
	if err != nil {
		return nil, err
	}

	log := console.New(files.console)
	log.Debugf("server: parsed configuration, now acquiring hardware")

	hw, err := makeHardware(cfg)
	if err != nil {
		files.Close()
		return nil, err
	}
	log.Debugf("server: successfully acquired hardware")

	guard := state.New(state.Standby)
	dash := dashboard.New(files.sent)
	exec := command.NewExecutor(cfg, hw, guard, log, files.command)

	return &Server{
		cfg:   cfg,
		hw:    hw,
		guard: guard,
		log:   log,
		dash:  dash,
		exec:  exec,
		files: files,
	}, nil
}

// Close releases every open log file handle.
func (s *Server) Close() {
	s.files.Close()
}

// Warnf logs a warning line to the console log, for conditions a caller
// (e.g. cmd/slonkd) detects before Run is called.
func (s *Server) Warnf(format string, args ...any) {
	s.log.Warnf(format, args...)
}

// Run spawns every sensor group listener, the driver status listener and
// the heartbeat task under one errgroup, then accepts dashboard clients
// one at a time until the controller reaches Quit (which closes the
// listener and any connected client) or a sibling goroutine's
// unrecoverable error cancels the group's context (spec §4.9, §5's
// "structured thread scope...joins them before the program exits").
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for groupID := range s.cfg.SensorGroups {
		groupID := groupID
		logs := make([]io.Writer, len(s.files.sensors[groupID]))
		for i, f := range s.files.sensors[groupID] {
			logs[i] = f
		}
		listener := sensorloop.New(groupID, s.cfg, s.hw, s.guard, s.dash, s.exec, logs, s.log)
		group.Go(listener.Run)
	}

	driverListener := driverloop.New(s.cfg, s.hw, s.guard, s.dash, s.files.drivers, s.log)
	group.Go(driverListener.Run)

	group.Go(func() error { return heartbeat(s.hw.Heartbeat, s.guard) })

	listener, err := net.Listen("tcp", ListenAddress)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", ListenAddress, err)
	}
	s.log.Infof("server: listening on %s", ListenAddress)

	// Closes the accept loop's listener once either the controller reaches
	// Quit or a sibling goroutine's error cancels the group's context.
	group.Go(func() error {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return listener.Close()
			case <-ticker.C:
				if s.guard.Status() == state.Quit {
					return listener.Close()
				}
			}
		}
	})

	group.Go(func() error {
		return s.acceptLoop(listener)
	})

	return group.Wait()
}

// acceptLoop accepts dashboard clients one at a time, per spec §4.4's
// single-live-client model: a new connection simply replaces whatever
// client was previously installed on the dashboard channel.
func (s *Server) acceptLoop(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.guard.Status() == state.Quit {
				return nil
			}
			return err
		}
		s.log.Infof("server: accepted client %s", conn.RemoteAddr())

		cfgMsg := dashboard.ConfigMessage{Config: s.cfg}
		// Closes the client connection on Quit so a connected dashboard does
		// not keep Run from returning.
		clientDone := make(chan struct{})
		go func() {
			for s.guard.Status() != state.Quit {
				select {
				case <-clientDone:
					return
				case <-time.After(20 * time.Millisecond):
				}
			}
			_ = conn.Close()
		}()
		err = handleClient(conn, s.dash, s.exec, s.log, cfgMsg)
		close(clientDone)
		if err != nil {
			s.log.Warnf("server: client %s: %v", conn.RemoteAddr(), err)
		}
	}
}
