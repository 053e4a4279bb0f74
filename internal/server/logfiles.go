// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package server

import (
	"os"
	"path/filepath"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// logFiles holds every open file handle the server writes to, laid out per
// spec §6: console.txt, commands.csv, drivers.csv, sent.csv, and one
// <group_label>/<sensor_label>.csv per configured sensor.
type logFiles struct {
	console *os.File
	command *os.File
	drivers *os.File
	sent    *os.File
	sensors [][]*os.File // parallel to cfg.SensorGroups[*].Sensors
}

// createFreshFile opens path for append, refusing to overwrite an existing
// file (spec §6: "refusing to overwrite existing files").
func createFreshFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, &slonkerr.Io{Kind: "log-create", Cause: err}
	}
	return f, nil
}

// createLogFiles creates logsDir (and any sensor-group subdirectories) and
// every mandatory log file within it.
func createLogFiles(logsDir string, cfg *config.Configuration) (*logFiles, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, &slonkerr.Io{Kind: "logs-dir", Cause: err}
	}

	console, err := createFreshFile(filepath.Join(logsDir, "console.txt"))
	if err != nil {
		return nil, err
	}
	command, err := createFreshFile(filepath.Join(logsDir, "commands.csv"))
	if err != nil {
		return nil, err
	}
	drivers, err := createFreshFile(filepath.Join(logsDir, "drivers.csv"))
	if err != nil {
		return nil, err
	}
	sent, err := createFreshFile(filepath.Join(logsDir, "sent.csv"))
	if err != nil {
		return nil, err
	}

	sensors := make([][]*os.File, len(cfg.SensorGroups))
	for i, group := range cfg.SensorGroups {
		groupDir := filepath.Join(logsDir, group.Label)
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return nil, &slonkerr.Io{Kind: "sensor-group-dir", Cause: err}
		}
		files := make([]*os.File, len(group.Sensors))
		for j, sensor := range group.Sensors {
			f, err := createFreshFile(filepath.Join(groupDir, sensor.Label+".csv"))
			if err != nil {
				return nil, err
			}
			files[j] = f
		}
		sensors[i] = files
	}

	return &logFiles{
		console: console,
		command: command,
		drivers: drivers,
		sent:    sent,
		sensors: sensors,
	}, nil
}

// Close closes every open file handle, best-effort.
func (l *logFiles) Close() {
	_ = l.console.Close()
	_ = l.command.Close()
	_ = l.drivers.Close()
	_ = l.sent.Close()
	for _, group := range l.sensors {
		for _, f := range group {
			_ = f.Close()
		}
	}
}
