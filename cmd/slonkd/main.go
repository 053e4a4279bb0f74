// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command slonkd runs the slonk rocket engine ground controller.
//
// Usage:
//
//	slonkd <config.json> <logs_dir>
//
// The first argument is the path to a JSON configuration file (spec §3,
// §6). The second is a directory where log files will be created; it is
// created if it does not already exist. Extra arguments are ignored with a
// warning once the console log is available.
package main

import (
	"context"
	"fmt"
	"os"

	"periph.io/x/periph/host"

	"github.com/rice-eclipse/slonk/internal/config"
	"github.com/rice-eclipse/slonk/internal/hardware"
	"github.com/rice-eclipse/slonk/internal/server"
	"github.com/rice-eclipse/slonk/internal/slonkerr"
)

// parseArgs extracts the config path and logs directory from the
// executable's positional arguments (excluding argv[0]), per spec §6's
// fixed two-positional shape.
func parseArgs(args []string) (jsonPath, logsDir string, extra bool, err error) {
	if len(args) < 2 {
		return "", "", false, &slonkerr.Args{Message: "usage: slonkd <config.json> <logs_dir>"}
	}
	return args[0], args[1], len(args) > 2, nil
}

func mainImpl() error {
	jsonPath, logsDir, extra, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(jsonPath)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return &slonkerr.Hardware{Message: fmt.Sprintf("initialize periph host: %v", err)}
	}

	srv, err := server.New(cfg, logsDir, hardware.Real)
	if err != nil {
		return err
	}
	defer srv.Close()

	if extra {
		srv.Warnf("more than two arguments given; ignoring extra arguments")
	}

	return srv.Run(context.Background())
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "slonkd: %s.\n", err)
		os.Exit(1)
	}
}
