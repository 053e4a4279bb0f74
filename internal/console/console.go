// Copyright 2024 The Slonk Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package console implements the controller's human-readable event log: one
// line per user-facing event, mirrored to the terminal with an ANSI color
// per level and appended uncolored to console.txt.
package console

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"sync"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Level is the severity of a console line.
type Level int

// Severity levels, in increasing order.
const (
	Debug Level = iota
	Info
	Warn
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// tone is the RGB color blended into the level tag, the same way the
// teacher's screen.Dev blends LED pixel colors into terminal blocks.
func (l Level) tone() color.NRGBA {
	switch l {
	case Debug:
		return color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	case Info:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	case Warn:
		return color.NRGBA{R: 235, G: 200, B: 40, A: 255}
	case Critical:
		return color.NRGBA{R: 220, G: 40, B: 40, A: 255}
	default:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
}

// Logger writes console lines to console.txt and mirrors them, colored, to
// the terminal. It is safe for concurrent use by every listener/executor
// goroutine in the process.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// New returns a Logger writing to file, which the caller must have created
// fresh (see server.createLogFiles).
func New(file *os.File) *Logger {
	return &Logger{
		file:   file,
		stdout: colorable.NewColorableStdout(),
		stderr: colorable.NewColorableStderr(),
		now:    time.Now,
	}
}

// Log appends one line at the given level. Critical lines are mirrored to
// stderr in addition to stdout, per the controller's log layout.
func (l *Logger) Log(level Level, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	ts := l.now().UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()

	plain := fmt.Sprintf("[%d] [%s] %s\n", ts, level, text)
	if l.file != nil {
		_, _ = l.file.WriteString(plain)
	}

	tag := ansi256.Default.Block(level.tone()) + fmt.Sprintf(" %-8s \033[0m", level)
	colored := fmt.Sprintf("[%d] %s %s\n", ts, tag, text)
	_, _ = io.WriteString(l.stdout, colored)
	if level == Critical {
		_, _ = io.WriteString(l.stderr, colored)
	}
}

// Debugf logs at Debug level.
func (l *Logger) Debugf(format string, args ...any) { l.Log(Debug, format, args...) }

// Infof logs at Info level.
func (l *Logger) Infof(format string, args ...any) { l.Log(Info, format, args...) }

// Warnf logs at Warn level.
func (l *Logger) Warnf(format string, args ...any) { l.Log(Warn, format, args...) }

// Criticalf logs at Critical level.
func (l *Logger) Criticalf(format string, args ...any) { l.Log(Critical, format, args...) }
