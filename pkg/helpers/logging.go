// PicoPlot Core
// Copyright (c) 2026 The PicoPlot Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of PicoPlot Core.
//
// PicoPlot Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PicoPlot Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PicoPlot Core.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var baseLogWriter io.Writer

// EnsureDirectories creates the platform's config, data and log directories
// if they don't already exist.
func EnsureDirectories(pl platforms.Platform) error {
	for _, dir := range []string{ConfigDir(pl), DataDir(pl), LogDir(pl)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// InitLogging sets up the global zerolog logger with a rotating file in the
// platform log dir, joined with any extra writers (e.g. stderr in foreground
// mode).
func InitLogging(pl platforms.Platform, writers []io.Writer) error {
	err := os.MkdirAll(LogDir(pl), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(LogDir(pl), config.LogFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}

	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	baseLogWriter = io.MultiWriter(logWriters...)

	log.Logger = log.Output(baseLogWriter).
		With().Timestamp().Caller().Logger()

	return nil
}

// LogWriter returns the writer InitLogging configured, so additional log
// sinks can be layered on without losing the file output.
func LogWriter() io.Writer {
	if baseLogWriter == nil {
		return os.Stderr
	}
	return baseLogWriter
}
