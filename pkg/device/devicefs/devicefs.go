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

package devicefs

import (
	"errors"
	"fmt"

	"github.com/PicoPlotProject/picoplot-core/pkg/assets"
	"github.com/PicoPlotProject/picoplot-core/pkg/device"
	"github.com/rs/zerolog/log"
)

var (
	// ErrDeviceBusy means the device did not acknowledge or complete the
	// operation in time. Recoverable: the caller can force-stop the
	// running program and retry.
	ErrDeviceBusy = errors.New("device busy, stop the running program and retry")
	// ErrReconnectRequired means the transport failed mid-operation.
	ErrReconnectRequired = errors.New("transport failed, reconnect required")
	// ErrRootDelete guards against wiping the device filesystem root.
	ErrRootDelete = errors.New("refusing to delete filesystem root")
)

// Runner executes one code payload on the device and captures its output.
// *device.Session satisfies it.
type Runner interface {
	Run(code []byte) device.Outcome
}

// FS performs file operations against a connected board.
type FS struct {
	runner Runner
}

// New creates a device filesystem service on top of an execution runner.
func New(runner Runner) *FS {
	return &FS{runner: runner}
}

// run executes generated code and converts outcome kinds to the error
// taxonomy shared by all file operations.
func (f *FS) run(code string) (string, error) {
	outcome := f.runner.Run([]byte(code))
	switch outcome.Kind {
	case device.OutcomeOK:
		return string(outcome.Output), nil
	case device.OutcomeBusy, device.OutcomeTimeout:
		return "", ErrDeviceBusy
	case device.OutcomeTransportErr:
		return "", fmt.Errorf("%w: %w", ErrReconnectRequired, outcome.Err)
	default:
		return "", fmt.Errorf("unexpected outcome: %s", outcome.Kind)
	}
}

// List returns the entries of a directory on the device, sorted by name.
func (f *FS) List(path string) ([]Entry, error) {
	out, err := f.run(listDirCode(path))
	if err != nil {
		return nil, err
	}
	return parseList(out)
}

// Read returns the exact binary content of a file on the device.
func (f *FS) Read(path string) ([]byte, error) {
	out, err := f.run(readFileCode(path))
	if err != nil {
		return nil, err
	}
	return parseRead(out)
}

// Write stores content to a path on the device, creating or replacing it.
func (f *FS) Write(path string, content []byte) error {
	out, err := f.run(writeFileCode(path, content))
	if err != nil {
		return err
	}
	return parseResult(out)
}

// Delete removes a file or recursively removes a directory. The filesystem
// root is refused before any remote code is generated.
func (f *FS) Delete(path string) error {
	if path == "" || path == "/" {
		return ErrRootDelete
	}

	out, err := f.run(deletePathCode(path))
	if err != nil {
		return err
	}
	return parseResult(out)
}

// InstallLib writes the bundled device-side plotting library to the board
// so user programs can import it.
func (f *FS) InstallLib() error {
	log.Info().Str("path", assets.PlotterLibPath).Msg("installing device plotting library")
	return f.Write(assets.PlotterLibPath, assets.PlotterLib)
}
