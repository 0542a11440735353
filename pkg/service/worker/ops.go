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

package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/PicoPlotProject/picoplot-core/pkg/device"
	"github.com/PicoPlotProject/picoplot-core/pkg/device/devicefs"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Connect opens the device link. An empty port falls back to the
// configured port, then to the sole detected board.
func (w *Worker) Connect(ctx context.Context, port string, baud int) error {
	_, err := w.submit(ctx, func() (any, error) {
		return nil, w.connectLocked(port, baud)
	})
	return err
}

// connectLocked resolves port/baud and establishes the session. Worker
// goroutine only.
func (w *Worker) connectLocked(port string, baud int) error {
	if port == "" {
		port = w.cfg.DevicePort()
	}
	if port == "" {
		detected, err := soleDetectedPort()
		if err != nil {
			return err
		}
		port = detected
	}
	if baud <= 0 {
		baud = w.cfg.BaudRate()
	}

	w.finishRecording()

	if err := w.session.Connect(port, baud); err != nil {
		w.st.SetLastError(err.Error())
		return fmt.Errorf("connect failed: %w", err)
	}

	w.demux.Reset()
	w.st.SetConnected(port, baud)
	return nil
}

// soleDetectedPort picks a port only when the choice is unambiguous: a
// single Pico-looking candidate, or a single candidate of any kind.
func soleDetectedPort() (string, error) {
	ports, err := helpers.ListDevicePorts()
	if err != nil {
		return "", fmt.Errorf("port detection failed: %w", err)
	}

	var picos []string
	for _, p := range ports {
		if p.Pico {
			picos = append(picos, p.Device)
		}
	}
	if len(picos) == 1 {
		return picos[0], nil
	}
	if len(picos) == 0 && len(ports) == 1 {
		return ports[0].Device, nil
	}
	return "", ErrNoPort
}

// Disconnect closes the device link, finishing any active recording.
func (w *Worker) Disconnect(ctx context.Context) error {
	_, err := w.submit(ctx, func() (any, error) {
		w.finishRecording()
		w.session.Disconnect()
		w.demux.Reset()
		w.st.SetDisconnected("")
		return nil, nil
	})
	return err
}

// SetPort persists the preferred port and reconnects if a device was
// connected.
func (w *Worker) SetPort(ctx context.Context, port string) error {
	_, err := w.submit(ctx, func() (any, error) {
		if err := w.cfg.SetDevicePort(port); err != nil {
			return nil, fmt.Errorf("failed to save port selection: %w", err)
		}
		if !w.session.Connected() {
			return nil, nil
		}
		return nil, w.connectLocked(port, 0)
	})
	return err
}

// Run starts a streaming program run. Any previous run is stopped first
// and the stream state reset, so one run's packets never bleed into the
// next. record overrides the auto_record setting when non-nil.
func (w *Worker) Run(ctx context.Context, code []byte, record *bool) error {
	_, err := w.submit(ctx, func() (any, error) {
		if !w.session.Connected() {
			return nil, ErrNotConnected
		}

		if w.st.Running() {
			if err := w.stopProgram(); err != nil {
				return nil, fmt.Errorf("could not stop previous run: %w", err)
			}
		}

		w.demux.Reset()

		outcome := w.session.Start(code)
		switch outcome.Kind {
		case device.OutcomeOK:
		case device.OutcomeBusy:
			// The interpreter did not ack: something is still running.
			// One forced stop, then a single retry.
			log.Warn().Msg("no ack for run, forcing stop and retrying")
			if err := w.session.ForceStop(); err != nil {
				return nil, fmt.Errorf("device busy and stop failed: %w", err)
			}
			outcome = w.session.Start(code)
			if !outcome.OK() {
				return nil, fmt.Errorf("device busy: %w", outcome.Err)
			}
		default:
			w.markDisconnected(outcome.Err.Error())
			return nil, fmt.Errorf("run failed: %w", outcome.Err)
		}

		w.st.SetRunning(true)

		shouldRecord := w.cfg.AutoRecord()
		if record != nil {
			shouldRecord = *record
		}
		if shouldRecord {
			if _, err := w.startRecording(""); err != nil {
				log.Error().Err(err).Msg("auto-record failed to start")
			}
		}

		// Bytes that rode in with the ack are already program output.
		if len(outcome.Output) > 0 {
			w.handleChunk(outcome.Output)
		}
		return nil, nil
	})
	return err
}

// Eval executes code and captures its full output (blocking run).
func (w *Worker) Eval(ctx context.Context, code []byte) (string, error) {
	value, err := w.submit(ctx, func() (any, error) {
		if !w.session.Connected() {
			return nil, ErrNotConnected
		}

		outcome := w.session.Run(code)
		switch outcome.Kind {
		case device.OutcomeOK:
			return string(outcome.Output), nil
		case device.OutcomeBusy:
			return nil, fmt.Errorf("device busy: %w", outcome.Err)
		case device.OutcomeTimeout:
			return string(outcome.Output), fmt.Errorf("output incomplete: %w", outcome.Err)
		default:
			w.markDisconnected(outcome.Err.Error())
			return nil, fmt.Errorf("eval failed: %w", outcome.Err)
		}
	})
	if err != nil {
		return "", err
	}
	output, _ := value.(string)
	return output, nil
}

// Stop interrupts the running program. A NeedsReconnect result triggers
// one automatic reconnect-and-retry before giving up.
func (w *Worker) Stop(ctx context.Context) error {
	_, err := w.submit(ctx, func() (any, error) {
		return nil, w.stopProgram()
	})
	return err
}

// stopProgram implements stop with the single reconnect retry. Worker
// goroutine only.
func (w *Worker) stopProgram() error {
	res := w.session.Stop()

	if res == device.NeedsReconnect {
		port, baud := w.st.Port(), w.cfg.BaudRate()
		log.Warn().Str("port", port).Msg("stop needs reconnect, retrying once")

		w.session.Disconnect()
		if err := w.session.Connect(port, baud); err != nil {
			w.markDisconnected(err.Error())
			return fmt.Errorf("%w: %w", ErrStopFailed, err)
		}

		res = w.session.Stop()
		if res == device.NeedsReconnect {
			w.markDisconnected("device unresponsive during stop")
			return ErrStopFailed
		}
	}

	w.finishRecording()
	w.st.SetRunning(false)

	if res == device.StoppedNotReady {
		log.Warn().Msg("program stopped but raw REPL not confirmed")
	}
	return nil
}

// runFS executes a device filesystem operation on the worker goroutine,
// classifying reconnect-required failures.
func (w *Worker) runFS(ctx context.Context, fn func() (any, error)) (any, error) {
	return w.submit(ctx, func() (any, error) {
		if !w.session.Connected() {
			return nil, ErrNotConnected
		}

		value, err := fn()
		if errors.Is(err, devicefs.ErrReconnectRequired) {
			w.markDisconnected(err.Error())
		}
		return value, err
	})
}

// FileList lists a directory on the device.
func (w *Worker) FileList(ctx context.Context, path string) ([]devicefs.Entry, error) {
	value, err := w.runFS(ctx, func() (any, error) {
		return w.fs.List(path)
	})
	if err != nil {
		return nil, err
	}
	entries, _ := value.([]devicefs.Entry)
	return entries, nil
}

// FileRead returns the binary content of a device file.
func (w *Worker) FileRead(ctx context.Context, path string) ([]byte, error) {
	value, err := w.runFS(ctx, func() (any, error) {
		return w.fs.Read(path)
	})
	if err != nil {
		return nil, err
	}
	content, _ := value.([]byte)
	return content, nil
}

// FileWrite stores content to a device path.
func (w *Worker) FileWrite(ctx context.Context, path string, content []byte) error {
	_, err := w.runFS(ctx, func() (any, error) {
		return nil, w.fs.Write(path, content)
	})
	return err
}

// FileDelete removes a device file or directory tree.
func (w *Worker) FileDelete(ctx context.Context, path string) error {
	_, err := w.runFS(ctx, func() (any, error) {
		return nil, w.fs.Delete(path)
	})
	return err
}

// SyncDir pushes a local project directory to the device.
func (w *Worker) SyncDir(ctx context.Context, localDir, dest string) (int, error) {
	value, err := w.runFS(ctx, func() (any, error) {
		return w.fs.SyncDir(afero.NewOsFs(), localDir, dest)
	})
	if err != nil {
		return 0, err
	}
	n, _ := value.(int)
	return n, nil
}

// InstallLib writes the bundled plotting library onto the device.
func (w *Worker) InstallLib(ctx context.Context) error {
	_, err := w.runFS(ctx, func() (any, error) {
		return nil, w.fs.InstallLib()
	})
	return err
}
