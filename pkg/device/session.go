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

package device

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/device/transport"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

var (
	// ErrNotConnected is returned when an operation requires an open port.
	ErrNotConnected = errors.New("device not connected")
	// ErrTimeout is returned when a read did not complete in its budget.
	ErrTimeout = errors.New("timed out waiting for device")
	// ErrRawModeFailed is the terminal raw mode entry failure. The device
	// cannot be recovered in software; the user must power-cycle it.
	ErrRawModeFailed = errors.New("failed to enter raw REPL after retries, power-cycle the device")
)

// Session owns the serial link to one board and keeps its interpreter in
// raw REPL mode. All operations serialize on an internal guard: the wire is
// a single stream, so interleaved operations would corrupt each other's
// reads.
type Session struct {
	clock    clockwork.Clock
	factory  transport.Factory
	port     transport.Port
	portPath string
	timing   Timing
	baud     int
	mu       syncutil.Mutex
	open     bool
}

// NewSession creates a disconnected session. A nil factory uses real serial
// ports; a nil clock uses the real clock.
func NewSession(factory transport.Factory, clock clockwork.Clock) *Session {
	if factory == nil {
		factory = transport.DefaultFactory
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{
		factory: factory,
		clock:   clock,
		timing:  DefaultTiming(),
	}
}

// SetTiming replaces the timing profile. Only for tests.
func (s *Session) SetTiming(t Timing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timing = t
}

// Connected reports whether the transport is open and raw mode was entered.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// PortPath returns the path of the connected (or last attempted) port.
func (s *Session) PortPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portPath
}

// Connect opens the serial port and brings the interpreter into raw REPL
// mode. Any previous connection is closed first. On raw mode failure the
// port is closed again and ErrRawModeFailed is returned.
func (s *Session) Connect(portPath string, baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		s.closeLocked()
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := s.factory(portPath, mode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", portPath, err)
	}

	s.port = port
	s.portPath = portPath
	s.baud = baud

	if err := s.enterRawModeLocked(); err != nil {
		s.closeLocked()
		return err
	}

	s.open = true
	log.Info().Str("port", portPath).Int("baud", baud).Msg("device connected, raw REPL active")
	return nil
}

// Disconnect sends a best-effort exit-raw-mode byte then unconditionally
// closes the transport. Closing the transport is also what unblocks a stuck
// read from outside, so this must never be skipped on error.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return
	}

	if _, err := s.port.Write([]byte{ctrlExitRaw}); err != nil {
		log.Debug().Err(err).Msg("exit raw REPL write failed during disconnect")
	}

	s.closeLocked()
	log.Info().Str("port", s.portPath).Msg("device disconnected")
}

// closeLocked closes and forgets the port. Caller must hold mu.
func (s *Session) closeLocked() {
	if s.port == nil {
		return
	}
	if err := s.port.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing serial port")
	}
	s.port = nil
	s.open = false
}

// ForceStop interrupts whatever the device is doing and re-enters raw mode
// without a full reconnect.
func (s *Session) ForceStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrNotConnected
	}

	if _, err := s.port.Write([]byte{ctrlInterrupt, ctrlInterrupt}); err != nil {
		return fmt.Errorf("interrupt write failed: %w", err)
	}
	s.clock.Sleep(s.timing.StopSettle)

	s.drainLocked()

	return s.enterRawModeLocked()
}

// enterRawModeLocked drives the interrupt/reset/raw-entry sequence with
// retries. Caller must hold mu. All attempts exhausted is a terminal
// condition: the caller must tell the user to power-cycle the device.
func (s *Session) enterRawModeLocked() error {
	for attempt := 1; attempt <= rawModeAttempts; attempt++ {
		err := s.tryEnterRawLocked()
		if err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("raw REPL entered after retry")
			}
			return nil
		}

		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max", rawModeAttempts).
			Msg("raw REPL entry failed")

		if attempt < rawModeAttempts {
			s.clock.Sleep(s.timing.RetryBackoff)
		}
	}

	log.Error().Msg("device unresponsive, manual reset required")
	return ErrRawModeFailed
}

// tryEnterRawLocked performs one raw mode entry attempt.
func (s *Session) tryEnterRawLocked() error {
	// Interrupt any running program. A single interrupt is not reliable
	// against tight loops, so send a short burst.
	for i := 0; i < interruptBurst; i++ {
		if _, err := s.port.Write([]byte{ctrlInterrupt}); err != nil {
			return fmt.Errorf("interrupt write failed: %w", err)
		}
		s.clock.Sleep(s.timing.InterruptPause)
	}

	if err := s.port.ResetInputBuffer(); err != nil {
		log.Debug().Err(err).Msg("input buffer reset failed")
	}

	if _, err := s.port.Write([]byte{ctrlEnterRaw}); err != nil {
		return fmt.Errorf("raw mode write failed: %w", err)
	}

	resp, err := s.readUntilLocked(nil, rawReplBanner, s.timing.BannerTimeout)
	if err != nil {
		return fmt.Errorf("no raw REPL banner (read %d bytes): %w", len(resp), err)
	}

	// The prompt usually arrives in the same read as the banner.
	tail := resp[bytes.Index(resp, rawReplBanner)+len(rawReplBanner):]
	if _, err := s.readUntilLocked(tail, promptToken, s.timing.PromptTimeout); err != nil {
		return fmt.Errorf("no raw REPL prompt: %w", err)
	}

	return nil
}

// Run submits one code payload and captures all of its output up to the
// paired end-of-transmission marker.
func (s *Session) Run(code []byte) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(code, true)
}

// Start submits a payload and waits only for the acknowledgement token.
// Output is left on the wire for the caller's read loop, except any bytes
// that arrived in the same read as the ack, which are returned in Output.
func (s *Session) Start(code []byte) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(code, false)
}

func (s *Session) submitLocked(code []byte, capture bool) Outcome {
	if s.port == nil {
		return Outcome{Kind: OutcomeTransportErr, Err: ErrNotConnected}
	}

	if _, err := s.port.Write(code); err != nil {
		return s.transportOutcome("code write failed", err)
	}
	if _, err := s.port.Write([]byte{ctrlEOT}); err != nil {
		return s.transportOutcome("submit write failed", err)
	}

	resp, err := s.readUntilLocked(nil, ackToken, s.timing.AckTimeout)
	if errors.Is(err, ErrTimeout) {
		// No ack within budget: the device is likely still running
		// something else. Recoverable by a stop, not a fault.
		return Outcome{Kind: OutcomeBusy, Output: resp, Err: err}
	}
	if err != nil {
		return s.transportOutcome("ack read failed", err)
	}

	// Bytes past the ack already belong to the program's output.
	tail := resp[bytes.Index(resp, ackToken)+len(ackToken):]

	if !capture {
		return Outcome{Kind: OutcomeOK, Output: tail}
	}

	out, err := s.readUntilLocked(tail, outputEnd, s.timing.OutputTimeout)
	if errors.Is(err, ErrTimeout) {
		return Outcome{Kind: OutcomeTimeout, Output: out, Err: err}
	}
	if err != nil {
		return s.transportOutcome("output read failed", err)
	}

	if idx := bytes.Index(out, outputEnd); idx >= 0 {
		out = out[:idx]
	}

	return Outcome{Kind: OutcomeOK, Output: out}
}

func (s *Session) transportOutcome(msg string, err error) Outcome {
	log.Error().Err(err).Msg(msg)
	if transport.IsDisconnectError(err) {
		s.open = false
	}
	return Outcome{Kind: OutcomeTransportErr, Err: fmt.Errorf("%s: %w", msg, err)}
}

// Stop interrupts a running program and soft-reboots the interpreter back
// into raw mode. Interrupt and end-of-transmission are alternated because a
// lone interrupt is ineffective against output-flooding programs: the EOT
// forces any paste buffer to flush, which makes the next interrupt land.
func (s *Session) Stop() StopResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil || !s.open {
		log.Warn().Msg("stop requested with no open port")
		return NeedsReconnect
	}

	for i := 0; i < interruptBurst; i++ {
		if _, err := s.port.Write([]byte{ctrlInterrupt}); err != nil {
			return s.stopTransportFailure("stop interrupt write failed", err, i)
		}
		s.clock.Sleep(s.timing.InterruptPause)

		if _, err := s.port.Write([]byte{ctrlEOT}); err != nil {
			return s.stopTransportFailure("stop submit write failed", err, i)
		}
		s.clock.Sleep(s.timing.InterruptPause)
	}

	if err := s.port.ResetInputBuffer(); err != nil {
		log.Debug().Err(err).Msg("input buffer reset failed during stop")
	}

	// Final EOT triggers the soft reboot; give it time to complete.
	if _, err := s.port.Write([]byte{ctrlEOT}); err != nil {
		return s.stopTransportFailure("soft reset write failed", err, interruptBurst)
	}
	s.clock.Sleep(s.timing.RebootPause)

	if _, err := s.port.Write([]byte{ctrlEnterRaw}); err != nil {
		return s.stopTransportFailure("raw mode write failed", err, interruptBurst)
	}

	resp, err := s.readUntilLocked(nil, rawReplBanner, s.timing.BannerTimeout)
	if err != nil && !errors.Is(err, ErrTimeout) {
		return s.stopTransportFailure("banner read failed", err, interruptBurst)
	}
	if errors.Is(err, ErrTimeout) {
		// One corrective cycle: exit raw mode to clear residual state,
		// then try entering again.
		log.Warn().Msg("no banner after stop, attempting corrective raw mode cycle")

		if _, werr := s.port.Write([]byte{ctrlExitRaw}); werr != nil {
			return s.stopTransportFailure("corrective exit write failed", werr, interruptBurst)
		}
		s.clock.Sleep(s.timing.CorrectivePause)
		if _, werr := s.port.Write([]byte{ctrlEnterRaw}); werr != nil {
			return s.stopTransportFailure("corrective enter write failed", werr, interruptBurst)
		}

		resp, err = s.readUntilLocked(nil, rawReplBanner, s.timing.BannerTimeout)
		if err != nil && !errors.Is(err, ErrTimeout) {
			return s.stopTransportFailure("corrective banner read failed", err, interruptBurst)
		}
		if err != nil {
			log.Warn().Msg("device did not re-enter raw REPL after stop")
			return StoppedNotReady
		}
	}

	// Drain the trailing prompt, which often rides in the banner read; a
	// timeout here is not a failure.
	tail := resp[bytes.Index(resp, rawReplBanner)+len(rawReplBanner):]
	if _, err := s.readUntilLocked(tail, promptToken, s.timing.PromptTimeout); err != nil &&
		!errors.Is(err, ErrTimeout) {
		return s.stopTransportFailure("prompt read failed", err, interruptBurst)
	}

	log.Info().Msg("program stopped, raw REPL ready")
	return Stopped
}

func (s *Session) stopTransportFailure(msg string, err error, step int) StopResult {
	log.Error().Err(err).Int("step", step).Msg(msg)
	if transport.IsDisconnectError(err) {
		s.open = false
	}
	return NeedsReconnect
}

// ReadAvailable performs one short bounded read for the streaming pump. It
// takes the session guard so it cannot interleave with an in-flight
// command.
func (s *Session) ReadAvailable(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return 0, ErrNotConnected
	}

	if err := s.port.SetReadTimeout(s.timing.ReadSlice); err != nil {
		return 0, fmt.Errorf("failed to set read timeout: %w", err)
	}

	n, err := s.port.Read(buf)
	if err != nil {
		if transport.IsDisconnectError(err) {
			s.open = false
		}
		return n, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}

// drainLocked discards whatever input is immediately available.
func (s *Session) drainLocked() {
	if err := s.port.SetReadTimeout(s.timing.ReadSlice); err != nil {
		log.Debug().Err(err).Msg("failed to set read timeout for drain")
		return
	}

	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		if err != nil || n == 0 {
			return
		}
	}
}

// readUntilLocked reads until token appears or timeout elapses, returning
// everything read (prefixed with any already-consumed bytes). Caller must
// hold mu. A timeout returns the partial read plus ErrTimeout; transport
// errors are returned as-is.
func (s *Session) readUntilLocked(prefix, token []byte, timeout time.Duration) ([]byte, error) {
	acc := append([]byte(nil), prefix...)
	if bytes.Contains(acc, token) {
		return acc, nil
	}

	if err := s.port.SetReadTimeout(s.timing.ReadSlice); err != nil {
		return acc, fmt.Errorf("failed to set read timeout: %w", err)
	}

	deadline := s.clock.Now().Add(timeout)
	buf := make([]byte, 256)

	for {
		n, err := s.port.Read(buf)
		if err != nil {
			return acc, fmt.Errorf("read failed: %w", err)
		}
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if bytes.Contains(acc, token) {
				return acc, nil
			}
		}
		if !s.clock.Now().Before(deadline) {
			return acc, ErrTimeout
		}
	}
}
